package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
)

type recorded struct {
	id      string
	payload render.Payload
}

func recorder(events *[]recorded) render.Handler {
	return func(cfg model.Config, payload render.Payload) {
		*events = append(*events, recorded{id: cfg.ID, payload: payload})
	}
}

func TestBindings_ChangeDerivesStore(t *testing.T) {
	var events []recorded
	form := render.New([]model.Config{
		{ID: "email", Kind: model.KindEmail, ResultPath: "owner.email"},
	})
	store := model.Store{"owner": map[string]any{"email": "old@example.com"}, "keep": 1}

	result := form.Walk(store, render.Callbacks{render.EventChange: recorder(&events)})
	node := result.Nodes[0]

	if !node.Bindings.Fire(render.EventChange, "new@example.com", "extra") {
		t.Fatalf("expected change handler bound")
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	got := events[0]
	if got.id != "email" {
		t.Fatalf("expected config of the originating field, got %q", got.id)
	}
	want := model.Store{"owner": map[string]any{"email": "new@example.com"}, "keep": 1}
	if diff := cmp.Diff(want, got.payload.Store); diff != "" {
		t.Fatalf("derived store mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"extra"}, got.payload.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if store["owner"].(map[string]any)["email"] != "old@example.com" {
		t.Fatalf("caller store must not be mutated")
	}
}

func TestBindings_UnsetRemovesValue(t *testing.T) {
	var events []recorded
	form := render.New([]model.Config{{ID: "a", Kind: model.KindText, ResultPath: "a"}})
	result := form.Walk(model.Store{"a": "x", "b": "y"}, render.Callbacks{render.EventChange: recorder(&events)})

	result.Nodes[0].Bindings.Fire(render.EventChange, render.Unset)

	if diff := cmp.Diff(model.Store{"b": "y"}, events[0].payload.Store); diff != "" {
		t.Fatalf("derived store mismatch (-want +got):\n%s", diff)
	}
}

func TestBindings_BlurAndFocusPassThrough(t *testing.T) {
	var events []recorded
	form := render.New([]model.Config{{ID: "a", Kind: model.KindText, ResultPath: "a"}})
	result := form.Walk(nil, render.Callbacks{
		render.EventBlur:   recorder(&events),
		render.EventFocus:  recorder(&events),
		render.EventChange: nil,
	})
	bindings := result.Nodes[0].Bindings

	if bindings.Has(render.EventChange) {
		t.Fatalf("nil handlers must not be bound")
	}
	if bindings.Fire(render.EventChange, "x") {
		t.Fatalf("expected Fire to report unbound change")
	}
	bindings.Fire(render.EventBlur, "v")
	bindings.Fire(render.EventFocus, nil)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, evt := range events {
		if evt.payload.Store != nil {
			t.Fatalf("%s events must not derive a store", evt.payload.Event)
		}
	}
	if events[0].payload.Event != render.EventBlur || events[0].payload.Value != "v" {
		t.Fatalf("unexpected blur payload %#v", events[0].payload)
	}
}

func TestBindings_ValueResolversFirstMatchWins(t *testing.T) {
	var events []recorded
	upper := func(cfg model.Config, value any, store model.Store) (model.Store, bool) {
		if cfg.ID != "code" {
			return nil, false
		}
		return model.Store{"code": "RESOLVED"}, true
	}
	never := func(model.Config, any, model.Store) (model.Store, bool) {
		t.Fatalf("later resolvers must not run once one matched")
		return nil, false
	}
	form := render.New([]model.Config{
		{ID: "code", Kind: model.KindText, ResultPath: "code"},
		{ID: "plain", Kind: model.KindText, ResultPath: "plain"},
	}, render.WithValueResolvers(upper))
	form2 := render.New([]model.Config{{ID: "code", Kind: model.KindText, ResultPath: "code"}}, render.WithValueResolvers(upper, never))

	result := form.Walk(nil, render.Callbacks{render.EventChange: recorder(&events)})
	result.Nodes[0].Bindings.Fire(render.EventChange, "abc")
	result.Nodes[1].Bindings.Fire(render.EventChange, "abc")

	if diff := cmp.Diff(model.Store{"code": "RESOLVED"}, events[0].payload.Store); diff != "" {
		t.Fatalf("resolver store mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Store{"plain": "abc"}, events[1].payload.Store); diff != "" {
		t.Fatalf("fallback store mismatch (-want +got):\n%s", diff)
	}

	form2.Walk(nil, render.Callbacks{render.EventChange: recorder(&events)}).Nodes[0].Bindings.Fire(render.EventChange, "x")
}

func TestBindings_NativeEventsSkipDerivation(t *testing.T) {
	var events []recorded
	form := render.New([]model.Config{{ID: "a", Kind: model.KindText, ResultPath: "a"}}, render.WithNativeEvents())
	result := form.Walk(nil, render.Callbacks{render.EventChange: recorder(&events)})

	result.Nodes[0].Bindings.Fire(render.EventChange, "raw")

	if events[0].payload.Store != nil {
		t.Fatalf("native events must not derive a store")
	}
	if events[0].payload.Value != "raw" {
		t.Fatalf("expected raw value, got %v", events[0].payload.Value)
	}
}

func TestBindings_NoCallbacks(t *testing.T) {
	form := render.New([]model.Config{{ID: "a", Kind: model.KindText, ResultPath: "a"}})
	result := form.Walk(nil, nil)
	if result.Nodes[0].Bindings != nil {
		t.Fatalf("expected nil bindings without callbacks")
	}
	if result.Nodes[0].Bindings.Fire(render.EventChange, "x") {
		t.Fatalf("Fire on nil bindings must report false")
	}
}
