package widgets

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
)

func writer(text string) render.ComponentFunc {
	return func(buf *bytes.Buffer, _ render.Props) error {
		buf.WriteString(text)
		return nil
	}
}

func TestResolve_PriorityAndOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register("low", 10, MatchPrefix("x-"), writer("low"))
	reg.Register("high", 90, MatchKind("x-map"), writer("high"))
	reg.Register("tie-first", 50, MatchKind("x-geo"), writer("first"))
	reg.Register("tie-second", 50, MatchKind("x-geo"), writer("second"))

	cases := []struct {
		kind model.Kind
		want string
	}{
		{kind: "x-map", want: "high"},
		{kind: "X-MAP", want: "high"},
		{kind: "x-geo", want: "tie-first"},
		{kind: "x-other", want: "low"},
	}
	for _, tc := range cases {
		got, ok := reg.Resolve(tc.kind)
		if !ok {
			t.Fatalf("expected %q to resolve", tc.kind)
		}
		if got.Name != tc.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tc.kind, got.Name, tc.want)
		}
	}

	if diff := cmp.Diff([]string{"high", "tie-first", "tie-second", "low"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Resolve("x-anything"); ok {
		t.Fatalf("empty registry must not resolve")
	}

	var nilReg *Registry
	if _, ok := nilReg.Resolve("x"); ok {
		t.Fatalf("nil registry must not resolve")
	}
}

func TestRegister_IgnoresIncompleteEntries(t *testing.T) {
	reg := NewRegistry()
	reg.Register("", 1, MatchKind("x"), writer("x"))
	reg.Register("no-matcher", 1, nil, writer("x"))
	reg.Register("no-component", 1, MatchKind("x"), nil)

	if names := reg.Names(); len(names) != 0 {
		t.Fatalf("expected no registrations, got %v", names)
	}
}

func TestResolver_PlugsIntoWalker(t *testing.T) {
	reg := NewRegistry()
	reg.Register("map", 1, MatchKind("x-map"), writer("<map-widget>"))

	form := render.New([]model.Config{
		{ID: "where", Kind: "x-map", ResultPath: "where"},
		{ID: "name", Kind: model.KindText, ResultPath: "name"},
	}, render.WithComponentResolvers(reg.Resolver()))

	result := form.Walk(nil, nil)
	custom := result.Nodes[0].Component
	if custom == nil || !custom.Custom() || custom.Name != "map" {
		t.Fatalf("expected custom map component, got %#v", custom)
	}
	var buf bytes.Buffer
	if err := custom.Render(&buf, render.Props{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "<map-widget>" {
		t.Fatalf("unexpected output %q", buf.String())
	}

	builtin := result.Nodes[1].Component
	if builtin == nil || builtin.Widget != render.WidgetInput {
		t.Fatalf("built-in kinds must not consult the registry, got %#v", builtin)
	}
}
