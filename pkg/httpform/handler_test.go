package httpform_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-forms/pkg/httpform"
	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
	"github.com/goliatone/go-forms/pkg/renderers/vanilla"
	"github.com/goliatone/go-forms/pkg/testsupport"
)

func newHandler(t *testing.T, store *httpform.MemoryStore, options ...httpform.Option) *httpform.Handler {
	t.Helper()
	renderer, err := vanilla.New(vanilla.WithIDGenerator(func() string { return "x" }))
	if err != nil {
		t.Fatalf("vanilla: %v", err)
	}
	options = append([]httpform.Option{httpform.WithStore(store)}, options...)
	h, err := httpform.New(testsupport.SampleConfigs(), renderer, options...)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return h
}

func post(t *testing.T, h http.Handler, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func loadStore(t *testing.T, store *httpform.MemoryStore) model.Store {
	t.Helper()
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return got
}

func TestGetRendersCurrentStore(t *testing.T) {
	h := newHandler(t, httpform.NewMemoryStore(testsupport.SampleStore()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("content type: %q", got)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`action="/profile"`,
		`name="profile.name" aria-required="true" value="Ada"`,
		`<option value="es" selected>Spain</option>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, `class="form-error"`) {
		t.Fatalf("GET must not surface errors:\n%s", body)
	}
}

func TestPostSavesValidSubmission(t *testing.T) {
	store := httpform.NewMemoryStore(nil)
	var submitted model.Store
	h := newHandler(t, store, httpform.WithOnSubmit(func(_ context.Context, values model.Store) (string, error) {
		submitted = values
		return "/done", nil
	}))

	rec := post(t, h, url.Values{
		"profile.name":            {"Grace"},
		"profile.subscribed":      {"false", "true"},
		"profile.address.country": {"pt"},
		"_action":                 {"submit"},
	})

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/done" {
		t.Fatalf("expected redirect to /done, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	want := model.Store{
		"profile": map[string]any{
			"name":       "Grace",
			"subscribed": true,
			"address":    map[string]any{"country": "pt"},
		},
	}
	if diff := cmp.Diff(want, submitted); diff != "" {
		t.Fatalf("submitted mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, loadStore(t, store)); diff != "" {
		t.Fatalf("saved mismatch (-want +got):\n%s", diff)
	}
}

func TestPostInvalidRerendersWithErrors(t *testing.T) {
	store := httpform.NewMemoryStore(nil)
	called := false
	h := newHandler(t, store, httpform.WithOnSubmit(func(context.Context, model.Store) (string, error) {
		called = true
		return "", nil
	}))

	rec := post(t, h, url.Values{"profile.name": {""}, "profile.subscribed": {"false"}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<span class="form-error" role="alert">Required Value</span>`) {
		t.Fatalf("expected required error in body:\n%s", rec.Body.String())
	}
	if called {
		t.Fatalf("submit hook must not run for invalid forms")
	}
	if diff := cmp.Diff(model.Store{}, loadStore(t, store)); diff != "" {
		t.Fatalf("invalid submission was saved (-want +got):\n%s", diff)
	}
}

func TestPostCancelSkipsValidation(t *testing.T) {
	store := httpform.NewMemoryStore(testsupport.SampleStore())
	var cancelled model.Store
	h := newHandler(t, store,
		httpform.WithOnCancel(func(_ context.Context, values model.Store) (string, error) {
			cancelled = values
			return "/back", nil
		}),
		httpform.WithOnSubmit(func(context.Context, model.Store) (string, error) {
			t.Errorf("submit must not run on cancel")
			return "", nil
		}),
	)

	rec := post(t, h, url.Values{"profile.name": {""}, "_action": {"cancel"}})

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/back" {
		t.Fatalf("expected redirect to /back, got %d", rec.Code)
	}
	if _, ok := cancelled["profile"].(map[string]any)["name"]; ok {
		t.Fatalf("cancel hook should see the bound store without the cleared name: %#v", cancelled)
	}
	if diff := cmp.Diff(testsupport.SampleStore(), loadStore(t, store)); diff != "" {
		t.Fatalf("cancel must not save (-want +got):\n%s", diff)
	}
}

func TestPostMapsPayloadErrors(t *testing.T) {
	h := newHandler(t, httpform.NewMemoryStore(nil), httpform.WithOnSubmit(func(context.Context, model.Store) (string, error) {
		return "", &httpform.PayloadError{Errors: map[string][]string{
			"/profile/name": {"already taken"},
			"quota":         {"plan limit reached"},
		}}
	}))

	rec := post(t, h, url.Values{"profile.name": {"Grace"}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<span class="form-error form-error-external" role="alert">already taken</span>`) {
		t.Fatalf("expected field error:\n%s", body)
	}
	if !strings.Contains(body, `<li>plan limit reached</li>`) {
		t.Fatalf("expected form error:\n%s", body)
	}
}

func TestPostSubmitFailure(t *testing.T) {
	h := newHandler(t, httpform.NewMemoryStore(nil), httpform.WithOnSubmit(func(context.Context, model.Store) (string, error) {
		return "", errors.New("db down")
	}))
	rec := post(t, h, url.Values{"profile.name": {"Grace"}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestPostFiresCallbacksAndNativeEvents(t *testing.T) {
	var changed []string
	callbacks := render.Callbacks{
		render.EventChange: func(cfg model.Config, _ render.Payload) {
			changed = append(changed, cfg.ID)
		},
	}
	store := httpform.NewMemoryStore(nil)
	h := newHandler(t, store, httpform.WithCallbacks(callbacks), httpform.WithFormOptions(render.WithNativeEvents()))

	rec := post(t, h, url.Values{"profile.name": {"Grace"}, "profile.address.country": {"es"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d\n%s", rec.Code, rec.Body.String())
	}
	if diff := cmp.Diff([]string{"name", "country"}, changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}
	want := model.Store{"profile": map[string]any{"name": "Grace", "address": map[string]any{"country": "es"}}}
	if diff := cmp.Diff(want, loadStore(t, store)); diff != "" {
		t.Fatalf("saved mismatch (-want +got):\n%s", diff)
	}
}

func TestPostDecodesWidgets(t *testing.T) {
	configs := []model.Config{
		{ID: "age", Kind: model.KindNumber, ResultPath: "age"},
		{ID: "level", Kind: model.KindRange, ResultPath: "level"},
		{ID: "tags", Kind: model.KindCheckbox, ResultPath: "tags", Options: []model.Option{{Value: "go"}, {Value: "js"}}},
		{ID: "agree", Kind: model.KindCheckbox, ResultPath: "agree"},
		{ID: "plan", Kind: model.KindText, ResultPath: "plan", IsHidden: func(store model.Store) bool {
			return store["agree"] != true
		}},
	}
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("vanilla: %v", err)
	}
	store := httpform.NewMemoryStore(nil)
	h, err := httpform.New(configs, renderer, httpform.WithStore(store))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	rec := post(t, h, url.Values{
		"age":   {"42"},
		"level": {"abc"},
		"agree": {"false", "on"},
		"plan":  {"pro"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	want := model.Store{
		"age":   42.0,
		"level": "abc",
		"agree": true,
		"plan":  "pro",
	}
	if diff := cmp.Diff(want, loadStore(t, store)); diff != "" {
		t.Fatalf("saved mismatch (-want +got):\n%s", diff)
	}
}

func TestPostRequiredCheckboxGroupWithNothingChecked(t *testing.T) {
	configs := []model.Config{{
		ID:         "tags",
		Kind:       model.KindCheckbox,
		ResultPath: "tags",
		Required:   model.Require("Pick at least one"),
		Options:    []model.Option{{Value: "go"}, {Value: "js"}},
	}}
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("vanilla: %v", err)
	}
	store := httpform.NewMemoryStore(model.Store{"tags": []any{"go"}})
	h, err := httpform.New(configs, renderer, httpform.WithStore(store))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	rec := post(t, h, url.Values{})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Pick at least one") {
		t.Fatalf("expected required error in body:\n%s", rec.Body.String())
	}
	if diff := cmp.Diff(model.Store{"tags": []any{"go"}}, loadStore(t, store)); diff != "" {
		t.Fatalf("invalid submission was saved (-want +got):\n%s", diff)
	}

	rec = post(t, h, url.Values{"tags": {"js"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if diff := cmp.Diff(model.Store{"tags": []any{"js"}}, loadStore(t, store)); diff != "" {
		t.Fatalf("saved mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestOptionsAndMethods(t *testing.T) {
	h := newHandler(t, httpform.NewMemoryStore(nil),
		httpform.WithRenderOptions(render.RenderOptions{Method: "PATCH"}),
		httpform.WithRequestOptions(func(r *http.Request, opts *render.RenderOptions) {
			opts.Hidden = render.MergeHiddenFields(opts.Hidden, render.CSRFToken("_csrf", "tok-"+r.URL.Query().Get("s")))
		}),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile?s=1", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`<input type="hidden" name="_method" value="PATCH">`,
		`<input type="hidden" name="_csrf" value="tok-1">`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/profile", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") == "" {
		t.Fatalf("expected 405 with Allow header, got %d", rec.Code)
	}
}

func TestNewRequiresRenderer(t *testing.T) {
	if _, err := httpform.New(nil, nil); err == nil {
		t.Fatalf("expected error without renderer")
	}
}
