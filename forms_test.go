package forms_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	forms "github.com/goliatone/go-forms"
	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
)

const doc = `
fields:
  - id: email
    type: email
    resultPath: account.email
    label: Email
    required: Enter an email
  - id: bio
    type: textarea
    resultPath: account.bio
`

func TestLoadRenderValidate(t *testing.T) {
	configs, err := forms.LoadFS(fstest.MapFS{"form.yaml": {Data: []byte(doc)}}, "form.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	got := forms.Validate(configs, model.Store{})
	want := []forms.FieldError{{ID: "email", Error: "Enter an email"}, {ID: "bio"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	registry, err := forms.NewRegistry(forms.Setup{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if diff := cmp.Diff([]string{"tui", "vanilla"}, registry.List()); diff != "" {
		t.Fatalf("renderers mismatch (-want +got):\n%s", diff)
	}

	html, err := forms.Render(context.Background(), registry, "vanilla", configs, nil, true, render.RenderOptions{Action: "/signup"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(html)
	for _, fragment := range []string{`action="/signup"`, `role="alert">Enter an email</span>`, `<textarea`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("output missing %q:\n%s", fragment, out)
		}
	}

	payload, err := forms.Render(context.Background(), registry, "tui", configs, model.Store{"account": map[string]any{"bio": "hi"}}, false, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render tui: %v", err)
	}
	if string(payload) != `{"account":{"bio":"hi"}}` {
		t.Fatalf("unexpected tui payload %s", payload)
	}

	if _, err := forms.Render(context.Background(), registry, "preact", configs, nil, false, render.RenderOptions{}); err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := forms.EmbeddedTemplates().Open("templates/form.tmpl"); err != nil {
		t.Fatalf("expected embedded form template: %v", err)
	}
}
