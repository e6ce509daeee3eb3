package components

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-forms/pkg/render"
)

func noop(*bytes.Buffer, render.Props) error { return nil }

func TestRegistryDescriptorClone(t *testing.T) {
	reg := New()

	if err := reg.Register("test", Descriptor{Renderer: noop, Stylesheets: []string{"/a.css"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	desc, ok := reg.Descriptor("TEST")
	if !ok {
		t.Fatalf("descriptor not found")
	}
	desc.Stylesheets = append(desc.Stylesheets, "/mutated.css")

	original, _ := reg.Descriptor("test")
	if len(original.Stylesheets) != 1 || original.Stylesheets[0] != "/a.css" {
		t.Fatalf("registry descriptor mutated: %#v", original.Stylesheets)
	}
}

func TestRegistryRegisterErrors(t *testing.T) {
	reg := New()
	if err := reg.Register(" ", Descriptor{Renderer: noop}); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := reg.Register("x", Descriptor{}); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
}

func TestRegistryCloneIsolated(t *testing.T) {
	reg := NewDefaultRegistry()
	cloned := reg.Clone()
	cloned.MustRegister("x-map", Descriptor{Renderer: noop})

	if _, ok := reg.Descriptor("x-map"); ok {
		t.Fatalf("clone registration leaked into source registry")
	}
	want := []string{"checkbox", "dropdown", "input", "radio", "range", "textarea", "toggle"}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Fatalf("default names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryStylesheetsDeduplicates(t *testing.T) {
	reg := New()
	reg.MustRegister("input", Descriptor{Renderer: noop, Stylesheets: []string{"/shared.css", "/input.css"}})
	reg.MustRegister("dropdown", Descriptor{Renderer: noop, Stylesheets: []string{"/shared.css", "/select.css", ""}})

	got := reg.Stylesheets([]string{"input", "dropdown", "missing"})
	want := []string{"/shared.css", "/input.css", "/select.css"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stylesheets mismatch (-want +got):\n%s", diff)
	}
}
