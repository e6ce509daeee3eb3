package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-forms/pkg/model"
)

// SampleConfigs returns a small form exercising a required text input, a
// toggle and a group with a dropdown. Result paths are nested under
// "profile" so path handling is exercised too.
func SampleConfigs() []model.Config {
	return []model.Config{
		{
			ID:         "name",
			Kind:       model.KindText,
			ResultPath: "profile.name",
			Label:      "Name",
			Required:   model.Require(""),
		},
		{
			ID:         "subscribed",
			Kind:       model.KindToggle,
			ResultPath: "profile.subscribed",
			Label:      "Subscribe",
		},
		{
			ID:    "address",
			Kind:  model.KindGroup,
			Label: "Address",
			Elements: []model.Config{
				{
					ID:         "country",
					Kind:       model.KindDropdown,
					ResultPath: "profile.address.country",
					Label:      "Country",
					Options: []model.Option{
						{Value: "es", Label: "Spain"},
						{Value: "pt", Label: "Portugal"},
					},
				},
			},
		},
	}
}

// SampleStore returns a store that satisfies SampleConfigs.
func SampleStore() model.Store {
	return model.Store{
		"profile": map[string]any{
			"name":       "Ada",
			"subscribed": true,
			"address":    map[string]any{"country": "es"},
		},
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
