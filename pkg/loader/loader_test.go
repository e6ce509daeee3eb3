package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-forms/pkg/loader"
	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
	"github.com/goliatone/go-forms/pkg/visibility"
)

func adult(value any) string {
	age, _ := value.(float64)
	if age < 18 {
		return "must be an adult"
	}
	return ""
}

var validators = map[string]model.Validator{"adult": adult}

var ignoreFuncs = cmpopts.IgnoreFields(model.Config{}, "IsHidden", "Validation")

func wantProfile() []model.Config {
	return []model.Config{
		{
			ID:         "name",
			Kind:       model.KindText,
			ResultPath: "profile.name",
			Label:      "Name",
			Required:   model.Require("Tell us your name"),
			Help:       "Shown on <b>invoices</b>",
			Attributes: map[string]string{"autocomplete": "name"},
		},
		{
			ID:         "age",
			Kind:       model.KindNumber,
			ResultPath: "profile.age",
			Label:      "Age",
			Min:        "0",
			Max:        "130",
		},
		{
			ID:    "company",
			Kind:  model.KindGroup,
			Label: "Company",
			Elements: []model.Config{
				{
					ID:         "vat",
					Kind:       model.KindText,
					ResultPath: "profile.company.vat",
					Label:      "VAT number",
					Required:   model.Require(""),
				},
				{
					ID:         "size",
					Kind:       model.KindDropdown,
					ResultPath: "profile.company.size",
					Options: []model.Option{
						{Value: "s", Label: "Small"},
						{Value: "l", Label: "Large"},
					},
				},
			},
		},
	}
}

func TestLoadFSFormats(t *testing.T) {
	for _, name := range []string{"profile.json", "profile.yaml", "profile.toml"} {
		t.Run(name, func(t *testing.T) {
			configs, err := loader.LoadFS(os.DirFS("testdata"), name, loader.WithValidators(validators))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(wantProfile(), configs, ignoreFuncs); diff != "" {
				t.Fatalf("configs mismatch (-want +got):\n%s", diff)
			}

			if configs[1].Validation == nil {
				t.Fatalf("expected adult validator to be bound")
			}
			if got := configs[1].Validation(12.0); got != "must be an adult" {
				t.Fatalf("validator result: %q", got)
			}

			vat := configs[2].Elements[0]
			if vat.IsHidden == nil {
				t.Fatalf("expected hiddenWhen predicate")
			}
			if !vat.Hidden(model.Store{}) {
				t.Fatalf("vat should be hidden for non-company profiles")
			}
			if vat.Hidden(model.Store{"profile": map[string]any{"kind": "company"}}) {
				t.Fatalf("vat should be visible for companies")
			}
		})
	}
}

func TestLoadFileDetectsFormat(t *testing.T) {
	configs, err := loader.LoadFile(filepath.Join("testdata", "profile.yaml"), loader.WithValidators(validators))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(configs) != 3 {
		t.Fatalf("expected 3 configs, got %d", len(configs))
	}

	if _, err := loader.LoadFile("form.ini"); !errors.Is(err, loader.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := loader.LoadFile(filepath.Join("testdata", "missing.json")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestLoadAutoDetect(t *testing.T) {
	cases := map[string]string{
		"json": `[{"id": "a", "resultPath": "a"}]`,
		"yaml": "- id: a\n  resultPath: a\n",
		"toml": "[[fields]]\nid = \"a\"\nresultPath = \"a\"\n",
	}
	want := []model.Config{{ID: "a", Kind: model.KindText, ResultPath: "a"}}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			configs, err := loader.Load([]byte(doc), loader.FormatAuto)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(want, configs, ignoreFuncs); diff != "" {
				t.Fatalf("configs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadNumericBounds(t *testing.T) {
	cases := []struct {
		name   string
		format loader.Format
		doc    string
	}{
		{name: "json numbers", format: loader.FormatJSON, doc: `[{"id": "r", "type": "range", "resultPath": "r", "min": 0, "max": 10, "step": 0.5}]`},
		{name: "json strings", format: loader.FormatJSON, doc: `[{"id": "r", "type": "range", "resultPath": "r", "min": "0", "max": "10", "step": "0.5"}]`},
		{name: "yaml", format: loader.FormatYAML, doc: "- id: r\n  type: range\n  resultPath: r\n  min: 0\n  max: 10\n  step: 0.5\n"},
		{name: "toml", format: loader.FormatTOML, doc: "[[fields]]\nid = \"r\"\ntype = \"range\"\nresultPath = \"r\"\nmin = 0\nmax = 10\nstep = 0.5\n"},
	}
	want := []model.Config{{ID: "r", Kind: model.KindRange, ResultPath: "r", Min: "0", Max: "10", Step: "0.5"}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			configs, err := loader.Load([]byte(tc.doc), tc.format)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(want, configs, ignoreFuncs); diff != "" {
				t.Fatalf("configs mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := loader.Load([]byte(`[{"id": "r", "resultPath": "r", "min": [1]}]`), loader.FormatJSON); err == nil {
		t.Fatalf("expected error for a list bound")
	}
}

func TestLoadRequiredValues(t *testing.T) {
	doc := `[
		{"id": "a", "resultPath": "a", "required": false},
		{"id": "b", "resultPath": "b", "required": true},
		{"id": "c", "resultPath": "c", "required": "Please fill"}
	]`
	configs, err := loader.Load([]byte(doc), loader.FormatJSON)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	form := render.New(configs)
	got := form.Walk(model.Store{}, nil).Errors
	want := []render.FieldError{
		{ID: "a"},
		{ID: "b", Error: model.DefaultRequiredMessage},
		{ID: "c", Error: "Please fill"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	_, err = loader.Load([]byte(`[{"id": "d", "resultPath": "d", "required": 1}]`), loader.FormatJSON)
	if err == nil || !strings.Contains(err.Error(), `fields[0] ("d")`) {
		t.Fatalf("expected required type error naming the field, got %v", err)
	}
}

func TestLoadUnknownValidator(t *testing.T) {
	doc := `{"fields": [{"id": "g", "type": "group", "elements": [{"id": "x", "resultPath": "x", "validator": "nope"}]}]}`
	_, err := loader.Load([]byte(doc), loader.FormatJSON)
	if !errors.Is(err, loader.ErrUnknownValidator) {
		t.Fatalf("expected ErrUnknownValidator, got %v", err)
	}
	if !strings.Contains(err.Error(), `fields[0].elements[0] ("x")`) {
		t.Fatalf("error should name the field: %v", err)
	}
}

func TestLoadHiddenWhen(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		_, err := loader.Load([]byte(`[{"id": "a", "resultPath": "a", "hiddenWhen": "a =="}]`), loader.FormatJSON)
		if err == nil || !strings.Contains(err.Error(), "hiddenWhen") {
			t.Fatalf("expected hiddenWhen error, got %v", err)
		}
	})

	t.Run("extras", func(t *testing.T) {
		configs, err := loader.Load(
			[]byte(`[{"id": "a", "resultPath": "a", "hiddenWhen": "!extras.admin"}]`),
			loader.FormatJSON,
			loader.WithExtras(map[string]any{"admin": false}),
		)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if !configs[0].Hidden(model.Store{}) {
			t.Fatalf("expected field hidden for non-admins")
		}
	})

	t.Run("custom evaluator", func(t *testing.T) {
		var seen string
		evaluator := visibility.EvaluatorFunc(func(rule string, _ visibility.Context) (bool, error) {
			seen = rule
			return true, nil
		})
		configs, err := loader.Load(
			[]byte(`[{"id": "a", "resultPath": "a", "hiddenWhen": "roles contains admin"}]`),
			loader.FormatJSON,
			loader.WithEvaluator(evaluator),
		)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if !configs[0].Hidden(nil) || seen != "roles contains admin" {
			t.Fatalf("custom evaluator not used, saw %q", seen)
		}
	})
}

func TestLoadKeepsMissingResultPaths(t *testing.T) {
	configs, err := loader.Load([]byte(`[{"id": "a", "resultPath": "a"}, {"id": "b"}]`), loader.FormatJSON)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	result := render.New(configs).Walk(nil, nil)
	if len(result.ConfigErrors) != 1 || result.ConfigErrors[0].Location != "config[1]" {
		t.Fatalf("expected construction error at config[1], got %#v", result.ConfigErrors)
	}
}

func TestLoadRejectsEmptyDocument(t *testing.T) {
	if _, err := loader.Load([]byte("  \n"), loader.FormatYAML); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := loader.Load([]byte("{"), loader.FormatAuto); err == nil {
		t.Fatalf("expected parse error")
	}
}
