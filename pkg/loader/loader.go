// Package loader builds form configs from JSON, YAML or TOML documents.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/visibility"
	"github.com/goliatone/go-forms/pkg/visibility/expr"
)

// Format names a document encoding.
type Format string

const (
	// FormatAuto sniffs the encoding: JSON first, then TOML, then YAML.
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	// ErrUnknownValidator is wrapped when a field names a validator that was
	// not supplied through WithValidators.
	ErrUnknownValidator = errors.New("loader: unknown validator")
	// ErrUnsupportedFormat is returned for file extensions the loader cannot
	// decode.
	ErrUnsupportedFormat = errors.New("loader: unsupported format")
)

// Option customises a load.
type Option func(*config)

type config struct {
	validators map[string]model.Validator
	evaluator  visibility.Evaluator
	custom     bool
	extras     map[string]any
}

// WithValidators registers the named validators fields may reference via
// `validator`. Later calls add to or replace earlier names.
func WithValidators(validators map[string]model.Validator) Option {
	return func(cfg *config) {
		if cfg.validators == nil {
			cfg.validators = make(map[string]model.Validator, len(validators))
		}
		for name, fn := range validators {
			cfg.validators[strings.TrimSpace(name)] = fn
		}
	}
}

// WithEvaluator replaces the expression evaluator used for `hiddenWhen`.
// Rules are not syntax-checked at load time when a custom evaluator is set.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(cfg *config) {
		if evaluator != nil {
			cfg.evaluator = evaluator
			cfg.custom = true
		}
	}
}

// WithExtras exposes values to hide rules under the `extras.` prefix.
func WithExtras(extras map[string]any) Option {
	return func(cfg *config) {
		if cfg.extras == nil {
			cfg.extras = make(map[string]any, len(extras))
		}
		for key, value := range extras {
			cfg.extras[key] = value
		}
	}
}

type document struct {
	Fields []fieldFile `json:"fields" yaml:"fields" toml:"fields"`
}

type fieldFile struct {
	ID                string            `json:"id" yaml:"id" toml:"id"`
	Type              string            `json:"type" yaml:"type" toml:"type"`
	ResultPath        string            `json:"resultPath" yaml:"resultPath" toml:"resultPath"`
	Required          any               `json:"required" yaml:"required" toml:"required"`
	Validator         string            `json:"validator" yaml:"validator" toml:"validator"`
	HiddenWhen        string            `json:"hiddenWhen" yaml:"hiddenWhen" toml:"hiddenWhen"`
	InstantValidation bool              `json:"instantValidation" yaml:"instantValidation" toml:"instantValidation"`
	ClassName         string            `json:"className" yaml:"className" toml:"className"`
	Label             string            `json:"label" yaml:"label" toml:"label"`
	Placeholder       string            `json:"placeholder" yaml:"placeholder" toml:"placeholder"`
	Help              string            `json:"help" yaml:"help" toml:"help"`
	Options           []model.Option    `json:"options" yaml:"options" toml:"options"`
	Min               bound             `json:"min" yaml:"min" toml:"min"`
	Max               bound             `json:"max" yaml:"max" toml:"max"`
	Step              bound             `json:"step" yaml:"step" toml:"step"`
	Rows              int               `json:"rows" yaml:"rows" toml:"rows"`
	Attributes        map[string]string `json:"attributes" yaml:"attributes" toml:"attributes"`
	Elements          []fieldFile       `json:"elements" yaml:"elements" toml:"elements"`
}

// bound is a numeric attribute (min, max, step) written either as a number
// or as a string such as "any" or a date.
type bound string

func (b *bound) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*b = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*b = bound(text)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("bound must be a number or string: %w", err)
	}
	*b = bound(n.String())
	return nil
}

func (b *bound) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: bound must be a number or string", node.Line)
	}
	if node.Tag == "!!null" {
		*b = ""
		return nil
	}
	*b = bound(node.Value)
	return nil
}

func (b *bound) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*b = bound(v)
	case int64:
		*b = bound(strconv.FormatInt(v, 10))
	case float64:
		*b = bound(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return fmt.Errorf("bound must be a number or string, got %T", value)
	}
	return nil
}

// Load decodes data in the given format and builds the configs it
// describes. JSON and YAML documents may also be a bare list of fields.
func Load(data []byte, format Format, options ...Option) ([]model.Config, error) {
	cfg := config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.evaluator == nil {
		cfg.evaluator = expr.New()
	}

	fields, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	return cfg.build(fields, "fields")
}

// LoadFile reads path and picks the format from its extension.
func LoadFile(path string, options ...Option) ([]model.Config, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	configs, err := Load(data, format, options...)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return configs, nil
}

// LoadFS reads name from fsys and picks the format from its extension.
func LoadFS(fsys fs.FS, name string, options ...Option) ([]model.Config, error) {
	if fsys == nil {
		return nil, errors.New("loader: filesystem is nil")
	}
	format, err := FormatFor(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", name, err)
	}
	configs, err := Load(data, format, options...)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, name)
	}
	return configs, nil
}

// FormatFor maps a file extension to a Format.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func decode(data []byte, format Format) ([]fieldFile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("loader: document is empty")
	}

	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	case FormatTOML:
		return decodeTOML(data)
	case FormatAuto:
		if fields, err := decodeJSON(data); err == nil {
			return fields, nil
		}
		if fields, err := decodeTOML(data); err == nil {
			return fields, nil
		}
		if fields, err := decodeYAML(data); err == nil {
			return fields, nil
		}
		return nil, errors.New("loader: parse document: invalid JSON, TOML or YAML")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func decodeJSON(data []byte) ([]fieldFile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var fields []fieldFile
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("loader: parse json: %w", err)
		}
		return fields, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("loader: parse json: %w", err)
	}
	return doc.Fields, nil
}

func decodeYAML(data []byte) ([]fieldFile, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("loader: parse yaml: %w", err)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var fields []fieldFile
		if err := node.Decode(&fields); err != nil {
			return nil, fmt.Errorf("loader: parse yaml: %w", err)
		}
		return fields, nil
	}
	var doc document
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("loader: parse yaml: %w", err)
	}
	return doc.Fields, nil
}

func decodeTOML(data []byte) ([]fieldFile, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loader: parse toml: %w", err)
	}
	return doc.Fields, nil
}

func (c config) build(fields []fieldFile, location string) ([]model.Config, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]model.Config, 0, len(fields))
	for i, field := range fields {
		loc := fmt.Sprintf("%s[%d]", location, i)
		built, err := c.field(field, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, built)
	}
	return out, nil
}

func (c config) field(field fieldFile, loc string) (model.Config, error) {
	id := strings.TrimSpace(field.ID)
	where := loc
	if id != "" {
		where = fmt.Sprintf("%s (%q)", loc, id)
	}

	kind := model.Kind(field.Type).Normalize()
	if kind == "" {
		kind = model.KindText
		if len(field.Elements) > 0 {
			kind = model.KindGroup
		}
	}

	required, err := parseRequired(field.Required)
	if err != nil {
		return model.Config{}, fmt.Errorf("loader: %s: %w", where, err)
	}

	out := model.Config{
		ID:                id,
		Kind:              kind,
		ResultPath:        strings.TrimSpace(field.ResultPath),
		Required:          required,
		InstantValidation: field.InstantValidation,
		ClassName:         strings.TrimSpace(field.ClassName),
		Label:             field.Label,
		Placeholder:       field.Placeholder,
		Help:              sanitizeHelp(field.Help),
		Options:           append([]model.Option(nil), field.Options...),
		Min:               strings.TrimSpace(string(field.Min)),
		Max:               strings.TrimSpace(string(field.Max)),
		Step:              strings.TrimSpace(string(field.Step)),
		Rows:              field.Rows,
		Attributes:        cloneAttributes(field.Attributes),
	}
	if len(out.Options) == 0 {
		out.Options = nil
	}

	if name := strings.TrimSpace(field.Validator); name != "" {
		fn, ok := c.validators[name]
		if !ok || fn == nil {
			return model.Config{}, fmt.Errorf("%w %q for %s", ErrUnknownValidator, name, where)
		}
		out.Validation = fn
	}

	if rule := strings.TrimSpace(field.HiddenWhen); rule != "" {
		if !c.custom {
			if _, err := expr.Compile(rule); err != nil {
				return model.Config{}, fmt.Errorf("loader: %s: hiddenWhen: %w", where, err)
			}
		}
		out.IsHidden = visibility.Predicate(c.evaluator, rule, c.extras)
	}

	if kind == model.KindGroup {
		elements, err := c.build(field.Elements, loc+".elements")
		if err != nil {
			return model.Config{}, err
		}
		out.Elements = elements
	}

	return out, nil
}

// parseRequired accepts true, false, a message string or nothing.
func parseRequired(raw any) (*model.Required, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		if !v {
			return nil, nil
		}
		return model.Require(""), nil
	case string:
		return model.Require(strings.TrimSpace(v)), nil
	default:
		return nil, fmt.Errorf("required must be a boolean or a message, got %T", raw)
	}
}

func cloneAttributes(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	helpPolicyOnce sync.Once
	helpPolicy     *bluemonday.Policy
)

func sanitizeHelp(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	helpPolicyOnce.Do(func() {
		helpPolicy = bluemonday.UGCPolicy()
	})
	return strings.TrimSpace(helpPolicy.Sanitize(trimmed))
}
