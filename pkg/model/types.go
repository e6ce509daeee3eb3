package model

import (
	"strings"

	"github.com/goliatone/go-forms/pkg/path"
)

// Kind identifies the control used to render a field.
type Kind string

const (
	KindColor    Kind = "color"
	KindDate     Kind = "date"
	KindEmail    Kind = "email"
	KindMonth    Kind = "month"
	KindNumber   Kind = "number"
	KindText     Kind = "text"
	KindTel      Kind = "tel"
	KindTime     Kind = "time"
	KindURL      Kind = "url"
	KindWeek     Kind = "week"
	KindToggle   Kind = "toggle"
	KindRadio    Kind = "radio"
	KindDropdown Kind = "dropdown"
	KindCheckbox Kind = "checkbox"
	KindRange    Kind = "range"
	KindTextarea Kind = "textarea"
	KindGroup    Kind = "group"
)

// DefaultRequiredMessage is reported for required fields whose Required value
// carries no message of its own.
const DefaultRequiredMessage = "Required Value"

// Normalize trims and lower-cases the kind.
func (k Kind) Normalize() Kind {
	return Kind(strings.ToLower(strings.TrimSpace(string(k))))
}

// TextLike reports whether the kind renders as a generic <input type=...>.
func (k Kind) TextLike() bool {
	switch k.Normalize() {
	case KindColor, KindDate, KindEmail, KindMonth, KindNumber,
		KindText, KindTel, KindTime, KindURL, KindWeek:
		return true
	default:
		return false
	}
}

// Builtin reports whether the kind belongs to the closed set shipped with the
// package. Groups count as built-in.
func (k Kind) Builtin() bool {
	if k.TextLike() {
		return true
	}
	switch k.Normalize() {
	case KindToggle, KindRadio, KindDropdown, KindCheckbox, KindRange, KindTextarea, KindGroup:
		return true
	default:
		return false
	}
}

// Store is the caller-owned value tree holding current field values.
type Store = map[string]any

// Validator inspects a field value and returns an error message, or "" when
// the value is acceptable.
type Validator func(value any) string

// Predicate reports whether a field should be hidden for the given store.
type Predicate func(store Store) bool

// Required marks a field as mandatory. An empty Message falls back to
// DefaultRequiredMessage.
type Required struct {
	Message string
}

// Require is shorthand for &Required{Message: message}.
func Require(message string) *Required {
	return &Required{Message: message}
}

// Text returns the message reported when the required check fires.
func (r *Required) Text() string {
	if r == nil || strings.TrimSpace(r.Message) == "" {
		return DefaultRequiredMessage
	}
	return r.Message
}

// Option is a selectable entry for radio, dropdown and checkbox kinds.
type Option struct {
	Value string `json:"value" yaml:"value" toml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
}

// Text returns the label, falling back to the value.
func (o Option) Text() string {
	if strings.TrimSpace(o.Label) != "" {
		return o.Label
	}
	return o.Value
}

// Config describes one form field or group.
type Config struct {
	ID                string
	Kind              Kind
	ResultPath        string
	Required          *Required
	Validation        Validator
	IsHidden          Predicate
	InstantValidation bool
	ClassName         string
	Elements          []Config

	Label       string
	Placeholder string
	Help        string
	Options     []Option
	Min         string
	Max         string
	Step        string
	Rows        int
	Attributes  map[string]string
}

// IsGroup reports whether the config nests child configs.
func (c Config) IsGroup() bool {
	return c.Kind.Normalize() == KindGroup
}

// Path returns the parsed result path.
func (c Config) Path() path.Path {
	return path.Parse(c.ResultPath)
}

// Hidden evaluates the visibility predicate. Configs without a predicate are
// always visible.
func (c Config) Hidden(store Store) bool {
	if c.IsHidden == nil {
		return false
	}
	return c.IsHidden(store)
}

// Validate runs the field validation against value. A custom Validation
// function takes precedence; otherwise the required check fires when the
// value is undefined.
func (c Config) Validate(value any, defined bool) string {
	if c.Validation != nil {
		return c.Validation(value)
	}
	if c.Required != nil && !defined {
		return c.Required.Text()
	}
	return ""
}

// Flatten returns the leaf configs in depth-first order.
func Flatten(configs []Config) []Config {
	var out []Config
	for _, cfg := range configs {
		if cfg.IsGroup() {
			out = append(out, Flatten(cfg.Elements)...)
			continue
		}
		out = append(out, cfg)
	}
	return out
}
