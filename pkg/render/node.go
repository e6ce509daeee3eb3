package render

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-forms/pkg/model"
)

// ErrMissingResultPath is wrapped by ConfigError when a leaf config has no
// result path.
var ErrMissingResultPath = errors.New("render: missing result path")

// NodeKind tags the descriptors produced by a walk.
type NodeKind int

const (
	// NodeField is a visible leaf field.
	NodeField NodeKind = iota
	// NodeGroup wraps the nodes produced for a group's elements.
	NodeGroup
	// NodeInvalid marks a config that could not be constructed. It renders
	// as an inline error marker.
	NodeInvalid
)

func (k NodeKind) String() string {
	switch k {
	case NodeField:
		return "field"
	case NodeGroup:
		return "group"
	case NodeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Node is a render-ready descriptor for one config.
type Node struct {
	Kind NodeKind
	// Index is the config position within its own level.
	Index  int
	Config model.Config

	Value   any
	Defined bool

	// Error is the computed validation message ("" when valid). ShowError
	// reports whether the surface should display it.
	Error     string
	ShowError bool

	// Component is nil when the kind could not be resolved; surfaces render
	// an empty slot in that case.
	Component *Component
	Bindings  Bindings

	Children []Node
	Err      *ConfigError
}

// Empty reports whether the node renders no control.
func (n Node) Empty() bool {
	return n.Kind == NodeField && n.Component == nil
}

// Result is the outcome of a single walk.
type Result struct {
	Nodes        []Node
	Errors       []FieldError
	ConfigErrors []*ConfigError
	Validating   bool
	Store        model.Store
}

// Valid reports whether every recorded field error is empty. Construction
// errors do not affect validity.
func (r Result) Valid() bool {
	return Valid(r.Errors)
}

// Leaves returns the field nodes in depth-first order.
func (r Result) Leaves() []Node {
	return leaves(r.Nodes)
}

func leaves(nodes []Node) []Node {
	var out []Node
	for _, node := range nodes {
		switch node.Kind {
		case NodeField:
			out = append(out, node)
		case NodeGroup:
			out = append(out, leaves(node.Children)...)
		}
	}
	return out
}

// FieldError pairs a field id with its validation result. An empty Error
// means the field is valid and encodes as JSON null.
type FieldError struct {
	ID    string
	Error string
}

// Failed reports whether the record carries a message.
func (e FieldError) Failed() bool {
	return e.Error != ""
}

type fieldErrorJSON struct {
	ID    string  `json:"id"`
	Error *string `json:"error"`
}

// MarshalJSON encodes the record as {"id": ..., "error": string|null}.
func (e FieldError) MarshalJSON() ([]byte, error) {
	payload := fieldErrorJSON{ID: e.ID}
	if e.Error != "" {
		msg := e.Error
		payload.Error = &msg
	}
	return json.Marshal(payload)
}

// UnmarshalJSON accepts the encoding produced by MarshalJSON.
func (e *FieldError) UnmarshalJSON(data []byte) error {
	var payload fieldErrorJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	e.ID = payload.ID
	e.Error = ""
	if payload.Error != nil {
		e.Error = *payload.Error
	}
	return nil
}

// Valid reports whether none of the records carries a message.
func Valid(errs []FieldError) bool {
	for _, e := range errs {
		if e.Failed() {
			return false
		}
	}
	return true
}

// Failures filters errs down to the records carrying a message.
func Failures(errs []FieldError) []FieldError {
	var out []FieldError
	for _, e := range errs {
		if e.Failed() {
			out = append(out, e)
		}
	}
	return out
}

// ConfigError reports a config that could not be turned into a field.
type ConfigError struct {
	// Location identifies the config, e.g. "config[1].elements[0]".
	Location string
	Index    int
	ID       string
	Err      error
}

func (e *ConfigError) Error() string {
	if errors.Is(e.Err, ErrMissingResultPath) {
		return fmt.Sprintf("render: provide a result path in %s", e.Location)
	}
	return fmt.Sprintf("render: %s: %v", e.Location, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
