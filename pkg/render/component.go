package render

import (
	"bytes"

	"github.com/goliatone/go-forms/pkg/model"
)

// Widget names a built-in control.
type Widget string

const (
	WidgetInput    Widget = "input"
	WidgetToggle   Widget = "toggle"
	WidgetRadio    Widget = "radio"
	WidgetDropdown Widget = "dropdown"
	WidgetCheckbox Widget = "checkbox"
	WidgetRange    Widget = "range"
	WidgetTextarea Widget = "textarea"
)

// Props is what a control needs to render one field.
type Props struct {
	Config   model.Config
	Value    any
	Defined  bool
	Bindings Bindings
	// ElementID is assigned by the surface before the control renders.
	ElementID string
}

// ComponentFunc renders a control into buf.
type ComponentFunc func(buf *bytes.Buffer, props Props) error

// Component is the resolved renderer for a field. Built-in kinds carry a
// Widget and leave Render nil so each surface supplies its own control;
// custom components carry their own Render function.
type Component struct {
	Name   string
	Widget Widget
	Render ComponentFunc
}

// Custom reports whether the component came from a caller resolver.
func (c Component) Custom() bool {
	return c.Widget == ""
}

// ComponentResolver maps an unknown kind to a custom component. The boolean
// is false when the resolver does not handle the kind.
type ComponentResolver func(kind model.Kind) (Component, bool)

// WidgetFor is the static table from built-in kinds to widgets.
func WidgetFor(kind model.Kind) (Widget, bool) {
	kind = kind.Normalize()
	if kind.TextLike() {
		return WidgetInput, true
	}
	switch kind {
	case model.KindToggle:
		return WidgetToggle, true
	case model.KindRadio:
		return WidgetRadio, true
	case model.KindDropdown:
		return WidgetDropdown, true
	case model.KindCheckbox:
		return WidgetCheckbox, true
	case model.KindRange:
		return WidgetRange, true
	case model.KindTextarea:
		return WidgetTextarea, true
	default:
		return "", false
	}
}

// resolveComponent consults the static table first, then the resolvers in
// order. The first resolver returning a component with a Render function
// wins; nil means the kind renders as an empty slot.
func resolveComponent(kind model.Kind, resolvers []ComponentResolver) *Component {
	if widget, ok := WidgetFor(kind); ok {
		return &Component{Name: string(widget), Widget: widget}
	}
	for _, resolver := range resolvers {
		if resolver == nil {
			continue
		}
		component, ok := resolver(kind)
		if !ok || component.Render == nil {
			continue
		}
		component.Widget = ""
		if component.Name == "" {
			component.Name = string(kind)
		}
		return &component
	}
	return nil
}
