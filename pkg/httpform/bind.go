package httpform

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/path"
	"github.com/goliatone/go-forms/pkg/render"
)

// binder applies submitted values to a store one field at a time, walking
// the form again after every change so visibility rules see earlier values.
type binder struct {
	form      *render.Form
	callbacks render.Callbacks
	current   model.Store
	derived   model.Store
	bound     map[string]struct{}
}

func newBinder(form *render.Form, store model.Store, callbacks render.Callbacks) *binder {
	b := &binder{
		form:    form,
		current: store,
		bound:   make(map[string]struct{}),
	}
	if b.current == nil {
		b.current = model.Store{}
	}

	wrapped := make(render.Callbacks, len(callbacks)+1)
	for event, handler := range callbacks {
		wrapped[event] = handler
	}
	user := callbacks[render.EventChange]
	wrapped[render.EventChange] = func(cfg model.Config, payload render.Payload) {
		b.derived = payload.Store
		if user != nil {
			user(cfg, payload)
		}
	}
	b.callbacks = wrapped
	return b
}

func (b *binder) bind(values url.Values) model.Store {
	for {
		node, ok := b.next()
		if !ok {
			return b.current
		}
		value, present := decodeValue(node, values)
		if !present {
			continue
		}
		b.apply(node, value)
	}
}

func (b *binder) next() (render.Node, bool) {
	result := b.form.Walk(b.current, b.callbacks)
	for _, node := range result.Leaves() {
		key := node.Config.ResultPath + "\x00" + node.Config.ID
		if _, done := b.bound[key]; done {
			continue
		}
		b.bound[key] = struct{}{}
		return node, true
	}
	return render.Node{}, false
}

func (b *binder) apply(node render.Node, value any) {
	b.derived = nil
	node.Bindings.Fire(render.EventChange, value)
	if b.derived != nil {
		b.current = b.derived
		return
	}
	if value == render.Unset {
		b.current = path.Delete(b.current, node.Config.Path())
		return
	}
	b.current = path.Set(b.current, node.Config.Path(), value)
}

// decodeValue converts the submitted strings for node into a store value.
// The boolean is false when the request carries nothing for the field.
func decodeValue(node render.Node, values url.Values) (any, bool) {
	cfg := node.Config
	raw, present := values[cfg.ResultPath]

	widget := render.Widget("")
	if node.Component != nil {
		widget = node.Component.Widget
	}

	switch widget {
	case render.WidgetToggle:
		if !present {
			return nil, false
		}
		return parseBool(last(raw)), true

	case render.WidgetCheckbox:
		if len(cfg.Options) == 0 {
			if !present {
				return nil, false
			}
			return parseBool(last(raw)), true
		}
		// unchecked groups submit nothing at all; clear the value so the
		// required check applies
		picked := make([]any, 0, len(raw))
		for _, value := range raw {
			if value != "" {
				picked = append(picked, value)
			}
		}
		if len(picked) == 0 {
			return render.Unset, true
		}
		return picked, true

	case render.WidgetRange:
		if !present {
			return nil, false
		}
		return parseNumber(last(raw)), true
	}

	if !present {
		return nil, false
	}
	text := last(raw)
	if text == "" {
		return render.Unset, true
	}
	if cfg.Kind.Normalize() == model.KindNumber {
		return parseNumber(text), true
	}
	return text, true
}

func last(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

func parseBool(raw string) bool {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "on" {
		return true
	}
	on, err := strconv.ParseBool(raw)
	return err == nil && on
}

// parseNumber keeps unparseable input as text so validators can report it.
func parseNumber(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return render.Unset
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return raw
	}
	return n
}
