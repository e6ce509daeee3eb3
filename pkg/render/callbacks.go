package render

import (
	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/path"
)

// Event names a field interaction.
type Event string

const (
	EventChange Event = "change"
	EventBlur   Event = "blur"
	EventFocus  Event = "focus"
)

// ChangeClass reports whether the event may derive a new store.
func (e Event) ChangeClass() bool {
	return e == EventChange
}

// Unset passed as a change value removes the field's value from the derived
// store instead of writing it.
var Unset any = unset{}

type unset struct{}

// Payload is delivered to handlers alongside the originating config.
type Payload struct {
	Event Event
	Value any
	// Store holds the derived store for change-class events. It is nil for
	// other events and when native events are enabled.
	Store model.Store
	Args  []any
}

// Handler receives field events. cfg is the config of the field that fired.
type Handler func(cfg model.Config, payload Payload)

// Callbacks maps events to the caller's handlers.
type Callbacks map[Event]Handler

// ValueResolver derives the next store for a change event. The boolean is
// false when the resolver does not handle the field.
type ValueResolver func(cfg model.Config, value any, store model.Store) (model.Store, bool)

// Bindings holds the per-field handlers produced by a walk.
type Bindings map[Event]func(value any, args ...any)

// Fire invokes the handler bound to event. It reports false when nothing is
// bound.
func (b Bindings) Fire(event Event, value any, args ...any) bool {
	if len(b) == 0 {
		return false
	}
	fn, ok := b[event]
	if !ok || fn == nil {
		return false
	}
	fn(value, args...)
	return true
}

// Has reports whether a handler is bound for event.
func (b Bindings) Has(event Event) bool {
	fn, ok := b[event]
	return ok && fn != nil
}

func (f *Form) bindCallbacks(cfg model.Config, callbacks Callbacks, store model.Store) Bindings {
	if len(callbacks) == 0 {
		return nil
	}
	bound := make(Bindings, len(callbacks))
	for event, handler := range callbacks {
		if handler == nil {
			continue
		}
		event, handler := event, handler
		if f.cfg.nativeEvents || !event.ChangeClass() {
			bound[event] = func(value any, args ...any) {
				handler(cfg, Payload{Event: event, Value: value, Args: args})
			}
			continue
		}
		bound[event] = func(value any, args ...any) {
			next := f.deriveStore(cfg, value, store)
			handler(cfg, Payload{Event: event, Value: value, Store: next, Args: args})
		}
	}
	if len(bound) == 0 {
		return nil
	}
	return bound
}

func (f *Form) deriveStore(cfg model.Config, value any, store model.Store) model.Store {
	for _, resolver := range f.cfg.valueResolvers {
		if resolver == nil {
			continue
		}
		if next, ok := resolver(cfg, value, store); ok {
			return next
		}
	}
	if value == Unset {
		return path.Delete(store, cfg.Path())
	}
	return path.Set(store, cfg.Path(), value)
}
