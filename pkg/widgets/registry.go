// Package widgets holds caller-defined components for field kinds the core
// does not know about. The registry plugs into the walker as a
// render.ComponentResolver.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
)

// Matcher decides whether a component should handle the supplied kind.
type Matcher func(kind model.Kind) bool

// MatchKind matches any of the listed kinds, case-insensitively.
func MatchKind(kinds ...model.Kind) Matcher {
	set := make(map[model.Kind]struct{}, len(kinds))
	for _, kind := range kinds {
		set[kind.Normalize()] = struct{}{}
	}
	return func(kind model.Kind) bool {
		_, ok := set[kind.Normalize()]
		return ok
	}
}

// MatchPrefix matches kinds starting with prefix ("x-", "geo.").
func MatchPrefix(prefix string) Matcher {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	return func(kind model.Kind) bool {
		return prefix != "" && strings.HasPrefix(string(kind.Normalize()), prefix)
	}
}

type rule struct {
	name      string
	priority  int
	match     Matcher
	component render.ComponentFunc
	order     int
}

// Registry selects components for kinds based on registered matchers.
// Higher priority wins; ties fall back to registration order. An empty
// registry never resolves a component.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a component with the provided name and priority. Entries
// without a name, matcher or component are ignored.
func (r *Registry) Register(name string, priority int, matcher Matcher, component render.ComponentFunc) {
	if r == nil || matcher == nil || component == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:      trimmed,
		priority:  priority,
		match:     matcher,
		component: component,
		order:     len(r.rules),
	})
	sort.SliceStable(r.rules, func(i, j int) bool {
		if r.rules[i].priority == r.rules[j].priority {
			return r.rules[i].order < r.rules[j].order
		}
		return r.rules[i].priority > r.rules[j].priority
	})
}

// Resolve returns the component registered for kind.
func (r *Registry) Resolve(kind model.Kind) (render.Component, bool) {
	if r == nil {
		return render.Component{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.rules {
		if entry.match(kind) {
			return render.Component{Name: entry.name, Render: entry.component}, true
		}
	}
	return render.Component{}, false
}

// Names lists registered component names in resolution order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rules))
	for _, entry := range r.rules {
		names = append(names, entry.name)
	}
	return names
}

// Resolver exposes the registry as a render.ComponentResolver.
func (r *Registry) Resolver() render.ComponentResolver {
	return r.Resolve
}
