package render

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/path"
)

// Option customises a Form.
type Option func(*config)

type config struct {
	componentResolvers []ComponentResolver
	valueResolvers     []ValueResolver
	nativeEvents       bool
	logger             *slog.Logger
}

// WithComponentResolvers appends resolvers consulted, in order, for kinds
// outside the built-in table.
func WithComponentResolvers(resolvers ...ComponentResolver) Option {
	return func(cfg *config) {
		cfg.componentResolvers = append(cfg.componentResolvers, resolvers...)
	}
}

// WithValueResolvers appends resolvers consulted, in order, when a change
// event derives the next store.
func WithValueResolvers(resolvers ...ValueResolver) Option {
	return func(cfg *config) {
		cfg.valueResolvers = append(cfg.valueResolvers, resolvers...)
	}
}

// WithNativeEvents disables store derivation: change handlers receive the
// raw value like any other event.
func WithNativeEvents() Option {
	return func(cfg *config) {
		cfg.nativeEvents = true
	}
}

// WithLogger routes construction warnings and walk traces to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Form walks a config tree and tracks the validation state between walks.
// It is safe for concurrent use; the store passed to each walk stays owned
// by the caller.
type Form struct {
	configs []model.Config
	cfg     config

	mu         sync.RWMutex
	validating bool
	errors     []FieldError
}

// New constructs a Form for configs.
func New(configs []model.Config, options ...Option) *Form {
	cfg := config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Form{
		configs: configs,
		cfg:     cfg,
	}
}

// Configs returns the top-level configs.
func (f *Form) Configs() []model.Config {
	return f.configs
}

// Walk resolves every config against store and rebuilds the error list.
func (f *Form) Walk(store model.Store, callbacks Callbacks) Result {
	if store == nil {
		store = model.Store{}
	}

	f.mu.RLock()
	validating := f.validating
	f.mu.RUnlock()

	// predicates and validators run unlocked so they may inspect the form
	w := walker{
		form:       f,
		store:      store,
		callbacks:  callbacks,
		validating: validating,
	}
	nodes := w.walk(f.configs, "config")

	f.mu.Lock()
	f.errors = w.errors
	f.mu.Unlock()

	f.cfg.logger.Debug("form walked",
		slog.Int("nodes", len(nodes)),
		slog.Int("fields", len(w.errors)),
		slog.Int("config_errors", len(w.configErrors)),
		slog.Bool("validating", validating),
	)

	return Result{
		Nodes:        nodes,
		Errors:       cloneErrors(w.errors),
		ConfigErrors: w.configErrors,
		Validating:   validating,
		Store:        store,
	}
}

// Validate turns on error display for every field, re-walks store and
// returns the freshly computed errors.
func (f *Form) Validate(store model.Store) []FieldError {
	f.mu.Lock()
	f.validating = true
	f.mu.Unlock()

	return f.Walk(store, nil).Errors
}

// Reset turns error display back off for fields without instant validation.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validating = false
}

// Validating reports whether Validate has been called since the last Reset.
func (f *Form) Validating() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.validating
}

// Errors returns the errors recorded by the last walk.
func (f *Form) Errors() []FieldError {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cloneErrors(f.errors)
}

// Valid reports whether the last walk recorded no field errors.
func (f *Form) Valid() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Valid(f.errors)
}

type walker struct {
	form         *Form
	store        model.Store
	callbacks    Callbacks
	validating   bool
	errors       []FieldError
	configErrors []*ConfigError
}

func (w *walker) walk(configs []model.Config, location string) []Node {
	nodes := make([]Node, 0, len(configs))
	for i, cfg := range configs {
		loc := fmt.Sprintf("%s[%d]", location, i)

		if cfg.Hidden(w.store) {
			continue
		}

		if cfg.IsGroup() {
			nodes = append(nodes, Node{
				Kind:     NodeGroup,
				Index:    i,
				Config:   cfg,
				Children: w.walk(cfg.Elements, loc+".elements"),
			})
			continue
		}

		p := cfg.Path()
		if p.Empty() {
			cerr := &ConfigError{Location: loc, Index: i, ID: cfg.ID, Err: ErrMissingResultPath}
			w.configErrors = append(w.configErrors, cerr)
			w.form.cfg.logger.Warn("invalid field config",
				slog.String("location", loc),
				slog.String("id", cfg.ID),
				slog.String("error", cerr.Error()),
			)
			nodes = append(nodes, Node{Kind: NodeInvalid, Index: i, Config: cfg, Err: cerr})
			continue
		}

		value, defined := path.Get(w.store, p)
		message := cfg.Validate(value, defined)
		w.errors = append(w.errors, FieldError{ID: cfg.ID, Error: message})

		nodes = append(nodes, Node{
			Kind:      NodeField,
			Index:     i,
			Config:    cfg,
			Value:     value,
			Defined:   defined,
			Error:     message,
			ShowError: (w.validating || cfg.InstantValidation) && message != "",
			Component: resolveComponent(cfg.Kind, w.form.cfg.componentResolvers),
			Bindings:  w.form.bindCallbacks(cfg, w.callbacks, w.store),
		})
	}
	return nodes
}

func cloneErrors(in []FieldError) []FieldError {
	if in == nil {
		return nil
	}
	out := make([]FieldError, len(in))
	copy(out, in)
	return out
}
