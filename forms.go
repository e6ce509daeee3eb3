// Package forms is the top-level entry point: it re-exports the core types
// and wires a config document straight to rendered output.
package forms

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-forms/pkg/loader"
	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
	"github.com/goliatone/go-forms/pkg/renderers/tui"
	"github.com/goliatone/go-forms/pkg/renderers/vanilla"
)

// Config describes one field or group.
type Config = model.Config

// Store is the caller-owned value tree.
type Store = model.Store

// FieldError pairs a field id with its validation message.
type FieldError = render.FieldError

// RenderOptions carries per-request renderer settings.
type RenderOptions = render.RenderOptions

// Form walks configs against a store.
type Form = render.Form

// NewForm exposes render.New from the top-level module.
func NewForm(configs []Config, options ...render.Option) *Form {
	return render.New(configs, options...)
}

// LoadFile reads a JSON, YAML or TOML config document.
func LoadFile(path string, options ...loader.Option) ([]Config, error) {
	return loader.LoadFile(path, options...)
}

// LoadFS reads a config document from fsys.
func LoadFS(fsys fs.FS, name string, options ...loader.Option) ([]Config, error) {
	return loader.LoadFS(fsys, name, options...)
}

// Setup configures the renderers built by NewRegistry.
type Setup struct {
	Logger       *slog.Logger
	Theme        theme.ThemeSelector
	ThemeName    string
	ThemeVariant string
	Vanilla      []vanilla.Option
	TUI          []tui.Option
}

// NewRegistry returns a registry holding the vanilla HTML renderer and the
// terminal renderer.
func NewRegistry(setup Setup) (*render.Registry, error) {
	vanillaOpts := append([]vanilla.Option(nil), setup.Vanilla...)
	if setup.Theme != nil {
		vanillaOpts = append(vanillaOpts, vanilla.WithTheme(setup.Theme, setup.ThemeName, setup.ThemeVariant))
	}
	html, err := vanilla.New(vanillaOpts...)
	if err != nil {
		return nil, err
	}

	tuiOpts := append([]tui.Option(nil), setup.TUI...)
	if setup.Logger != nil {
		tuiOpts = append(tuiOpts, tui.WithLogger(setup.Logger))
	}
	terminal, err := tui.New(tuiOpts...)
	if err != nil {
		return nil, err
	}

	return render.NewRegistry(html, terminal)
}

// Render walks configs against store and renders the result with the named
// renderer from registry. With validate set, every error is surfaced.
func Render(ctx context.Context, registry *render.Registry, name string, configs []Config, store Store, validate bool, opts RenderOptions) ([]byte, error) {
	if registry == nil {
		return nil, fmt.Errorf("forms: renderer registry is nil")
	}
	renderer, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	form := render.New(configs)
	if validate {
		form.Validate(store)
	}
	return renderer.Render(ctx, form.Walk(store, nil), opts)
}

// Validate returns the error records for store, one per visible field.
func Validate(configs []Config, store Store) []FieldError {
	return render.New(configs).Validate(store)
}

// EmbeddedTemplates exposes the built-in vanilla templates so callers can
// extend them without importing the renderer package.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}
