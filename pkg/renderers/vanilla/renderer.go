// Package vanilla renders walk results as plain HTML forms.
package vanilla

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
	rendertemplate "github.com/goliatone/go-forms/pkg/render/template"
	gotemplate "github.com/goliatone/go-forms/pkg/render/template/gotemplate"
	"github.com/goliatone/go-forms/pkg/renderers/vanilla/components"
)

// Name is the registry name of the HTML renderer.
const Name = "vanilla"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	ids              func() string
	stylesheets      []string

	themeSelector theme.ThemeSelector
	themeName     string
	themeVariant  string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponents replaces the control registry. Start from
// components.NewDefaultRegistry().Clone() to override single controls.
func WithComponents(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithIDGenerator overrides the element id suffix generator.
func WithIDGenerator(next func() string) Option {
	return func(cfg *config) {
		if next != nil {
			cfg.ids = next
		}
	}
}

// WithStylesheets links stylesheets ahead of the form.
func WithStylesheets(hrefs ...string) Option {
	return func(cfg *config) {
		cfg.stylesheets = append(cfg.stylesheets, hrefs...)
	}
}

type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	registry    *components.Registry
	ids         func() string
	policy      *bluemonday.Policy
	stylesheets []string
	style       string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.registry == nil {
		cfg.registry = components.NewDefaultRegistry()
	}
	if cfg.ids == nil {
		cfg.ids = shortID
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	tokens, err := resolveTheme(cfg.themeSelector, cfg.themeName, cfg.themeVariant)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		templates:   renderer,
		registry:    cfg.registry,
		ids:         cfg.ids,
		policy:      bluemonday.UGCPolicy(),
		stylesheets: cfg.stylesheets,
		style:       cssVars(tokens),
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the form shell around the rendered nodes.
func (r *Renderer) Render(ctx context.Context, result render.Result, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	pass := &renderPass{Renderer: r, opts: opts, used: make(map[string]struct{})}
	elements, err := pass.nodes(result.Nodes)
	if err != nil {
		return nil, err
	}

	hidden := make([]map[string]any, 0, len(opts.Hidden))
	for _, field := range opts.HiddenFields() {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	stylesheets := append(append([]string(nil), r.stylesheets...), r.registry.Stylesheets(pass.order)...)

	out, err := r.templates.RenderTemplate(templateForm, map[string]any{
		"classes":     []string{"react-forms", opts.ClassName},
		"action":      opts.Action,
		"method":      opts.FormMethod(),
		"style":       r.style,
		"stylesheets": stylesheets,
		"hidden":      hidden,
		"formErrors":  render.MergeFormErrors(nil, opts.FormErrors...),
		"elements":    elements,
		"buttons":     opts.Buttons,
		"showButtons": !opts.NoButtons,
		"primary":     opts.PrimaryLabel(),
		"secondary":   opts.SecondaryLabel(),
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(out), nil
}

// renderPass carries per-request state so Renderer stays safe for
// concurrent use.
type renderPass struct {
	*Renderer
	opts  render.RenderOptions
	used  map[string]struct{}
	order []string
}

func (p *renderPass) nodes(nodes []render.Node) (string, error) {
	var builder strings.Builder
	for _, node := range nodes {
		markup, err := p.node(node)
		if err != nil {
			return "", err
		}
		builder.WriteString(markup)
	}
	return builder.String(), nil
}

func (p *renderPass) node(node render.Node) (string, error) {
	switch node.Kind {
	case render.NodeInvalid:
		return invalidMarkup(node), nil
	case render.NodeGroup:
		return p.group(node)
	default:
		return p.field(node)
	}
}

func (p *renderPass) group(node render.Node) (string, error) {
	children, err := p.nodes(node.Children)
	if err != nil {
		return "", err
	}
	cfg := node.Config
	out, err := p.templates.RenderTemplate(templateGroup, map[string]any{
		"id":       cfg.ID,
		"label":    cfg.Label,
		"classes":  []string{"form-group", cfg.ClassName},
		"children": children,
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render group %q: %w", cfg.ID, err)
	}
	return out, nil
}

func (p *renderPass) field(node render.Node) (string, error) {
	cfg := node.Config
	props := render.Props{
		Config:    cfg,
		Value:     node.Value,
		Defined:   node.Defined,
		Bindings:  node.Bindings,
		ElementID: elementID(cfg.ID, p.ids()),
	}

	control, err := p.control(node.Component, props)
	if err != nil {
		return "", err
	}

	classes := []string{"form-element", "input-" + string(cfg.Kind.Normalize()), cfg.ClassName}
	if node.ShowError {
		classes = append(classes, "has-error")
	}
	labelFor := props.ElementID
	if control == "" || groupedControl(node.Component, cfg) {
		labelFor = ""
	}

	out, err := p.templates.RenderTemplate(templateField, map[string]any{
		"id":        cfg.ID,
		"classes":   classes,
		"label":     cfg.Label,
		"labelFor":  labelFor,
		"required":  cfg.Required != nil,
		"control":   control,
		"help":      p.policy.Sanitize(cfg.Help),
		"showError": node.ShowError,
		"error":     node.Error,
		"external":  p.opts.ExternalErrors(cfg.ResultPath),
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render field %q: %w", cfg.ID, err)
	}
	return out, nil
}

func (p *renderPass) control(component *render.Component, props render.Props) (string, error) {
	if component == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if component.Custom() {
		if err := component.Render(&buf, props); err != nil {
			return "", fmt.Errorf("vanilla renderer: render component %q for field %q: %w", component.Name, props.Config.ID, err)
		}
		return buf.String(), nil
	}

	name := string(component.Widget)
	descriptor, ok := p.registry.Descriptor(name)
	if !ok {
		return "", fmt.Errorf("vanilla renderer: component %q not registered for field %q", name, props.Config.ID)
	}
	if err := descriptor.Renderer(&buf, props); err != nil {
		return "", fmt.Errorf("vanilla renderer: render component %q for field %q: %w", name, props.Config.ID, err)
	}
	if _, seen := p.used[name]; !seen {
		p.used[name] = struct{}{}
		p.order = append(p.order, name)
	}
	return buf.String(), nil
}

// groupedControl reports controls made of several inputs, which a single
// label cannot point at.
func groupedControl(component *render.Component, cfg model.Config) bool {
	if component == nil || component.Custom() {
		return false
	}
	switch component.Widget {
	case render.WidgetRadio:
		return true
	case render.WidgetCheckbox:
		return len(cfg.Options) > 0
	}
	return false
}

func invalidMarkup(node render.Node) string {
	message := fmt.Sprintf("render: invalid config[%d]", node.Index)
	location := ""
	if node.Err != nil {
		message = node.Err.Error()
		location = node.Err.Location
	}
	var builder strings.Builder
	builder.WriteString(`<div class="form-element form-config-error" role="alert"`)
	if location != "" {
		builder.WriteString(` data-config-location="`)
		builder.WriteString(html.EscapeString(location))
		builder.WriteString(`"`)
	}
	builder.WriteString(`>`)
	builder.WriteString(html.EscapeString(message))
	builder.WriteString("</div>\n")
	return builder.String()
}

func elementID(id, suffix string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		id = "field"
	}
	if suffix == "" {
		return id
	}
	return id + "_" + suffix
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
