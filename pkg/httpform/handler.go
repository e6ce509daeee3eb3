// Package httpform serves a form over HTTP: GET renders it, POST binds the
// submitted values, validates and hands the store to the caller.
package httpform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
)

// SubmitFunc receives a valid store. A non-empty redirect answers with 303
// See Other; otherwise the form is rendered again with the saved store.
// Returning a *PayloadError re-renders the form with the mapped messages.
type SubmitFunc func(ctx context.Context, store model.Store) (redirect string, err error)

// CancelFunc runs when the cancel button was pressed. Nothing is saved.
type CancelFunc func(ctx context.Context, store model.Store) (redirect string, err error)

// PayloadError carries external error messages keyed by path, JSON pointer
// or field id. Keys that match no field become form-level messages.
type PayloadError struct {
	Errors map[string][]string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("httpform: submission rejected with %d error keys", len(e.Errors))
}

// Option customises a Handler.
type Option func(*Handler)

// WithStore sets the store provider. Defaults to an empty MemoryStore.
func WithStore(store StoreProvider) Option {
	return func(h *Handler) {
		if store != nil {
			h.store = store
		}
	}
}

// WithFormOptions are applied to the form built for every request.
func WithFormOptions(options ...render.Option) Option {
	return func(h *Handler) {
		h.formOptions = append(h.formOptions, options...)
	}
}

// WithCallbacks binds caller handlers to every field during binding.
func WithCallbacks(callbacks render.Callbacks) Option {
	return func(h *Handler) {
		h.callbacks = callbacks
	}
}

// WithRenderOptions sets the base options passed to the renderer.
func WithRenderOptions(opts render.RenderOptions) Option {
	return func(h *Handler) {
		h.renderOptions = opts
	}
}

// WithRequestOptions adjusts render options per request, e.g. to add a CSRF
// token from the session.
func WithRequestOptions(fn func(r *http.Request, opts *render.RenderOptions)) Option {
	return func(h *Handler) {
		h.requestOptions = fn
	}
}

// WithOnSubmit sets the submit hook.
func WithOnSubmit(fn SubmitFunc) Option {
	return func(h *Handler) {
		h.onSubmit = fn
	}
}

// WithOnCancel sets the cancel hook.
func WithOnCancel(fn CancelFunc) Option {
	return func(h *Handler) {
		h.onCancel = fn
	}
}

// WithLogger logs submissions and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Handler serves one form. A fresh render.Form is built per request so
// validation state never leaks between clients.
type Handler struct {
	configs        []model.Config
	renderer       render.Renderer
	store          StoreProvider
	formOptions    []render.Option
	callbacks      render.Callbacks
	renderOptions  render.RenderOptions
	requestOptions func(*http.Request, *render.RenderOptions)
	onSubmit       SubmitFunc
	onCancel       CancelFunc
	logger         *slog.Logger
}

var _ http.Handler = (*Handler)(nil)

// New returns a Handler rendering configs with renderer.
func New(configs []model.Config, renderer render.Renderer, options ...Option) (*Handler, error) {
	if renderer == nil {
		return nil, errors.New("httpform: renderer is required")
	}
	h := &Handler{
		configs:  configs,
		renderer: renderer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}
	if h.store == nil {
		h.store = NewMemoryStore(nil)
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.show(w, r)
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST, PUT, PATCH")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	store, err := h.store.Load(r.Context())
	if err != nil {
		h.fail(w, r, "load store", err)
		return
	}
	form := render.New(h.configs, h.formOptions...)
	h.write(w, r, http.StatusOK, form.Walk(store, nil), h.options(r))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}
	loaded, err := h.store.Load(ctx)
	if err != nil {
		h.fail(w, r, "load store", err)
		return
	}

	form := render.New(h.configs, h.formOptions...)
	store := newBinder(form, loaded, h.callbacks).bind(r.PostForm)
	opts := h.options(r)

	if strings.EqualFold(strings.TrimSpace(r.PostForm.Get(render.ActionField)), render.ActionCancel) {
		h.logger.Debug("form cancelled", slog.String("path", r.URL.Path))
		redirect := ""
		if h.onCancel != nil {
			redirect, err = h.onCancel(ctx, store)
			if err != nil {
				h.fail(w, r, "cancel", err)
				return
			}
		}
		if redirect != "" {
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}
		h.write(w, r, http.StatusOK, render.New(h.configs, h.formOptions...).Walk(loaded, nil), opts)
		return
	}

	if errs := form.Validate(store); !render.Valid(errs) {
		h.logger.Debug("form invalid",
			slog.String("path", r.URL.Path),
			slog.Int("failures", len(render.Failures(errs))),
		)
		h.write(w, r, http.StatusUnprocessableEntity, form.Walk(store, nil), opts)
		return
	}

	redirect := ""
	if h.onSubmit != nil {
		redirect, err = h.onSubmit(ctx, store)
		var payload *PayloadError
		if errors.As(err, &payload) {
			mapping := render.MapErrorPayload(h.configs, payload.Errors)
			opts.Errors = mergeFieldErrors(opts.Errors, mapping.Fields)
			opts.FormErrors = render.MergeFormErrors(opts.FormErrors, mapping.Form...)
			h.write(w, r, http.StatusUnprocessableEntity, form.Walk(store, nil), opts)
			return
		}
		if err != nil {
			h.fail(w, r, "submit", err)
			return
		}
	}

	if err := h.store.Save(ctx, store); err != nil {
		h.fail(w, r, "save store", err)
		return
	}
	h.logger.Info("form submitted", slog.String("path", r.URL.Path))

	if redirect != "" {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	form.Reset()
	h.write(w, r, http.StatusOK, form.Walk(store, nil), opts)
}

func (h *Handler) options(r *http.Request) render.RenderOptions {
	opts := h.renderOptions
	opts.Hidden = cloneHidden(opts.Hidden)
	if opts.Action == "" {
		opts.Action = r.URL.RequestURI()
	}
	if h.requestOptions != nil {
		h.requestOptions(r, &opts)
	}
	return opts
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, result render.Result, opts render.RenderOptions) {
	body, err := h.renderer.Render(r.Context(), result, opts)
	if err != nil {
		h.fail(w, r, "render", err)
		return
	}
	w.Header().Set("Content-Type", h.renderer.ContentType())
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("write response", slog.String("error", err.Error()))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, step string, err error) {
	h.logger.Error("form request failed",
		slog.String("step", step),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func mergeFieldErrors(base, extra map[string][]string) map[string][]string {
	if len(extra) == 0 {
		return base
	}
	out := make(map[string][]string, len(base)+len(extra))
	for key, messages := range base {
		out[key] = append([]string(nil), messages...)
	}
	for key, messages := range extra {
		out[key] = append(out[key], messages...)
	}
	return out
}

func cloneHidden(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
