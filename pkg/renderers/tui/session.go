package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/path"
	"github.com/goliatone/go-forms/pkg/render"
)

// Run prompts for every visible field of form in walk order and returns the
// resulting store. Each answer fires the field's change binding, the derived
// store replaces the current one and the form is walked again, so fields
// hidden or revealed by earlier answers are honoured. Once every field has
// been asked the form is validated; failing fields are asked again up to the
// retry budget, after which a *ValidationError is returned together with the
// last store.
func (r *Renderer) Run(ctx context.Context, form *render.Form, store model.Store, callbacks render.Callbacks) (model.Store, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if form == nil {
		return nil, errors.New("tui: form is required")
	}
	s := &session{
		Renderer: r,
		form:     form,
		current:  store,
		asked:    make(map[string]struct{}),
	}
	if s.current == nil {
		s.current = model.Store{}
	}
	s.callbacks = s.wrap(callbacks)

	for {
		if err := ctx.Err(); err != nil {
			return s.current, err
		}
		node, ok := s.next()
		if !ok {
			break
		}
		if err := s.ask(ctx, node); err != nil {
			return s.current, err
		}
	}

	for attempt := 0; ; attempt++ {
		errs := form.Validate(s.current)
		failures := render.Failures(errs)
		if len(failures) == 0 {
			r.logger.Debug("prompt session complete", slog.Int("attempts", attempt))
			return s.current, nil
		}
		if attempt >= r.maxRetries {
			return s.current, &ValidationError{Errors: errs}
		}
		if err := s.retry(ctx, failures); err != nil {
			return s.current, err
		}
	}
}

type session struct {
	*Renderer
	form      *render.Form
	callbacks render.Callbacks
	current   model.Store
	derived   model.Store
	asked     map[string]struct{}
}

// wrap installs a change handler that captures the derived store before
// delegating to the caller's handler.
func (s *session) wrap(callbacks render.Callbacks) render.Callbacks {
	wrapped := make(render.Callbacks, len(callbacks)+1)
	for event, handler := range callbacks {
		wrapped[event] = handler
	}
	user := callbacks[render.EventChange]
	wrapped[render.EventChange] = func(cfg model.Config, payload render.Payload) {
		s.derived = payload.Store
		if user != nil {
			user(cfg, payload)
		}
	}
	return wrapped
}

// next walks the current store and returns the first visible field that has
// not been asked yet.
func (s *session) next() (render.Node, bool) {
	result := s.form.Walk(s.current, s.callbacks)
	for _, node := range result.Leaves() {
		key := fieldKey(node.Config)
		if _, done := s.asked[key]; done {
			continue
		}
		s.asked[key] = struct{}{}
		if node.Component == nil {
			s.logger.Debug("skipping field without component", slog.String("id", node.Config.ID))
			continue
		}
		return node, true
	}
	return render.Node{}, false
}

func (s *session) retry(ctx context.Context, failures []render.FieldError) error {
	messages := make(map[string]string, len(failures))
	for _, failure := range failures {
		if _, seen := messages[failure.ID]; !seen {
			messages[failure.ID] = failure.Error
		}
	}

	result := s.form.Walk(s.current, s.callbacks)
	for _, node := range result.Leaves() {
		message, failed := messages[node.Config.ID]
		if !failed || node.Component == nil {
			continue
		}
		if err := s.driver.Info(ctx, s.theme.ErrorPrefix+fieldLabel(node.Config)+": "+message); err != nil {
			return err
		}
		if err := s.ask(ctx, node); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) ask(ctx context.Context, node render.Node) error {
	cfg := node.Config
	node.Bindings.Fire(render.EventFocus, node.Value)

	value, answered, err := s.prompt(ctx, node)
	if err != nil {
		return fmt.Errorf("tui: prompt %q: %w", cfg.ID, err)
	}
	if answered {
		s.apply(node, value)
		s.logger.Debug("field answered", slog.String("id", cfg.ID), slog.String("path", cfg.ResultPath))
	}

	node.Bindings.Fire(render.EventBlur, value)
	return nil
}

// apply adopts the store derived by the change binding. Forms built with
// native events deliver no store, so the value is written directly.
func (s *session) apply(node render.Node, value any) {
	s.derived = nil
	node.Bindings.Fire(render.EventChange, value)
	if s.derived != nil {
		s.current = s.derived
		return
	}
	if value == render.Unset {
		s.current = path.Delete(s.current, node.Config.Path())
		return
	}
	s.current = path.Set(s.current, node.Config.Path(), value)
}

func (s *session) prompt(ctx context.Context, node render.Node) (any, bool, error) {
	cfg := node.Config
	message := s.theme.PromptPrefix + fieldLabel(cfg)
	help := strings.TrimSpace(s.strip.Sanitize(cfg.Help))
	current := ""
	if node.Defined {
		current = formatValue(node.Value)
	}

	if node.Component.Custom() {
		return s.text(ctx, InputConfig{Message: message, Default: current, Help: help})
	}

	switch node.Component.Widget {
	case render.WidgetToggle:
		on, err := s.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: truthy(node.Value), Help: help})
		return on, err == nil, err

	case render.WidgetRadio, render.WidgetDropdown:
		if len(cfg.Options) == 0 {
			return nil, false, nil
		}
		labels, values := optionLists(cfg.Options)
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			DefaultIndex: max(slices.Index(values, current), 0),
			Help:         help,
		})
		if err != nil {
			return nil, false, err
		}
		if idx < 0 || idx >= len(values) {
			return render.Unset, true, nil
		}
		return values[idx], true, nil

	case render.WidgetCheckbox:
		if len(cfg.Options) == 0 {
			on, err := s.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: truthy(node.Value), Help: help})
			return on, err == nil, err
		}
		labels, values := optionLists(cfg.Options)
		indices, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  labels,
			Defaults: selectedIndices(values, stringValues(node.Value)),
			Help:     help,
		})
		if err != nil {
			return nil, false, err
		}
		picked := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(values) {
				picked = append(picked, values[idx])
			}
		}
		return picked, true, nil

	case render.WidgetRange:
		return s.number(ctx, InputConfig{Message: message, Default: current, Help: help}, cfg.Min, cfg.Max)

	case render.WidgetTextarea:
		text, err := s.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: current, Help: help})
		if err != nil {
			return nil, false, err
		}
		if text == "" {
			return render.Unset, true, nil
		}
		return text, true, nil
	}

	if cfg.Kind.Normalize() == model.KindNumber {
		return s.number(ctx, InputConfig{Message: message, Default: current, Help: help}, cfg.Min, cfg.Max)
	}
	return s.text(ctx, InputConfig{Message: message, Default: current, Help: help})
}

// text asks for a string. An empty answer clears the field so the required
// check applies.
func (s *session) text(ctx context.Context, cfg InputConfig) (any, bool, error) {
	answer, err := s.driver.Input(ctx, cfg)
	if err != nil {
		return nil, false, err
	}
	if answer == "" {
		return render.Unset, true, nil
	}
	return answer, true, nil
}

func (s *session) number(ctx context.Context, cfg InputConfig, lower, upper string) (any, bool, error) {
	cfg.Validator = numberValidator(lower, upper)
	answer, err := s.driver.Input(ctx, cfg)
	if err != nil {
		return nil, false, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return render.Unset, true, nil
	}
	if err := cfg.Validator(answer); err != nil {
		return nil, false, err
	}
	n, _ := strconv.ParseFloat(answer, 64)
	return n, true, nil
}

func numberValidator(lower, upper string) func(string) error {
	return func(answer string) error {
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return nil
		}
		n, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", answer)
		}
		if bound, err := strconv.ParseFloat(strings.TrimSpace(lower), 64); err == nil && n < bound {
			return fmt.Errorf("must be at least %s", lower)
		}
		if bound, err := strconv.ParseFloat(strings.TrimSpace(upper), 64); err == nil && n > bound {
			return fmt.Errorf("must be at most %s", upper)
		}
		return nil
	}
}

func fieldKey(cfg model.Config) string {
	return cfg.ResultPath + "\x00" + cfg.ID
}

func fieldLabel(cfg model.Config) string {
	if label := strings.TrimSpace(cfg.Label); label != "" {
		return label
	}
	return cfg.ID
}

func optionLists(options []model.Option) (labels, values []string) {
	labels = make([]string, len(options))
	values = make([]string, len(options))
	for i, option := range options {
		labels[i] = option.Text()
		values[i] = option.Value
	}
	return labels, values
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		on, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && on
	}
	return false
}

func stringValues(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, formatValue(item))
		}
		return out
	}
	return []string{formatValue(value)}
}

func selectedIndices(options, selected []string) []int {
	var out []int
	for i, option := range options {
		if slices.Contains(selected, option) {
			out = append(out, i)
		}
	}
	return out
}
