package render

import "strings"

// Default button labels.
const (
	DefaultPrimaryButton   = "Submit"
	DefaultSecondaryButton = "Cancel"
)

// RenderOptions describe per-request data that surfaces use to customise
// their output without touching the configs.
type RenderOptions struct {
	// Action and Method populate the form element. Verbs other than GET/POST
	// are submitted as POST with a hidden _method input.
	Action string
	Method string
	// ClassName is appended to the form element classes.
	ClassName string

	// PrimaryButton and SecondaryButton label the submit and cancel
	// buttons; empty values fall back to the defaults. NoButtons drops the
	// default buttons and Buttons replaces them with caller markup.
	PrimaryButton   string
	SecondaryButton string
	NoButtons       bool
	Buttons         string

	// Hidden inputs (CSRF tokens, versions) rendered inside the form.
	Hidden map[string]string

	// Errors surfaces external validation feedback keyed by result path.
	// These are always shown, independent of the validate flag. FormErrors
	// are shown above the fields.
	Errors     map[string][]string
	FormErrors []string
}

// PrimaryLabel returns the submit button label.
func (o RenderOptions) PrimaryLabel() string {
	if label := strings.TrimSpace(o.PrimaryButton); label != "" {
		return label
	}
	return DefaultPrimaryButton
}

// SecondaryLabel returns the cancel button label.
func (o RenderOptions) SecondaryLabel() string {
	if label := strings.TrimSpace(o.SecondaryButton); label != "" {
		return label
	}
	return DefaultSecondaryButton
}

// FormMethod returns the verb for the form element itself.
func (o RenderOptions) FormMethod() string {
	switch strings.ToUpper(strings.TrimSpace(o.Method)) {
	case "GET":
		return "get"
	default:
		return "post"
	}
}

// HiddenFields returns the sorted hidden inputs including the method
// override when one is needed.
func (o RenderOptions) HiddenFields() []HiddenField {
	return SortedHiddenFields(MergeHiddenFields(o.Hidden, MethodOverride(o.Method)))
}

// ExternalErrors returns the external messages for a result path.
func (o RenderOptions) ExternalErrors(resultPath string) []string {
	if len(o.Errors) == 0 {
		return nil
	}
	return cleanMessages(o.Errors[strings.TrimSpace(resultPath)])
}
