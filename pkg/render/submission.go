package render

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Reserved input names emitted next to the configured fields.
const (
	// ActionField carries the button that submitted the form.
	ActionField = "_action"
	// MethodField carries the HTTP verb for browsers limited to GET/POST.
	MethodField = "_method"

	ActionSubmit = "submit"
	ActionCancel = "cancel"
)

// HiddenField is a hidden input rendered alongside the visible fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken constructs a hidden field carrying the provided token under the
// input name the backend expects ("_csrf", "csrf_token", ...).
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// VersionField carries a record version so the backend can reject stale
// submissions.
func VersionField(name string, version any) HiddenField {
	return Hidden(name, version)
}

// MethodOverride returns the hidden _method field for verbs browsers cannot
// submit natively. GET and POST yield a zero HiddenField.
func MethodOverride(method string) HiddenField {
	verb := strings.ToUpper(strings.TrimSpace(method))
	switch verb {
	case "", http.MethodGet, http.MethodPost:
		return HiddenField{}
	default:
		return Hidden(MethodField, verb)
	}
}

// MergeHiddenFields returns a copy of base with the provided fields applied.
// Empty names are ignored; later fields win on name collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		out[name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields orders fields by name for deterministic markup. Empty
// names are dropped.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	merged := MergeHiddenFields(fields)
	if len(merged) == 0 {
		return nil
	}
	result := make([]HiddenField, 0, len(merged))
	for _, name := range slices.Sorted(maps.Keys(merged)) {
		result = append(result, HiddenField{Name: name, Value: merged[name]})
	}
	return result
}
