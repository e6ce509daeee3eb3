package render

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-forms/pkg/model"
)

// ErrorMapping splits an external error payload into field-level messages
// keyed by result path and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors appends extras to existing, trimming whitespace and
// dropping blanks and duplicates. Order is kept.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return cleanMessages(combined)
}

// MapErrorPayload matches server error payloads to the result paths of
// configs. Keys may be JSON pointers ("/body/name"), dotted or bracketed
// paths ("owner.tags[0]") or field ids. Keys that match nothing become
// form-level messages so they are still shown.
func MapErrorPayload(configs []model.Config, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		return mapping
	}

	idx := newErrorIndex(configs)
	for key, messages := range payload {
		messages = cleanMessages(messages)
		if len(messages) == 0 {
			continue
		}
		if target, ok := idx.resolve(key); ok {
			mapping.Fields[target] = append(mapping.Fields[target], messages...)
			continue
		}
		mapping.Form = append(mapping.Form, messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = cleanMessages(mapping.Form)
	return mapping
}

// Leading segments servers commonly wrap the submitted object in.
var payloadWrappers = map[string]bool{
	"body":       true,
	"request":    true,
	"payload":    true,
	"data":       true,
	"attributes": true,
}

var formLevelKeys = map[string]bool{
	"":                 true,
	"form":             true,
	"base":             true,
	"__all__":          true,
	"non_field_errors": true,
	"non-field-errors": true,
}

type errorIndex struct {
	paths map[string]bool
	ids   map[string]string
}

func newErrorIndex(configs []model.Config) errorIndex {
	idx := errorIndex{paths: map[string]bool{}, ids: map[string]string{}}
	idx.add(configs)
	return idx
}

func (idx errorIndex) add(configs []model.Config) {
	for _, cfg := range configs {
		if cfg.IsGroup() {
			idx.add(cfg.Elements)
			continue
		}
		p := cfg.Path()
		if p.Empty() {
			continue
		}
		idx.paths[p.String()] = true
		if id := strings.TrimSpace(cfg.ID); id != "" {
			idx.ids[id] = p.String()
		}
	}
}

// resolve returns the result path key refers to. The deepest matching
// prefix wins across the raw segments and their unwrapped and index-free
// variants.
func (idx errorIndex) resolve(key string) (string, bool) {
	segments := splitErrorKey(key)
	if len(segments) == 0 || (len(segments) == 1 && formLevelKeys[strings.ToLower(segments[0])]) {
		return "", false
	}

	best, depth := "", 0
	for _, candidate := range keyVariants(segments) {
		for end := len(candidate); end > depth; end-- {
			joined := strings.Join(candidate[:end], ".")
			if idx.paths[joined] {
				best, depth = joined, end
				break
			}
		}
	}
	if best != "" {
		return best, true
	}
	target, ok := idx.ids[strings.TrimSpace(key)]
	return target, ok
}

// splitErrorKey breaks a pointer, JSONPath-ish or dotted key into segments,
// decoding the ~0 and ~1 pointer escapes.
func splitErrorKey(key string) []string {
	key = strings.NewReplacer("[", ".", "]", "").Replace(strings.TrimSpace(key))
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i == 0 {
			part = strings.TrimLeft(part, "#$")
		}
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		out = append(out, strings.ReplaceAll(part, "~0", "~"))
	}
	return out
}

func keyVariants(segments []string) [][]string {
	unwrapped := segments
	for len(unwrapped) > 0 && payloadWrappers[strings.ToLower(unwrapped[0])] {
		unwrapped = unwrapped[1:]
	}
	return [][]string{segments, unwrapped, withoutIndexes(segments), withoutIndexes(unwrapped)}
}

func withoutIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err != nil {
			out = append(out, segment)
		}
	}
	return out
}

func cleanMessages(messages []string) []string {
	var out []string
	seen := make(map[string]bool, len(messages))
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" || seen[message] {
			continue
		}
		seen[message] = true
		out = append(out, message)
	}
	return out
}
