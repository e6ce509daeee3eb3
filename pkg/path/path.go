// Package path reads and writes values inside nested store trees using
// explicit segment lists. Lookups never fail: a missing intermediate segment
// reports the value as undefined. Writes are immutable and return a new tree
// that shares untouched branches with the input.
package path

import (
	"strconv"
	"strings"
)

// Path is an ordered list of segments. Numeric segments index into slices.
type Path []string

// Parse converts a dotted path ("owner.emails[0].address") into segments.
// Bracket indices are normalised to plain segments and blanks are dropped.
func Parse(dotted string) Path {
	clean := strings.TrimSpace(dotted)
	if clean == "" {
		return nil
	}
	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = replacer.Replace(clean)

	parts := strings.Split(clean, ".")
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		out = append(out, segment)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// String joins the segments with dots.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Empty reports whether the path has no segments.
func (p Path) Empty() bool {
	return len(p) == 0
}

// Get resolves p against root. The boolean is false when any segment is
// missing, which callers treat as "undefined". An empty path is undefined.
func Get(root any, p Path) (any, bool) {
	if len(p) == 0 {
		return nil, false
	}
	current := root
	for _, segment := range p {
		next, ok := child(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// GetString is a convenience wrapper around Get for dotted paths.
func GetString(root map[string]any, dotted string) (any, bool) {
	return Get(root, Parse(dotted))
}

func child(node any, segment string) (any, bool) {
	switch typed := node.(type) {
	case map[string]any:
		value, ok := typed[segment]
		return value, ok
	case map[string]string:
		value, ok := typed[segment]
		return value, ok
	case []any:
		idx, ok := index(segment, len(typed))
		if !ok {
			return nil, false
		}
		return typed[idx], true
	case []map[string]any:
		idx, ok := index(segment, len(typed))
		if !ok {
			return nil, false
		}
		return typed[idx], true
	case []string:
		idx, ok := index(segment, len(typed))
		if !ok {
			return nil, false
		}
		return typed[idx], true
	default:
		return nil, false
	}
}

func index(segment string, length int) (int, bool) {
	idx, err := strconv.Atoi(segment)
	if err != nil || idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

// Set returns a copy of root with value written at p. Containers along the
// path are copied; siblings are shared. Missing or non-container
// intermediates are replaced with maps. The input tree is never modified.
func Set(root map[string]any, p Path, value any) map[string]any {
	if len(p) == 0 {
		return cloneMap(root)
	}
	updated, _ := setIn(root, p, value).(map[string]any)
	return updated
}

func setIn(node any, p Path, value any) any {
	if len(p) == 0 {
		return value
	}
	segment := p[0]

	if list, ok := node.([]any); ok {
		if idx, err := strconv.Atoi(segment); err == nil && idx >= 0 {
			size := len(list)
			if idx >= size {
				size = idx + 1
			}
			out := make([]any, size)
			copy(out, list)
			out[idx] = setIn(out[idx], p[1:], value)
			return out
		}
	}

	var out map[string]any
	switch typed := node.(type) {
	case map[string]any:
		out = cloneMap(typed)
	case map[string]string:
		out = make(map[string]any, len(typed)+1)
		for k, v := range typed {
			out[k] = v
		}
	default:
		out = make(map[string]any, 1)
	}
	out[segment] = setIn(out[segment], p[1:], value)
	return out
}

// Delete returns a copy of root without the value at p. Paths that do not
// resolve leave the copy unchanged.
func Delete(root map[string]any, p Path) map[string]any {
	if len(p) == 0 {
		return cloneMap(root)
	}
	if _, ok := Get(root, p); !ok {
		return cloneMap(root)
	}
	updated, _ := deleteIn(root, p).(map[string]any)
	return updated
}

func deleteIn(node any, p Path) any {
	segment := p[0]
	switch typed := node.(type) {
	case map[string]any:
		out := cloneMap(typed)
		if len(p) == 1 {
			delete(out, segment)
			return out
		}
		out[segment] = deleteIn(out[segment], p[1:])
		return out
	case []any:
		idx, _ := strconv.Atoi(segment)
		out := make([]any, len(typed))
		copy(out, typed)
		if len(p) == 1 {
			return append(out[:idx], out[idx+1:]...)
		}
		out[idx] = deleteIn(out[idx], p[1:])
		return out
	default:
		return node
	}
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
