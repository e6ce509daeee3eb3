package vanilla

import (
	"sort"
	"strings"
)

// classNames joins class tokens dropping blanks and duplicates. Entries may
// hold several space separated tokens.
func classNames(values ...string) string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, token := range strings.Fields(value) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
		}
	}
	return strings.Join(out, " ")
}

// cssVars converts theme tokens into a style attribute body. Token names
// gain a "--" prefix; values that could break out of the declaration are
// skipped.
func cssVars(tokens map[string]string) string {
	if len(tokens) == 0 {
		return ""
	}
	names := make([]string, 0, len(tokens))
	for name, value := range tokens {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(value, ";{}<>") || strings.ContainsAny(name, ";:{} ") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	decls := make([]string, 0, len(names))
	for _, name := range names {
		prop := strings.TrimSpace(name)
		if !strings.HasPrefix(prop, "--") {
			prop = "--" + prop
		}
		decls = append(decls, prop+": "+strings.TrimSpace(tokens[name]))
	}
	return strings.Join(decls, "; ")
}
