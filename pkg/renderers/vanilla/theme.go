package vanilla

import (
	"fmt"

	theme "github.com/goliatone/go-theme"
)

// WithTheme resolves a go-theme selection when the renderer is built and
// emits its tokens as CSS custom properties on the form element. Variant
// tokens override the base manifest tokens.
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(cfg *config) {
		cfg.themeSelector = selector
		cfg.themeName = name
		cfg.themeVariant = variant
	}
}

func resolveTheme(selector theme.ThemeSelector, name, variant string) (map[string]string, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: select theme %q/%q: %w", name, variant, err)
	}
	return themeTokens(selection), nil
}

func themeTokens(selection *theme.Selection) map[string]string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	tokens := make(map[string]string, len(manifest.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	if v, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range v.Tokens {
			tokens[key] = value
		}
	}
	return tokens
}
