package schema

import "strings"

// DefaultTheme is used when no theme has been selected.
const DefaultTheme ThemeName = "default"

// NormalizeThemeName trims a theme name. Theme files are resolved elsewhere, so
// any non-empty name is accepted.
func NormalizeThemeName(name string) (ThemeName, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", false
	}
	return ThemeName(trimmed), true
}
