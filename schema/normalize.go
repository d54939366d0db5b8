package schema

import (
	"strings"
	"unicode"
)

// DefaultTitle is the stem used for new blank documents.
const DefaultTitle Title = "Untitled"

// NormalizeTitle trims a title and rejects ones that sanitize to nothing.
func NormalizeTitle(title Title) (Title, error) {
	trimmed := strings.TrimSpace(string(title))
	if trimmed == "" || SanitizeTitle(Title(trimmed)) == "" {
		return "", ErrInvalidTitle
	}
	return Title(trimmed), nil
}

// SanitizeTitle maps a title to a safe file stem. Path separators, reserved
// punctuation and control characters become '_'; leading dots and surrounding
// spaces are dropped.
func SanitizeTitle(title Title) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(string(title)) {
		switch {
		case unicode.IsControl(r):
			b.WriteRune('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(strings.TrimLeft(b.String(), "."))
}
