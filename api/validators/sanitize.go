package validators

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeString strips markup and trims the input to maxLen runes.
// Entities escaped by the policy are decoded back so names round-trip as typed.
func SanitizeString(input string, maxLen int) string {
	cleaned := html.UnescapeString(strictPolicy.Sanitize(input))
	trimmed := strings.TrimSpace(cleaned)
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		runes := []rune(trimmed)
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return trimmed
}
