package sanitizer

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// PlainText strips every HTML element from s, collapses whitespace, and
// truncates the result to maxRunes (0 means no limit). It is used on
// values that come from third parties, such as provider display names.
func PlainText(s string, maxRunes int) string {
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	s = NormalizeWhitespace(s)
	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxRunes]))
	}
	return s
}

// NormalizeWhitespace collapses runs of whitespace into single spaces and
// trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
