// Package textutil holds the small string helpers shared by the scraper and the
// statement parser.
package textutil

import (
	"strings"
	"unicode"
)

// CleanLabel turns Unicode replacement characters left by a lossy decode into
// spaces and trims the result.
func CleanLabel(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\uFFFD", " "))
}

// Tokenize splits a label on whitespace and upper-cases the tokens.
func Tokenize(s string) []string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.ToUpper(f)
	}
	return fields
}

// UnderscoreWhitespace replaces each whitespace rune with an underscore.
func UnderscoreWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
}
