// Package phone canonicalizes raw phone numbers into a dialable E.164-like form.
package phone

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultCountryCode is prepended to bare national numbers.
const DefaultCountryCode = "91"

// nationalLength is the length in characters of "+" followed by a bare 10-digit national number.
const nationalLength = 11

// Normalize strips whitespace and dashes, ensures a leading "+", and prefixes
// DefaultCountryCode when what remains is a bare 10-digit national number.
//
// This is a best-effort heuristic, not a validator: malformed input is passed
// through after the "+" and country-code rules are applied. Normalize is
// idempotent.
func Normalize(raw string) string {
	number := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, raw)

	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}

	if utf8.RuneCountInString(number) == nationalLength {
		number = "+" + DefaultCountryCode + strings.TrimPrefix(number, "+")
	}

	return number
}

// WithPlus returns number with a leading "+" added if it has none. It is the
// form transcript records use for phone numbers.
func WithPlus(number string) string {
	if strings.HasPrefix(number, "+") {
		return number
	}
	return "+" + number
}
