// Package search implements the accent-insensitive matching used by the
// client list and the scheduling form's client picker.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Normalize lowercases s and strips combining diacritical marks, so "José"
// and "jose" compare equal. Idempotent.
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// OnlyDigits drops everything but ASCII digits.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches reports whether a client with the given name and phone matches
// query. Names match accent- and case-insensitively; phones match on
// digit-only substrings. An empty query matches everything.
func Matches(query, name, phone string) bool {
	raw := strings.TrimSpace(query)
	q := Normalize(raw)
	digits := OnlyDigits(raw)
	if q == "" && digits == "" {
		return true
	}

	nameOK := q != "" && strings.Contains(Normalize(name), q)
	phoneOK := digits != "" && strings.Contains(OnlyDigits(phone), digits)
	return nameOK || phoneOK
}
