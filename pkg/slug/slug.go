package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when normalization of a display name yields nothing.
const Fallback = "user"

const separator = '-'

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lower-cases the input and strips diacritics ("Électronique" -> "electronique").
// Characters that cannot be decomposed are kept as-is.
func Fold(s string) string {
	folded, _, err := transform.String(deaccent, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Make produces a URL-safe slug from a display name: lower-case, diacritics
// stripped, runs of non-alphanumeric characters collapsed to a single "-",
// leading and trailing separators trimmed. An empty result falls back to
// Fallback so the caller always gets a usable base candidate.
func Make(name string) string {
	folded := Fold(name)

	var b strings.Builder
	b.Grow(len(folded))
	pending := false
	for _, r := range folded {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			if pending && b.Len() > 0 {
				b.WriteByte(separator)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	out := b.String()
	if out == "" {
		return Fallback
	}
	return out
}

// Valid reports whether s is already a well-formed slug: non-empty,
// lower-case alphanumerics and single interior dashes only.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	prevDash := true // leading dash is invalid
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			prevDash = false
		case r == separator:
			if prevDash {
				return false
			}
			prevDash = true
		default:
			return false
		}
	}
	return !prevDash // trailing dash is invalid
}
