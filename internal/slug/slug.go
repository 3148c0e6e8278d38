// Package slug derives URL-safe slugs from display names.
package slug

import (
	"strings"
	"unicode"
)

// Make converts a display name into a lowercase hyphen-separated slug.
// Ampersands become the word "and", every other punctuation mark is
// dropped, and runs of separators collapse into a single hyphen.
func Make(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.ReplaceAll(lower, "&", " and ")

	var b strings.Builder
	b.Grow(len(lower))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range lower {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
