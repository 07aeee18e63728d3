package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, removes combining marks and recomposes,
// turning "ç" into "c" and "ã" into "a".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases text and strips diacritics so pattern matching is
// accent- and case-insensitive. It is pure, total and idempotent: empty or
// untransformable input normalizes to a lowercased copy of itself.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded := strings.ToLower(text)
	stripped, _, err := transform.String(stripMarks, folded)
	if err != nil {
		return folded
	}
	return stripped
}
