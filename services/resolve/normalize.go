package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle produces the canonical form used both for candidate
// deduplication and for rank matching: NFKC fold (so full-width forms like
// "ＡＢＣ" and "｜" compare equal to their half-width counterparts), lowercase,
// punctuation mapped to spaces, whitespace collapsed and trimmed.
//
// The function is idempotent: normalizing an already-normalized string is a
// no-op.
func NormalizeTitle(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			// quotes, dashes, colons and all other punctuation
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
