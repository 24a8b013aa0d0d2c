// Package claimextract implements the text normalization and pattern-based
// entity extraction stages of the claim analysis pipeline.  Extraction is
// deliberately regex-based: claim forms are semi-structured and the labeled
// fields are far more reliable than free text, so an ordered list of pure
// matchers with first-match-wins precedence covers the observed format
// variance without an NLP dependency.
package claimextract

import (
	"strings"
	"unicode"
)

// Normalize canonicalises raw document text for extraction: lowercase, every
// character that is not a letter, digit, or whitespace becomes a space,
// whitespace runs (including newlines) collapse to a single space, and the
// result is trimmed.  Punctuation maps to a space rather than vanishing so
// that numeric tokens separated by symbols ("$100.00") stay separated
// ("100 00") instead of fusing into a different number ("10000").
//
// Normalize is a pure total function: it never fails and empty input yields
// empty output.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	space := true // collapse leading whitespace
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
			space = false
		case unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		default:
			// whitespace and punctuation both act as separators
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}

	return strings.TrimRight(b.String(), " ")
}
