// Package textnorm normalizes article titles for matching and deduplication.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Title returns the comparison key for a title: NFKC-normalized, case-folded,
// with punctuation and symbols removed and whitespace runs collapsed to a
// single space. It is total: every input, including "", has a key.
func Title(s string) string {
	if s == "" {
		return ""
	}
	// cases.Caser is stateful, so one per call.
	s = cases.Fold().String(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '_':
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}
