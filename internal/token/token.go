package token

import (
	"strings"
	"unicode/utf8"
)

// Character classes used when cleaning extracted text. Separators are
// artificial markers some sources insert between runs and are dropped
// outright; punctuation and currency glyphs that end up isolated in their
// own token are merged back onto the word they follow.
const (
	separators  = "*"
	punctuation = `,?;.:!()°"'`
	currency    = "€$£"
)

// IsSeparator reports whether tok is a single character from the separator set.
func IsSeparator(tok string) bool {
	return isSingleRuneFrom(tok, separators)
}

// IsCollapsible reports whether tok is a lone punctuation or currency glyph
// that should be appended to the preceding token instead of standing alone.
func IsCollapsible(tok string) bool {
	return isSingleRuneFrom(tok, punctuation) || isSingleRuneFrom(tok, currency)
}

func isSingleRuneFrom(tok, set string) bool {
	if utf8.RuneCountInString(tok) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(tok)
	return strings.ContainsRune(set, r)
}
