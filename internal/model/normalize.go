package model

import (
	"strings"
	"unicode"
)

// NormalizeValue lowercases s, drops anything that is not a letter, digit,
// space or hyphen, and joins the words with single hyphens.
func NormalizeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		}
	}
	return b.String()
}

// NormalizeText folds content for semantic comparison: lowercase, punctuation
// removed, whitespace collapsed.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			space = true
		}
	}
	return b.String()
}

// Humanize turns a normalized value back into spaced words.
func Humanize(value string) string {
	return strings.ReplaceAll(value, "-", " ")
}
