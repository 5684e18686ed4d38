package lexicon

import (
	"regexp"
	"strings"
)

// Pattern is a lowercase phrase matched on word boundaries.
type Pattern struct {
	Phrase string
	re     *regexp.Regexp
}

// NewPattern compiles phrase into a word-boundary matcher.
func NewPattern(phrase string) Pattern {
	phrase = strings.ToLower(phrase)
	return Pattern{
		Phrase: phrase,
		re:     regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`),
	}
}

// In reports whether the phrase occurs in text.
func (p Pattern) In(text string) bool {
	return p.re.MatchString(text)
}

// After returns the text following the first occurrence of the phrase.
func (p Pattern) After(text string) (string, bool) {
	loc := p.re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[1]:], true
}

// Phrase pairs a pattern with the third-person wording used in fact content.
type Phrase struct {
	Pattern
	Render string
}

func phrases(pairs ...string) []Phrase {
	out := make([]Phrase, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Phrase{Pattern: NewPattern(pairs[i]), Render: pairs[i+1]})
	}
	return out
}

func patterns(words ...string) []Pattern {
	out := make([]Pattern, 0, len(words))
	for _, w := range words {
		out = append(out, NewPattern(w))
	}
	return out
}

// Clause trims a verb object down to its first clause and strips trailing
// sentence punctuation.
func Clause(s string) string {
	if i := strings.IndexAny(s, ".!?;\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ",:"))
}
