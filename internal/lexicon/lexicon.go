// Package lexicon holds the keyword and entity tables used to mine structure
// out of player speech.
package lexicon

import (
	"regexp"
	"strings"

	"github.com/rcliao/village-memory/internal/model"
)

var (
	genreRe       = regexp.MustCompile(`\b([a-z][a-z0-9-]*) music\b`)
	attributionRe = regexp.MustCompile(`\bby ((?:[A-Z][\w'-]*)(?:\s+[A-Z][\w'-]*)*)`)
	quotedRe      = regexp.MustCompile(`["“]([^"”]{2,60})["”]`)
	capitalizedRe = regexp.MustCompile(`\b([A-Z][a-z0-9']+(?:\s+(?:of|the|[A-Z][a-z0-9']+))*\s+[A-Z][a-z0-9']+)\b`)
)

// genreStopwords are words that precede "music" without naming a genre.
var genreStopwords = map[string]bool{
	"a": true, "the": true, "some": true, "more": true, "small": true, "live": true,
	"good": true, "nice": true, "new": true, "loud": true, "quiet": true, "soft": true,
	"my": true, "our": true, "your": true, "their": true, "background": true, "of": true,
	"play": true, "playing": true, "hear": true, "listen": true, "to": true, "any": true,
}

type compiledEntry struct {
	value   string
	aliases []Pattern
}

type compiledTable struct {
	group   string
	entries []compiledEntry
}

// Lexicon matches entity tables against utterances.
type Lexicon struct {
	tables []compiledTable
}

// New builds a lexicon whose person table is seeded from the roster.
func New(npcs []model.NPC) *Lexicon {
	people := Table{Group: model.GroupPerson}
	for _, n := range npcs {
		aliases := []string{n.ID}
		if n.Name != "" {
			aliases = append(aliases, n.Name)
		}
		if n.Role != "" {
			aliases = append(aliases, n.Role)
		}
		people.Entries = append(people.Entries, Entry{Value: n.ID, Aliases: aliases})
	}

	tables := append([]Table{people}, StaticTables...)
	l := &Lexicon{tables: make([]compiledTable, 0, len(tables))}
	for _, t := range tables {
		ct := compiledTable{group: t.Group}
		for _, e := range t.Entries {
			ce := compiledEntry{value: model.NormalizeValue(e.Value)}
			for _, a := range e.Aliases {
				ce.aliases = append(ce.aliases, NewPattern(a))
			}
			ct.entries = append(ct.entries, ce)
		}
		l.tables = append(l.tables, ct)
	}
	return l
}

// Tags mines every entity tag from raw text. Results are deduplicated and
// follow table order.
func (l *Lexicon) Tags(raw string) []model.Tag {
	lower := strings.ToLower(raw)
	var tags []model.Tag
	seen := map[model.Tag]bool{}
	add := func(t model.Tag) {
		if t.Value == "" || seen[t] {
			return
		}
		seen[t] = true
		tags = append(tags, t)
	}

	for _, t := range l.tables {
		for _, e := range t.entries {
			for _, a := range e.aliases {
				if a.In(lower) {
					add(model.Tag{Group: t.group, Value: e.value})
					break
				}
			}
		}
	}

	for _, m := range genreRe.FindAllStringSubmatch(lower, -1) {
		if !genreStopwords[m[1]] {
			add(model.NewTag(model.GroupGenre, m[1]))
		}
	}

	persons := map[string]bool{}
	for _, t := range tags {
		if t.Group == model.GroupPerson {
			persons[t.Value] = true
		}
	}
	for _, m := range attributionRe.FindAllStringSubmatch(raw, -1) {
		v := model.NormalizeValue(m[1])
		persons[v] = true
		add(model.Tag{Group: model.GroupPerson, Value: v})
	}

	known := map[string]bool{}
	for _, t := range tags {
		known[t.Value] = true
	}
	for _, title := range titles(raw) {
		v := model.NormalizeValue(title)
		if persons[v] || known[v] {
			continue
		}
		add(model.Tag{Group: model.GroupTitle, Value: v})
	}
	return tags
}

// titles returns quoted phrases and runs of capitalized words. A run that
// opens a sentence loses its first word, which is capitalized anyway.
func titles(raw string) []string {
	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(raw, -1) {
		out = append(out, m[1])
	}
	for _, loc := range capitalizedRe.FindAllStringSubmatchIndex(raw, -1) {
		phrase := raw[loc[2]:loc[3]]
		if sentenceStart(raw, loc[2]) {
			_, rest, _ := strings.Cut(phrase, " ")
			if !strings.Contains(strings.TrimSpace(rest), " ") {
				continue
			}
			phrase = strings.TrimSpace(rest)
		}
		phrase = strings.TrimPrefix(phrase, "The ")
		out = append(out, phrase)
	}
	return out
}

func sentenceStart(raw string, i int) bool {
	before := strings.TrimRight(raw[:i], " \t\"“'")
	return before == "" || strings.ContainsAny(before[len(before)-1:], ".!?\n")
}
