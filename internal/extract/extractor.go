// Package extract turns a single player utterance into candidate memory facts
// using ordered, table-driven rules.
package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/village-memory/internal/lexicon"
	"github.com/rcliao/village-memory/internal/model"
)

// DefaultMaxFacts caps the facts produced by one utterance.
const DefaultMaxFacts = 4

// Extractor runs the rule list against utterances.
type Extractor struct {
	lex      *lexicon.Lexicon
	rules    []rule
	maxFacts int
	now      func() time.Time
	newID    func() string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxFacts overrides the per-utterance cap.
func WithMaxFacts(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxFacts = n
		}
	}
}

// WithClock sets the time source used when no timestamp is supplied.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithIDSource replaces the uniqueness salt generator.
func WithIDSource(f func() string) Option {
	return func(e *Extractor) { e.newID = f }
}

// New builds an extractor over the given lexicon.
func New(lex *lexicon.Lexicon, opts ...Option) *Extractor {
	e := &Extractor{
		lex:      lex,
		rules:    defaultRules(),
		maxFacts: DefaultMaxFacts,
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract produces up to the configured cap of facts for one utterance. Every
// fact from the same call shares createdAt. A zero at uses the clock.
func (e *Extractor) Extract(text, npcID string, dayIndex int, at time.Time) []model.MemoryFact {
	u := newUtterance(text)
	if u.Raw == "" {
		return nil
	}
	if at.IsZero() {
		at = e.now()
	}
	at = at.UTC()

	var cands []candidate
	for _, r := range e.rules {
		for _, c := range r.match(u) {
			c.typ = r.typ
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		cands = append(cands, candidate{
			typ:     model.TypeEvent,
			content: u.Raw,
			detail:  model.Tag{Group: model.GroupEvent, Value: model.GeneralValue},
		})
	}
	if len(cands) > e.maxFacts {
		cands = cands[:e.maxFacts]
	}

	lexTags := e.lex.Tags(u.Raw)
	facts := make([]model.MemoryFact, 0, len(cands))
	for _, c := range cands {
		tags := []model.Tag{
			{Group: model.GroupType, Value: string(c.typ)},
			{Group: model.GroupDay, Value: strconv.Itoa(dayIndex)},
			model.NewTag(model.GroupNPC, npcID),
		}
		tags = model.UnionTags(tags, lexTags)
		if c.detail.Value != "" {
			tags = model.UnionTags(tags, []model.Tag{c.detail})
		}

		f := model.MemoryFact{
			ID:              e.factID(npcID, c.typ, c.content),
			NpcID:           npcID,
			Type:            c.typ,
			Content:         c.content,
			Tags:            tags,
			Salience:        score(c.typ, u),
			Mentions:        1,
			CreatedAt:       at,
			LastMentionedAt: at,
		}
		if c.typ == model.TypeTask {
			f.Status = model.StatusOpen
		}
		f.Anchors = Anchors(tags, u.Raw)
		facts = append(facts, f)
	}
	return facts
}

func (e *Extractor) factID(npcID string, typ model.FactType, content string) string {
	fp := model.NormalizeValue(content)
	if len(fp) > 32 {
		fp = strings.TrimRight(fp[:32], "-")
	}
	return fmt.Sprintf("%s-%s-%s-%s", npcID, typ, e.newID(), fp)
}

// utterance carries the raw and lowercased forms of one player line.
type utterance struct {
	Raw   string
	Lower string
}

func newUtterance(text string) utterance {
	raw := strings.Join(strings.Fields(text), " ")
	raw = strings.NewReplacer("’", "'", "‘", "'").Replace(raw)
	return utterance{Raw: raw, Lower: strings.ToLower(raw)}
}
