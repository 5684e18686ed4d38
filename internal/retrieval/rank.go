package retrieval

import (
	"sort"
	"time"

	"github.com/rcliao/village-memory/internal/model"
)

const offFocusTypeMatch = 0.3

// Scored is a fact with its ranking score.
type Scored struct {
	Fact  model.MemoryFact `json:"fact"`
	Score float64          `json:"score"`
}

// Rank orders facts by the personality's composite score. Recency decays
// linearly against the oldest fact in the set. Ties go to the most recently
// mentioned fact.
func Rank(facts []model.MemoryFact, p Personality, now time.Time) []Scored {
	if len(facts) == 0 {
		return nil
	}
	ages := make([]time.Duration, len(facts))
	maxAge := time.Millisecond
	for i, f := range facts {
		ages[i] = max(0, now.Sub(f.LastMentionedAt))
		maxAge = max(maxAge, ages[i])
	}

	out := make([]Scored, len(facts))
	for i, f := range facts {
		recency := 1 - min(1, float64(ages[i])/float64(maxAge))
		typeMatch := offFocusTypeMatch
		if p.Focuses(f.Type) {
			typeMatch = 1
		}
		out[i] = Scored{
			Fact:  f,
			Score: recency*p.Weights.Recency + f.Salience*p.Weights.Salience + typeMatch*p.Weights.Type,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Fact.LastMentionedAt.After(out[j].Fact.LastMentionedAt)
	})
	return out
}

// ActiveTask returns the most salient open task, preferring the most recent
// on ties.
func ActiveTask(facts []model.MemoryFact) (model.MemoryFact, bool) {
	var best model.MemoryFact
	found := false
	for _, f := range facts {
		if !f.IsOpenTask() {
			continue
		}
		if !found || f.Salience > best.Salience ||
			(f.Salience == best.Salience && f.LastMentionedAt.After(best.LastMentionedAt)) {
			best, found = f, true
		}
	}
	return best, found
}

// LinkedMemories returns facts outside top that link to, or are linked
// from, a fact in top. Candidates keep the order of ranked.
func LinkedMemories(top []model.MemoryFact, ranked []model.MemoryFact, limit int) []model.MemoryFact {
	inTop := map[string]bool{}
	adjacent := map[string]bool{}
	for _, f := range top {
		inTop[f.ID] = true
		for _, l := range f.Links {
			adjacent[l.TargetID] = true
		}
	}
	var out []model.MemoryFact
	for _, f := range ranked {
		if limit > 0 && len(out) >= limit {
			break
		}
		if inTop[f.ID] {
			continue
		}
		if adjacent[f.ID] || linksInto(f, inTop) {
			out = append(out, f)
		}
	}
	return out
}

func linksInto(f model.MemoryFact, ids map[string]bool) bool {
	for _, l := range f.Links {
		if ids[l.TargetID] {
			return true
		}
	}
	return false
}
