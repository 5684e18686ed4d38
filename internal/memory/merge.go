package memory

import (
	"math"
	"sort"

	"github.com/rcliao/village-memory/internal/extract"
	"github.com/rcliao/village-memory/internal/model"
)

// mergeFacts folds incoming facts into existing ones by semantic key and
// returns the combined set ordered by lastMentionedAt desc, then id, plus how
// many incoming facts matched a stored memory. Links that pointed at an incoming id which merged away are redirected to
// the surviving fact.
func mergeFacts(existing, incoming []model.MemoryFact) ([]model.MemoryFact, int) {
	out := make([]model.MemoryFact, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))
	for _, f := range existing {
		index[f.SemanticKey()] = len(out)
		out = append(out, f.Clone())
	}

	alias := map[string]string{}
	merged := 0
	for _, in := range incoming {
		key := in.SemanticKey()
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, in.Clone())
			continue
		}
		alias[in.ID] = out[i].ID
		out[i] = combine(out[i], in)
		merged++
	}

	if len(alias) > 0 {
		for i := range out {
			out[i].Links = redirectLinks(out[i].ID, out[i].Links, alias)
		}
	}

	SortFacts(out)
	return out, merged
}

// combine applies the reinforcement rule to one stored fact.
func combine(cur, in model.MemoryFact) model.MemoryFact {
	mentions := cur.Mentions + in.Mentions
	boost := math.Min(0.12, math.Log2(float64(mentions)+1)*0.04)
	blended := extract.Clamp(cur.Salience*0.65 + in.Salience*0.35 + 0.04 + boost)

	cur.Mentions = mentions
	cur.Salience = math.Max(cur.Salience, blended)
	cur.LastMentionedAt = in.LastMentionedAt
	cur.Tags = model.UnionTags(cur.Tags, in.Tags)

	switch {
	case cur.Status == model.StatusDone || in.Status == model.StatusDone:
		cur.Status = model.StatusDone
	case cur.Status == "":
		cur.Status = in.Status
	}

	if cur.ThreadID == "" {
		cur.ThreadID = in.ThreadID
	}
	if in.ThreadSequence > cur.ThreadSequence {
		cur.ThreadSequence = in.ThreadSequence
	}

	cur.Anchors = unionAnchors(cur.Anchors, in.Anchors)
	cur.Links = unionLinks(cur.Links, in.Links)
	return cur
}

func redirectLinks(selfID string, links []model.Link, alias map[string]string) []model.Link {
	if len(links) == 0 {
		return links
	}
	out := make([]model.Link, 0, len(links))
	seen := map[model.Link]bool{}
	for _, l := range links {
		if to, ok := alias[l.TargetID]; ok {
			l.TargetID = to
		}
		if l.TargetID == selfID || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// SortFacts orders facts by lastMentionedAt desc, then id asc.
func SortFacts(facts []model.MemoryFact) {
	sort.SliceStable(facts, func(i, j int) bool {
		a, b := facts[i], facts[j]
		if !a.LastMentionedAt.Equal(b.LastMentionedAt) {
			return a.LastMentionedAt.After(b.LastMentionedAt)
		}
		return a.ID < b.ID
	})
}
