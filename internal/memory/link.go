package memory

import (
	"sort"

	"github.com/rcliao/village-memory/internal/model"
)

// MaxLinks caps the links discovered for one incoming fact.
const MaxLinks = 4

type linkCandidate struct {
	target  model.MemoryFact
	overlap int
	label   string
}

// AttachLinks discovers links from each incoming fact to the other incoming
// facts and to the existing facts of the same NPC. Existing facts are not
// updated to point back.
//
// Facts from the same utterance share createdAt and always link with the
// "context" label; they rank ahead of anchor overlap so the cap never drops
// them.
func AttachLinks(facts, existing []model.MemoryFact) []model.MemoryFact {
	pool := make([]model.MemoryFact, 0, len(facts)+len(existing))
	pool = append(pool, facts...)
	pool = append(pool, existing...)

	out := make([]model.MemoryFact, 0, len(facts))
	for _, f := range facts {
		f = f.Clone()
		keys := anchorKeys(f)
		semKey := f.SemanticKey()

		var cands []linkCandidate
		for _, other := range pool {
			if other.ID == f.ID || other.NpcID != f.NpcID || other.SemanticKey() == semKey {
				continue
			}
			overlap := 0
			for _, a := range other.Anchors {
				if keys[a.Key()] {
					overlap++
				}
			}
			sameUtterance := other.CreatedAt.Equal(f.CreatedAt)
			if overlap == 0 && !sameUtterance {
				continue
			}
			label := model.LabelContext
			if !sameUtterance {
				label = affinityLabel(f, other)
			}
			cands = append(cands, linkCandidate{target: other, overlap: overlap, label: label})
		}

		sort.SliceStable(cands, func(i, j int) bool {
			a, b := cands[i], cands[j]
			if ac, bc := a.label == model.LabelContext, b.label == model.LabelContext; ac != bc {
				return ac
			}
			if a.overlap != b.overlap {
				return a.overlap > b.overlap
			}
			if !a.target.LastMentionedAt.Equal(b.target.LastMentionedAt) {
				return a.target.LastMentionedAt.After(b.target.LastMentionedAt)
			}
			return a.target.ID < b.target.ID
		})
		if len(cands) > MaxLinks {
			cands = cands[:MaxLinks]
		}

		found := make([]model.Link, 0, len(cands))
		for _, c := range cands {
			found = append(found, model.Link{TargetID: c.target.ID, Label: c.label})
		}
		f.Links = unionLinks(f.Links, found)
		out = append(out, f)
	}
	return out
}

// affinityLabel names the relation from src to tgt. The creator and artist
// labels apply only when exactly one side carries the person anchor.
func affinityLabel(src, tgt model.MemoryFact) string {
	s, t := anchorTypeSet(src), anchorTypeSet(tgt)
	switch {
	case s["title"] && t["person"] && !s["person"]:
		return model.LabelCreatedBy
	case s["person"] && t["title"] && !t["person"]:
		return model.LabelCreatorOf
	case s["person"] && t["genre"] && !t["person"]:
		return model.LabelArtistInGenre
	case s["genre"] && t["person"] && !s["person"]:
		return model.LabelGenreOfArtist
	}
	return model.LabelRelated
}

func anchorKeys(f model.MemoryFact) map[string]bool {
	keys := make(map[string]bool, len(f.Anchors))
	for _, a := range f.Anchors {
		keys[a.Key()] = true
	}
	return keys
}

func anchorTypeSet(f model.MemoryFact) map[string]bool {
	types := make(map[string]bool, len(f.Anchors))
	for _, a := range f.Anchors {
		types[a.Type] = true
	}
	return types
}

// SharesAnchor reports whether a and b have at least one anchor in common.
func SharesAnchor(a, b model.MemoryFact) bool {
	keys := anchorKeys(a)
	for _, an := range b.Anchors {
		if keys[an.Key()] {
			return true
		}
	}
	return false
}

func unionLinks(a, b []model.Link) []model.Link {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]model.Link, 0, len(a)+len(b))
	seen := map[model.Link]bool{}
	for _, list := range [][]model.Link{a, b} {
		for _, l := range list {
			if seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func unionAnchors(a, b []model.Anchor) []model.Anchor {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]model.Anchor, 0, len(a)+len(b))
	seen := map[model.Anchor]bool{}
	for _, list := range [][]model.Anchor{a, b} {
		for _, an := range list {
			if seen[an] {
				continue
			}
			seen[an] = true
			out = append(out, an)
		}
	}
	return out
}
