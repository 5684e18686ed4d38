// Package daysummary derives end-of-day highlights and next-day suggestions
// from memory facts and keeps per-day summary snapshots.
package daysummary

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rcliao/village-memory/internal/model"
)

// DefaultSuggestionLimit caps fallback suggestions.
const DefaultSuggestionLimit = 3

// Highlight is the most salient memory one NPC formed during a day.
type Highlight struct {
	NpcID   string      `json:"npcId"`
	NpcName string      `json:"npcName"`
	NpcRole string      `json:"npcRole"`
	Summary string      `json:"summary"`
	Tags    []model.Tag `json:"tags"`
}

// Suggestion is a proposed activity for the next day.
type Suggestion struct {
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	SourceTag string `json:"sourceTag,omitempty"`
}

func onDay(facts []model.MemoryFact, day int) []model.MemoryFact {
	tag := model.NewTag(model.GroupDay, strconv.Itoa(day))
	var out []model.MemoryFact
	for _, f := range facts {
		if f.HasTag(tag) {
			out = append(out, f)
		}
	}
	return out
}

// BuildHighlights picks, for every roster NPC, its most salient fact tagged
// with day. Ties go to the most recently mentioned fact. Highlights follow
// roster order.
func BuildHighlights(facts []model.MemoryFact, roster []model.NPC, day int) []Highlight {
	top := map[string]model.MemoryFact{}
	for _, f := range onDay(facts, day) {
		cur, ok := top[f.NpcID]
		if !ok || f.Salience > cur.Salience ||
			(f.Salience == cur.Salience && f.LastMentionedAt.After(cur.LastMentionedAt)) {
			top[f.NpcID] = f
		}
	}

	var out []Highlight
	for _, npc := range roster {
		f, ok := top[npc.ID]
		if !ok {
			continue
		}
		out = append(out, Highlight{
			NpcID:   npc.ID,
			NpcName: npc.Name,
			NpcRole: npc.Role,
			Summary: f.Content,
			Tags:    f.Tags,
		})
	}
	return out
}

var suggestionGroups = []string{
	model.GroupGoal,
	model.GroupProject,
	model.GroupActivity,
	model.GroupPlace,
	model.GroupPlant,
	model.GroupItem,
}

// BuildSuggestionFallbacks templates next-day suggestions from the day's
// goal, project, activity, place, plant and item tags. Suggestions are
// grouped in that order, more salient facts first within a group, and
// deduplicated by tag.
func BuildSuggestionFallbacks(facts []model.MemoryFact, day, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	dayFacts := onDay(facts, day)
	sort.SliceStable(dayFacts, func(i, j int) bool {
		return dayFacts[i].Salience > dayFacts[j].Salience
	})

	seen := map[model.Tag]bool{}
	var out []Suggestion
	for _, group := range suggestionGroups {
		for _, f := range dayFacts {
			for _, t := range f.Tags {
				if t.Group != group || t.Value == "" || t.Value == model.GeneralValue || seen[t] {
					continue
				}
				seen[t] = true
				out = append(out, suggestionFor(t))
				if len(out) == limit {
					return out
				}
			}
		}
	}
	return out
}

func suggestionFor(t model.Tag) Suggestion {
	v := model.Humanize(t.Value)
	s := Suggestion{SourceTag: t.String()}
	switch t.Group {
	case model.GroupGoal:
		s.Title, s.Detail = "Resume a goal", fmt.Sprintf("Pick up where you left off: %s.", v)
	case model.GroupProject:
		s.Title, s.Detail = "Advance a project", fmt.Sprintf("Spend time moving the %s project forward.", v)
	case model.GroupActivity:
		s.Title, s.Detail = "Plan an activity", fmt.Sprintf("Make room today for more %s.", v)
	case model.GroupPlace:
		s.Title, s.Detail = "Revisit a place", fmt.Sprintf("Swing by the %s for a quick check-in.", v)
	case model.GroupPlant:
		s.Title, s.Detail = "Tend the garden", fmt.Sprintf("Check on the %s and note its progress.", v)
	case model.GroupItem:
		s.Title, s.Detail = "Gather supplies", fmt.Sprintf("See if you still need %s for today's tasks.", v)
	}
	return s
}

// Snapshot is the stored record of one finished day.
type Snapshot struct {
	DayIndex       int                   `json:"dayIndex"`
	Summary        string                `json:"summary"`
	Highlights     []Highlight           `json:"highlights"`
	Suggestions    []Suggestion          `json:"suggestions"`
	PlayerInsights []model.PlayerInsight `json:"playerInsights,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// KeyPrefix starts every snapshot settings key.
const KeyPrefix = "day-summary:"

// Key returns the settings key of a day's snapshot.
func Key(day int) string {
	return KeyPrefix + strconv.Itoa(day)
}

// Settings is the persistence capability the snapshot store needs.
type Settings interface {
	LoadSetting(ctx context.Context, key string, v any) (bool, error)
	SaveSetting(ctx context.Context, key string, v any) error
}

// Store saves and loads day snapshots.
type Store struct {
	settings Settings
}

// NewStore creates a snapshot store over settings.
func NewStore(settings Settings) *Store {
	return &Store{settings: settings}
}

// Save stores snap under its day.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	if err := s.settings.SaveSetting(ctx, Key(snap.DayIndex), snap); err != nil {
		return fmt.Errorf("save day %d summary: %w", snap.DayIndex, err)
	}
	return nil
}

// Load returns the snapshot for day and whether one exists.
func (s *Store) Load(ctx context.Context, day int) (Snapshot, bool, error) {
	var snap Snapshot
	ok, err := s.settings.LoadSetting(ctx, Key(day), &snap)
	if err != nil {
		return snap, false, fmt.Errorf("load day %d summary: %w", day, err)
	}
	return snap, ok, nil
}
