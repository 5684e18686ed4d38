package daysummary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/roster"
	"github.com/rcliao/village-memory/internal/store"
)

var t0 = time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

func fact(id, npc string, typ model.FactType, content string, salience float64, tags ...string) model.MemoryFact {
	f := model.MemoryFact{
		ID: id, NpcID: npc, Type: typ, Content: content, Salience: salience, Mentions: 1,
		CreatedAt: t0, LastMentionedAt: t0,
	}
	for _, s := range tags {
		tag, err := model.ParseTag(s)
		if err != nil {
			panic(err)
		}
		f.Tags = append(f.Tags, tag)
	}
	return f
}

func TestBuildHighlightsPicksTopFactPerNPC(t *testing.T) {
	facts := []model.MemoryFact{
		fact("f1", "theo", model.TypeGoal, "Player wants to build a bridge.", 0.62, "day:1", "project:bridge"),
		fact("f2", "theo", model.TypeEvent, "Player picked up nails.", 0.4, "day:1", "item:nails"),
		fact("f3", "jun", model.TypeEvent, "Player planted basil in the grove.", 0.55, "day:1", "plant:basil"),
		fact("f4", "pia", model.TypeEvent, "Player visited the market.", 0.9, "day:2"),
	}

	highlights := BuildHighlights(facts, roster.Default, 1)
	require.Len(t, highlights, 2)
	assert.Equal(t, "theo", highlights[0].NpcID)
	assert.Equal(t, "Player wants to build a bridge.", highlights[0].Summary)
	assert.Equal(t, "Carpenter", highlights[0].NpcRole)
	assert.Equal(t, "jun", highlights[1].NpcID)
}

func TestBuildHighlightsTieGoesToRecent(t *testing.T) {
	a := fact("a", "mira", model.TypeEvent, "older", 0.5, "day:1")
	b := fact("b", "mira", model.TypeEvent, "newer", 0.5, "day:1")
	b.LastMentionedAt = t0.Add(time.Minute)

	highlights := BuildHighlights([]model.MemoryFact{a, b}, roster.Default, 1)
	require.Len(t, highlights, 1)
	assert.Equal(t, "newer", highlights[0].Summary)
}

func TestBuildSuggestionFallbacks(t *testing.T) {
	facts := []model.MemoryFact{
		fact("f1", "jun", model.TypeEvent, "Player planted basil.", 0.5, "day:1", "plant:basil", "place:community-hall"),
		fact("f2", "theo", model.TypeGoal, "Player wants to build a bridge.", 0.6, "day:1", "goal:build-a-bridge", "project:bridge"),
		fact("f3", "theo", model.TypeGoal, "Player wants to build a bridge again.", 0.7, "day:1", "project:bridge"),
		fact("f4", "pia", model.TypeEvent, "Yesterday.", 0.9, "day:0", "project:fence"),
	}

	got := BuildSuggestionFallbacks(facts, 1, 6)
	require.Len(t, got, 4)
	assert.Equal(t, Suggestion{Title: "Resume a goal", Detail: "Pick up where you left off: build a bridge.", SourceTag: "goal:build-a-bridge"}, got[0])
	assert.Equal(t, "Spend time moving the bridge project forward.", got[1].Detail)
	assert.Equal(t, "Swing by the community hall for a quick check-in.", got[2].Detail)
	assert.Equal(t, "Check on the basil and note its progress.", got[3].Detail)

	assert.Len(t, BuildSuggestionFallbacks(facts, 1, 0), DefaultSuggestionLimit)
	assert.Empty(t, BuildSuggestionFallbacks(facts, 5, 3))
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemStorage())

	_, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	snap := Snapshot{
		DayIndex:    1,
		Summary:     "A busy day at the hall.",
		Suggestions: []Suggestion{{Title: "Advance a project", Detail: "x", SourceTag: "project:bridge"}},
		CreatedAt:   t0,
	}
	require.NoError(t, s.Save(ctx, snap))

	got, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.Summary, got.Summary)
	assert.Equal(t, "day-summary:1", Key(1))
}
