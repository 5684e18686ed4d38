package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/rcliao/village-memory/internal/conversation"
	"github.com/rcliao/village-memory/internal/extract"
	"github.com/rcliao/village-memory/internal/lexicon"
	"github.com/rcliao/village-memory/internal/memory"
	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/observe"
	"github.com/rcliao/village-memory/internal/profile"
	"github.com/rcliao/village-memory/internal/roster"
	"github.com/rcliao/village-memory/internal/store"
)

var (
	t0   = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	theo = model.NPC{ID: "theo", Name: "Theo", Role: "Carpenter"}
	jun  = model.NPC{ID: "jun", Name: "Jun", Role: "Garden Keeper"}
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	require.NoError(t, err)
	return m
}

type env struct {
	facts    *memory.Store
	log      *conversation.Log
	profiles *profile.Store
	builder  *Builder
}

func newEnv(t *testing.T, now time.Time) *env {
	t.Helper()
	e := &env{
		facts:    memory.NewStore(nil),
		log:      conversation.NewLog(nil),
		profiles: profile.NewStore(store.NewMemStorage()),
	}
	e.builder = NewBuilder(e.facts, e.log, e.profiles,
		WithClock(func() time.Time { return now }),
		WithMetrics(testMetrics(t)),
	)
	return e
}

func mk(id, npc string, typ model.FactType, content string, salience float64, at time.Time) model.MemoryFact {
	return model.MemoryFact{
		ID:              id,
		NpcID:           npc,
		Type:            typ,
		Content:         content,
		Tags:            []model.Tag{model.NewTag(model.GroupType, string(typ))},
		Salience:        salience,
		Mentions:        1,
		CreatedAt:       at,
		LastMentionedAt: at,
	}
}

func TestLookupFallsBack(t *testing.T) {
	assert.Equal(t, Shopkeeper, Lookup("theo", "").Key)
	assert.Equal(t, Librarian, Lookup("someone", "Garden Keeper").Key)
	assert.Equal(t, Neighbor, Lookup("stranger", "Wanderer").Key)
}

func TestRankCompositeScore(t *testing.T) {
	p := Lookup("theo", "Carpenter")
	now := t0.Add(10 * time.Hour)
	facts := []model.MemoryFact{
		mk("old-item", "theo", model.TypeItem, "Player mentioned their hammer.", 0.5, t0),
		mk("new-emotion", "theo", model.TypeEmotion, "Player feels happy.", 0.5, now),
	}

	ranked := Rank(facts, p, now)
	require.Len(t, ranked, 2)
	// new-emotion: 1*0.3 + 0.5*0.35 + 0.3*0.35; old-item: 0*0.3 + 0.5*0.35 + 1*0.35
	assert.Equal(t, "new-emotion", ranked[0].Fact.ID)
	assert.InDelta(t, 0.58, ranked[0].Score, 1e-9)
	assert.Equal(t, "old-item", ranked[1].Fact.ID)
	assert.InDelta(t, 0.525, ranked[1].Score, 1e-9)
}

func TestRankTiesPreferRecent(t *testing.T) {
	p := Lookup("theo", "Carpenter")
	a := mk("a", "theo", model.TypeItem, "a", 0.5, t0)
	b := mk("b", "theo", model.TypeItem, "b", 0.5, t0)
	b.LastMentionedAt = t0.Add(time.Nanosecond)
	ranked := Rank([]model.MemoryFact{a, b}, p, t0.Add(time.Hour))
	assert.Equal(t, "b", ranked[0].Fact.ID)
	assert.Empty(t, Rank(nil, p, t0))
}

func TestActiveTaskPicksSalientOpenTask(t *testing.T) {
	low := mk("low", "jun", model.TypeTask, "Player needs to water the roses.", 0.6, t0)
	high := mk("high", "jun", model.TypeTask, "Player needs to fix the fence.", 0.8, t0)
	done := mk("done", "jun", model.TypeTask, "Player needs to paint the shed.", 0.95, t0)
	done.Status = model.StatusDone

	task, ok := ActiveTask([]model.MemoryFact{low, done, high})
	require.True(t, ok)
	assert.Equal(t, "high", task.ID)

	_, ok = ActiveTask([]model.MemoryFact{done})
	assert.False(t, ok)
}

func TestFocusQuestion(t *testing.T) {
	cases := map[string]string{
		"Player needs to finalize the 50-song playlist for this weekend.": "Want to keep working on finalize the 50-song playlist for this weekend?",
		"Player wants you to work on putting a sample playlist.":           "Want to keep working on putting a sample playlist?",
		"Player has to fix the bridge!":                                    "Want to keep working on fix the bridge?",
		"Player needs to.":                                                 DefaultFocusQuestion,
		"":                                                                 DefaultFocusQuestion,
	}
	for in, want := range cases {
		assert.Equal(t, want, FocusQuestion(in), in)
	}
}

func TestLinkedMemoriesBothDirections(t *testing.T) {
	top := mk("top", "theo", model.TypeTask, "top", 0.9, t0)
	top.Links = []model.Link{{TargetID: "outbound", Label: model.LabelRelated}}
	outbound := mk("outbound", "theo", model.TypeItem, "outbound", 0.5, t0)
	inbound := mk("inbound", "theo", model.TypeEvent, "inbound", 0.5, t0)
	inbound.Links = []model.Link{{TargetID: "top", Label: model.LabelContext}}
	loner := mk("loner", "theo", model.TypeEvent, "loner", 0.5, t0)

	ranked := []model.MemoryFact{top, loner, inbound, outbound}
	linked := LinkedMemories([]model.MemoryFact{top}, ranked, 3)
	require.Len(t, linked, 2)
	assert.Equal(t, "inbound", linked[0].ID)
	assert.Equal(t, "outbound", linked[1].ID)

	assert.Len(t, LinkedMemories([]model.MemoryFact{top}, ranked, 1), 1)
}

func TestBuildEmptyNPC(t *testing.T) {
	e := newEnv(t, t0)
	c, err := e.builder.Build(context.Background(), theo)
	require.NoError(t, err)

	assert.Empty(t, c.TopMemories)
	assert.Nil(t, c.ActiveTask)
	assert.Nil(t, c.ActiveThread)
	assert.Empty(t, c.FocusQuestion)
	assert.Equal(t, 1, c.DayIndex)
	assert.Contains(t, c.Prompt, "You are Theo, the Carpenter.")
	assert.Contains(t, c.Prompt, "Practical Helper. Tone: upbeat, efficient, detail-oriented.")
	assert.Contains(t, c.Prompt, "Key memories: none yet.")
	for _, header := range []string{"Linked memories", "Player insights", "Active task", "Active thread", "Focus question", "Recent conversation"} {
		assert.NotContains(t, c.Prompt, header)
	}
}

func TestBuildFullContext(t *testing.T) {
	ctx := context.Background()
	now := t0.Add(time.Hour)
	e := newEnv(t, now)

	task := mk("task", "jun", model.TypeTask, "Player needs to fix the fence.", 0.8, t0)
	task.ThreadID, task.ThreadSequence = "jun:project:fence", 1
	event := mk("event", "jun", model.TypeEvent, "Player mentioned the fence posts.", 0.6, t0.Add(time.Minute))
	event.ThreadID, event.ThreadSequence = "jun:project:fence", 2
	event.Links = []model.Link{{TargetID: "task", Label: model.LabelRelated}}
	other := mk("other", "theo", model.TypeGoal, "Player wants to learn woodworking.", 0.9, t0)
	require.NoError(t, e.facts.ReplaceAll(ctx, []model.MemoryFact{task, event, other}))

	_, err := e.log.Append(ctx, model.ConversationEntry{NpcID: "jun", Speaker: model.SpeakerPlayer, Text: "The fence is wobbly.", Timestamp: t0})
	require.NoError(t, err)
	_, err = e.log.Append(ctx, model.ConversationEntry{NpcID: "jun", Speaker: model.SpeakerNPC, Text: "Let's fix it.", Timestamp: t0.Add(time.Second)})
	require.NoError(t, err)
	_, err = e.profiles.Apply(ctx, []model.InsightSeed{{Text: "Likes hands-on projects", Category: model.InsightInterest}}, t0)
	require.NoError(t, err)

	c, err := e.builder.Build(ctx, jun)
	require.NoError(t, err)

	require.Len(t, c.TopMemories, 2)
	for _, f := range c.TopMemories {
		assert.Equal(t, "jun", f.NpcID)
	}
	require.NotNil(t, c.ActiveTask)
	assert.Equal(t, "task", c.ActiveTask.ID)
	assert.Equal(t, "Want to keep working on fix the fence?", c.FocusQuestion)
	require.NotNil(t, c.ActiveThread)
	assert.Equal(t, ThreadSnapshot{ID: "jun:project:fence", Sequence: 2, Label: "project fence"}, *c.ActiveThread)
	require.Len(t, c.PlayerInsights, 1)
	require.Len(t, c.RecentConversation, 2)

	assert.Contains(t, c.Prompt, "- The player needs to fix the fence.")
	assert.Contains(t, c.Prompt, "Player insights:\n- Likes hands-on projects (interest)")
	assert.Contains(t, c.Prompt, "Active thread: project fence (step 2)")
	assert.Contains(t, c.Prompt, "Focus question: Want to keep working on fix the fence?")
	assert.Contains(t, c.Prompt, "- Player: The fence is wobbly.\n- Jun: Let's fix it.")
	assert.NotContains(t, c.Prompt, "woodworking")
}

func TestBuildRespectsLimits(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, t0.Add(time.Hour))
	e.builder = NewBuilder(e.facts, e.log, nil, WithLimits(Limits{TopK: 1}), WithMetrics(testMetrics(t)))

	var facts []model.MemoryFact
	for i, id := range []string{"a", "b", "c"} {
		facts = append(facts, mk(id, "theo", model.TypeItem, "Player mentioned item "+id+".", 0.5, t0.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, e.facts.ReplaceAll(ctx, facts))

	c, err := e.builder.Build(ctx, theo)
	require.NoError(t, err)
	assert.Len(t, c.TopMemories, 1)
}

type brokenFacts struct{}

func (brokenFacts) ForNPC(context.Context, string) ([]model.MemoryFact, error) {
	return nil, errors.New("store offline")
}

type brokenInsights struct{}

func (brokenInsights) Top(context.Context, int) ([]model.PlayerInsight, error) {
	return nil, errors.New("bad profile")
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder(brokenFacts{}, conversation.NewLog(nil), nil, WithMetrics(testMetrics(t)))
	_, err := b.Build(ctx, theo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store offline")

	b = NewBuilder(memory.NewStore(nil), conversation.NewLog(nil), brokenInsights{}, WithMetrics(testMetrics(t)))
	c, err := b.Build(ctx, theo)
	require.NoError(t, err)
	assert.Empty(t, c.PlayerInsights)
}

func TestPlaylistTaskDrivesFocusQuestion(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, t0.Add(time.Hour))
	ex := extract.New(lexicon.New(roster.Default))
	p := memory.NewPipeline(ex, e.facts, memory.WithMetrics(testMetrics(t)))

	_, err := p.ExtractAndStore(ctx, model.ConversationEntry{
		ID: "e1", NpcID: "jun", DayIndex: 1, Timestamp: t0, Speaker: model.SpeakerPlayer,
		Text: "I need to finalize the 50-song playlist for this weekend.",
	})
	require.NoError(t, err)

	c, err := e.builder.Build(ctx, jun)
	require.NoError(t, err)
	require.NotNil(t, c.ActiveTask)
	assert.Equal(t, model.StatusOpen, c.ActiveTask.Status)
	assert.True(t, strings.Contains(c.FocusQuestion, "playlist"), c.FocusQuestion)
}
