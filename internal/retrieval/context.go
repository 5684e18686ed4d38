package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/village-memory/internal/memory"
	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/observe"
)

// FactSource supplies an NPC's facts.
type FactSource interface {
	ForNPC(ctx context.Context, npcID string) ([]model.MemoryFact, error)
}

// ConversationSource supplies recent lines and the active day.
type ConversationSource interface {
	Recent(ctx context.Context, npcID string, n int) ([]model.ConversationEntry, error)
	ActiveDay() int
}

// InsightSource supplies the strongest player insights.
type InsightSource interface {
	Top(ctx context.Context, n int) ([]model.PlayerInsight, error)
}

// Limits caps each context section.
type Limits struct {
	TopK     int
	Linked   int
	Insights int
	Recent   int
}

// DefaultLimits are used for zero fields.
var DefaultLimits = Limits{TopK: 4, Linked: 3, Insights: 3, Recent: 4}

// ThreadSnapshot describes the thread the conversation is currently on.
type ThreadSnapshot struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
	Label    string `json:"label"`
}

// Context is everything an NPC needs to recall for one turn.
type Context struct {
	NpcID              string                    `json:"npcId"`
	NpcName            string                    `json:"npcName"`
	DayIndex           int                       `json:"dayIndex"`
	Personality        Personality               `json:"personality"`
	Prompt             string                    `json:"prompt"`
	TopMemories        []model.MemoryFact        `json:"topMemories"`
	LinkedMemories     []model.MemoryFact        `json:"linkedMemories,omitempty"`
	ActiveTask         *model.MemoryFact         `json:"activeTask,omitempty"`
	FocusQuestion      string                    `json:"focusQuestion,omitempty"`
	ActiveThread       *ThreadSnapshot           `json:"activeThread,omitempty"`
	PlayerInsights     []model.PlayerInsight     `json:"playerInsights,omitempty"`
	RecentConversation []model.ConversationEntry `json:"recentConversation,omitempty"`
}

// Builder assembles memory contexts.
type Builder struct {
	facts    FactSource
	convo    ConversationSource
	insights InsightSource
	limits   Limits
	now      func() time.Time
	logger   *slog.Logger
	metrics  *observe.Metrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithLimits overrides section caps. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(b *Builder) {
		if l.TopK > 0 {
			b.limits.TopK = l.TopK
		}
		if l.Linked > 0 {
			b.limits.Linked = l.Linked
		}
		if l.Insights > 0 {
			b.limits.Insights = l.Insights
		}
		if l.Recent > 0 {
			b.limits.Recent = l.Recent
		}
	}
}

// WithClock sets the clock used for recency.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithLogger sets the builder logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observe.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// NewBuilder creates a context builder. insights may be nil.
func NewBuilder(facts FactSource, convo ConversationSource, insights InsightSource, opts ...Option) *Builder {
	b := &Builder{
		facts:    facts,
		convo:    convo,
		insights: insights,
		limits:   DefaultLimits,
		now:      time.Now,
		logger:   slog.Default().With("component", "retrieval"),
	}
	for _, o := range opts {
		o(b)
	}
	if b.metrics == nil {
		b.metrics = observe.DefaultMetrics()
	}
	return b
}

// Build assembles the memory context for npc. An NPC with no facts gets a
// context whose prompt says there are no memories yet.
func (b *Builder) Build(ctx context.Context, npc model.NPC) (*Context, error) {
	start := time.Now()
	personality := Lookup(npc.ID, npc.Role)

	var (
		facts    []model.MemoryFact
		recent   []model.ConversationEntry
		insights []model.PlayerInsight
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if facts, err = b.facts.ForNPC(gctx, npc.ID); err != nil {
			return fmt.Errorf("load facts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if recent, err = b.convo.Recent(gctx, npc.ID, b.limits.Recent); err != nil {
			return fmt.Errorf("load conversation: %w", err)
		}
		return nil
	})
	if b.insights != nil {
		g.Go(func() error {
			var err error
			if insights, err = b.insights.Top(gctx, b.limits.Insights); err != nil {
				// Insights are supplementary; a bad profile never blocks a turn.
				b.logger.Warn("player insights unavailable", "npc_id", npc.ID, "err", err)
				insights = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build context for %s: %w", npc.ID, err)
	}

	ranked := Rank(facts, personality, b.now())
	ordered := make([]model.MemoryFact, len(ranked))
	for i, s := range ranked {
		ordered[i] = s.Fact
	}
	top := ordered[:min(b.limits.TopK, len(ordered))]

	c := &Context{
		NpcID:              npc.ID,
		NpcName:            npc.Name,
		DayIndex:           b.convo.ActiveDay(),
		Personality:        personality,
		TopMemories:        top,
		LinkedMemories:     LinkedMemories(top, ordered, b.limits.Linked),
		PlayerInsights:     insights,
		RecentConversation: recent,
	}
	if task, ok := ActiveTask(ordered); ok {
		c.ActiveTask = &task
		c.FocusQuestion = FocusQuestion(task.Content)
	}
	c.ActiveThread = activeThread(c.ActiveTask, top, ordered)
	c.Prompt = BuildPrompt(npc, c)

	elapsed := time.Since(start)
	b.metrics.RecordContextBuild(ctx, npc.ID, elapsed.Seconds())
	b.logger.Debug("memory context ready", "npc_id", npc.ID, "memories", len(top),
		"linked", len(c.LinkedMemories), "active_task", c.ActiveTask != nil, "elapsed", elapsed)
	return c, nil
}

func activeThread(task *model.MemoryFact, top, all []model.MemoryFact) *ThreadSnapshot {
	var threadID string
	switch {
	case task != nil && task.ThreadID != "":
		threadID = task.ThreadID
	case len(top) > 0:
		threadID = top[0].ThreadID
	}
	if threadID == "" {
		return nil
	}
	snap := &ThreadSnapshot{ID: threadID, Label: memory.ThreadLabel(threadID)}
	for _, f := range all {
		if f.ThreadID == threadID {
			snap.Sequence = max(snap.Sequence, f.ThreadSequence)
		}
	}
	return snap
}
