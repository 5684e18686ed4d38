// Package conversation keeps the append-only log of player and NPC lines.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/village-memory/internal/model"
)

// EntryStorage is the persistence capability behind a Log.
type EntryStorage interface {
	LoadEntries(ctx context.Context) ([]model.ConversationEntry, error)
	AppendEntry(ctx context.Context, e model.ConversationEntry) error
	ClearEntries(ctx context.Context) error
}

// Log is the conversation log. It hydrates from storage on first use and
// writes each appended entry through. A failed write is logged and the entry
// stays in memory for the rest of the session.
type Log struct {
	backend EntryStorage
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	initMu sync.Mutex
	loaded bool

	mu        sync.RWMutex
	entries   []model.ConversationEntry
	activeDay int
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the log's logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Log) { g.logger = l }
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Log) { g.now = now }
}

// WithIDSource sets the entry id generator.
func WithIDSource(newID func() string) Option {
	return func(g *Log) { g.newID = newID }
}

// NewLog creates a log over backend. A nil backend keeps entries in process
// memory only.
func NewLog(backend EntryStorage, opts ...Option) *Log {
	g := &Log{
		backend:   backend,
		logger:    slog.Default().With("component", "conversation"),
		now:       time.Now,
		newID:     func() string { return ulid.Make().String() },
		activeDay: 1,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Init loads the stored log once. A failed load is retried on the next call.
func (g *Log) Init(ctx context.Context) error {
	g.initMu.Lock()
	defer g.initMu.Unlock()
	if g.loaded {
		return nil
	}
	if g.backend != nil {
		entries, err := g.backend.LoadEntries(ctx)
		if err != nil {
			return fmt.Errorf("load conversation: %w", err)
		}
		sortEntries(entries)
		g.mu.Lock()
		g.entries = entries
		g.mu.Unlock()
	}
	g.loaded = true
	return nil
}

// Reload drops the cached entries and loads them again from storage.
func (g *Log) Reload(ctx context.Context) error {
	g.initMu.Lock()
	g.loaded = false
	g.initMu.Unlock()
	return g.Init(ctx)
}

// SetActiveDay sets the day stamped on new entries. Values below 1 clamp to 1.
func (g *Log) SetActiveDay(day int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activeDay = max(1, day)
}

// ActiveDay returns the day stamped on new entries.
func (g *Log) ActiveDay() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.activeDay
}

// Append records e and returns the stored entry. Missing id, timestamp and
// day are filled in.
func (g *Log) Append(ctx context.Context, e model.ConversationEntry) (model.ConversationEntry, error) {
	if e.NpcID == "" {
		return e, fmt.Errorf("append entry: npc id is required")
	}
	if e.Speaker != model.SpeakerPlayer && e.Speaker != model.SpeakerNPC {
		return e, fmt.Errorf("append entry: unknown speaker %q", e.Speaker)
	}
	if err := g.Init(ctx); err != nil {
		return e, err
	}

	g.mu.Lock()
	if e.ID == "" {
		e.ID = g.newID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = g.now().UTC()
	}
	if e.DayIndex <= 0 {
		e.DayIndex = g.activeDay
	}
	g.entries = append(g.entries, e)
	g.mu.Unlock()

	if g.backend != nil {
		if err := g.backend.AppendEntry(ctx, e); err != nil {
			g.logger.Error("persist conversation entry failed", "npc_id", e.NpcID, "entry_id", e.ID, "err", err)
		}
	}
	g.logger.Debug("entry recorded", "npc_id", e.NpcID, "speaker", e.Speaker, "day", e.DayIndex)
	return e, nil
}

// All returns every entry, oldest first.
func (g *Log) All(ctx context.Context) ([]model.ConversationEntry, error) {
	return g.filter(ctx, func(model.ConversationEntry) bool { return true })
}

// Recent returns the last n entries for an NPC, oldest first.
func (g *Log) Recent(ctx context.Context, npcID string, n int) ([]model.ConversationEntry, error) {
	entries, err := g.filter(ctx, func(e model.ConversationEntry) bool { return e.NpcID == npcID })
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// ForDay returns every entry recorded on day.
func (g *Log) ForDay(ctx context.Context, day int) ([]model.ConversationEntry, error) {
	return g.filter(ctx, func(e model.ConversationEntry) bool { return e.DayIndex == day })
}

// ForNPCDay returns the entries for one NPC on day.
func (g *Log) ForNPCDay(ctx context.Context, npcID string, day int) ([]model.ConversationEntry, error) {
	return g.filter(ctx, func(e model.ConversationEntry) bool {
		return e.NpcID == npcID && e.DayIndex == day
	})
}

// Clear drops every entry from memory and storage.
func (g *Log) Clear(ctx context.Context) error {
	if err := g.Init(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	g.entries = nil
	g.mu.Unlock()
	if g.backend != nil {
		if err := g.backend.ClearEntries(ctx); err != nil {
			g.logger.Error("clear conversation failed", "err", err)
		}
	}
	return nil
}

func (g *Log) filter(ctx context.Context, keep func(model.ConversationEntry) bool) ([]model.ConversationEntry, error) {
	if err := g.Init(ctx); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []model.ConversationEntry
	for _, e := range g.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func sortEntries(entries []model.ConversationEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}
