// Package app wires storage, memory and the LLM adapter into the flows the
// CLI drives: talking to a villager, ending the day and seeding.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rcliao/village-memory/internal/config"
	"github.com/rcliao/village-memory/internal/conversation"
	"github.com/rcliao/village-memory/internal/daycycle"
	"github.com/rcliao/village-memory/internal/daysummary"
	"github.com/rcliao/village-memory/internal/extract"
	"github.com/rcliao/village-memory/internal/lexicon"
	"github.com/rcliao/village-memory/internal/llm"
	"github.com/rcliao/village-memory/internal/memory"
	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/observe"
	"github.com/rcliao/village-memory/internal/profile"
	"github.com/rcliao/village-memory/internal/retrieval"
	"github.com/rcliao/village-memory/internal/roster"
	"github.com/rcliao/village-memory/internal/store"
)

// ErrUnknownNPC is returned for an id or name outside the roster.
var ErrUnknownNPC = errors.New("unknown npc")

// App is the composed village.
type App struct {
	Config    config.Config
	Roster    roster.Roster
	Storage   store.Storage
	Facts     *memory.Store
	Pipeline  *memory.Pipeline
	Log       *conversation.Log
	Days      *daycycle.Tracker
	Profiles  *profile.Store
	Summaries *daysummary.Store
	Contexts  *retrieval.Builder
	Overrides *llm.OverrideStore
	// LLM is nil when no adapter could be configured.
	LLM llm.Adapter

	logger  *slog.Logger
	metrics *observe.Metrics
	now     func() time.Time
}

// Option configures New.
type Option func(*options)

type options struct {
	adapter llm.Adapter
	storage store.Storage
	getenv  func(string) string
	now     func() time.Time
	logger  *slog.Logger
	metrics *observe.Metrics
}

// WithAdapter uses a instead of building one from config.
func WithAdapter(a llm.Adapter) Option {
	return func(o *options) { o.adapter = a }
}

// WithStorage uses s instead of opening the configured path.
func WithStorage(s store.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithGetenv replaces os.Getenv for API key lookup.
func WithGetenv(f func(string) string) Option {
	return func(o *options) { o.getenv = f }
}

// WithClock sets the clock for timestamps and recency.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New opens storage, hydrates every service and restores the day cycle.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{getenv: os.Getenv, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	if o.storage == nil {
		o.storage = store.Open(cfg.Storage.Path, o.logger.With("component", "store"))
	}

	a := &App{
		Config:  cfg,
		Roster:  roster.Roster(cfg.NPCs),
		Storage: o.storage,
		logger:  o.logger,
		metrics: o.metrics,
		now:     o.now,
	}

	a.Facts = memory.NewStore(o.storage,
		memory.WithStoreLogger(o.logger.With("component", "memory-store")),
		memory.WithStoreMetrics(o.metrics),
	)
	ex := extract.New(lexicon.New(cfg.NPCs),
		extract.WithMaxFacts(cfg.Memory.MaxFactsPerEntry),
		extract.WithClock(o.now),
	)
	pipelineLogger := o.logger.With("component", "memory-pipeline")
	a.Pipeline = memory.NewPipeline(ex, a.Facts,
		memory.WithLogger(pipelineLogger),
		memory.WithMetrics(o.metrics),
		memory.WithValidator(memory.NewValidator(cfg.Memory.MinSalience, pipelineLogger, o.metrics)),
	)
	a.Log = conversation.NewLog(o.storage,
		conversation.WithLogger(o.logger.With("component", "conversation")),
		conversation.WithClock(o.now),
	)
	a.Days = daycycle.NewTracker(o.storage, a.Roster.IDs(), o.logger)
	a.Profiles = profile.NewStore(o.storage)
	a.Summaries = daysummary.NewStore(o.storage)
	a.Overrides = llm.NewOverrideStore(o.storage)
	a.Contexts = retrieval.NewBuilder(a.Facts, a.Log, a.Profiles,
		retrieval.WithLimits(retrieval.Limits{
			TopK:     cfg.Memory.TopK,
			Linked:   cfg.Memory.LinkedLimit,
			Insights: cfg.Memory.InsightLimit,
			Recent:   cfg.Memory.RecentLimit,
		}),
		retrieval.WithClock(o.now),
		retrieval.WithLogger(o.logger.With("component", "retrieval")),
		retrieval.WithMetrics(o.metrics),
	)

	if err := a.Facts.Init(ctx); err != nil {
		return nil, fmt.Errorf("init memory: %w", err)
	}
	if err := a.Log.Init(ctx); err != nil {
		return nil, fmt.Errorf("init conversation: %w", err)
	}
	if err := a.restoreDay(ctx); err != nil {
		return nil, err
	}

	a.LLM = o.adapter
	if a.LLM == nil {
		a.LLM = a.buildAdapter(ctx, o.getenv)
	}
	return a, nil
}

func (a *App) restoreDay(ctx context.Context) error {
	entries, err := a.Log.All(ctx)
	if err != nil {
		return err
	}
	state, err := a.Days.Load(ctx, entries)
	if err != nil {
		a.logger.Error("persist day cycle failed", "err", err)
	}
	a.Log.SetActiveDay(state.DayIndex)
	return nil
}

func (a *App) buildAdapter(ctx context.Context, getenv func(string) string) llm.Adapter {
	stored, err := a.Overrides.Load(ctx)
	if err != nil {
		a.logger.Warn("stored llm overrides unreadable, ignoring", "err", err)
		stored = llm.Overrides{}
	}
	cfg, key, err := llm.Resolve(a.Config.LLM, stored, getenv)
	if err != nil {
		a.logger.Info("llm disabled, using fallback replies", "err", err)
		return nil
	}
	adapter, err := llm.NewOpenAIAdapter(cfg, key,
		llm.WithLogger(a.logger),
		llm.WithMetrics(a.metrics),
	)
	if err != nil {
		a.logger.Warn("llm adapter unavailable", "err", err)
		return nil
	}
	return adapter
}

// NPC resolves an id or name against the roster.
func (a *App) NPC(key string) (model.NPC, error) {
	npc, ok := a.Roster.Find(key)
	if !ok {
		return model.NPC{}, fmt.Errorf("%w: %q", ErrUnknownNPC, key)
	}
	return npc, nil
}

// Close releases storage.
func (a *App) Close() error {
	return a.Storage.Close()
}
