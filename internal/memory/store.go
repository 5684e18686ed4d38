// Package memory implements the fact pipeline: validation, threading, linking,
// merging and task completion, plus the in-memory fact repository that
// fronts persistent storage.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/observe"
)

// FactStorage is the persistence capability behind a Store.
type FactStorage interface {
	LoadFacts(ctx context.Context) ([]model.MemoryFact, error)
	UpsertFact(ctx context.Context, f model.MemoryFact) error
	ReplaceFacts(ctx context.Context, facts []model.MemoryFact) error
	ClearFacts(ctx context.Context) error
}

// Repository is the read and write surface the pipeline and retrieval use.
type Repository interface {
	All(ctx context.Context) ([]model.MemoryFact, error)
	ForNPC(ctx context.Context, npcID string) ([]model.MemoryFact, error)
	Upsert(ctx context.Context, f model.MemoryFact) error
	ReplaceNPC(ctx context.Context, npcID string, facts []model.MemoryFact) error
	ReplaceAll(ctx context.Context, facts []model.MemoryFact) error
	Clear(ctx context.Context) error
}

var _ Repository = (*Store)(nil)

// Store keeps every fact in memory and writes through to storage. Hydration
// from storage happens once, on first use. The in-memory state is updated
// before each write and stays authoritative when a write fails.
type Store struct {
	backend FactStorage
	logger  *slog.Logger
	metrics *observe.Metrics

	initMu sync.Mutex
	loaded bool

	mu    sync.RWMutex
	facts []model.MemoryFact
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store logger.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithStoreMetrics sets the metrics sink.
func WithStoreMetrics(m *observe.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store over backend. A nil backend keeps facts in
// process memory only.
func NewStore(backend FactStorage, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default().With("component", "memory-store"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Init hydrates the store from storage. Concurrent callers wait for the same
// load; a failed load is retried on the next call.
func (s *Store) Init(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.loaded {
		return nil
	}
	var facts []model.MemoryFact
	if s.backend != nil {
		var err error
		if facts, err = s.backend.LoadFacts(ctx); err != nil {
			return fmt.Errorf("hydrate facts: %w", err)
		}
	}
	SortFacts(facts)

	s.mu.Lock()
	s.facts = facts
	s.mu.Unlock()
	s.loaded = true
	s.logger.DebugContext(ctx, "facts hydrated", "count", len(facts))
	return nil
}

// All returns a copy of every fact.
func (s *Store) All(ctx context.Context) ([]model.MemoryFact, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFacts(s.facts), nil
}

// ForNPC returns a copy of the facts owned by npcID.
func (s *Store) ForNPC(ctx context.Context, npcID string) ([]model.MemoryFact, error) {
	return s.List(ctx, Filter{NpcID: npcID})
}

// Get returns the fact with id.
func (s *Store) Get(ctx context.Context, id string) (model.MemoryFact, bool, error) {
	if err := s.Init(ctx); err != nil {
		return model.MemoryFact{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.facts {
		if f.ID == id {
			return f.Clone(), true, nil
		}
	}
	return model.MemoryFact{}, false, nil
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	NpcID string
	Type  model.FactType
	Tags  []model.Tag
	Query string
	Limit int
}

func (flt Filter) match(f model.MemoryFact) bool {
	if flt.NpcID != "" && f.NpcID != flt.NpcID {
		return false
	}
	if flt.Type != "" && f.Type != flt.Type {
		return false
	}
	for _, t := range flt.Tags {
		if !f.HasTag(t) {
			return false
		}
	}
	if flt.Query != "" {
		q := strings.ToLower(flt.Query)
		if !strings.Contains(strings.ToLower(f.Content), q) && !tagsContain(f.Tags, q) {
			return false
		}
	}
	return true
}

func tagsContain(tags []model.Tag, q string) bool {
	for _, t := range tags {
		if strings.Contains(t.String(), q) {
			return true
		}
	}
	return false
}

// List returns facts matching flt in store order.
func (s *Store) List(ctx context.Context, flt Filter) ([]model.MemoryFact, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.MemoryFact
	for _, f := range s.facts {
		if !flt.match(f) {
			continue
		}
		out = append(out, f.Clone())
		if flt.Limit > 0 && len(out) >= flt.Limit {
			break
		}
	}
	return out, nil
}

// Search returns facts whose content or tags contain query, optionally
// limited to one NPC.
func (s *Store) Search(ctx context.Context, query, npcID string) ([]model.MemoryFact, error) {
	return s.List(ctx, Filter{NpcID: npcID, Query: query})
}

// Upsert inserts f or replaces the fact with the same id.
func (s *Store) Upsert(ctx context.Context, f model.MemoryFact) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.facts {
		if s.facts[i].ID == f.ID {
			s.facts[i] = f.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		s.facts = append(s.facts, f.Clone())
	}
	SortFacts(s.facts)

	if s.backend != nil {
		if err := s.backend.UpsertFact(ctx, f); err != nil {
			s.persistFailed(ctx, "upsert", err)
		}
	}
	return nil
}

// ReplaceNPC swaps the facts of one NPC, leaving other NPCs untouched.
func (s *Store) ReplaceNPC(ctx context.Context, npcID string, facts []model.MemoryFact) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.MemoryFact, 0, len(s.facts)+len(facts))
	for _, f := range s.facts {
		if f.NpcID != npcID {
			next = append(next, f)
		}
	}
	next = append(next, cloneFacts(facts)...)
	SortFacts(next)
	s.facts = next
	s.persistAll(ctx)
	return nil
}

// ReplaceAll swaps the whole collection.
func (s *Store) ReplaceAll(ctx context.Context, facts []model.MemoryFact) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.facts = cloneFacts(facts)
	SortFacts(s.facts)
	s.persistAll(ctx)
	return nil
}

// Clear removes every fact.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.facts = nil
	if s.backend != nil {
		if err := s.backend.ClearFacts(ctx); err != nil {
			s.persistFailed(ctx, "clear", err)
		}
	}
	return nil
}

// persistAll writes the current collection. Callers hold s.mu.
func (s *Store) persistAll(ctx context.Context) {
	if s.backend == nil {
		return
	}
	if err := s.backend.ReplaceFacts(ctx, s.facts); err != nil {
		s.persistFailed(ctx, "replace", err)
	}
}

func (s *Store) persistFailed(ctx context.Context, op string, err error) {
	s.logger.ErrorContext(ctx, "persist facts failed", "op", op, "err", err)
	s.metrics.RecordPersistFailure(ctx, "facts")
}

func cloneFacts(facts []model.MemoryFact) []model.MemoryFact {
	if facts == nil {
		return nil
	}
	out := make([]model.MemoryFact, len(facts))
	for i, f := range facts {
		out[i] = f.Clone()
	}
	return out
}
