package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/rcliao/village-memory/internal/extract"
	"github.com/rcliao/village-memory/internal/lexicon"
	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/observe"
	"github.com/rcliao/village-memory/internal/roster"
)

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

// fakeStorage records writes and can be told to fail them.
type fakeStorage struct {
	mu      sync.Mutex
	facts   []model.MemoryFact
	loads   int
	failAll bool
}

func (f *fakeStorage) LoadFacts(ctx context.Context) ([]model.MemoryFact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return append([]model.MemoryFact(nil), f.facts...), nil
}

func (f *fakeStorage) UpsertFact(ctx context.Context, fact model.MemoryFact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("disk full")
	}
	for i := range f.facts {
		if f.facts[i].ID == fact.ID {
			f.facts[i] = fact
			return nil
		}
	}
	f.facts = append(f.facts, fact)
	return nil
}

func (f *fakeStorage) ReplaceFacts(ctx context.Context, facts []model.MemoryFact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("disk full")
	}
	f.facts = append([]model.MemoryFact(nil), facts...)
	return nil
}

func (f *fakeStorage) ClearFacts(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("disk full")
	}
	f.facts = nil
	return nil
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

type testPipeline struct {
	*Pipeline
	store   *Store
	backend *fakeStorage
	clock   time.Time
	ids     int
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()
	m := testMetrics(t)
	tp := &testPipeline{backend: &fakeStorage{}, clock: t0}
	var idMu sync.Mutex
	ex := extract.New(lexicon.New(roster.Default), extract.WithIDSource(func() string {
		idMu.Lock()
		defer idMu.Unlock()
		tp.ids++
		return fmt.Sprintf("%04d", tp.ids)
	}))
	tp.store = NewStore(tp.backend, WithStoreMetrics(m))
	tp.Pipeline = NewPipeline(ex, tp.store, WithMetrics(m))
	return tp
}

// say stores a player line one minute after the previous one.
func (tp *testPipeline) say(t *testing.T, npcID, text string) *Result {
	t.Helper()
	tp.clock = tp.clock.Add(time.Minute)
	res, err := tp.ExtractAndStore(context.Background(), model.ConversationEntry{
		ID:        fmt.Sprintf("entry-%d", tp.clock.Unix()),
		NpcID:     npcID,
		DayIndex:  1,
		Timestamp: tp.clock,
		Speaker:   model.SpeakerPlayer,
		Text:      text,
	})
	if err != nil {
		t.Fatalf("ExtractAndStore(%q): %v", text, err)
	}
	return res
}

func findByType(facts []model.MemoryFact, typ model.FactType) (model.MemoryFact, bool) {
	for _, f := range facts {
		if f.Type == typ {
			return f, true
		}
	}
	return model.MemoryFact{}, false
}

func fact(id, npc string, typ model.FactType, content string, at time.Time, anchors ...model.Anchor) model.MemoryFact {
	return model.MemoryFact{
		ID:              id,
		NpcID:           npc,
		Type:            typ,
		Content:         content,
		Tags:            []model.Tag{{Group: "type", Value: string(typ)}},
		Salience:        0.5,
		Mentions:        1,
		Anchors:         anchors,
		CreatedAt:       at,
		LastMentionedAt: at,
	}
}
