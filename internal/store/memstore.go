package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rcliao/village-memory/internal/model"
)

// MemStorage is a process-local Storage. Values are copied on the way in and
// out, and settings round-trip through JSON the way SQLite stores them.
type MemStorage struct {
	mu       sync.RWMutex
	facts    map[string]model.MemoryFact
	entries  map[string]model.ConversationEntry
	settings map[string][]byte
}

var _ Storage = (*MemStorage)(nil)

// NewMemStorage returns an empty in-memory store.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		facts:    map[string]model.MemoryFact{},
		entries:  map[string]model.ConversationEntry{},
		settings: map[string][]byte{},
	}
}

func (m *MemStorage) LoadFacts(_ context.Context) ([]model.MemoryFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.MemoryFact, 0, len(m.facts))
	for _, f := range m.facts {
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMentionedAt.Equal(out[j].LastMentionedAt) {
			return out[i].LastMentionedAt.After(out[j].LastMentionedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStorage) UpsertFact(_ context.Context, f model.MemoryFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facts[f.ID] = f.Clone()
	return nil
}

func (m *MemStorage) ReplaceFacts(_ context.Context, facts []model.MemoryFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facts = make(map[string]model.MemoryFact, len(facts))
	for _, f := range facts {
		m.facts[f.ID] = f.Clone()
	}
	return nil
}

func (m *MemStorage) ClearFacts(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facts = map[string]model.MemoryFact{}
	return nil
}

func (m *MemStorage) LoadEntries(_ context.Context) ([]model.ConversationEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ConversationEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStorage) AppendEntry(_ context.Context, e model.ConversationEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *MemStorage) ReplaceEntries(_ context.Context, entries []model.ConversationEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]model.ConversationEntry, len(entries))
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

func (m *MemStorage) ClearEntries(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]model.ConversationEntry{}
	return nil
}

func (m *MemStorage) LoadSetting(_ context.Context, key string, v any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.settings[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return true, nil
}

func (m *MemStorage) SaveSetting(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = raw
	return nil
}

func (m *MemStorage) DeleteSetting(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, key)
	return nil
}

func (m *MemStorage) LoadSettings(_ context.Context) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(m.settings))
	for k, v := range m.settings {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

func (m *MemStorage) Close() error { return nil }
