// Package store persists memory facts, conversation entries and settings.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rcliao/village-memory/internal/model"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the persistence capability. Each collection supports read-all,
// upsert-one, replace-all and clear-all.
type Storage interface {
	// LoadFacts returns every stored fact.
	LoadFacts(ctx context.Context) ([]model.MemoryFact, error)
	// UpsertFact inserts or replaces a fact by id.
	UpsertFact(ctx context.Context, f model.MemoryFact) error
	// ReplaceFacts swaps the whole fact collection atomically.
	ReplaceFacts(ctx context.Context, facts []model.MemoryFact) error
	ClearFacts(ctx context.Context) error

	// LoadEntries returns the conversation log ordered by timestamp.
	LoadEntries(ctx context.Context) ([]model.ConversationEntry, error)
	AppendEntry(ctx context.Context, e model.ConversationEntry) error
	ReplaceEntries(ctx context.Context, entries []model.ConversationEntry) error
	ClearEntries(ctx context.Context) error

	// LoadSetting decodes the setting into v. It reports false when the key
	// is absent.
	LoadSetting(ctx context.Context, key string, v any) (bool, error)
	SaveSetting(ctx context.Context, key string, v any) error
	DeleteSetting(ctx context.Context, key string) error
	// LoadSettings returns every setting as raw JSON.
	LoadSettings(ctx context.Context) (map[string]json.RawMessage, error)

	// Close releases the backend.
	Close() error
}
