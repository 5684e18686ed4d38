package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rcliao/village-memory/internal/model"
)

// SnapshotVersion is bumped when the export layout changes.
const SnapshotVersion = 1

// Snapshot is the portable export of everything a Storage holds.
type Snapshot struct {
	Version    int                        `json:"version"`
	ExportedAt time.Time                  `json:"exportedAt"`
	Facts      []model.MemoryFact         `json:"facts"`
	Entries    []model.ConversationEntry  `json:"entries"`
	Settings   map[string]json.RawMessage `json:"settings,omitempty"`
}

// Dump reads all collections, optionally keeping a single NPC.
func Dump(ctx context.Context, s Storage, npcID string) (*Snapshot, error) {
	facts, err := s.LoadFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load facts: %w", err)
	}
	entries, err := s.LoadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	snap := &Snapshot{Version: SnapshotVersion, ExportedAt: time.Now().UTC()}

	if npcID == "" {
		snap.Facts = facts
		snap.Entries = entries
		settings, err := s.LoadSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		snap.Settings = settings
		return snap, nil
	}

	// Settings are global, so a per-NPC dump leaves them out.
	for _, f := range facts {
		if f.NpcID == npcID {
			snap.Facts = append(snap.Facts, f)
		}
	}
	for _, e := range entries {
		if e.NpcID == npcID {
			snap.Entries = append(snap.Entries, e)
		}
	}
	return snap, nil
}

// Restore replaces the facts and entries in s with the snapshot's and
// writes each of its settings.
func Restore(ctx context.Context, s Storage, snap *Snapshot) error {
	if snap.Version > SnapshotVersion {
		return fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, SnapshotVersion)
	}
	if err := s.ReplaceFacts(ctx, snap.Facts); err != nil {
		return fmt.Errorf("restore facts: %w", err)
	}
	if err := s.ReplaceEntries(ctx, snap.Entries); err != nil {
		return fmt.Errorf("restore entries: %w", err)
	}
	for key, raw := range snap.Settings {
		if err := s.SaveSetting(ctx, key, raw); err != nil {
			return fmt.Errorf("restore setting %s: %w", key, err)
		}
	}
	return nil
}
