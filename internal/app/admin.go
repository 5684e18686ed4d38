package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/village-memory/internal/daycycle"
	"github.com/rcliao/village-memory/internal/daysummary"
	"github.com/rcliao/village-memory/internal/llm"
	"github.com/rcliao/village-memory/internal/profile"
	"github.com/rcliao/village-memory/internal/seed"
	"github.com/rcliao/village-memory/internal/store"
)

// Seed replays scripts for every roster NPC on the active day. With reset
// the facts and conversation log are cleared first.
func (a *App) Seed(ctx context.Context, scripts []seed.Script, reset bool) (*seed.Result, error) {
	if reset {
		if err := a.clearMemory(ctx); err != nil {
			return nil, err
		}
	}
	res, err := seed.Run(ctx, a.Pipeline, a.Log, seed.ForRoster(scripts, a.Roster), seed.Options{
		Now:    a.now,
		Logger: a.logger,
	})
	if err != nil {
		return nil, err
	}
	for _, r := range res.PerNPC {
		if _, err := a.Days.MarkVisited(ctx, r.NpcID); err != nil {
			a.logger.Error("persist day cycle failed", "npc_id", r.NpcID, "err", err)
		}
	}
	return res, nil
}

// Reset clears facts and the conversation log. With all, the day cycle,
// player profile, day summaries and LLM overrides go too.
func (a *App) Reset(ctx context.Context, all bool) error {
	if err := a.clearMemory(ctx); err != nil {
		return err
	}
	if !all {
		return nil
	}

	settings, err := a.Storage.LoadSettings(ctx)
	if err != nil {
		return err
	}
	for key := range settings {
		if resettable(key) {
			if err := a.Storage.DeleteSetting(ctx, key); err != nil {
				return fmt.Errorf("reset %s: %w", key, err)
			}
		}
	}
	return a.restoreDay(ctx)
}

func resettable(key string) bool {
	switch key {
	case daycycle.SettingKey, profile.SettingKey, llm.OverridesKey:
		return true
	}
	return strings.HasPrefix(key, daysummary.KeyPrefix)
}

func (a *App) clearMemory(ctx context.Context) error {
	if err := a.Facts.Clear(ctx); err != nil {
		return err
	}
	return a.Log.Clear(ctx)
}

// Stats reports storage counts.
func (a *App) Stats(ctx context.Context) (*store.Stats, error) {
	return store.Collect(ctx, a.Storage)
}

// Export dumps storage, optionally for one NPC.
func (a *App) Export(ctx context.Context, npcID string) (*store.Snapshot, error) {
	return store.Dump(ctx, a.Storage, npcID)
}

// Import restores a snapshot and reloads every service from storage.
func (a *App) Import(ctx context.Context, snap *store.Snapshot) error {
	if err := store.Restore(ctx, a.Storage, snap); err != nil {
		return err
	}
	if err := a.Facts.ReplaceAll(ctx, snap.Facts); err != nil {
		return err
	}
	if err := a.Log.Reload(ctx); err != nil {
		return err
	}
	return a.restoreDay(ctx)
}
