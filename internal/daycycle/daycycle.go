// Package daycycle tracks the current in-game day and which NPCs the player
// has visited on it.
package daycycle

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/rcliao/village-memory/internal/model"
)

// SettingKey is the settings key the state is stored under.
const SettingKey = "day-cycle-state"

// State is the persisted day cycle.
type State struct {
	DayIndex      int      `json:"dayIndex"`
	VisitedNpcIDs []string `json:"visitedNpcIds"`
}

// IsComplete reports whether every required NPC has been visited.
func (s State) IsComplete(required []string) bool {
	for _, id := range required {
		if !slices.Contains(s.VisitedNpcIDs, id) {
			return false
		}
	}
	return true
}

func (s State) clone() State {
	s.VisitedNpcIDs = slices.Clone(s.VisitedNpcIDs)
	return s
}

// Settings is the persistence capability the tracker needs.
type Settings interface {
	LoadSetting(ctx context.Context, key string, v any) (bool, error)
	SaveSetting(ctx context.Context, key string, v any) error
}

// Tracker owns the day cycle state.
type Tracker struct {
	settings Settings
	required []string
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// NewTracker creates a tracker on day 1. required lists the NPCs that must
// be visited before the day is complete.
func NewTracker(settings Settings, required []string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		settings: settings,
		required: slices.Clone(required),
		logger:   logger.With("component", "day-cycle"),
		state:    State{DayIndex: 1},
	}
}

// Load restores the stored state and adds every required NPC that already
// has an entry on the current day. Invalid stored state resets to day 1.
func (t *Tracker) Load(ctx context.Context, entries []model.ConversationEntry) (State, error) {
	var stored State
	ok, err := t.settings.LoadSetting(ctx, SettingKey, &stored)
	if err != nil {
		t.logger.Warn("invalid day cycle state, starting over", "err", err)
		ok = false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = State{DayIndex: 1}
	if ok && stored.DayIndex >= 1 {
		t.state.DayIndex = stored.DayIndex
		for _, id := range stored.VisitedNpcIDs {
			t.visit(id)
		}
	}
	for _, e := range entries {
		if e.DayIndex == t.state.DayIndex && slices.Contains(t.required, e.NpcID) {
			t.visit(e.NpcID)
		}
	}
	return t.state.clone(), t.persist(ctx)
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.clone()
}

// Required returns the NPCs that complete a day.
func (t *Tracker) Required() []string {
	return slices.Clone(t.required)
}

// IsComplete reports whether every required NPC was visited today.
func (t *Tracker) IsComplete() bool {
	return t.State().IsComplete(t.required)
}

// MarkVisited records a visit. NPCs outside the required set are ignored.
func (t *Tracker) MarkVisited(ctx context.Context, npcID string) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !slices.Contains(t.required, npcID) || !t.visit(npcID) {
		return t.state.clone(), nil
	}
	return t.state.clone(), t.persist(ctx)
}

// Advance starts the next day with no visits.
func (t *Tracker) Advance(ctx context.Context) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{DayIndex: t.state.DayIndex + 1}
	return t.state.clone(), t.persist(ctx)
}

func (t *Tracker) visit(npcID string) bool {
	if slices.Contains(t.state.VisitedNpcIDs, npcID) {
		return false
	}
	t.state.VisitedNpcIDs = append(t.state.VisitedNpcIDs, npcID)
	return true
}

func (t *Tracker) persist(ctx context.Context) error {
	if err := t.settings.SaveSetting(ctx, SettingKey, t.state); err != nil {
		return fmt.Errorf("save day cycle: %w", err)
	}
	return nil
}
