// Package profile aggregates day-end insights about the player into a global
// profile shared by every NPC.
package profile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/village-memory/internal/model"
)

// SettingKey is the settings key the profile is stored under.
const SettingKey = "player-profile"

const baseStrength = 0.55

// InsightID returns the identity of an insight: its category plus the
// normalized text.
func InsightID(category model.InsightCategory, text string) string {
	return string(category) + ":" + model.NormalizeValue(text)
}

// Merge folds seeds into p. A seed matching an existing insight by category
// and normalized text reinforces it; others are inserted at base strength.
// Seeds with empty text or an unknown category are skipped. The result is
// sorted by strength, then by most recent mention.
func Merge(p model.PlayerProfile, seeds []model.InsightSeed, at time.Time) model.PlayerProfile {
	byID := make(map[string]int, len(p.Insights))
	insights := make([]model.PlayerInsight, 0, len(p.Insights)+len(seeds))
	for _, in := range p.Insights {
		byID[InsightID(in.Category, in.Text)] = len(insights)
		insights = append(insights, in)
	}

	for _, seed := range seeds {
		text := strings.TrimSpace(seed.Text)
		if text == "" || !model.ValidInsightCategories[seed.Category] {
			continue
		}
		id := InsightID(seed.Category, text)
		i, ok := byID[id]
		if !ok {
			byID[id] = len(insights)
			insights = append(insights, model.PlayerInsight{
				ID:              id,
				Text:            text,
				Category:        seed.Category,
				Strength:        baseStrength,
				Mentions:        1,
				FirstSeenAt:     at,
				LastMentionedAt: at,
			})
			continue
		}
		cur := &insights[i]
		cur.Mentions++
		cur.Strength = max(cur.Strength, reinforce(cur.Strength, cur.Mentions))
		cur.LastMentionedAt = at
	}

	sort.SliceStable(insights, func(i, j int) bool {
		if insights[i].Strength != insights[j].Strength {
			return insights[i].Strength > insights[j].Strength
		}
		return insights[i].LastMentionedAt.After(insights[j].LastMentionedAt)
	})
	return model.PlayerProfile{Insights: insights, UpdatedAt: at}
}

func reinforce(strength float64, mentions int) float64 {
	s := strength*0.75 + 0.25 + min(0.15, float64(mentions)*0.03)
	return min(1, max(0, s))
}

// Settings is the persistence capability the profile store needs.
type Settings interface {
	LoadSetting(ctx context.Context, key string, v any) (bool, error)
	SaveSetting(ctx context.Context, key string, v any) error
}

// Store loads and saves the player profile.
type Store struct {
	settings Settings
}

// NewStore creates a profile store over settings.
func NewStore(settings Settings) *Store {
	return &Store{settings: settings}
}

// Load returns the stored profile, or an empty one.
func (s *Store) Load(ctx context.Context) (model.PlayerProfile, error) {
	var p model.PlayerProfile
	if _, err := s.settings.LoadSetting(ctx, SettingKey, &p); err != nil {
		return model.PlayerProfile{}, fmt.Errorf("load player profile: %w", err)
	}
	return p, nil
}

// Save stores p.
func (s *Store) Save(ctx context.Context, p model.PlayerProfile) error {
	if err := s.settings.SaveSetting(ctx, SettingKey, p); err != nil {
		return fmt.Errorf("save player profile: %w", err)
	}
	return nil
}

// Apply merges seeds into the stored profile and saves the result.
func (s *Store) Apply(ctx context.Context, seeds []model.InsightSeed, at time.Time) (model.PlayerProfile, error) {
	p, err := s.Load(ctx)
	if err != nil {
		return p, err
	}
	p = Merge(p, seeds, at)
	return p, s.Save(ctx, p)
}

// Top returns the n strongest insights.
func (s *Store) Top(ctx context.Context, n int) ([]model.PlayerInsight, error) {
	p, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(p.Insights) > n {
		return p.Insights[:n], nil
	}
	return p.Insights, nil
}
