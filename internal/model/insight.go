package model

import "time"

// InsightCategory classifies a player insight.
type InsightCategory string

const (
	InsightPreference InsightCategory = "preference"
	InsightGoal       InsightCategory = "goal"
	InsightValue      InsightCategory = "value"
	InsightHabit      InsightCategory = "habit"
	InsightInterest   InsightCategory = "interest"
	InsightStyle      InsightCategory = "style"
)

// ValidInsightCategories are the allowed insight categories.
var ValidInsightCategories = map[InsightCategory]bool{
	InsightPreference: true,
	InsightGoal:       true,
	InsightValue:      true,
	InsightHabit:      true,
	InsightInterest:   true,
	InsightStyle:      true,
}

// PlayerInsight is a global, cross-NPC observation about the player.
type PlayerInsight struct {
	ID              string          `json:"id"`
	Text            string          `json:"text"`
	Category        InsightCategory `json:"category"`
	Strength        float64         `json:"strength"`
	Mentions        int             `json:"mentions"`
	FirstSeenAt     time.Time       `json:"firstSeenAt"`
	LastMentionedAt time.Time       `json:"lastMentionedAt"`
}

// InsightSeed is a raw insight proposed by the day-end analysis.
type InsightSeed struct {
	Text     string          `json:"text"`
	Category InsightCategory `json:"category"`
}

// PlayerProfile is the persisted collection of insights.
type PlayerProfile struct {
	Insights  []PlayerInsight `json:"insights"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
