package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/rcliao/village-memory/internal/lexicon"
	"github.com/rcliao/village-memory/internal/model"
)

// BaseSalience is the starting score per fact type.
var BaseSalience = map[model.FactType]float64{
	model.TypeEvent:        0.42,
	model.TypeEmotion:      0.55,
	model.TypePreference:   0.48,
	model.TypeRelationship: 0.46,
	model.TypeSchedule:     0.40,
	model.TypeGoal:         0.44,
	model.TypeTask:         0.50,
	model.TypeItem:         0.38,
}

const longUtterance = 90

// score bonuses match substrings, so "biggest" counts as emphasis.
func score(typ model.FactType, u utterance) float64 {
	s := BaseSalience[typ]
	if containsAny(u.Lower, lexicon.EmotionWords) {
		s += 0.08
	}
	if containsAny(u.Lower, lexicon.Emphasis) {
		s += 0.08
	}
	if containsAny(u.Lower, lexicon.Intensifiers) {
		s += 0.04
	}
	if strings.Contains(u.Raw, "!") {
		s += 0.03
	}
	if utf8.RuneCountInString(u.Raw) >= longUtterance {
		s += 0.04
	}
	return Clamp(s)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Clamp bounds v to [0,1].
func Clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
