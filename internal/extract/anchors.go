package extract

import (
	"strings"

	"github.com/rcliao/village-memory/internal/model"
)

// anchorTypes maps tag groups to the anchor type they contribute.
var anchorTypes = map[string]string{
	model.GroupPerson:   "person",
	model.GroupGenre:    "genre",
	model.GroupActivity: "activity",
	model.GroupSchedule: "time",
	model.GroupPlace:    "place",
	model.GroupItem:     "item",
	model.GroupProject:  "project",
	model.GroupEvent:    "event",
	model.GroupGoal:     "goal",
	model.GroupTitle:    "title",
	model.GroupTask:     "topic",
}

const topicTokens = 5

// Anchors derives the linking entities of a fact from its tags, falling back
// to a topic anchor built from the raw text.
func Anchors(tags []model.Tag, raw string) []model.Anchor {
	var out []model.Anchor
	seen := map[model.Anchor]bool{}
	for _, t := range tags {
		typ, ok := anchorTypes[t.Group]
		if !ok || t.Value == "" || t.Value == model.GeneralValue {
			continue
		}
		a := model.Anchor{Type: typ, Value: t.Value}
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	if len(out) == 0 {
		if topic := TopicKey(raw); topic != "" {
			out = append(out, model.Anchor{Type: "topic", Value: topic})
		}
	}
	return out
}

// TopicKey returns the first few normalized tokens of text.
func TopicKey(text string) string {
	tokens := strings.Split(model.NormalizeValue(text), "-")
	if len(tokens) > 0 && tokens[0] == "player" {
		tokens = tokens[1:]
	}
	if len(tokens) > topicTokens {
		tokens = tokens[:topicTokens]
	}
	return strings.Trim(strings.Join(tokens, "-"), "-")
}
