package extract

import (
	"strings"

	"github.com/rcliao/village-memory/internal/lexicon"
	"github.com/rcliao/village-memory/internal/model"
)

// rule produces candidates of one type from an utterance.
type rule struct {
	name  string
	typ   model.FactType
	match func(u utterance) []candidate
}

type candidate struct {
	typ     model.FactType
	content string
	detail  model.Tag
}

// defaultRules returns the detectors in evaluation order. The per-utterance
// cap truncates from the end of this list.
func defaultRules() []rule {
	return []rule{
		{name: "emotion", typ: model.TypeEmotion, match: matchEmotions},
		{name: "preference", typ: model.TypePreference, match: matchPreference},
		{name: "task", typ: model.TypeTask, match: matchTask},
		{name: "goal", typ: model.TypeGoal, match: matchGoal},
		{name: "relationship", typ: model.TypeRelationship, match: matchRelationships},
		{name: "schedule", typ: model.TypeSchedule, match: matchSchedules},
		{name: "item", typ: model.TypeItem, match: matchItem},
		{name: "event", typ: model.TypeEvent, match: matchEvent},
	}
}

func matchEmotions(u utterance) []candidate {
	var out []candidate
	for _, p := range lexicon.Emotions {
		if p.In(u.Lower) {
			out = append(out, candidate{
				content: "Player feels " + p.Phrase + ".",
				detail:  model.NewTag(model.GroupEmotion, p.Phrase),
			})
		}
	}
	return out
}

func matchPreference(u utterance) []candidate {
	if isRequest(u.Lower) {
		return nil
	}
	ph, obj, ok := firstObject(lexicon.PreferenceVerbs, u.Lower)
	if !ok {
		return nil
	}
	content := "Player " + ph.Render + " " + obj + "."
	if ph.Phrase == "favorite" {
		content = "Player's favorite " + obj + "."
	}
	return []candidate{{content: content, detail: model.NewTag(model.GroupPreference, obj)}}
}

// isRequest reports whether the utterance asks the NPC to do something, which
// turns "I'd like you to ..." into a task rather than a preference.
func isRequest(lower string) bool {
	if lexicon.AnyIn(lexicon.RequestHints, lower) {
		return true
	}
	for _, r := range lexicon.Requests {
		if r.In(lower) {
			return true
		}
	}
	return false
}

func matchTask(u utterance) []candidate {
	ph, obj, ok := firstObject(lexicon.Requests, u.Lower)
	if !ok {
		ph, obj, ok = firstObject(lexicon.Obligations, u.Lower)
	}
	if !ok {
		return nil
	}
	return []candidate{{
		content: "Player " + ph.Render + " " + obj + ".",
		detail:  model.NewTag(model.GroupTask, obj),
	}}
}

func matchGoal(u utterance) []candidate {
	ph, obj, ok := firstObject(lexicon.Goals, u.Lower)
	if !ok {
		return nil
	}
	return []candidate{{
		content: "Player " + ph.Render + " " + obj + ".",
		detail:  model.NewTag(model.GroupGoal, obj),
	}}
}

func matchRelationships(u utterance) []candidate {
	var out []candidate
	for _, p := range lexicon.Relationships {
		if p.In(u.Lower) {
			out = append(out, candidate{
				content: "Player mentioned their " + p.Phrase + ".",
				detail:  model.NewTag(model.GroupRelationship, p.Phrase),
			})
		}
	}
	return out
}

func matchSchedules(u utterance) []candidate {
	var out []candidate
	for _, p := range lexicon.Schedules {
		if p.In(u.Lower) {
			out = append(out, candidate{
				content: "Player mentioned " + p.Phrase + ".",
				detail:  model.NewTag(model.GroupSchedule, p.Phrase),
			})
		}
	}
	return out
}

func matchItem(u utterance) []candidate {
	for _, ph := range lexicon.ItemVerbs {
		obj, ok := ph.After(u.Lower)
		if !ok {
			continue
		}
		obj = lexicon.Clause(obj)
		// "need to ..." and "got to ..." are obligations, not acquisitions.
		if obj == "" || strings.HasPrefix(obj, "to ") || strings.HasPrefix(obj, "you ") {
			continue
		}
		return []candidate{{
			content: "Player " + ph.Render + " " + obj + ".",
			detail:  model.NewTag(model.GroupItem, obj),
		}}
	}
	return nil
}

func matchEvent(u utterance) []candidate {
	ph, obj, ok := firstObject(lexicon.EventVerbs, u.Lower)
	if !ok {
		return nil
	}
	return []candidate{{
		content: "Player " + ph.Render + " " + obj + ".",
		detail:  model.NewTag(model.GroupEvent, obj),
	}}
}

// firstObject returns the first phrase in table order that is followed by a
// non-empty clause.
func firstObject(table []lexicon.Phrase, lower string) (lexicon.Phrase, string, bool) {
	for _, ph := range table {
		obj, ok := ph.After(lower)
		if !ok {
			continue
		}
		if obj = lexicon.Clause(obj); obj != "" {
			return ph, obj, true
		}
	}
	return lexicon.Phrase{}, "", false
}
