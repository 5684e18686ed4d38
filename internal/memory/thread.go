package memory

import (
	"strings"

	"github.com/rcliao/village-memory/internal/extract"
	"github.com/rcliao/village-memory/internal/model"
)

// threadPriority is the tag group order used to pick a thread key.
var threadPriority = []string{
	model.GroupTask,
	model.GroupGoal,
	model.GroupProject,
	model.GroupEvent,
	model.GroupActivity,
	model.GroupPlace,
	model.GroupPerson,
	model.GroupGenre,
	model.GroupItem,
	model.GroupTitle,
	model.GroupSchedule,
}

// ThreadKey returns "group:value" for the first usable tag in priority order,
// a topic key from the content, or "" when neither exists.
func ThreadKey(f model.MemoryFact) string {
	for _, group := range threadPriority {
		for _, t := range f.Tags {
			if t.Group == group && t.Value != "" && t.Value != model.GeneralValue {
				return t.String()
			}
		}
	}
	if topic := extract.TopicKey(f.Content); topic != "" {
		return "topic:" + topic
	}
	return ""
}

// AssignThreads stamps threadId and threadSequence on copies of facts.
// Sequences continue from the highest sequence already stored for the thread
// and advance for every fact of the batch landing in it.
func AssignThreads(facts, existing []model.MemoryFact) []model.MemoryFact {
	maxSeq := map[string]int{}
	for _, f := range existing {
		if f.ThreadID != "" && f.ThreadSequence > maxSeq[f.ThreadID] {
			maxSeq[f.ThreadID] = f.ThreadSequence
		}
	}

	out := make([]model.MemoryFact, 0, len(facts))
	for _, f := range facts {
		f = f.Clone()
		if key := ThreadKey(f); key != "" {
			id := f.NpcID + ":" + key
			maxSeq[id]++
			f.ThreadID = id
			f.ThreadSequence = maxSeq[id]
		}
		out = append(out, f)
	}
	return out
}

// ThreadLabel renders a thread id for display: the NPC prefix is removed and
// separators become spaces.
func ThreadLabel(threadID string) string {
	_, rest, ok := strings.Cut(threadID, ":")
	if !ok {
		rest = threadID
	}
	return strings.Join(strings.FieldsFunc(rest, func(r rune) bool {
		return r == ':' || r == '-' || r == '_'
	}), " ")
}
