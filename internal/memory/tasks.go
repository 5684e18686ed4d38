package memory

import (
	"strings"

	"github.com/rcliao/village-memory/internal/lexicon"
	"github.com/rcliao/village-memory/internal/model"
)

var completionPatterns = func() []lexicon.Pattern {
	out := make([]lexicon.Pattern, 0, len(lexicon.Completions))
	for _, w := range lexicon.Completions {
		out = append(out, lexicon.NewPattern(w))
	}
	return out
}()

// IsCompletionSignal reports whether f is an event announcing finished work.
func IsCompletionSignal(f model.MemoryFact) bool {
	return f.Type == model.TypeEvent && lexicon.AnyIn(completionPatterns, strings.ToLower(f.Content))
}

// ApplyCompletions marks open tasks done when an incoming completion event
// shares an anchor with them. It returns the updated facts and the ids of
// the tasks it closed. Done tasks are never reopened.
func ApplyCompletions(facts, incoming []model.MemoryFact) ([]model.MemoryFact, []string) {
	var signals []model.MemoryFact
	for _, f := range incoming {
		if IsCompletionSignal(f) {
			signals = append(signals, f)
		}
	}
	if len(signals) == 0 {
		return facts, nil
	}

	var closed []string
	out := make([]model.MemoryFact, len(facts))
	for i, f := range facts {
		out[i] = f
		if !f.IsOpenTask() {
			continue
		}
		for _, s := range signals {
			if s.NpcID == f.NpcID && SharesAnchor(f, s) {
				out[i].Status = model.StatusDone
				closed = append(closed, f.ID)
				break
			}
		}
	}
	return out, closed
}
