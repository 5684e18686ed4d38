package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/village-memory/internal/model"
)

func withTags(f model.MemoryFact, tags ...model.Tag) model.MemoryFact {
	f.Tags = append(f.Tags, tags...)
	return f
}

func TestThreadKeyPriority(t *testing.T) {
	f := withTags(fact("a", "theo", model.TypeEvent, "Player went to the grove.", t0),
		model.Tag{Group: "place", Value: "grove"},
		model.Tag{Group: "event", Value: "general"},
		model.Tag{Group: "project", Value: "bench"},
	)
	assert.Equal(t, "project:bench", ThreadKey(f))

	general := withTags(fact("b", "theo", model.TypeEvent, "The weather is odd.", t0),
		model.Tag{Group: "event", Value: "general"})
	assert.Equal(t, "topic:the-weather-is-odd", ThreadKey(general))

	empty := fact("c", "theo", model.TypeEvent, "?!", t0)
	assert.Equal(t, "", ThreadKey(empty))
}

func TestAssignThreadsSequencesWithinBatch(t *testing.T) {
	grove := model.Tag{Group: "place", Value: "grove"}
	existing := []model.MemoryFact{
		func() model.MemoryFact {
			f := withTags(fact("old", "jun", model.TypeEvent, "Player visited the grove.", t0), grove)
			f.ThreadID, f.ThreadSequence = "jun:place:grove", 3
			return f
		}(),
	}
	batch := []model.MemoryFact{
		withTags(fact("n1", "jun", model.TypeEmotion, "Player feels calm.", t0), grove),
		withTags(fact("n2", "jun", model.TypeEmotion, "Player feels grateful.", t0), grove),
		withTags(fact("n3", "jun", model.TypeGoal, "Player wants to plant mint.", t0), model.Tag{Group: "goal", Value: "plant-mint"}),
	}

	got := AssignThreads(batch, existing)
	require.Len(t, got, 3)
	assert.Equal(t, "jun:place:grove", got[0].ThreadID)
	assert.Equal(t, 4, got[0].ThreadSequence)
	assert.Equal(t, "jun:place:grove", got[1].ThreadID)
	assert.Equal(t, 5, got[1].ThreadSequence)
	assert.Equal(t, "jun:goal:plant-mint", got[2].ThreadID)
	assert.Equal(t, 1, got[2].ThreadSequence)
	assert.Empty(t, batch[0].ThreadID, "input facts are not mutated")
}

func TestThreadLabel(t *testing.T) {
	assert.Equal(t, "project bridge", ThreadLabel("theo:project:bridge"))
	assert.Equal(t, "topic finalize 50 song playlist", ThreadLabel("jun:topic:finalize-50-song-playlist"))
	assert.Equal(t, "", ThreadLabel(""))
}
