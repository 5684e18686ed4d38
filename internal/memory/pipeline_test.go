package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/village-memory/internal/model"
)

func TestPipelineRepeatMergesIntoOneFact(t *testing.T) {
	tp := newTestPipeline(t)
	const line = "I need to finalize the 50-song playlist for this weekend."

	first := tp.say(t, "mira", line)
	require.Equal(t, 2, first.Added)
	task1, ok := findByType(first.Facts, model.TypeTask)
	require.True(t, ok)
	assert.Equal(t, model.StatusOpen, task1.Status)

	second := tp.say(t, "mira", line)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 2, second.Merged)
	assert.Equal(t, 2, second.TotalFacts)

	task2, ok := findByType(second.Facts, model.TypeTask)
	require.True(t, ok)
	assert.Equal(t, task1.ID, task2.ID)
	assert.Equal(t, 2, task2.Mentions)
	assert.Greater(t, task2.Salience, task1.Salience)
	assert.True(t, task2.LastMentionedAt.After(task1.LastMentionedAt))
	assert.True(t, task2.CreatedAt.Equal(task1.CreatedAt))

	for _, f := range second.Facts {
		for _, l := range f.Links {
			assert.NotEqual(t, f.ID, l.TargetID, "no self links after merge")
		}
	}
}

func TestPipelineFinishedEventClosesTask(t *testing.T) {
	tp := newTestPipeline(t)

	res := tp.say(t, "theo", "I need to build the bridge.")
	task, ok := findByType(res.Facts, model.TypeTask)
	require.True(t, ok)
	assert.Equal(t, model.StatusOpen, task.Status)

	res = tp.say(t, "theo", "I finished the bridge.")
	event, ok := findByType(res.Facts, model.TypeEvent)
	require.True(t, ok)
	assert.Equal(t, "Player finished the bridge.", event.Content)
	assert.Equal(t, []string{task.ID}, res.CompletedTaskIDs)

	got, found, err := tp.store.Get(context.Background(), task.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.StatusDone, got.Status)

	tp.say(t, "theo", "I need to build the bridge.")
	got, _, _ = tp.store.Get(context.Background(), task.ID)
	assert.Equal(t, model.StatusDone, got.Status, "done never reopens")
	assert.Equal(t, 2, got.Mentions)
}

func TestPipelineSameUtteranceLinksAsContext(t *testing.T) {
	tp := newTestPipeline(t)
	res := tp.say(t, "theo", "I'm excited, I visited the creek today.")
	require.GreaterOrEqual(t, len(res.Facts), 2)

	for _, f := range res.Facts {
		for _, other := range res.Facts {
			if other.ID == f.ID {
				continue
			}
			assert.Contains(t, f.Links, model.Link{TargetID: other.ID, Label: model.LabelContext},
				"%s should link to %s", f.Content, other.Content)
		}
	}
}

func TestPipelineThreadSequenceWithinBatch(t *testing.T) {
	tp := newTestPipeline(t)
	res := tp.say(t, "jun", "I'm tired and stressed at the grove.")
	require.Len(t, res.Facts, 2)

	a, b := res.Facts[0], res.Facts[1]
	assert.Equal(t, "jun:place:grove", a.ThreadID)
	assert.Equal(t, a.ThreadID, b.ThreadID)
	assert.NotEqual(t, a.ThreadSequence, b.ThreadSequence)
	assert.ElementsMatch(t, []int{1, 2}, []int{a.ThreadSequence, b.ThreadSequence})

	next := tp.say(t, "jun", "I visited the grove again.")
	ev, ok := findByType(next.Facts, model.TypeEvent)
	require.True(t, ok)
	assert.Equal(t, "jun:event:the-grove-again", ev.ThreadID)
}

func TestPipelineIgnoresNPCLines(t *testing.T) {
	tp := newTestPipeline(t)
	res, err := tp.ExtractAndStore(context.Background(), model.ConversationEntry{
		NpcID: "mira", Speaker: model.SpeakerNPC, Text: "I need to restock the tea.", Timestamp: t0,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Facts)
	all, _ := tp.store.All(context.Background())
	assert.Empty(t, all)
}

func TestPipelinePersistFailureKeepsSession(t *testing.T) {
	tp := newTestPipeline(t)
	tp.backend.failAll = true

	res := tp.say(t, "pia", "I'm worried the rain will slow deliveries.")
	assert.NotEmpty(t, res.Facts)
	all, err := tp.store.ForNPC(context.Background(), "pia")
	require.NoError(t, err)
	assert.Len(t, all, len(res.Facts))
}

func TestPipelineSerializesPerNPC(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()
	const n = 8

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		for _, npc := range []string{"mira", "theo"} {
			wg.Add(1)
			go func(npc string) {
				defer wg.Done()
				_, err := tp.ExtractAndStore(ctx, model.ConversationEntry{
					NpcID: npc, DayIndex: 1, Timestamp: t0, Speaker: model.SpeakerPlayer,
					Text: "I need to sweep the hall.",
				})
				assert.NoError(t, err)
			}(npc)
		}
	}
	wg.Wait()

	for _, npc := range []string{"mira", "theo"} {
		facts, err := tp.store.ForNPC(ctx, npc)
		require.NoError(t, err)
		require.Len(t, facts, 1, npc)
		assert.Equal(t, n, facts[0].Mentions, npc)
	}
}
