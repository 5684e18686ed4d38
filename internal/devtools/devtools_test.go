package devtools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/village-memory/internal/model"
)

var t0 = time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

func fact(id string, at time.Time, links ...model.Link) model.MemoryFact {
	return model.MemoryFact{
		ID: id, NpcID: "theo", Type: model.TypeEvent, Content: id, Salience: 0.5, Mentions: 1,
		Links: links, CreatedAt: at, LastMentionedAt: at,
	}
}

func TestBuildGraph(t *testing.T) {
	a := fact("a", t0, model.Link{TargetID: "b", Label: model.LabelContext}, model.Link{TargetID: "gone", Label: model.LabelRelated})
	b := fact("b", t0.Add(time.Minute), model.Link{TargetID: "a", Label: model.LabelContext}, model.Link{TargetID: "a", Label: model.LabelContext})

	g := BuildGraph([]model.MemoryFact{a, b})
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "b", g.Nodes[0].ID)
	assert.Equal(t, 1, g.Nodes[0].LinkCount)
	assert.Equal(t, 1, g.Nodes[1].LinkCount)
	assert.NotNil(t, g.Nodes[0].Anchors)
	assert.ElementsMatch(t, []Edge{
		{Source: "b", Target: "a", Label: model.LabelContext},
		{Source: "a", Target: "b", Label: model.LabelContext},
	}, g.Edges)
}

func TestGroupByThread(t *testing.T) {
	t1 := fact("t1", t0)
	t1.ThreadID, t1.ThreadSequence = "theo:project:bridge", 2
	t2 := fact("t2", t0.Add(time.Minute))
	t2.ThreadID, t2.ThreadSequence = "theo:project:bridge", 1
	t2.Type, t2.Status = model.TypeTask, model.StatusOpen
	loose := fact("loose", t0.Add(time.Hour))

	groups := GroupByThread([]model.MemoryFact{t1, t2, loose})
	require.Len(t, groups, 2)

	assert.Equal(t, Unthreaded, groups[0].ThreadID)
	assert.Equal(t, "Unthreaded", groups[0].Label)
	assert.Empty(t, groups[0].NpcID)

	bridge := groups[1]
	assert.Equal(t, "project bridge", bridge.Label)
	assert.Equal(t, "theo", bridge.NpcID)
	assert.True(t, bridge.HasOpenTasks)
	assert.Equal(t, t0.Add(time.Minute), bridge.LastMentionedAt)
	require.Len(t, bridge.Facts, 2)
	assert.Equal(t, "t2", bridge.Facts[0].ID)
}
