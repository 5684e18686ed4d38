package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/village-memory/internal/model"
)

func TestCheckFact(t *testing.T) {
	good := fact("a", "mira", model.TypeGoal, "Player wants to paint.", t0)
	assert.NoError(t, CheckFact(good))

	cases := map[string]func(f *model.MemoryFact){
		"empty id":        func(f *model.MemoryFact) { f.ID = " " },
		"empty npc":       func(f *model.MemoryFact) { f.NpcID = "" },
		"bad type":        func(f *model.MemoryFact) { f.Type = "rumor" },
		"empty content":   func(f *model.MemoryFact) { f.Content = "" },
		"salience high":   func(f *model.MemoryFact) { f.Salience = 1.2 },
		"salience nan":    func(f *model.MemoryFact) { f.Salience = math.NaN() },
		"zero mentions":   func(f *model.MemoryFact) { f.Mentions = 0 },
		"bad status":      func(f *model.MemoryFact) { f.Status = "blocked" },
		"thread no seq":   func(f *model.MemoryFact) { f.ThreadID = "mira:goal:paint" },
		"bad tag":         func(f *model.MemoryFact) { f.Tags = append(f.Tags, model.Tag{Group: "place"}) },
		"bad anchor":      func(f *model.MemoryFact) { f.Anchors = []model.Anchor{{Type: "place"}} },
		"bad link label":  func(f *model.MemoryFact) { f.Links = []model.Link{{TargetID: "b", Label: "sibling"}} },
		"zero timestamps": func(f *model.MemoryFact) { f.CreatedAt = time.Time{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := good.Clone()
			mutate(&f)
			assert.Error(t, CheckFact(f))
		})
	}
}

func TestValidateDropsInvalidAndWeak(t *testing.T) {
	v := NewValidator(DefaultMinSalience, nil, testMetrics(t))

	ok := fact("ok", "mira", model.TypeTask, "Player needs to sweep.", t0)
	weak := fact("weak", "mira", model.TypeItem, "Player got seeds.", t0)
	weak.Salience = 0.38
	edge := fact("edge", "mira", model.TypeSchedule, "Player mentioned today.", t0)
	edge.Salience = 0.40
	broken := fact("broken", "mira", "rumor", "???", t0)

	got := v.Validate(context.Background(), []model.MemoryFact{ok, weak, edge, broken})
	ids := []string{}
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"ok", "edge"}, ids)
}

