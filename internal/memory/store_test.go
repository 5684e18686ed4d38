package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/village-memory/internal/model"
)

func TestStoreHydratesOnce(t *testing.T) {
	ctx := context.Background()
	backend := &fakeStorage{facts: []model.MemoryFact{
		fact("a", "mira", model.TypeGoal, "Player wants to paint.", t0),
		fact("b", "theo", model.TypeGoal, "Player wants to carve.", t0.Add(time.Minute)),
	}}
	s := NewStore(backend, WithStoreMetrics(testMetrics(t)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.All(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.loads)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID, "newest first")
}

func TestStoreReplaceNPCLeavesOthers(t *testing.T) {
	ctx := context.Background()
	backend := &fakeStorage{}
	s := NewStore(backend, WithStoreMetrics(testMetrics(t)))

	require.NoError(t, s.ReplaceAll(ctx, []model.MemoryFact{
		fact("m1", "mira", model.TypeGoal, "one", t0),
		fact("t1", "theo", model.TypeGoal, "two", t0),
	}))
	require.NoError(t, s.ReplaceNPC(ctx, "mira", []model.MemoryFact{
		fact("m2", "mira", model.TypeGoal, "three", t0),
	}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, f := range all {
		ids[f.ID] = true
	}
	assert.Equal(t, map[string]bool{"m2": true, "t1": true}, ids)
	assert.Len(t, backend.facts, 2, "write-through")
}

func TestStoreUpsertGetListClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, WithStoreMetrics(testMetrics(t)))

	task := fact("t", "theo", model.TypeTask, "Player needs to sand the bench.", t0)
	task.Tags = append(task.Tags, model.Tag{Group: "project", Value: "bench"})
	require.NoError(t, s.Upsert(ctx, task))
	require.NoError(t, s.Upsert(ctx, fact("g", "theo", model.TypeGoal, "Player wants to carve a spoon.", t0)))

	task.Status = model.StatusDone
	require.NoError(t, s.Upsert(ctx, task))

	got, ok, err := s.Get(ctx, "t")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusDone, got.Status)

	byType, err := s.List(ctx, Filter{Type: model.TypeTask})
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	byTag, err := s.List(ctx, Filter{Tags: []model.Tag{{Group: "project", Value: "bench"}}})
	require.NoError(t, err)
	assert.Len(t, byTag, 1)

	byQuery, err := s.List(ctx, Filter{Query: "SPOON"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, "g", byQuery[0].ID)

	limited, err := s.List(ctx, Filter{NpcID: "theo", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, s.Clear(ctx))
	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStorePersistFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	backend := &fakeStorage{failAll: true}
	s := NewStore(backend, WithStoreMetrics(testMetrics(t)))

	require.NoError(t, s.ReplaceAll(ctx, []model.MemoryFact{fact("a", "pia", model.TypeItem, "Player got jam.", t0)}))
	require.NoError(t, s.Upsert(ctx, fact("b", "pia", model.TypeItem, "Player got honey.", t0)))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "memory stays authoritative")
	assert.Empty(t, backend.facts)
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, WithStoreMetrics(testMetrics(t)))
	require.NoError(t, s.Upsert(ctx, fact("a", "pia", model.TypeItem, "Player got jam.", t0)))

	all, _ := s.All(ctx)
	all[0].Tags[0].Value = "mutated"

	again, _ := s.All(ctx)
	assert.Equal(t, "item", again[0].Tags[0].Value)
}
