package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rcliao/village-memory/internal/extract"
	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/observe"
)

// Result describes what one utterance did to an NPC's memory.
type Result struct {
	NpcID string `json:"npcId"`
	// Facts are the stored versions of the facts this utterance produced.
	Facts            []model.MemoryFact `json:"facts"`
	Added            int                `json:"added"`
	Merged           int                `json:"merged"`
	CompletedTaskIDs []string           `json:"completedTaskIds,omitempty"`
	TotalFacts       int                `json:"totalFacts"`
}

// Pipeline runs extraction through storage for player utterances. Calls for
// the same NPC are serialized; different NPCs proceed in parallel.
type Pipeline struct {
	extractor *extract.Extractor
	validator *Validator
	repo      Repository
	logger    *slog.Logger
	metrics   *observe.Metrics

	locks keyedMutex
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observe.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithValidator replaces the default validator.
func WithValidator(v *Validator) PipelineOption {
	return func(p *Pipeline) { p.validator = v }
}

// NewPipeline wires an extractor to a repository.
func NewPipeline(ex *extract.Extractor, repo Repository, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		extractor: ex,
		repo:      repo,
		logger:    slog.Default().With("component", "memory-pipeline"),
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	if p.validator == nil {
		p.validator = NewValidator(DefaultMinSalience, p.logger, p.metrics)
	}
	return p
}

// ExtractAndStore turns a player entry into facts and commits them to the
// NPC's memory. NPC lines are ignored.
func (p *Pipeline) ExtractAndStore(ctx context.Context, entry model.ConversationEntry) (*Result, error) {
	res := &Result{NpcID: entry.NpcID}
	if entry.Speaker != model.SpeakerPlayer {
		return res, nil
	}

	unlock := p.locks.Lock(entry.NpcID)
	defer unlock()

	candidates := p.extractor.Extract(entry.Text, entry.NpcID, entry.DayIndex, entry.Timestamp)
	counts := map[model.FactType]int{}
	for _, f := range candidates {
		counts[f.Type]++
	}
	for typ, n := range counts {
		p.metrics.RecordExtracted(ctx, entry.NpcID, string(typ), n)
	}

	valid := p.validator.Validate(ctx, candidates)
	existing, err := p.repo.ForNPC(ctx, entry.NpcID)
	if err != nil {
		return nil, err
	}
	if len(valid) == 0 {
		res.TotalFacts = len(existing)
		return res, nil
	}

	threaded := AssignThreads(valid, existing)
	linked := AttachLinks(threaded, existing)
	merged, mergedCount := mergeFacts(existing, linked)
	final, closed := ApplyCompletions(merged, linked)

	if err := p.repo.ReplaceNPC(ctx, entry.NpcID, final); err != nil {
		return nil, err
	}

	p.metrics.FactsMerged.Add(ctx, int64(mergedCount))
	if len(closed) > 0 {
		p.metrics.TasksCompleted.Add(ctx, int64(len(closed)))
		p.logger.InfoContext(ctx, "tasks completed", "npc_id", entry.NpcID, "task_ids", closed)
	}

	res.Facts = storedVersions(final, linked)
	res.Added = len(linked) - mergedCount
	res.Merged = mergedCount
	res.CompletedTaskIDs = closed
	res.TotalFacts = len(final)
	p.logger.DebugContext(ctx, "memory updated",
		"npc_id", entry.NpcID, "added", res.Added, "merged", res.Merged, "total", res.TotalFacts)
	return res, nil
}

// storedVersions looks up the surviving fact for each incoming fact.
func storedVersions(final, incoming []model.MemoryFact) []model.MemoryFact {
	byKey := make(map[string]model.MemoryFact, len(final))
	for _, f := range final {
		byKey[f.SemanticKey()] = f
	}
	out := make([]model.MemoryFact, 0, len(incoming))
	for _, in := range incoming {
		if f, ok := byKey[in.SemanticKey()]; ok {
			out = append(out, f)
		}
	}
	return out
}

// keyedMutex hands out one mutex per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*sync.Mutex{}
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
