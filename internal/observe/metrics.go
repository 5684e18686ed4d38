// Package observe provides the OpenTelemetry metric instruments recorded by
// the memory pipeline, the context builder and the LLM adapter.
//
// A lazily created package-level instance ([DefaultMetrics]) uses the global
// meter provider. Tests should call [NewMetrics] with their own provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/rcliao/village-memory"

// Metrics holds every instrument. All fields are safe for concurrent use.
type Metrics struct {
	// FactsExtracted counts facts produced by the extractor, by npc_id and type.
	FactsExtracted metric.Int64Counter

	// FactsDropped counts candidates rejected by validation, by reason.
	FactsDropped metric.Int64Counter

	// FactsMerged counts incoming facts folded into an existing memory.
	FactsMerged metric.Int64Counter

	// TasksCompleted counts open tasks closed by a completion event.
	TasksCompleted metric.Int64Counter

	// PersistFailures counts storage writes that failed after the in-memory
	// update, by collection.
	PersistFailures metric.Int64Counter

	// ContextBuilds counts NPC memory context builds, by npc_id.
	ContextBuilds metric.Int64Counter

	// ContextDuration tracks context build latency.
	ContextDuration metric.Float64Histogram

	// LLMRequests counts adapter calls, by op and status.
	LLMRequests metric.Int64Counter

	// LLMDuration tracks adapter call latency, by op.
	LLMDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FactsExtracted, err = m.Int64Counter("village.memory.facts_extracted",
		metric.WithDescription("Facts produced by rule extraction by NPC and type."),
	); err != nil {
		return nil, err
	}
	if met.FactsDropped, err = m.Int64Counter("village.memory.facts_dropped",
		metric.WithDescription("Candidate facts dropped by validation by reason."),
	); err != nil {
		return nil, err
	}
	if met.FactsMerged, err = m.Int64Counter("village.memory.facts_merged",
		metric.WithDescription("Incoming facts merged into an existing memory."),
	); err != nil {
		return nil, err
	}
	if met.TasksCompleted, err = m.Int64Counter("village.memory.tasks_completed",
		metric.WithDescription("Open tasks closed by a completion event."),
	); err != nil {
		return nil, err
	}
	if met.PersistFailures, err = m.Int64Counter("village.store.persist_failures",
		metric.WithDescription("Storage writes that failed after the in-memory update."),
	); err != nil {
		return nil, err
	}
	if met.ContextBuilds, err = m.Int64Counter("village.retrieval.context_builds",
		metric.WithDescription("NPC memory context builds by NPC."),
	); err != nil {
		return nil, err
	}
	if met.ContextDuration, err = m.Float64Histogram("village.retrieval.context_duration",
		metric.WithDescription("Latency of NPC memory context builds."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMRequests, err = m.Int64Counter("village.llm.requests",
		metric.WithDescription("LLM adapter calls by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("village.llm.duration",
		metric.WithDescription("Latency of LLM adapter calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance backed by
// [otel.GetMeterProvider].
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordExtracted adds n extracted facts of one type for an NPC.
func (m *Metrics) RecordExtracted(ctx context.Context, npcID, factType string, n int) {
	m.FactsExtracted.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("npc_id", npcID),
		attribute.String("type", factType),
	))
}

// RecordDropped adds one dropped candidate.
func (m *Metrics) RecordDropped(ctx context.Context, reason string) {
	m.FactsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordPersistFailure adds one failed storage write.
func (m *Metrics) RecordPersistFailure(ctx context.Context, collection string) {
	m.PersistFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", collection)))
}

// RecordContextBuild records one context build for an NPC.
func (m *Metrics) RecordContextBuild(ctx context.Context, npcID string, seconds float64) {
	m.ContextBuilds.Add(ctx, 1, metric.WithAttributes(attribute.String("npc_id", npcID)))
	m.ContextDuration.Record(ctx, seconds)
}

// RecordLLM records one adapter call.
func (m *Metrics) RecordLLM(ctx context.Context, op, status string, seconds float64) {
	m.LLMRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	))
	m.LLMDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("op", op)))
}
