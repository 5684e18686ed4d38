package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/observe"
)

// DefaultMinSalience is the quality gate applied after schema checks.
const DefaultMinSalience = 0.4

// Validator schema-checks candidate facts and filters weak ones.
type Validator struct {
	minSalience float64
	logger      *slog.Logger
	metrics     *observe.Metrics
}

// NewValidator returns a validator with the given salience floor. Pass nil
// for defaults.
func NewValidator(minSalience float64, logger *slog.Logger, metrics *observe.Metrics) *Validator {
	if logger == nil {
		logger = slog.Default().With("component", "memory-validator")
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Validator{minSalience: minSalience, logger: logger, metrics: metrics}
}

// Validate drops malformed candidates, logging each, then drops those under
// the salience floor. It never fails the batch.
func (v *Validator) Validate(ctx context.Context, candidates []model.MemoryFact) []model.MemoryFact {
	out := make([]model.MemoryFact, 0, len(candidates))
	for _, f := range candidates {
		if err := CheckFact(f); err != nil {
			v.logger.WarnContext(ctx, "dropping invalid fact", "npc_id", f.NpcID, "fact_id", f.ID, "reason", err)
			v.metrics.RecordDropped(ctx, "invalid")
			continue
		}
		if f.Salience < v.minSalience {
			v.logger.DebugContext(ctx, "dropping low salience fact", "npc_id", f.NpcID, "fact_id", f.ID, "salience", f.Salience)
			v.metrics.RecordDropped(ctx, "low_salience")
			continue
		}
		out = append(out, f)
	}
	return out
}

// CheckFact returns every schema violation in f joined into one error.
func CheckFact(f model.MemoryFact) error {
	var errs []error
	if strings.TrimSpace(f.ID) == "" {
		errs = append(errs, errors.New("id is empty"))
	}
	if strings.TrimSpace(f.NpcID) == "" {
		errs = append(errs, errors.New("npcId is empty"))
	}
	if !model.ValidTypes[f.Type] {
		errs = append(errs, fmt.Errorf("unknown type %q", f.Type))
	}
	if strings.TrimSpace(f.Content) == "" {
		errs = append(errs, errors.New("content is empty"))
	}
	if math.IsNaN(f.Salience) || f.Salience < 0 || f.Salience > 1 {
		errs = append(errs, fmt.Errorf("salience %v out of range", f.Salience))
	}
	if f.Mentions < 1 {
		errs = append(errs, fmt.Errorf("mentions %d below 1", f.Mentions))
	}
	if !model.ValidStatuses[f.Status] {
		errs = append(errs, fmt.Errorf("unknown status %q", f.Status))
	}
	if f.ThreadSequence < 0 || (f.ThreadID != "" && f.ThreadSequence < 1) {
		errs = append(errs, fmt.Errorf("threadSequence %d invalid", f.ThreadSequence))
	}
	for _, t := range f.Tags {
		if t.Group == "" || t.Value == "" {
			errs = append(errs, fmt.Errorf("malformed tag %q", t.String()))
		}
	}
	for _, a := range f.Anchors {
		if a.Type == "" || a.Value == "" {
			errs = append(errs, fmt.Errorf("malformed anchor %q", a.Key()))
		}
	}
	for _, l := range f.Links {
		if l.TargetID == "" || !model.ValidLabels[l.Label] {
			errs = append(errs, fmt.Errorf("malformed link %+v", l))
		}
	}
	if f.CreatedAt.IsZero() || f.LastMentionedAt.IsZero() {
		errs = append(errs, errors.New("timestamps are required"))
	}
	return errors.Join(errs...)
}
