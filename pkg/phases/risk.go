package phases

import (
	"context"
	"time"

	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/loopgate/loopgate/pkg/provider"
	"github.com/loopgate/loopgate/pkg/review"
)

// Risk times and records one call to the pure risk scorer (spec §4.7
// Phase 4, runs concurrently with Reviewer).
type Risk struct {
	scorer  *review.RiskScorer
	metrics *provider.MetricsTracker
}

// NewRisk constructs a Risk phase wrapping a RiskScorer.
func NewRisk() *Risk {
	return &Risk{scorer: review.NewRiskScorer(), metrics: provider.NewMetricsTracker()}
}

// Metrics returns this phase's EMA duration/success metrics.
func (r *Risk) Metrics() provider.ProviderMetrics { return r.metrics.Snapshot() }

// Score runs the risk scorer on patch against riskThreshold.
func (r *Risk) Score(ctx context.Context, patch pipeline.Patch, riskThreshold float64) (pipeline.RiskAssessment, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		r.metrics.RecordFailure()
		return pipeline.RiskAssessment{}, ctx.Err()
	default:
	}

	assessment := r.scorer.Score(patch, riskThreshold)
	r.metrics.RecordSuccess(time.Since(start))
	return assessment, nil
}
