package phases

import (
	"context"
	"time"

	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/loopgate/loopgate/pkg/provider"
	"github.com/loopgate/loopgate/pkg/review"
)

// Reviewer times and records one call to the pure quality review
// (spec §4.7 Phase 4, runs concurrently with Risk).
type Reviewer struct {
	reviewer *review.QualityReviewer
	metrics  *provider.MetricsTracker
}

// NewReviewer constructs a Reviewer wrapping a QualityReviewer.
func NewReviewer() *Reviewer {
	return &Reviewer{reviewer: review.NewQualityReviewer(), metrics: provider.NewMetricsTracker()}
}

// Metrics returns this phase's EMA duration/success metrics.
func (r *Reviewer) Metrics() provider.ProviderMetrics { return r.metrics.Snapshot() }

// Review runs the quality review on patch. ctx is accepted for symmetry
// with the other phases and honored for cancellation even though the
// underlying review is pure CPU work with no external call to cancel.
func (r *Reviewer) Review(ctx context.Context, patch pipeline.Patch) (pipeline.ReviewResult, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		r.metrics.RecordFailure()
		return pipeline.ReviewResult{}, ctx.Err()
	default:
	}

	result := r.reviewer.Review(patch)
	r.metrics.RecordSuccess(time.Since(start))
	return result, nil
}
