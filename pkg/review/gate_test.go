package review

import (
	"testing"

	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/stretchr/testify/assert"
)

func TestGate_Decide_BlockedByRisk(t *testing.T) {
	patch := pipeline.Patch{ID: "p1"}
	risk := pipeline.RiskAssessment{Blocked: true, Score: 0.9}
	rev := pipeline.ReviewResult{Approved: true, QualityScore: 9}

	decision := NewGate().Decide(patch, risk, rev, 0.7)
	assert.False(t, decision.Approved)
	assert.Contains(t, decision.Reason, "risk gate")
	assert.NotEmpty(t, decision.RollbackPlan)
}

func TestGate_Decide_CriticalIssueBlocksEvenWithZeroRisk(t *testing.T) {
	patch := pipeline.Patch{ID: "p2"}
	risk := pipeline.RiskAssessment{Blocked: false, Score: 0.0}
	rev := pipeline.ReviewResult{
		Approved:     false,
		QualityScore: 5,
		Issues:       []pipeline.ReviewIssue{{Severity: pipeline.SeverityCritical}},
	}

	decision := NewGate().Decide(patch, risk, rev, 0.7)
	assert.False(t, decision.Approved)
	assert.Contains(t, decision.Reason, "critical")
}

func TestGate_Decide_AutoApproved(t *testing.T) {
	patch := pipeline.Patch{ID: "p3"}
	risk := pipeline.RiskAssessment{Blocked: false, Score: 0.1}
	rev := pipeline.ReviewResult{Approved: true, QualityScore: 9}

	decision := NewGate().Decide(patch, risk, rev, 0.7)
	assert.True(t, decision.Approved)
	assert.Equal(t, "auto-approved", decision.Reason)
	assert.Empty(t, decision.RollbackPlan)
}

func TestGate_Decide_ManualReviewRecommendedBand(t *testing.T) {
	patch := pipeline.Patch{ID: "p4"}
	risk := pipeline.RiskAssessment{Blocked: false, Score: 0.5}
	rev := pipeline.ReviewResult{Approved: true, QualityScore: 8}

	decision := NewGate().Decide(patch, risk, rev, 0.7)
	assert.True(t, decision.Approved)
	assert.Contains(t, decision.RequiredActions, "manual review recommended")
}

func TestGate_Decide_Idempotent(t *testing.T) {
	patch := pipeline.Patch{ID: "p5"}
	risk := pipeline.RiskAssessment{Blocked: false, Score: 0.5}
	rev := pipeline.ReviewResult{Approved: true, QualityScore: 8}

	first := NewGate().Decide(patch, risk, rev, 0.7)
	second := NewGate().Decide(patch, risk, rev, 0.7)
	assert.Equal(t, first, second)
}

func TestGate_Decide_LowQualityAddsRequiredAction(t *testing.T) {
	patch := pipeline.Patch{ID: "p6"}
	risk := pipeline.RiskAssessment{Blocked: false, Score: 0.1}
	rev := pipeline.ReviewResult{Approved: false, QualityScore: 4}

	decision := NewGate().Decide(patch, risk, rev, 0.7)
	assert.Contains(t, decision.RequiredActions, "improve quality score")
	assert.Contains(t, decision.RequiredActions, "fix quality issues")
}
