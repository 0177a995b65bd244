package review

import (
	"github.com/loopgate/loopgate/pkg/pipeline"
)

// Gate combines a RiskAssessment and ReviewResult into a single
// approve/block GateDecision (spec §4.6). It is a pure function of its
// inputs plus two policy constants: riskThreshold and
// pipeline.AutoApproveThreshold.
type Gate struct{}

// NewGate constructs a Gate.
func NewGate() *Gate {
	return &Gate{}
}

// Decide evaluates patch against risk+review+riskThreshold. Re-running
// with the same inputs always yields the same decision (spec §8).
func (g *Gate) Decide(patch pipeline.Patch, risk pipeline.RiskAssessment, review pipeline.ReviewResult, riskThreshold float64) pipeline.GateDecision {
	decision := pipeline.GateDecision{
		PatchID: patch.ID,
		Risk:    risk,
		Review:  review,
	}

	switch {
	case risk.Blocked:
		decision.Approved = false
		decision.Reason = "blocked by risk gate"
		decision.RequiredActions = append(decision.RequiredActions,
			"Address high-risk factors", "Obtain manual approval from senior reviewer")

	case hasCriticalIssue(review.Issues):
		decision.Approved = false
		decision.Reason = "critical issues"
		decision.RequiredActions = append(decision.RequiredActions, "Fix all critical issues")

	case risk.Score <= pipeline.AutoApproveThreshold && review.Approved:
		decision.Approved = true
		decision.Reason = "auto-approved"

	default:
		decision.Approved = review.Approved && !risk.Blocked
		if decision.Approved {
			decision.Reason = "approved"
		} else {
			decision.Reason = "quality review did not approve"
		}
		if pipeline.AutoApproveThreshold < risk.Score && risk.Score < riskThreshold {
			decision.RequiredActions = append(decision.RequiredActions, "manual review recommended")
		}
	}

	if !review.Approved {
		decision.RequiredActions = append(decision.RequiredActions, "fix quality issues")
	}
	if review.QualityScore < 7.0 {
		decision.RequiredActions = append(decision.RequiredActions, "improve quality score")
	}

	if decision.Approved {
		decision.RollbackPlan = ""
	} else {
		decision.RollbackPlan = rollbackPlan(patch, risk)
	}

	return decision
}

func hasCriticalIssue(issues []pipeline.ReviewIssue) bool {
	for _, i := range issues {
		if i.Severity == pipeline.SeverityCritical {
			return true
		}
	}
	return false
}

// rollbackPlan generates the multi-line rollback plan template (spec
// §4.4), instantiated with the patch id and its risk factors.
func rollbackPlan(patch pipeline.Patch, risk pipeline.RiskAssessment) string {
	plan := "Rollback plan for patch " + patch.ID + ":\n"
	plan += "1. git stash pop or git checkout the pre-patch commit\n"
	plan += "2. Re-run the full test suite to confirm a clean baseline\n"
	plan += "3. Notify the on-call reviewer of the rollback\n"
	if len(risk.Factors) > 0 {
		plan += "Flagged factors requiring attention before re-attempting:\n"
		for _, f := range risk.Factors {
			plan += "  - " + f + "\n"
		}
	}
	return plan
}
