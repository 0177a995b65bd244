// Package review implements the Risk Scorer (§4.4), Quality Reviewer
// (§4.5), and Gate Decision (§4.6): pure functions over a pipeline.Patch
// that together turn a candidate change into an approve/block decision.
package review

import (
	"fmt"
	"strings"

	"github.com/loopgate/loopgate/pkg/pipeline"
)

// RiskScorer computes a weighted multi-factor RiskAssessment for a Patch.
type RiskScorer struct{}

// NewRiskScorer constructs a RiskScorer. It carries no state: every call
// is a pure function of its arguments.
func NewRiskScorer() *RiskScorer {
	return &RiskScorer{}
}

// churn returns the total added+removed lines across a Patch. Since
// FileChange carries full Content rather than a line-level diff, churn is
// approximated as the line count of the new content for create/modify and
// zero for delete (a deleted file contributes no "added" lines and its
// removed-line count is not tracked by the core's data model).
func churn(p pipeline.Patch) int {
	total := 0
	for _, f := range p.Files {
		if f.ChangeType == pipeline.ChangeDelete {
			continue
		}
		if f.Content == "" {
			continue
		}
		total += strings.Count(f.Content, "\n") + 1
	}
	return total
}

func hasTestFile(p pipeline.Patch) bool {
	for _, f := range p.Files {
		lower := strings.ToLower(f.Path)
		if strings.Contains(lower, "test") {
			return true
		}
	}
	return false
}

// Score assesses patch against riskThreshold (spec §4.4).
func (s *RiskScorer) Score(patch pipeline.Patch, riskThreshold float64) pipeline.RiskAssessment {
	var score float64
	var factors []string
	criticalFactor := false

	n := len(patch.Files)
	switch {
	case n > 10:
		score += 0.30
		factors = append(factors, "many files changed")
	case n > 5:
		score += 0.10
		factors = append(factors, "several files changed")
	}

	ch := churn(patch)
	switch {
	case ch > 500:
		score += 0.40
		factors = append(factors, "large code churn")
	case ch > 100:
		score += 0.20
		factors = append(factors, "medium code churn")
	}

	for _, f := range patch.Files {
		if pipeline.IsCriticalFile(f.Path) {
			score += 0.20
			factors = append(factors, fmt.Sprintf("critical file touched: %s", f.Path))
		}
		lower := strings.ToLower(f.Path)
		if strings.Contains(lower, "migration") || strings.Contains(lower, "schema") {
			score += 0.30
			factors = append(factors, fmt.Sprintf("schema/migration touched: %s", f.Path))
		}
		if strings.Contains(lower, "config") || strings.HasSuffix(lower, ".env") {
			score += 0.20
			factors = append(factors, fmt.Sprintf("config touched: %s", f.Path))
		}
		if f.Content == "" {
			continue
		}
		if p, ok := pipeline.MatchAny(pipeline.SecurityPatterns, f.Content); ok {
			score += 0.40
			factors = append(factors, fmt.Sprintf("security smell (%s) in %s", p.Name, f.Path))
			criticalFactor = true
		}
		if p, ok := pipeline.MatchAny(pipeline.PerformancePatterns, f.Content); ok {
			score += 0.20
			factors = append(factors, fmt.Sprintf("performance smell (%s) in %s", p.Name, f.Path))
		}
	}

	if !hasTestFile(patch) && ch > 50 {
		score += 0.30
		factors = append(factors, "no accompanying tests for a non-trivial change")
	}

	if score > 1.0 {
		score = 1.0
	}

	level := riskLevel(score)
	blocked := score >= riskThreshold || criticalFactor

	return pipeline.RiskAssessment{
		Level:            level,
		Score:            score,
		Blocked:          blocked,
		Factors:          factors,
		Recommendations:  recommendations(level, factors),
		RollbackCommands: rollbackCommands(patch),
	}
}

func riskLevel(score float64) pipeline.RiskLevel {
	switch {
	case score < 0.3:
		return pipeline.RiskLow
	case score < 0.6:
		return pipeline.RiskMedium
	case score < 0.8:
		return pipeline.RiskHigh
	default:
		return pipeline.RiskCritical
	}
}

func recommendations(level pipeline.RiskLevel, factors []string) []string {
	if len(factors) == 0 {
		return nil
	}
	recs := []string{fmt.Sprintf("review flagged factors before merging (risk level: %s)", level)}
	if level == pipeline.RiskHigh || level == pipeline.RiskCritical {
		recs = append(recs, "obtain a second reviewer for this change")
	}
	return recs
}

// rollbackCommands generates the fixed-template rollback commands (spec
// §4.4), instantiated with the patch id and file list.
func rollbackCommands(patch pipeline.Patch) []string {
	cmds := []string{
		fmt.Sprintf("git stash push -m \"rollback-%s\"", patch.ID),
	}
	for _, f := range patch.Files {
		cmds = append(cmds, fmt.Sprintf("git checkout HEAD -- %s", f.Path))
	}
	cmds = append(cmds, fmt.Sprintf("git tag rollback-%s", patch.ID))
	return cmds
}
