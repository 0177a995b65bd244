package review

import (
	"strings"

	"github.com/loopgate/loopgate/pkg/pipeline"
)

// QualityReviewer computes a per-file heuristic ReviewResult for a Patch
// (spec §4.5).
type QualityReviewer struct{}

// NewQualityReviewer constructs a QualityReviewer.
func NewQualityReviewer() *QualityReviewer {
	return &QualityReviewer{}
}

const baselineFileScore = 10.0

// Review scores patch against the fixed deduction rule set.
func (r *QualityReviewer) Review(patch pipeline.Patch) pipeline.ReviewResult {
	var issues []pipeline.ReviewIssue
	var total float64
	scored := 0

	for _, f := range patch.Files {
		if f.Content == "" {
			continue
		}
		scored++
		score := baselineFileScore

		if hasLongFunction(f.Content) {
			score -= 1.0
			issues = append(issues, mkIssue(pipeline.SeverityMedium, "maintainability", f.Path, "function body exceeds 50 lines"))
		}
		if !hasAdequateDocumentation(f.Content) {
			score -= 0.5
			issues = append(issues, mkIssue(pipeline.SeverityLow, "documentation", f.Path, "missing docstrings/comments"))
		}
		if strings.Contains(f.Content, "TODO") || strings.Contains(f.Content, "FIXME") {
			score -= 0.5
			issues = append(issues, mkIssue(pipeline.SeverityLow, "completeness", f.Path, "contains TODO/FIXME marker"))
		}
		if hasComplexConditions(f.Content) {
			score -= 1.0
			issues = append(issues, mkIssue(pipeline.SeverityMedium, "complexity", f.Path, "condition with more than 3 boolean operators"))
		}
		if p, ok := pipeline.MatchAny(pipeline.SecurityPatterns, f.Content); ok {
			score -= 2.0
			issues = append(issues, mkIssue(p.Severity, "security", f.Path, "security smell: "+p.Name))
		}

		if score < 0 {
			score = 0
		}
		if score > 10 {
			score = 10
		}
		total += score
	}

	qualityScore := 0.0
	if scored > 0 {
		qualityScore = total / float64(scored)
	}

	approved := qualityScore >= 7.0 && !hasSeverityAtLeast(issues, pipeline.SeverityHigh)

	return pipeline.ReviewResult{
		Approved:     approved,
		QualityScore: qualityScore,
		Issues:       issues,
		Suggestions:  suggestionsFor(issues),
	}
}

func mkIssue(sev pipeline.Severity, category, file, description string) pipeline.ReviewIssue {
	return pipeline.ReviewIssue{Severity: sev, Category: category, File: file, Description: description}
}

func severityRank(s pipeline.Severity) int {
	switch s {
	case pipeline.SeverityInfo:
		return 0
	case pipeline.SeverityLow:
		return 1
	case pipeline.SeverityMedium:
		return 2
	case pipeline.SeverityHigh:
		return 3
	case pipeline.SeverityCritical:
		return 4
	default:
		return -1
	}
}

func hasSeverityAtLeast(issues []pipeline.ReviewIssue, min pipeline.Severity) bool {
	for _, i := range issues {
		if severityRank(i.Severity) >= severityRank(min) {
			return true
		}
	}
	return false
}

func suggestionsFor(issues []pipeline.ReviewIssue) []string {
	seen := make(map[string]bool)
	var out []string
	for _, i := range issues {
		if seen[i.Category] {
			continue
		}
		seen[i.Category] = true
		out = append(out, "address "+i.Category+" issues before merging")
	}
	return out
}

// hasLongFunction scans for any function body exceeding 50 lines, using a
// line-count-between-openers heuristic (no AST available).
func hasLongFunction(content string) bool {
	lines := strings.Split(content, "\n")
	bodyLines := 0
	inFunc := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "func ") || strings.HasPrefix(trimmed, "fn ") {
			if inFunc && bodyLines > 50 {
				return true
			}
			inFunc = true
			bodyLines = 0
			continue
		}
		if inFunc {
			bodyLines++
		}
	}
	return inFunc && bodyLines > 50
}

// hasAdequateDocumentation checks for any of the doc-comment conventions
// this codebase recognizes: Python docstrings, Go/Rust doc comments, or a
// simple "#"/"//" comment line.
func hasAdequateDocumentation(content string) bool {
	return strings.Contains(content, `"""`) ||
		strings.Contains(content, "///") ||
		strings.Contains(content, "/**") ||
		strings.Contains(content, "// ") ||
		strings.Contains(content, "# ")
}

// hasComplexConditions flags any single line with more than 3 boolean
// operators.
func hasComplexConditions(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		count := strings.Count(line, "&&") + strings.Count(line, "||") +
			strings.Count(line, " and ") + strings.Count(line, " or ")
		if count > 3 {
			return true
		}
	}
	return false
}
