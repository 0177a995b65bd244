package provider

import (
	"context"
	"strings"
	"time"

	"github.com/loopgate/loopgate/pkg/pipeline"
)

// completionCue is one structural cue completion() scans the prompt for,
// paired with the fixed suggestion table for that cue (spec §4.2).
type completionCue struct {
	name        string
	matches     func(prompt string) bool
	suggestions []string
}

var completionCues = []completionCue{
	{
		name:        "function-header",
		matches:     func(p string) bool { return hasAnyPrefix(p, "def ", "func ", "function ") },
		suggestions: []string{"    pass", "    return nil", "    # TODO: implement"},
	},
	{
		name:        "class-header",
		matches:     func(p string) bool { return hasAnyPrefix(p, "class ", "struct ", "type ") },
		suggestions: []string{"    pass", "    def __init__(self):\n        pass"},
	},
	{
		name:        "import-line",
		matches:     func(p string) bool { return hasAnyPrefix(p, "import ", "from ", "require(", "use ") },
		suggestions: []string{"os", "sys", "json"},
	},
	{
		name:        "conditional-opener",
		matches:     func(p string) bool { return hasAnyPrefix(p, "if ", "elif ", "else if ") },
		suggestions: []string{"    pass", "    return"},
	},
	{
		name:        "loop-opener",
		matches:     func(p string) bool { return hasAnyPrefix(p, "for ", "while ") },
		suggestions: []string{"    pass", "    continue"},
	},
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	trimmed := strings.TrimSpace(lastNonEmptyLine(s))
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

// HeuristicBackend is the mandatory, deterministic fallback backend (spec
// §4.2). It guarantees complete/analyze always have an offline answer and
// runs in bounded time independent of input size.
type HeuristicBackend struct {
	metrics *MetricsTracker
}

// NewHeuristicBackend constructs the fallback backend.
func NewHeuristicBackend() *HeuristicBackend {
	return &HeuristicBackend{metrics: NewMetricsTracker()}
}

func (h *HeuristicBackend) Name() string     { return "heuristic" }
func (h *HeuristicBackend) Priority() uint8  { return 0 }
func (h *HeuristicBackend) Metrics() ProviderMetrics { return h.metrics.Snapshot() }

func (h *HeuristicBackend) Health(ctx context.Context) ProviderHealth {
	zero := int64(0)
	return ProviderHealth{Available: true, LatencyMS: &zero, ModelLoaded: true}
}

// Complete returns 1-3 deterministic suggestions keyed on structural cues
// present at the end of prompt. No network, no randomness.
func (h *HeuristicBackend) Complete(ctx context.Context, prompt string, hints map[string]string) ([]string, error) {
	start := time.Now()
	for _, cue := range completionCues {
		if cue.matches(prompt) {
			h.metrics.RecordSuccess(time.Since(start))
			n := len(cue.suggestions)
			if n > 3 {
				n = 3
			}
			return cue.suggestions[:n], nil
		}
	}
	h.metrics.RecordSuccess(time.Since(start))
	return []string{"// no structural cue recognized"}, nil
}

// Analyze scans code for the closed SecurityPatterns/PerformancePatterns
// sets and derives cyclomatic complexity and a maintainability index from
// fixed formulas. Runs in O(n) over code bytes.
func (h *HeuristicBackend) Analyze(ctx context.Context, code, language string) (*AnalysisReport, error) {
	start := time.Now()
	report := &AnalysisReport{}

	for _, p := range pipeline.SecurityPatterns {
		if p.Matcher(code) {
			report.SecurityConcerns = append(report.SecurityConcerns, p.Name)
			report.Issues = append(report.Issues, "security: "+p.Name)
		}
	}
	for _, p := range pipeline.PerformancePatterns {
		if p.Matcher(code) {
			report.Issues = append(report.Issues, "performance: "+p.Name)
			report.Suggestions = append(report.Suggestions, "consider reworking nested iteration in "+p.Name)
		}
	}

	report.Cyclomatic = 1 + countBranchOpeners(code)
	report.Maintainability = maintainabilityIndex(code, report.Cyclomatic)

	h.metrics.RecordSuccess(time.Since(start))
	return report, nil
}

func countBranchOpeners(code string) int {
	openers := []string{"if ", "elif ", "else if ", "for ", "while ", "case ", "catch ", "&&", "||"}
	count := 0
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, o := range openers {
			count += strings.Count(trimmed, o)
		}
	}
	return count
}

// maintainabilityIndex is a fixed, simplified formula (not the full
// Halstead-based MI): 100 scaled down by complexity and size, floored at 0.
func maintainabilityIndex(code string, cyclomatic int) float64 {
	lines := float64(strings.Count(code, "\n") + 1)
	mi := 100.0 - float64(cyclomatic)*2.0 - lines*0.1
	if mi < 0 {
		mi = 0
	}
	if mi > 100 {
		mi = 100
	}
	return mi
}
