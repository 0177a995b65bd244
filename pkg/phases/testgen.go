package phases

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/loopgate/loopgate/pkg/provider"
	"github.com/loopgate/loopgate/pkg/sandbox"
)

// Testgen executes a Patch's changed code against the sandbox Runner and
// returns the resulting TestReport (spec §4.7 Phase 3). Unlike the other
// phases it never calls the Router — it only drives the sandbox.
type Testgen struct {
	runner  sandbox.Runner
	metrics *provider.MetricsTracker
}

// NewTestgen constructs a Testgen over runner.
func NewTestgen(runner sandbox.Runner) *Testgen {
	return &Testgen{runner: runner, metrics: provider.NewMetricsTracker()}
}

// Metrics returns this phase's EMA duration/success metrics.
func (tg *Testgen) Metrics() provider.ProviderMetrics { return tg.metrics.Snapshot() }

// Run concatenates the patch's file contents into one body, infers a
// language from the first file's extension, and hands both to the
// sandbox Runner under timeout.
func (tg *Testgen) Run(ctx context.Context, patch *pipeline.Patch, timeout time.Duration) (*pipeline.TestReport, error) {
	start := time.Now()

	code, language := codeAndLanguage(patch)
	report, err := tg.runner.RunTests(ctx, code, language, nil, timeout)
	if err != nil {
		tg.metrics.RecordFailure()
		return nil, pipeline.NewSandboxError(err)
	}

	// A clean run that reports failing tests is still a successful phase
	// invocation — the failure belongs to the generated code, not Testgen.
	tg.metrics.RecordSuccess(time.Since(start))
	return &report, nil
}

func codeAndLanguage(patch *pipeline.Patch) (string, string) {
	var bodies []string
	language := "python"
	if len(patch.Files) > 0 {
		language = languageFromExt(patch.Files[0].Path)
	}
	for _, f := range patch.Files {
		bodies = append(bodies, f.Content)
	}
	return strings.Join(bodies, "\n"), language
}

func languageFromExt(path string) string {
	switch filepath.Ext(path) {
	case ".go":
		return "go"
	case ".js", ".ts":
		return "javascript"
	case ".rs":
		return "rust"
	default:
		return "python"
	}
}
