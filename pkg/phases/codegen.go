package phases

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/loopgate/loopgate/pkg/provider"
)

// Codegen turns a Plan plus retrieved context into a candidate Patch
// (spec §4.7 Phase 2). It runs single-threaded after Phase 1 completes.
type Codegen struct {
	router  *provider.Router
	metrics *provider.MetricsTracker
}

// NewCodegen constructs a Codegen over router.
func NewCodegen(router *provider.Router) *Codegen {
	return &Codegen{router: router, metrics: provider.NewMetricsTracker()}
}

// Metrics returns this phase's EMA duration/success metrics.
func (c *Codegen) Metrics() provider.ProviderMetrics { return c.metrics.Snapshot() }

// Generate produces one Patch touching every file named in plan's affected
// files (or a single synthetic file if the plan named none), using
// retrieved's excerpts (existing file context, and any external reference
// document the Retriever fetched) to ground both the prompt sent to the
// router and the patch body itself (spec §4.7: "Codegen produces a Patch
// from (plan, retrieved context, goal)").
func (c *Codegen) Generate(ctx context.Context, plan *pipeline.Plan, retrieved *RetrievedContext) (*pipeline.Patch, error) {
	start := time.Now()

	prompt := fmt.Sprintf("Generate code changes implementing: %s", plan.Goal)
	contextBlock := formatRetrievedContext(retrieved)
	if contextBlock != "" {
		prompt += "\n\nRetrieved context:\n" + contextBlock
	}

	suggestions, err := c.router.Complete(ctx, prompt, map[string]string{"mode": "codegen"})
	if err != nil {
		c.metrics.RecordFailure()
		return nil, pipeline.NewPhaseError("codegen", err)
	}

	body := strings.Join(suggestions, "\n")
	if contextBlock != "" {
		body += "\n\n# context used\n" + contextBlock
	}
	files := plan.AffectedFiles
	if len(files) == 0 {
		files = []string{"CHANGES.md"}
	}

	changes := make([]pipeline.FileChange, 0, len(files))
	for _, f := range files {
		changes = append(changes, pipeline.FileChange{
			Path:       f,
			Content:    body,
			ChangeType: pipeline.ChangeModify,
		})
	}

	patch := &pipeline.Patch{
		ID:         uuid.NewString(),
		Files:      changes,
		Summary:    plan.Goal,
		Confidence: confidenceFromPlan(plan),
	}

	c.metrics.RecordSuccess(time.Since(start))
	return patch, nil
}

// formatRetrievedContext renders retrieved's excerpts as a deterministic,
// key-sorted block, or "" if retrieved is nil or empty.
func formatRetrievedContext(retrieved *RetrievedContext) string {
	if retrieved == nil || len(retrieved.Excerpts) == 0 {
		return ""
	}

	keys := make([]string, 0, len(retrieved.Excerpts))
	for k := range retrieved.Excerpts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, retrieved.Excerpts[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

// confidenceFromPlan derives a crude confidence estimate from the plan's
// complexity score: simpler plans get higher confidence.
func confidenceFromPlan(plan *pipeline.Plan) float64 {
	return 1.0 - plan.ComplexityScore*0.5
}
