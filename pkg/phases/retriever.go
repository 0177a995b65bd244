package phases

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/loopgate/loopgate/pkg/docfetch"
	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/loopgate/loopgate/pkg/provider"
)

// referenceURLKey is the ExecContext.Metadata key a caller sets to point
// Retrieve at an external document (design doc, README, linked GitHub
// file) to fold into the retrieved context.
const referenceURLKey = "reference_url"

// Retriever gathers supporting context (a goal-level summary from the
// router, one placeholder excerpt per referenced file, and an optional
// external reference document) to hand to Codegen. File contents are not
// read. Like Planner it runs in Phase 1, concurrently with the
// Planner, against the same Router.
type Retriever struct {
	router  *provider.Router
	docs    *docfetch.Service
	metrics *provider.MetricsTracker
}

// NewRetriever constructs a Retriever over router. docs may be nil, in
// which case Retrieve never attempts an external document fetch.
func NewRetriever(router *provider.Router, docs *docfetch.Service) *Retriever {
	return &Retriever{router: router, docs: docs, metrics: provider.NewMetricsTracker()}
}

// Metrics returns this phase's EMA duration/success metrics.
func (r *Retriever) Metrics() provider.ProviderMetrics { return r.metrics.Snapshot() }

// RetrievedContext is Retriever's output: excerpts keyed by the file path
// (or synthetic topic name) they were retrieved for.
type RetrievedContext struct {
	Excerpts map[string]string
}

// Retrieve makes one router call for a goal-level summary (its prompt
// names execCtx.Files) and adds, for each file, an excerpt that only
// records the goal it was referenced by; the router is not asked about
// files individually.
func (r *Retriever) Retrieve(ctx context.Context, goal string, execCtx pipeline.ExecContext) (*RetrievedContext, error) {
	start := time.Now()

	prompt := "Summarize relevant context for: " + goal
	if len(execCtx.Files) > 0 {
		prompt += " (files: " + strings.Join(execCtx.Files, ", ") + ")"
	}

	suggestions, err := r.router.Complete(ctx, prompt, map[string]string{"mode": "retrieve"})
	if err != nil {
		r.metrics.RecordFailure()
		return nil, pipeline.NewPhaseError("retriever", err)
	}

	excerpts := make(map[string]string, len(execCtx.Files)+2)
	excerpts["goal"] = strings.Join(suggestions, "\n")
	for _, f := range execCtx.Files {
		excerpts[f] = "referenced by goal: " + goal
	}

	if url := execCtx.Metadata[referenceURLKey]; url != "" && r.docs != nil {
		if content, err := r.docs.Resolve(ctx, url); err != nil {
			slog.Warn("retriever: reference document fetch failed", "url", url, "error", err)
		} else {
			excerpts["reference"] = content
		}
	}

	r.metrics.RecordSuccess(time.Since(start))
	return &RetrievedContext{Excerpts: excerpts}, nil
}
