package orchestrator

import (
	"sync/atomic"

	"github.com/loopgate/loopgate/pkg/provider"
)

func atomicLoad(p *int64) int64 { return atomic.LoadInt64(p) }

// LoopMetrics is the snapshot returned by getMetrics() (spec §6): overall
// execution counters, per-phase EMA metrics, and the router's own
// selection/fallback/latency counters.
type LoopMetrics struct {
	TotalExecutions      int64
	SuccessfulExecutions int64
	FailedExecutions     int64

	PlannerMetrics   provider.ProviderMetrics
	RetrieverMetrics provider.ProviderMetrics
	CodegenMetrics   provider.ProviderMetrics
	TestgenMetrics   provider.ProviderMetrics
	ReviewerMetrics  provider.ProviderMetrics
	RiskMetrics      provider.ProviderMetrics

	RouterMetrics provider.ProviderMetrics
	RouterSnapshot provider.Snapshot
}

// Metrics returns a point-in-time snapshot of every counter the loop and
// its phases/router maintain.
func (l *Loop) Metrics() LoopMetrics {
	m := LoopMetrics{
		TotalExecutions:      atomicLoad(&l.totalExecutions),
		SuccessfulExecutions: atomicLoad(&l.successfulExecutions),
		FailedExecutions:     atomicLoad(&l.failedExecutions),
		PlannerMetrics:       l.planner.Metrics(),
		RetrieverMetrics:     l.retriever.Metrics(),
		CodegenMetrics:       l.codegen.Metrics(),
		TestgenMetrics:       l.testgen.Metrics(),
		ReviewerMetrics:      l.reviewer.Metrics(),
		RiskMetrics:          l.risk.Metrics(),
	}
	if l.router != nil {
		m.RouterMetrics = l.router.Metrics()
		m.RouterSnapshot = l.router.RouterSnapshot()
	}
	return m
}
