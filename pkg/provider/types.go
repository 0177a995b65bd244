// Package provider implements the Backend interface, its concrete
// implementations (heuristic fallback, HTTP remote, gRPC remote), and the
// health-gated router that selects among them.
package provider

import (
	"context"
	"time"
)

// ProviderHealth is a point-in-time health probe result (spec §3).
type ProviderHealth struct {
	Available    bool
	LatencyMS    *int64
	ModelLoaded  bool
	Error        string
}

// ProviderMetrics is a per-backend running-statistics snapshot (spec §3).
type ProviderMetrics struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	AverageLatencyMS    float64
	LastSuccess         *time.Time
	LastFailure         *time.Time
}

// SuccessRate derives successRate = successful / max(1, total).
func (m ProviderMetrics) SuccessRate() float64 {
	total := m.TotalRequests
	if total < 1 {
		total = 1
	}
	return float64(m.SuccessfulRequests) / float64(total)
}

// AnalysisReport is analyze()'s structured output.
type AnalysisReport struct {
	Issues           []string
	Suggestions      []string
	SecurityConcerns []string
	Cyclomatic       int
	Maintainability  float64
}

// Backend is the polymorphic capability set every provider implements
// (spec §6, §9 "trait/virtual dispatch over backends"). Implementations
// must be safe to call from many goroutines concurrently.
type Backend interface {
	Complete(ctx context.Context, prompt string, hints map[string]string) ([]string, error)
	Analyze(ctx context.Context, code, language string) (*AnalysisReport, error)
	Health(ctx context.Context) ProviderHealth
	Metrics() ProviderMetrics
	Name() string
	Priority() uint8
}
