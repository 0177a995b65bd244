package provider

import (
	"sync"
	"time"
)

// emaAlpha is the exponential-moving-average smoothing constant used for
// the latency averages (spec §4.1 "Metrics side effect"); request counts
// are plain counters.
const emaAlpha = 0.1

// MetricsTracker accumulates one backend's ProviderMetrics. Updates are
// serialized under a short critical section per backend (spec §9 "EMA
// metrics without locks... avoid global metric locks") — the lock here is
// local to one tracker, never shared across backends.
type MetricsTracker struct {
	mu sync.Mutex
	m  ProviderMetrics
}

// NewMetricsTracker returns a zero-valued tracker.
func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// RecordSuccess folds a successful call's latency into the EMA and bumps
// the success counters.
func (t *MetricsTracker) RecordSuccess(latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.m.TotalRequests++
	t.m.SuccessfulRequests++
	t.updateLatencyEMA(latency)
	t.m.LastSuccess = &now
}

// RecordFailure bumps the failure counters. A cancelled call still counts
// as a failure in metrics (spec §5 "A cancelled backend call must ...
// record a failure in metrics").
func (t *MetricsTracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.m.TotalRequests++
	t.m.FailedRequests++
	t.m.LastFailure = &now
}

// updateLatencyEMA must be called with mu held.
func (t *MetricsTracker) updateLatencyEMA(latency time.Duration) {
	ms := float64(latency.Microseconds()) / 1000.0
	if t.m.TotalRequests <= 1 {
		t.m.AverageLatencyMS = ms
		return
	}
	t.m.AverageLatencyMS = emaAlpha*ms + (1-emaAlpha)*t.m.AverageLatencyMS
}

// Snapshot returns a copy of the current metrics, safe to read without
// holding the tracker's lock further.
func (t *MetricsTracker) Snapshot() ProviderMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m
}
