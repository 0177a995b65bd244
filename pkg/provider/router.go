package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/loopgate/loopgate/pkg/pipeline"
)

const healthFanoutTimeout = 1 * time.Second

// RouterMetrics are the router-level counters spec §4.1/§6 require:
// total requests, per-backend selection counts, and fallback usage.
type RouterMetrics struct {
	mu                sync.RWMutex
	totalRequests     int64
	selectionCounts   map[string]int64
	fallbackUsage     int64
	routingLatencyEMA float64
}

func newRouterMetrics() *RouterMetrics {
	return &RouterMetrics{selectionCounts: make(map[string]int64)}
}

func (m *RouterMetrics) recordSelection(backend string, took time.Duration, usedFallback bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalRequests++
	m.selectionCounts[backend]++
	if usedFallback {
		m.fallbackUsage++
	}
	ms := float64(took.Microseconds()) / 1000.0
	if m.totalRequests <= 1 {
		m.routingLatencyEMA = ms
	} else {
		m.routingLatencyEMA = emaAlpha*ms + (1-emaAlpha)*m.routingLatencyEMA
	}
}

// Snapshot is a read-only copy of RouterMetrics, safe to hand to callers.
type Snapshot struct {
	TotalRequests     int64
	SelectionCounts    map[string]int64
	FallbackUsage      int64
	RoutingLatencyEMA  float64
}

func (m *RouterMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int64, len(m.selectionCounts))
	for k, v := range m.selectionCounts {
		counts[k] = v
	}
	return Snapshot{
		TotalRequests:     m.totalRequests,
		SelectionCounts:   counts,
		FallbackUsage:     m.fallbackUsage,
		RoutingLatencyEMA: m.routingLatencyEMA,
	}
}

// Router selects among fallible backends by live health/latency/success
// scoring, wraps each call in a timeout, and falls back to a mandatory
// deterministic heuristic backend on failure (spec §4.1). A Router is
// itself a Backend and may be composed into another router.
type Router struct {
	backends []Backend
	fallback Backend
	policy   pipeline.RoutingPolicy
	metrics  *RouterMetrics
}

// NewRouter constructs a Router over backends, using fallback as the
// mandatory heuristic backend invoked when every scored candidate fails
// (or none qualifies).
func NewRouter(backends []Backend, fallback Backend, policy pipeline.RoutingPolicy) *Router {
	return &Router{
		backends: backends,
		fallback: fallback,
		policy:   policy,
		metrics:  newRouterMetrics(),
	}
}

func (r *Router) Name() string    { return "router" }
func (r *Router) Priority() uint8 { return 255 }

// scoredBackend pairs a backend with its selection-round score and the
// health probe that produced it.
type scoredBackend struct {
	backend Backend
	score   float64
	health  ProviderHealth
}

// healthFanout probes every backend concurrently with an independent
// per-backend timeout, joining results by slice index (task identity) so
// no ordering relationship between probes is required or assumed.
func (r *Router) healthFanout(ctx context.Context) []ProviderHealth {
	results := make([]ProviderHealth, len(r.backends))
	var wg sync.WaitGroup
	for i, b := range r.backends {
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, healthFanoutTimeout)
			defer cancel()

			done := make(chan ProviderHealth, 1)
			go func() { done <- b.Health(probeCtx) }()

			select {
			case h := <-done:
				results[i] = h
			case <-probeCtx.Done():
				// A cancelled/timed-out probe counts as unavailable, not
				// as a metrics failure (spec §5).
				results[i] = ProviderHealth{Available: false, Error: "health probe timed out"}
			}
		}(i, b)
	}
	wg.Wait()
	return results
}

// score implements the weighted formula of spec §4.1 step 2.
func (r *Router) score(h ProviderHealth, m ProviderMetrics) float64 {
	if !h.Available {
		return 0
	}

	total := 30.0
	if h.ModelLoaded {
		total += 20.0
	}

	if h.LatencyMS != nil {
		latency := float64(*h.LatencyMS)
		maxLatency := float64(r.policy.MaxLatencyMS)
		if latency <= maxLatency {
			total += 20.0 * math.Max(0, 1-latency/maxLatency)
		}
	}

	successRate := m.SuccessRate()
	if successRate >= r.policy.MinSuccessRate {
		total += 20.0 * successRate
	}

	if m.LastSuccess != nil && time.Since(*m.LastSuccess) < 5*time.Minute {
		total += 10.0
	}

	if r.policy.PreferLocal && h.LatencyMS != nil && *h.LatencyMS < 100 {
		total += 10.0
	}

	return total / 100.0
}

// rankedCandidates runs the health fan-out, scores every available
// backend, discards those below the quality threshold, and returns the
// rest sorted descending by score (stable: ties keep original order, per
// spec §4.1 tie-break rule; a NaN score is treated as -1 and so falls
// below the threshold).
func (r *Router) rankedCandidates(ctx context.Context) []scoredBackend {
	healths := r.healthFanout(ctx)

	candidates := make([]scoredBackend, 0, len(r.backends))
	for i, b := range r.backends {
		h := healths[i]
		score := r.score(h, b.Metrics())
		if math.IsNaN(score) {
			score = -1
		}
		if score >= r.policy.QualityThresh {
			candidates = append(candidates, scoredBackend{backend: b, score: score, health: h})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates
}

// invokeWithTimeout runs op against backend under a context with the given
// timeout, releasing the timeout's resources when the call returns.
// Per-backend metrics are recorded by the backend itself.
func invokeWithTimeout[T any](ctx context.Context, timeout time.Duration, backend Backend, op func(context.Context, Backend) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(callCtx, backend)
}

// selectAndInvoke implements the full selection algorithm (spec §4.1
// steps 1-6) generically over Complete and Analyze.
func selectAndInvoke[T any](ctx context.Context, r *Router, op func(context.Context, Backend) (T, error)) (T, string, bool, error) {
	start := time.Now()
	var zero T

	candidates := r.rankedCandidates(ctx)

	var lastErr error
	for _, c := range candidates {
		result, err := invokeWithTimeout(ctx, r.policy.MaxLatency(), c.backend, op)
		if err == nil {
			r.metrics.recordSelection(c.backend.Name(), time.Since(start), false)
			return result, c.backend.Name(), false, nil
		}
		lastErr = err
		slog.Warn("backend attempt failed", "backend", c.backend.Name(), "error", err)
	}

	if lastErr == nil {
		lastErr = ErrNoQualifiedBackend
	}

	if r.policy.FallbackEnabled {
		result, err := invokeWithTimeout(ctx, r.policy.MaxLatency()/2, r.fallback, op)
		if err == nil {
			r.metrics.recordSelection(r.fallback.Name(), time.Since(start), true)
			return result, r.fallback.Name(), true, nil
		}
		lastErr = err
	}

	r.metrics.recordSelection("none", time.Since(start), false)
	return zero, "", false, fmt.Errorf("%w: %v", pipeline.ErrAllBackendsFailed, lastErr)
}

// Complete selects a backend and returns candidate completions.
func (r *Router) Complete(ctx context.Context, prompt string, hints map[string]string) ([]string, error) {
	result, _, _, err := selectAndInvoke(ctx, r, func(ctx context.Context, b Backend) ([]string, error) {
		return b.Complete(ctx, prompt, hints)
	})
	return result, err
}

// Analyze selects a backend and returns a structured analysis report.
func (r *Router) Analyze(ctx context.Context, code, language string) (*AnalysisReport, error) {
	result, _, _, err := selectAndInvoke(ctx, r, func(ctx context.Context, b Backend) (*AnalysisReport, error) {
		return b.Analyze(ctx, code, language)
	})
	return result, err
}

// Health aggregates every backend's health: the router itself is
// available if at least one backend is available or the fallback covers.
func (r *Router) Health(ctx context.Context) ProviderHealth {
	healths := r.healthFanout(ctx)
	availableCount := 0
	for _, h := range healths {
		if h.Available {
			availableCount++
		}
	}
	available := availableCount > 0 || r.policy.FallbackEnabled
	return ProviderHealth{Available: available, ModelLoaded: availableCount > 0}
}

// Metrics aggregates totals across every routed backend, recomputing a
// weighted-average latency. The fallback backend and the router's own
// selection/fallback counters are not included; see RouterSnapshot.
func (r *Router) Metrics() ProviderMetrics {
	var total, success, failed int64
	var weightedLatency float64
	for _, b := range r.backends {
		m := b.Metrics()
		total += m.TotalRequests
		success += m.SuccessfulRequests
		failed += m.FailedRequests
		weightedLatency += m.AverageLatencyMS * float64(m.TotalRequests)
	}
	avg := 0.0
	if total > 0 {
		avg = weightedLatency / float64(total)
	}
	return ProviderMetrics{
		TotalRequests:      total,
		SuccessfulRequests: success,
		FailedRequests:     failed,
		AverageLatencyMS:   avg,
	}
}

// RouterSnapshot exposes the router-only counters (selection counts,
// fallback usage, routing latency) that ProviderMetrics has no field for.
func (r *Router) RouterSnapshot() Snapshot {
	return r.metrics.Snapshot()
}

// errNoFallback is returned by Validate when the router was built without a
// fallback backend; kept as a sentinel so validation can use errors.Is.
var errNoFallback = errors.New("router requires a non-nil fallback backend")

// Validate reports a configuration error if the router has no fallback.
func (r *Router) Validate() error {
	if r.fallback == nil {
		return errNoFallback
	}
	return nil
}
