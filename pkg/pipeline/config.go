package pipeline

import "time"

// LoopConfig tunes one agent loop execution. Zero values are never valid
// configuration: use DefaultLoopConfig and override explicitly.
type LoopConfig struct {
	MaxIterations      int
	TimeoutSeconds     int
	ParallelAgents     int
	QualityThreshold   float64
	RiskThreshold      float64
	EnableAutoApproval bool
	EnableRollback     bool
}

// DefaultLoopConfig returns the documented defaults (spec §3).
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxIterations:      3,
		TimeoutSeconds:     300,
		ParallelAgents:     3,
		QualityThreshold:   7.0,
		RiskThreshold:      0.7,
		EnableAutoApproval: true,
		EnableRollback:     true,
	}
}

// Timeout returns TimeoutSeconds as a time.Duration.
func (c LoopConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AutoApproveThreshold is the fixed policy constant used by the gate
// decision (spec §4.6). It is not user-configurable: a RiskThreshold at or
// below this value is a configuration error (see Validate).
const AutoApproveThreshold = 0.2

// Validate checks field ranges and the auto-approve/risk-threshold
// configuration-error case required by spec §8 boundary behaviors.
func (c LoopConfig) Validate() error {
	if c.MaxIterations < 1 {
		return NewValidationError("maxIterations", "must be >= 1")
	}
	if c.TimeoutSeconds <= 0 {
		return NewValidationError("timeoutSeconds", "must be > 0")
	}
	if c.ParallelAgents < 1 {
		return NewValidationError("parallelAgents", "must be >= 1")
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 10 {
		return NewValidationError("qualityThreshold", "must be within [0, 10]")
	}
	if c.RiskThreshold < 0 || c.RiskThreshold > 1 {
		return NewValidationError("riskThreshold", "must be within [0, 1]")
	}
	if AutoApproveThreshold >= c.RiskThreshold {
		return NewValidationError("riskThreshold", "must be greater than autoApproveThreshold (0.2)")
	}
	return nil
}

// RoutingPolicy tunes the Provider Router's scoring and fallback behavior.
type RoutingPolicy struct {
	PreferLocal     bool
	MaxLatencyMS    int64
	MinSuccessRate  float64
	FallbackEnabled bool
	QualityThresh   float64
}

// DefaultRoutingPolicy returns the documented defaults (spec §3).
func DefaultRoutingPolicy() RoutingPolicy {
	return RoutingPolicy{
		PreferLocal:     true,
		MaxLatencyMS:    5000,
		MinSuccessRate:  0.8,
		FallbackEnabled: true,
		QualityThresh:   0.7,
	}
}

// MaxLatency returns MaxLatencyMS as a time.Duration.
func (p RoutingPolicy) MaxLatency() time.Duration {
	return time.Duration(p.MaxLatencyMS) * time.Millisecond
}

// Validate checks field ranges.
func (p RoutingPolicy) Validate() error {
	if p.MaxLatencyMS <= 0 {
		return NewValidationError("maxLatencyMs", "must be > 0")
	}
	if p.MinSuccessRate < 0 || p.MinSuccessRate > 1 {
		return NewValidationError("minSuccessRate", "must be within [0, 1]")
	}
	if p.QualityThresh < 0 || p.QualityThresh > 1 {
		return NewValidationError("qualityThreshold", "must be within [0, 1]")
	}
	return nil
}

// BackendDescriptor describes one configured backend (spec §6 "no
// environment variables are mandated by the core").
type BackendDescriptor struct {
	Kind     string // "remote" or "heuristic"
	Name     string
	Endpoint string
}
