package config

import "fmt"

// Validator performs hand-rolled field validation on a resolved Config,
// matching the fail-fast, one-error-per-rule style used throughout this
// codebase rather than a struct-tag validation library.
type Validator struct {
	cfg *Config
}

// NewValidator constructs a Validator for cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every validation rule, returning the first failure.
func (v *Validator) ValidateAll() error {
	if err := v.validateBackends(); err != nil {
		return err
	}
	if err := v.validateRouting(); err != nil {
		return err
	}
	if err := v.validateLoop(); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateBackends() error {
	if len(v.cfg.Backends) == 0 {
		return fmt.Errorf("%w: at least one backend must be configured", ErrValidationFailed)
	}
	seen := make(map[string]bool, len(v.cfg.Backends))
	for _, b := range v.cfg.Backends {
		if b.Name == "" {
			return NewValidationError("backend", "", "name", ErrMissingRequiredField)
		}
		if seen[b.Name] {
			return NewValidationError("backend", b.Name, "name", fmt.Errorf("duplicate backend name"))
		}
		seen[b.Name] = true
		switch b.Kind {
		case "heuristic", "http", "grpc":
		default:
			return NewValidationError("backend", b.Name, "kind", ErrInvalidValue)
		}
		if b.Kind != "heuristic" && b.Endpoint == "" {
			return NewValidationError("backend", b.Name, "endpoint", ErrMissingRequiredField)
		}
	}
	return nil
}

func (v *Validator) validateRouting() error {
	r := v.cfg.Routing
	if r.MaxLatencyMS <= 0 {
		return NewValidationError("routing", "", "max_latency_ms", ErrInvalidValue)
	}
	if r.MinSuccessRate < 0 || r.MinSuccessRate > 1 {
		return NewValidationError("routing", "", "min_success_rate", ErrInvalidValue)
	}
	if r.QualityThresh < 0 || r.QualityThresh > 1 {
		return NewValidationError("routing", "", "quality_threshold", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateLoop() error {
	l := v.cfg.Loop
	if l.MaxIterations < 1 {
		return NewValidationError("loop", "", "max_iterations", ErrInvalidValue)
	}
	if l.TimeoutSeconds < 1 {
		return NewValidationError("loop", "", "timeout_seconds", ErrInvalidValue)
	}
	if l.ParallelAgents < 1 {
		return NewValidationError("loop", "", "parallel_agents", ErrInvalidValue)
	}
	if l.QualityThreshold < 0 || l.QualityThreshold > 10 {
		return NewValidationError("loop", "", "quality_threshold", ErrInvalidValue)
	}
	if l.RiskThreshold < 0 || l.RiskThreshold > 1 {
		return NewValidationError("loop", "", "risk_threshold", ErrInvalidValue)
	}
	if l.MaxConcurrentLoops < 1 {
		return NewValidationError("loop", "", "max_concurrent_loops", ErrInvalidValue)
	}
	return nil
}
