package config

import "time"

// BackendConfig describes one routable backend as loaded from the `backends`
// list of loopgate.yaml: its name, kind, and connection details. Routing
// tunables live separately in RoutingYAMLConfig.
type BackendConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"` // "heuristic", "http", "grpc"
	Endpoint string `yaml:"endpoint,omitempty"`
	Local    bool   `yaml:"local,omitempty"`
	Priority int    `yaml:"priority,omitempty"`
}

// RoutingYAMLConfig holds the tunables for pipeline.RoutingPolicy.
type RoutingYAMLConfig struct {
	PreferLocal     *bool    `yaml:"prefer_local,omitempty"`
	MaxLatencyMS    *int64   `yaml:"max_latency_ms,omitempty"`
	MinSuccessRate  *float64 `yaml:"min_success_rate,omitempty"`
	FallbackEnabled *bool    `yaml:"fallback_enabled,omitempty"`
	QualityThresh   *float64 `yaml:"quality_threshold,omitempty"`
}

// LoopYAMLConfig holds the tunables for pipeline.LoopConfig.
type LoopYAMLConfig struct {
	MaxIterations       *int     `yaml:"max_iterations,omitempty"`
	TimeoutSeconds      *int     `yaml:"timeout_seconds,omitempty"`
	ParallelAgents      *int     `yaml:"parallel_agents,omitempty"`
	QualityThreshold    *float64 `yaml:"quality_threshold,omitempty"`
	RiskThreshold       *float64 `yaml:"risk_threshold,omitempty"`
	EnableAutoApproval  *bool    `yaml:"enable_auto_approval,omitempty"`
	EnableRollback      *bool    `yaml:"enable_rollback,omitempty"`
	MaxConcurrentLoops  *int     `yaml:"max_concurrent_loops,omitempty"`
}

// NotifyYAMLConfig holds Slack-style gate-decision notification settings.
type NotifyYAMLConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

// RetentionYAMLConfig holds the tunables for the retention purge service.
type RetentionYAMLConfig struct {
	TTL             string `yaml:"ttl,omitempty"`              // parsed to time.Duration
	CleanupInterval string `yaml:"cleanup_interval,omitempty"` // parsed to time.Duration
}

// LoopgateYAMLConfig is the top-level loopgate.yaml file structure.
type LoopgateYAMLConfig struct {
	Backends  []BackendConfig      `yaml:"backends"`
	Routing   *RoutingYAMLConfig   `yaml:"routing"`
	Loop      *LoopYAMLConfig      `yaml:"loop"`
	Notify    *NotifyYAMLConfig    `yaml:"notify"`
	Retention *RetentionYAMLConfig `yaml:"retention"`
}

// NotifyConfig is the resolved, typed notification configuration.
type NotifyConfig struct {
	Enabled  bool
	TokenEnv string
	Channel  string
}

// RetentionConfig is the resolved, typed retention configuration.
type RetentionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		TTL:             24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// Config is the fully resolved, validated configuration ready for use by
// the router, the loop, and the ambient services (notify, retention).
type Config struct {
	configDir string

	Backends  []BackendConfig
	Routing   RoutingPolicyConfig
	Loop      LoopConfigValues
	Notify    *NotifyConfig
	Retention *RetentionConfig
}

// RoutingPolicyConfig is the plain-value mirror of pipeline.RoutingPolicy,
// kept here so pkg/config does not import pkg/pipeline; callers
// convert with pipeline.RoutingPolicy{...} using these fields directly.
type RoutingPolicyConfig struct {
	PreferLocal     bool
	MaxLatencyMS    int64
	MinSuccessRate  float64
	FallbackEnabled bool
	QualityThresh   float64
}

// LoopConfigValues is the plain-value mirror of pipeline.LoopConfig.
type LoopConfigValues struct {
	MaxIterations      int
	TimeoutSeconds     int
	ParallelAgents     int
	QualityThreshold   float64
	RiskThreshold      float64
	EnableAutoApproval bool
	EnableRollback     bool
	MaxConcurrentLoops int
}

// Stats summarizes the loaded configuration for a one-line startup log.
type Stats struct {
	Backends int
}

// Stats returns summary counts of the loaded configuration.
func (c *Config) Stats() Stats {
	return Stats{Backends: len(c.Backends)}
}
