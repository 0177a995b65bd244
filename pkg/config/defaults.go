package config

// DefaultRoutingPolicy returns the built-in routing policy defaults, matching
// the weights and thresholds the router's scoring formula is calibrated for.
func DefaultRoutingPolicy() RoutingPolicyConfig {
	return RoutingPolicyConfig{
		PreferLocal:     true,
		MaxLatencyMS:    5000,
		MinSuccessRate:  0.8,
		FallbackEnabled: true,
		QualityThresh:   0.7,
	}
}

// DefaultLoopConfig returns the built-in agent loop defaults.
func DefaultLoopConfig() LoopConfigValues {
	return LoopConfigValues{
		MaxIterations:      3,
		TimeoutSeconds:     300,
		ParallelAgents:     3,
		QualityThreshold:   7.0,
		RiskThreshold:      0.7,
		EnableAutoApproval: true,
		EnableRollback:     true,
		MaxConcurrentLoops: 8,
	}
}
