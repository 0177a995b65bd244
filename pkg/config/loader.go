package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load loopgate.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge user-provided routing/loop/retention over built-in defaults
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully", "backends", stats.Backends)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadLoopgateYAML()
	if err != nil {
		return nil, NewLoadError("loopgate.yaml", err)
	}

	routing := DefaultRoutingPolicy()
	if yamlCfg.Routing != nil {
		applyRoutingOverrides(&routing, yamlCfg.Routing)
	}

	loopCfg := DefaultLoopConfig()
	if yamlCfg.Loop != nil {
		if err := mergeLoopOverrides(&loopCfg, yamlCfg.Loop); err != nil {
			return nil, fmt.Errorf("failed to merge loop config: %w", err)
		}
	}

	return &Config{
		configDir: configDir,
		Backends:  yamlCfg.Backends,
		Routing:   routing,
		Loop:      loopCfg,
		Notify:    resolveNotifyConfig(yamlCfg.Notify),
		Retention: resolveRetentionConfig(yamlCfg.Retention),
	}, nil
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand $VAR / ${VAR} references before parsing so secrets (API keys,
	// gRPC endpoints) never need to live in the file itself.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadLoopgateYAML() (*LoopgateYAMLConfig, error) {
	var cfg LoopgateYAMLConfig
	if err := l.loadYAML("loopgate.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyRoutingOverrides copies only explicitly-set YAML fields onto the
// default policy, leaving unset fields at their defaults.
func applyRoutingOverrides(dst *RoutingPolicyConfig, src *RoutingYAMLConfig) {
	if src.PreferLocal != nil {
		dst.PreferLocal = *src.PreferLocal
	}
	if src.MaxLatencyMS != nil {
		dst.MaxLatencyMS = *src.MaxLatencyMS
	}
	if src.MinSuccessRate != nil {
		dst.MinSuccessRate = *src.MinSuccessRate
	}
	if src.FallbackEnabled != nil {
		dst.FallbackEnabled = *src.FallbackEnabled
	}
	if src.QualityThresh != nil {
		dst.QualityThresh = *src.QualityThresh
	}
}

// mergeLoopOverrides merges user-provided loop config onto the built-in
// defaults. Unlike applyRoutingOverrides this goes through mergo because
// LoopConfigValues has many pointer-free numeric fields where "user
// supplied a struct at all" still needs per-field override semantics
// matching the queue-config merge pattern this loader is based on.
func mergeLoopOverrides(dst *LoopConfigValues, src *LoopYAMLConfig) error {
	overrides := LoopConfigValues{}
	if src.MaxIterations != nil {
		overrides.MaxIterations = *src.MaxIterations
	}
	if src.TimeoutSeconds != nil {
		overrides.TimeoutSeconds = *src.TimeoutSeconds
	}
	if src.ParallelAgents != nil {
		overrides.ParallelAgents = *src.ParallelAgents
	}
	if src.QualityThreshold != nil {
		overrides.QualityThreshold = *src.QualityThreshold
	}
	if src.RiskThreshold != nil {
		overrides.RiskThreshold = *src.RiskThreshold
	}
	if src.EnableAutoApproval != nil {
		overrides.EnableAutoApproval = *src.EnableAutoApproval
	}
	if src.EnableRollback != nil {
		overrides.EnableRollback = *src.EnableRollback
	}
	if src.MaxConcurrentLoops != nil {
		overrides.MaxConcurrentLoops = *src.MaxConcurrentLoops
	}
	if err := mergo.Merge(dst, overrides, mergo.WithOverride); err != nil {
		return err
	}
	// mergo skips zero-valued source fields, so explicit false/0 values
	// are applied directly.
	if src.QualityThreshold != nil {
		dst.QualityThreshold = *src.QualityThreshold
	}
	if src.RiskThreshold != nil {
		dst.RiskThreshold = *src.RiskThreshold
	}
	if src.EnableAutoApproval != nil {
		dst.EnableAutoApproval = *src.EnableAutoApproval
	}
	if src.EnableRollback != nil {
		dst.EnableRollback = *src.EnableRollback
	}
	return nil
}

func resolveNotifyConfig(src *NotifyYAMLConfig) *NotifyConfig {
	cfg := &NotifyConfig{
		Enabled:  false,
		TokenEnv: "SLACK_BOT_TOKEN",
	}
	if src == nil {
		return cfg
	}
	if src.Enabled != nil {
		cfg.Enabled = *src.Enabled
	}
	if src.TokenEnv != "" {
		cfg.TokenEnv = src.TokenEnv
	}
	if src.Channel != "" {
		cfg.Channel = src.Channel
	}
	return cfg
}

func resolveRetentionConfig(src *RetentionYAMLConfig) *RetentionConfig {
	cfg := DefaultRetentionConfig()
	if src == nil {
		return cfg
	}
	if src.TTL != "" {
		if d, err := time.ParseDuration(src.TTL); err == nil {
			cfg.TTL = d
		} else {
			slog.Warn("invalid retention ttl, using default", "value", src.TTL, "error", err)
		}
	}
	if src.CleanupInterval != "" {
		if d, err := time.ParseDuration(src.CleanupInterval); err == nil {
			cfg.CleanupInterval = d
		} else {
			slog.Warn("invalid retention cleanup_interval, using default", "value", src.CleanupInterval, "error", err)
		}
	}
	return cfg
}
