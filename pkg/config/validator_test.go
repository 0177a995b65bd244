package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Backends: []BackendConfig{{Name: "local", Kind: "heuristic"}},
		Routing:  DefaultRoutingPolicy(),
		Loop:     DefaultLoopConfig(),
	}
}

func TestValidator_ValidConfig(t *testing.T) {
	require.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidator_NoBackends(t *testing.T) {
	cfg := validConfig()
	cfg.Backends = nil
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidator_DuplicateBackendName(t *testing.T) {
	cfg := validConfig()
	cfg.Backends = append(cfg.Backends, BackendConfig{Name: "local", Kind: "heuristic"})
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidator_RemoteBackendNeedsEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Backends = append(cfg.Backends, BackendConfig{Name: "remote", Kind: "http"})
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidator_UnknownBackendKind(t *testing.T) {
	cfg := validConfig()
	cfg.Backends[0].Kind = "magic"
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidator_LoopThresholdsOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Loop.RiskThreshold = 1.5
	assert.Error(t, NewValidator(cfg).ValidateAll())

	cfg = validConfig()
	cfg.Loop.MaxIterations = 0
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidator_RoutingOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Routing.MinSuccessRate = 1.5
	assert.Error(t, NewValidator(cfg).ValidateAll())
}
