package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoopConfig_IsValid(t *testing.T) {
	cfg := DefaultLoopConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 300, cfg.TimeoutSeconds)
	assert.Equal(t, 3, cfg.ParallelAgents)
	assert.Equal(t, 7.0, cfg.QualityThreshold)
	assert.Equal(t, 0.7, cfg.RiskThreshold)
	assert.True(t, cfg.EnableAutoApproval)
	assert.True(t, cfg.EnableRollback)
}

func TestLoopConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LoopConfig)
		wantErr bool
	}{
		{"zero max iterations", func(c *LoopConfig) { c.MaxIterations = 0 }, true},
		{"zero timeout", func(c *LoopConfig) { c.TimeoutSeconds = 0 }, true},
		{"zero parallel agents", func(c *LoopConfig) { c.ParallelAgents = 0 }, true},
		{"quality threshold too high", func(c *LoopConfig) { c.QualityThreshold = 11 }, true},
		{"risk threshold negative", func(c *LoopConfig) { c.RiskThreshold = -0.1 }, true},
		{"risk threshold equal to auto-approve threshold is a config error", func(c *LoopConfig) {
			c.RiskThreshold = AutoApproveThreshold
		}, true},
		{"risk threshold at zero is a config error", func(c *LoopConfig) { c.RiskThreshold = 0.0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLoopConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultRoutingPolicy_IsValid(t *testing.T) {
	p := DefaultRoutingPolicy()
	require.NoError(t, p.Validate())
	assert.True(t, p.PreferLocal)
	assert.EqualValues(t, 5000, p.MaxLatencyMS)
	assert.Equal(t, 0.8, p.MinSuccessRate)
	assert.True(t, p.FallbackEnabled)
	assert.Equal(t, 0.7, p.QualityThresh)
}

func TestRoutingPolicy_Validate(t *testing.T) {
	p := DefaultRoutingPolicy()
	p.MinSuccessRate = 1.5
	assert.Error(t, p.Validate())
}
