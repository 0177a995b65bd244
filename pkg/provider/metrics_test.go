package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsTracker_RecordSuccess(t *testing.T) {
	tr := NewMetricsTracker()
	tr.RecordSuccess(100 * time.Millisecond)

	snap := tr.Snapshot()
	assert.EqualValues(t, 1, snap.TotalRequests)
	assert.EqualValues(t, 1, snap.SuccessfulRequests)
	assert.EqualValues(t, 0, snap.FailedRequests)
	assert.InDelta(t, 100.0, snap.AverageLatencyMS, 0.01)
	assert.NotNil(t, snap.LastSuccess)
}

func TestMetricsTracker_RecordFailure(t *testing.T) {
	tr := NewMetricsTracker()
	tr.RecordFailure()

	snap := tr.Snapshot()
	assert.EqualValues(t, 1, snap.TotalRequests)
	assert.EqualValues(t, 1, snap.FailedRequests)
	assert.NotNil(t, snap.LastFailure)
}

func TestMetricsTracker_EMASmoothing(t *testing.T) {
	tr := NewMetricsTracker()
	tr.RecordSuccess(100 * time.Millisecond)
	tr.RecordSuccess(200 * time.Millisecond)

	// second sample: 0.1*200 + 0.9*100 = 110
	snap := tr.Snapshot()
	assert.InDelta(t, 110.0, snap.AverageLatencyMS, 0.01)
}

func TestProviderMetrics_SuccessRate(t *testing.T) {
	m := ProviderMetrics{TotalRequests: 10, SuccessfulRequests: 8}
	assert.Equal(t, 0.8, m.SuccessRate())
}

func TestProviderMetrics_SuccessRate_NoRequests(t *testing.T) {
	var m ProviderMetrics
	assert.Equal(t, 0.0, m.SuccessRate())
}

func TestMetricsTracker_MonotonicCounters(t *testing.T) {
	tr := NewMetricsTracker()
	tr.RecordSuccess(time.Millisecond)
	tr.RecordFailure()
	tr.RecordSuccess(time.Millisecond)

	snap := tr.Snapshot()
	assert.EqualValues(t, 3, snap.TotalRequests)
}
