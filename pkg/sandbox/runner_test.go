package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubRunner_PassingReport(t *testing.T) {
	report, err := NewStubRunner().RunTests(context.Background(), "def f(): pass", "python", nil, time.Second)
	require.NoError(t, err)
	assert.True(t, report.Passed)
	assert.Equal(t, report.PassedCount+report.FailedCount, report.Total)
}

func TestStubRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStubRunner().RunTests(ctx, "x", "python", nil, time.Second)
	assert.Error(t, err)
}

func TestStubRunner_EmptyCode(t *testing.T) {
	report, err := NewStubRunner().RunTests(context.Background(), "", "python", nil, time.Second)
	require.NoError(t, err)
	assert.False(t, report.Passed)
	assert.Equal(t, report.PassedCount+report.FailedCount, report.Total)
}
