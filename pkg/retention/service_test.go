package retention

import (
	"context"
	"testing"
	"time"

	"github.com/loopgate/loopgate/pkg/config"
	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/loopgate/loopgate/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_PurgesOldResults(t *testing.T) {
	st := store.NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, &pipeline.LoopResult{ExecutionID: "old"}))
	time.Sleep(20 * time.Millisecond)

	cfg := &config.RetentionConfig{TTL: 10 * time.Millisecond, CleanupInterval: time.Hour}
	svc := NewService(cfg, st)
	svc.purge(ctx)

	_, ok, err := st.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_PreservesRecentResults(t *testing.T) {
	st := store.NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, &pipeline.LoopResult{ExecutionID: "fresh"}))

	cfg := &config.RetentionConfig{TTL: time.Hour, CleanupInterval: time.Hour}
	svc := NewService(cfg, st)
	svc.purge(ctx)

	_, ok, err := st.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_StartStop(t *testing.T) {
	st := store.NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, &pipeline.LoopResult{ExecutionID: "old"}))
	time.Sleep(20 * time.Millisecond)

	cfg := &config.RetentionConfig{TTL: 10 * time.Millisecond, CleanupInterval: time.Hour}
	svc := NewService(cfg, st)

	svc.Start(ctx)
	defer svc.Stop()

	require.Eventually(t, func() bool {
		_, ok, _ := st.Get(ctx, "old")
		return !ok
	}, time.Second, 5*time.Millisecond, "purge should run immediately on Start")
}

func TestService_Start_Idempotent(t *testing.T) {
	st := store.NewInMemoryStore()
	cfg := &config.RetentionConfig{TTL: time.Hour, CleanupInterval: time.Hour}
	svc := NewService(cfg, st)

	svc.Start(context.Background())
	firstCancel := svc.cancel
	svc.Start(context.Background())
	assert.NotNil(t, svc.cancel)

	svc.Stop()
	_ = firstCancel
}

func TestService_Stop_WithoutStart(t *testing.T) {
	svc := NewService(&config.RetentionConfig{TTL: time.Hour, CleanupInterval: time.Hour}, store.NewInMemoryStore())
	svc.Stop() // must not block or panic
}
