//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestStore spins up a disposable PostgreSQL container, applies
// migrations, and returns a ready PostgresStore cleaned up at test end.
func newTestStore(t *testing.T) *PostgresStore {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("loopgate_test"),
		postgres.WithUsername("loopgate"),
		postgres.WithPassword("loopgate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	store, err := NewPostgresStore(ctx, PostgresConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "loopgate",
		Password: "loopgate",
		Database: "loopgate_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestPostgresStore_PutGetDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result := &pipeline.LoopResult{ExecutionID: "exec-pg-1", Success: true, Error: ""}
	require.NoError(t, s.Put(ctx, result))

	got, ok, err := s.Get(ctx, "exec-pg-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, result.ExecutionID, got.ExecutionID)
	require.Equal(t, result.Success, got.Success)

	require.NoError(t, s.Delete(ctx, "exec-pg-1"))
	_, ok, err = s.Get(ctx, "exec-pg-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPostgresStore_Put_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &pipeline.LoopResult{ExecutionID: "exec-pg-2", Success: false}))
	require.NoError(t, s.Put(ctx, &pipeline.LoopResult{ExecutionID: "exec-pg-2", Success: true}))

	got, ok, err := s.Get(ctx, "exec-pg-2")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Success)
}

func TestPostgresStore_PurgeOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &pipeline.LoopResult{ExecutionID: "exec-pg-old"}))
	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Put(ctx, &pipeline.LoopResult{ExecutionID: "exec-pg-new"}))

	purged, err := s.PurgeOlderThan(ctx, cutoff)
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	_, ok, _ := s.Get(ctx, "exec-pg-old")
	require.False(t, ok)
	_, ok, _ = s.Get(ctx, "exec-pg-new")
	require.True(t, ok)
}
