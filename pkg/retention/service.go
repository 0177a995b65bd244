// Package retention purges LoopResults older than a configurable TTL from
// any store.Store, on a timer — the same "one ticker goroutine, one
// Stop() method" shape as the teacher's pkg/cleanup.Service, pointed at
// pipeline.LoopResult instead of alert sessions.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/loopgate/loopgate/pkg/config"
	"github.com/loopgate/loopgate/pkg/store"
)

// Service periodically purges LoopResults older than config.RetentionConfig.TTL
// from the backing store. Idempotent and safe to run from multiple processes
// sharing a durable store.Store.
type Service struct {
	config *config.RetentionConfig
	store  store.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new retention service over store.
func NewService(cfg *config.RetentionConfig, st store.Store) *Service {
	return &Service{config: cfg, store: st}
}

// Start launches the background purge loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Retention service started",
		"ttl", s.config.TTL,
		"interval", s.config.CleanupInterval)
}

// Stop signals the purge loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Retention service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.purge(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purge(ctx)
		}
	}
}

func (s *Service) purge(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.TTL)
	count, err := s.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: purge failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: purged old loop results", "count", count)
	}
}
