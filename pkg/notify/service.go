package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/loopgate/loopgate/pkg/pipeline"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token        string
	Channel      string
	DashboardURL string
}

// Service delivers loop-execution notifications to Slack. Nil-safe: every
// method is a no-op when the service itself is nil (not configured).
type Service struct {
	client       *Client
	dashboardURL string
	logger       *slog.Logger
}

// NewService constructs a Service, or nil if Token/Channel are unset —
// mirroring the teacher's "notifications are optional" posture.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client:       NewClient(cfg.Token, cfg.Channel),
		dashboardURL: cfg.DashboardURL,
		logger:       slog.Default().With("component", "notify-service"),
	}
}

// NewServiceWithClient constructs a Service backed by a pre-built Client,
// for testing against a mock API server.
func NewServiceWithClient(client *Client, dashboardURL string) *Service {
	return &Service{client: client, dashboardURL: dashboardURL, logger: slog.Default().With("component", "notify-service")}
}

// NotifyLoopStarted posts a "loop started" message and returns the thread
// timestamp for the eventual completion notification to reuse.
func (s *Service) NotifyLoopStarted(ctx context.Context, executionID, goal string) string {
	if s == nil {
		return ""
	}

	blocks := BuildStartedMessage(executionID, goal, s.dashboardURL)
	if err := s.client.PostMessage(ctx, blocks, "", 5*time.Second); err != nil {
		s.logger.Error("failed to send loop-started notification", "execution_id", executionID, "error", err)
	}

	threadTS, err := s.client.FindMessageByFingerprint(ctx, Fingerprint(executionID))
	if err != nil {
		s.logger.Warn("failed to resolve notification thread", "execution_id", executionID, "error", err)
	}
	return threadTS
}

// NotifyLoopCompleted posts the terminal Gate Decision outcome for an
// execution. Fail-open: errors are logged, never returned, so a
// notification-delivery failure never fails the loop itself.
func (s *Service) NotifyLoopCompleted(ctx context.Context, result *pipeline.LoopResult, threadTS string) {
	if s == nil {
		return
	}

	blocks := BuildCompletedMessage(result, s.dashboardURL)
	if err := s.client.PostMessage(ctx, blocks, threadTS, 10*time.Second); err != nil {
		s.logger.Error("failed to send loop-completed notification",
			"execution_id", result.ExecutionID, "success", result.Success, "error", err)
	}
}
