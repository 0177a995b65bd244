package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestService_NilReceiver(t *testing.T) {
	var s *Service

	t.Run("NotifyLoopStarted is no-op", func(t *testing.T) {
		result := s.NotifyLoopStarted(context.Background(), "exec-1", "goal")
		assert.Empty(t, result)
	})

	t.Run("NotifyLoopCompleted is no-op", func(_ *testing.T) {
		s.NotifyLoopCompleted(context.Background(), nil, "")
	})
}

func TestNewService(t *testing.T) {
	t.Run("returns nil when token empty", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "", Channel: "C123"})
		assert.Nil(t, svc)
	})

	t.Run("returns nil when channel empty", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "xoxb-test", Channel: ""})
		assert.Nil(t, svc)
	})

	t.Run("returns service when configured", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "xoxb-test", Channel: "C123", DashboardURL: "https://example.com"})
		assert.NotNil(t, svc)
	})
}
