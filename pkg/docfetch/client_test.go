package docfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Download(t *testing.T) {
	t.Run("successful download", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("# Design notes\n\nUse a bounded semaphore."))
		}))
		defer server.Close()

		client := NewClient("")
		content, err := client.Download(context.Background(), server.URL+"/doc.md")
		require.NoError(t, err)
		assert.Equal(t, "# Design notes\n\nUse a bounded semaphore.", content)
	})

	t.Run("authentication header sent when token present", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("content"))
		}))
		defer server.Close()

		client := NewClient("test-token-123")
		_, err := client.Download(context.Background(), server.URL+"/doc.md")
		require.NoError(t, err)
		assert.Equal(t, "Bearer test-token-123", gotAuth)
	})

	t.Run("no auth header when token empty", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("content"))
		}))
		defer server.Close()

		client := NewClient("")
		_, err := client.Download(context.Background(), server.URL+"/doc.md")
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})

	t.Run("HTTP error status returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient("")
		_, err := client.Download(context.Background(), server.URL+"/missing.md")
		require.Error(t, err)
	})
}
