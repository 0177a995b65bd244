package phases

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loopgate/loopgate/pkg/docfetch"
	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetriever_Retrieve(t *testing.T) {
	r := NewRetriever(testRouter(), nil)
	ctx := pipeline.ExecContext{Files: []string{"a.py", "b.py"}}

	out, err := r.Retrieve(context.Background(), "add validation", ctx)
	require.NoError(t, err)
	assert.Contains(t, out.Excerpts, "goal")
	assert.Contains(t, out.Excerpts, "a.py")
	assert.Contains(t, out.Excerpts, "b.py")

	snap := r.Metrics()
	assert.Equal(t, int64(1), snap.SuccessfulRequests)
}

func TestRetriever_Retrieve_FetchesReferenceDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("design notes"))
	}))
	defer server.Close()

	r := NewRetriever(testRouter(), docfetch.NewService("", time.Minute))
	execCtx := pipeline.ExecContext{Metadata: map[string]string{"reference_url": server.URL + "/doc.md"}}

	out, err := r.Retrieve(context.Background(), "add validation", execCtx)
	require.NoError(t, err)
	assert.Equal(t, "design notes", out.Excerpts["reference"])
}

func TestRetriever_Retrieve_NoDocsConfigured(t *testing.T) {
	r := NewRetriever(testRouter(), nil)
	execCtx := pipeline.ExecContext{Metadata: map[string]string{"reference_url": "https://example.com/doc.md"}}

	out, err := r.Retrieve(context.Background(), "add validation", execCtx)
	require.NoError(t, err)
	assert.NotContains(t, out.Excerpts, "reference")
}
