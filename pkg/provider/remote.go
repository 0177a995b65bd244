package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RemoteBackend wraps a single external LLM-style HTTP endpoint (spec
// §4.3). It owns no state beyond its own metrics; health is probed by a
// cheap endpoint with a 5-second ceiling.
type RemoteBackend struct {
	name     string
	priority uint8
	baseURL  string
	client   *http.Client
	metrics  *MetricsTracker
}

// NewRemoteBackend constructs a RemoteBackend pointed at baseURL.
func NewRemoteBackend(name, baseURL string, priority uint8) *RemoteBackend {
	return &RemoteBackend{
		name:     name,
		priority: priority,
		baseURL:  baseURL,
		client:   &http.Client{},
		metrics:  NewMetricsTracker(),
	}
}

func (r *RemoteBackend) Name() string               { return r.name }
func (r *RemoteBackend) Priority() uint8             { return r.priority }
func (r *RemoteBackend) Metrics() ProviderMetrics    { return r.metrics.Snapshot() }

const healthCheckTimeout = 5 * time.Second

func (r *RemoteBackend) Health(ctx context.Context) ProviderHealth {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return ProviderHealth{Available: false, Error: err.Error()}
	}

	resp, err := r.client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		slog.Warn("remote backend health check failed", "backend", r.name, "error", err)
		return ProviderHealth{Available: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProviderHealth{Available: false, Error: fmt.Sprintf("health check returned %d", resp.StatusCode)}
	}

	var body struct {
		ModelLoaded bool `json:"model_loaded"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	return ProviderHealth{Available: true, LatencyMS: &latency, ModelLoaded: body.ModelLoaded}
}

type completeRequest struct {
	Prompt string            `json:"prompt"`
	Hints  map[string]string `json:"hints,omitempty"`
}

type completeResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (r *RemoteBackend) Complete(ctx context.Context, prompt string, hints map[string]string) ([]string, error) {
	start := time.Now()
	var resp completeResponse
	if err := r.post(ctx, "/complete", completeRequest{Prompt: prompt, Hints: hints}, &resp); err != nil {
		r.metrics.RecordFailure()
		return nil, err
	}
	r.metrics.RecordSuccess(time.Since(start))
	return resp.Suggestions, nil
}

type analyzeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (r *RemoteBackend) Analyze(ctx context.Context, code, language string) (*AnalysisReport, error) {
	start := time.Now()
	var report AnalysisReport
	if err := r.post(ctx, "/analyze", analyzeRequest{Code: code, Language: language}, &report); err != nil {
		r.metrics.RecordFailure()
		return nil, err
	}
	r.metrics.RecordSuccess(time.Since(start))
	return &report, nil
}

func (r *RemoteBackend) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		// The caller's context deadline (spec §4.3 "exceeding it is an
		// error") surfaces here and is reported under ErrBackendCallFailed;
		// only its text is kept, so errors.Is(err, context.DeadlineExceeded)
		// does not hold.
		return fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrBackendCallFailed, resp.StatusCode, string(data))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
