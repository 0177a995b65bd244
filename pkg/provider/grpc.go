package provider

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCBackend is a second concrete remote backend reached over gRPC
// instead of HTTP. It uses the standard, pre-generated gRPC health-check
// protocol (grpc.health.v1.Health) for Health(), and invokes a fixed
// method path directly via ClientConn.Invoke with generic
// google.protobuf.Struct payloads for Complete/Analyze — no project-
// specific .proto file or code generation is required.
type GRPCBackend struct {
	name     string
	priority uint8
	conn     *grpc.ClientConn
	health   grpc_health_v1.HealthClient
	metrics  *MetricsTracker
}

// NewGRPCBackend dials target (expected "host:port") and returns a backend
// ready to serve Complete/Analyze/Health.
func NewGRPCBackend(name, target string, priority uint8) (*GRPCBackend, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial grpc backend %q: %w", name, err)
	}
	return &GRPCBackend{
		name:     name,
		priority: priority,
		conn:     conn,
		health:   grpc_health_v1.NewHealthClient(conn),
		metrics:  NewMetricsTracker(),
	}, nil
}

// Close releases the underlying connection.
func (g *GRPCBackend) Close() error { return g.conn.Close() }

func (g *GRPCBackend) Name() string            { return g.name }
func (g *GRPCBackend) Priority() uint8         { return g.priority }
func (g *GRPCBackend) Metrics() ProviderMetrics { return g.metrics.Snapshot() }

func (g *GRPCBackend) Health(ctx context.Context) ProviderHealth {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: g.name})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return ProviderHealth{Available: false, Error: err.Error()}
	}

	available := resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING
	return ProviderHealth{Available: available, LatencyMS: &latency, ModelLoaded: available}
}

func (g *GRPCBackend) Complete(ctx context.Context, prompt string, hints map[string]string) ([]string, error) {
	start := time.Now()
	fields := map[string]any{"prompt": prompt}
	for k, v := range hints {
		fields["hint_"+k] = v
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		g.metrics.RecordFailure()
		return nil, fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}

	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, "/loopgate.backend.v1.Backend/Complete", req, resp); err != nil {
		g.metrics.RecordFailure()
		return nil, fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}

	var suggestions []string
	if list, ok := resp.Fields["suggestions"]; ok {
		for _, v := range list.GetListValue().GetValues() {
			suggestions = append(suggestions, v.GetStringValue())
		}
	}
	g.metrics.RecordSuccess(time.Since(start))
	return suggestions, nil
}

func (g *GRPCBackend) Analyze(ctx context.Context, code, language string) (*AnalysisReport, error) {
	start := time.Now()
	req, err := structpb.NewStruct(map[string]any{"code": code, "language": language})
	if err != nil {
		g.metrics.RecordFailure()
		return nil, fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}

	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, "/loopgate.backend.v1.Backend/Analyze", req, resp); err != nil {
		g.metrics.RecordFailure()
		return nil, fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}

	report := &AnalysisReport{
		Cyclomatic:      int(resp.Fields["cyclomatic"].GetNumberValue()),
		Maintainability: resp.Fields["maintainability"].GetNumberValue(),
	}
	for _, v := range resp.Fields["issues"].GetListValue().GetValues() {
		report.Issues = append(report.Issues, v.GetStringValue())
	}
	for _, v := range resp.Fields["security_concerns"].GetListValue().GetValues() {
		report.SecurityConcerns = append(report.SecurityConcerns, v.GetStringValue())
	}
	g.metrics.RecordSuccess(time.Since(start))
	return report, nil
}
