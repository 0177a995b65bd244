// Package sandbox defines the interface the Testgen phase uses to execute
// generated tests against a Patch, and a deterministic stub implementation
// for use where no real sandbox is wired in (spec §6: "the core does not
// care how isolation is achieved").
package sandbox

import (
	"context"
	"time"

	"github.com/loopgate/loopgate/pkg/pipeline"
)

// Runner executes generated tests for code in an isolated environment.
// The core never inspects how isolation is achieved (Docker, a VM, a
// subprocess jail); it only calls RunTests and interprets the TestReport.
type Runner interface {
	RunTests(ctx context.Context, code, language string, env map[string]string, timeout time.Duration) (pipeline.TestReport, error)
}

// StubRunner is a deterministic Runner used by tests and by any deployment
// that has not wired in a real sandbox. It always reports a passing run
// with a fixed 0.8 coverage unless the code body is empty.
type StubRunner struct{}

// NewStubRunner constructs a StubRunner.
func NewStubRunner() *StubRunner { return &StubRunner{} }

func (r *StubRunner) RunTests(ctx context.Context, code, language string, env map[string]string, timeout time.Duration) (pipeline.TestReport, error) {
	select {
	case <-ctx.Done():
		return pipeline.TestReport{}, ctx.Err()
	default:
	}

	if code == "" {
		return pipeline.TestReport{Passed: false, Total: 0, PassedCount: 0, FailedCount: 0}, nil
	}

	return pipeline.TestReport{
		Passed:        true,
		Total:         1,
		PassedCount:   1,
		FailedCount:   0,
		Coverage:      0.8,
		ExecutionTime: time.Millisecond,
	}, nil
}
