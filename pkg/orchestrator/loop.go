// Package orchestrator drives one execution of the agent loop end to end:
// semaphore-gated entry, five ordered phases (two of which run their two
// tasks concurrently), a whole-loop deadline, and a durable in-memory
// results map (spec §4.8).
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/loopgate/loopgate/pkg/applier"
	"github.com/loopgate/loopgate/pkg/phases"
	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/loopgate/loopgate/pkg/provider"
	"github.com/loopgate/loopgate/pkg/review"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// execHandle tracks one in-flight execution so CancelExecution can reach
// it and Execute can wait on it without polling.
type execHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Loop is the agent loop orchestrator. One Loop instance is shared by every
// execution; the only coordination primitive it holds globally is the
// semaphore (spec §5 "the semaphore is the only global coordination
// primitive").
type Loop struct {
	planner   *phases.Planner
	retriever *phases.Retriever
	codegen   *phases.Codegen
	testgen   *phases.Testgen
	reviewer  *phases.Reviewer
	risk      *phases.Risk
	gate      *review.Gate
	applier   applier.Applier
	router    *provider.Router

	sem *semaphore.Weighted

	mu       sync.RWMutex
	results  map[string]*pipeline.LoopResult
	inFlight map[string]*execHandle

	totalExecutions      int64
	successfulExecutions int64
	failedExecutions     int64
}

// New constructs a Loop wired to the given phases, gate, applier and
// router, allowing at most maxConcurrent executions past Phase 1 at once.
func New(
	planner *phases.Planner,
	retriever *phases.Retriever,
	codegen *phases.Codegen,
	testgen *phases.Testgen,
	reviewer *phases.Reviewer,
	risk *phases.Risk,
	gate *review.Gate,
	apply applier.Applier,
	router *provider.Router,
	maxConcurrent int64,
) *Loop {
	return &Loop{
		planner:   planner,
		retriever: retriever,
		codegen:   codegen,
		testgen:   testgen,
		reviewer:  reviewer,
		risk:      risk,
		gate:      gate,
		applier:   apply,
		router:    router,
		sem:       semaphore.NewWeighted(maxConcurrent),
		results:   make(map[string]*pipeline.LoopResult),
		inFlight:  make(map[string]*execHandle),
	}
}

// Execute runs one full loop execution synchronously and returns its
// result. Malformed input is rejected before an executionId is even
// assigned (spec §7 "rejected at entry with a validation error").
func (l *Loop) Execute(ctx context.Context, req pipeline.LoopRequest) (*pipeline.LoopResult, error) {
	executionID, err := l.Start(ctx, req)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	handle := l.inFlight[executionID]
	l.mu.RUnlock()

	if handle != nil {
		select {
		case <-handle.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	result, _ := l.GetExecution(executionID)
	return result, nil
}

// Start validates req, assigns a fresh executionId, and launches the loop
// in the background, returning immediately (spec §6 "execute ... async").
func (l *Loop) Start(ctx context.Context, req pipeline.LoopRequest) (string, error) {
	if req.Goal == "" {
		return "", pipeline.NewValidationError("goal", "must not be empty")
	}
	if err := req.Config.Validate(); err != nil {
		return "", err
	}

	executionID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	handle := &execHandle{cancel: cancel, done: make(chan struct{})}

	l.mu.Lock()
	l.inFlight[executionID] = handle
	l.mu.Unlock()

	go func() {
		defer close(handle.done)
		defer cancel()
		defer func() {
			l.mu.Lock()
			delete(l.inFlight, executionID)
			l.mu.Unlock()
		}()

		result := l.run(runCtx, executionID, req)

		l.mu.Lock()
		l.results[executionID] = result
		l.mu.Unlock()
	}()

	return executionID, nil
}

// GetExecution returns the stored result for executionId, if any.
func (l *Loop) GetExecution(executionID string) (*pipeline.LoopResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.results[executionID]
	return r, ok
}

// CancelExecution best-effort-cancels an in-flight execution; it has no
// effect once the execution has already finished.
func (l *Loop) CancelExecution(executionID string) error {
	l.mu.RLock()
	handle, ok := l.inFlight[executionID]
	l.mu.RUnlock()
	if !ok {
		if _, done := l.GetExecution(executionID); done {
			return nil
		}
		return pipeline.ErrUnknownExecution
	}
	handle.cancel()
	return nil
}

// run implements the ordered, partly-concurrent phase sequence of spec
// §4.8 steps 1-8. It never returns a Go error: every failure is folded
// into the returned LoopResult, per spec §7's user-visible surfacing rule.
func (l *Loop) run(ctx context.Context, executionID string, req pipeline.LoopRequest) (result *pipeline.LoopResult) {
	start := time.Now()
	atomic.AddInt64(&l.totalExecutions, 1)

	result = &pipeline.LoopResult{ExecutionID: executionID, Files: req.Context.Files}

	defer func() {
		if result.Plan != nil {
			pipeline.AdvanceSteps(result.Plan.Steps, result.Success)
		}
	}()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return l.finish(result, start, err)
	}
	defer l.sem.Release(1)

	loopCtx, cancel := context.WithTimeout(ctx, req.Config.Timeout())
	defer cancel()

	var plan *pipeline.Plan
	var retrieved *phases.RetrievedContext
	phase1, phase1Ctx := errgroup.WithContext(loopCtx)
	phase1.Go(func() error {
		p, err := l.planner.Plan(phase1Ctx, req.Goal, req.Context)
		if err != nil {
			return err
		}
		plan = p
		return nil
	})
	phase1.Go(func() error {
		r, err := l.retriever.Retrieve(phase1Ctx, req.Goal, req.Context)
		if err != nil {
			return err
		}
		retrieved = r
		return nil
	})
	if err := phase1.Wait(); err != nil {
		return l.finish(result, start, err)
	}
	result.Plan = plan

	patch, err := l.codegen.Generate(loopCtx, plan, retrieved)
	if err != nil {
		return l.finish(result, start, err)
	}
	result.Patch = patch

	testTimeout := remainingTime(loopCtx)
	if testTimeout <= 0 {
		return l.finish(result, start, context.DeadlineExceeded)
	}
	testReport, err := l.testgen.Run(loopCtx, patch, testTimeout)
	if err != nil {
		return l.finish(result, start, err)
	}
	result.Test = testReport

	var reviewResult pipeline.ReviewResult
	var riskResult pipeline.RiskAssessment
	phase4, phase4Ctx := errgroup.WithContext(loopCtx)
	phase4.Go(func() error {
		rv, err := l.reviewer.Review(phase4Ctx, *patch)
		if err != nil {
			return err
		}
		reviewResult = rv
		return nil
	})
	phase4.Go(func() error {
		rk, err := l.risk.Score(phase4Ctx, *patch, req.Config.RiskThreshold)
		if err != nil {
			return err
		}
		riskResult = rk
		return nil
	})
	if err := phase4.Wait(); err != nil {
		return l.finish(result, start, err)
	}
	result.Review = &reviewResult
	result.Risk = &riskResult

	decision := l.gate.Decide(*patch, riskResult, reviewResult, req.Config.RiskThreshold)
	result.Decision = &decision

	if decision.Approved {
		if l.applier != nil {
			if err := l.applier.Apply(loopCtx, *patch, req.Context.WorkspaceRoot); err != nil {
				return l.finish(result, start, err)
			}
		}
		result.Success = true
		atomic.AddInt64(&l.successfulExecutions, 1)
	} else {
		result.Success = false
		result.Error = decision.Reason
		atomic.AddInt64(&l.failedExecutions, 1)
	}

	result.Iterations = 1
	result.ExecutionTime = time.Since(start)
	return result
}

// finish folds err into a failed result. context.DeadlineExceeded always
// surfaces as the literal "timeout" string (spec §7 LoopTimeout).
func (l *Loop) finish(result *pipeline.LoopResult, start time.Time, err error) *pipeline.LoopResult {
	atomic.AddInt64(&l.failedExecutions, 1)
	result.Success = false
	if errors.Is(err, context.DeadlineExceeded) {
		result.Error = "timeout"
	} else {
		result.Error = err.Error()
	}
	result.ExecutionTime = time.Since(start)
	return result
}

func remainingTime(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return time.Minute
	}
	return time.Until(deadline)
}
