// Package pipeline holds the data model shared by every stage of the agent
// loop: requests, plans, patches, review and risk results, and the final
// aggregated LoopResult. Nothing in this package calls out to a backend,
// a sandbox, or storage — it is pure data plus the small invariants those
// types carry.
package pipeline

import "time"

// LoopRequest is the immutable input to one agent loop execution.
type LoopRequest struct {
	Goal    string
	Context ExecContext
	Config  LoopConfig
}

// ExecContext carries the workspace and caller-supplied hints a loop
// execution operates under.
type ExecContext struct {
	WorkspaceRoot string
	Files         []string
	Metadata      map[string]string
	Constraints   []string
	Preferences   map[string]string
}

// StepStatus is the lifecycle state of a single Plan Step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
)

// Step is one node in a Plan's dependency DAG.
type Step struct {
	ID                string
	Description       string
	Action            string
	Dependencies      map[string]struct{}
	EstimatedDuration time.Duration
	Status            StepStatus
	Agent             string
}

// Plan is the Planner phase's output: an ordered, acyclic set of Steps.
type Plan struct {
	ID                string
	Goal              string
	Steps             []*Step
	AffectedFiles     []string
	EstimatedDuration time.Duration
	ComplexityScore   float64
}

// ChangeType enumerates what a FileChange does to a file.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeModify ChangeType = "modify"
	ChangeDelete ChangeType = "delete"
)

// FileChange is one file mutation within a Patch.
type FileChange struct {
	Path       string
	Content    string
	ChangeType ChangeType
	Diff       string
}

// Patch is the Codegen phase's output: a candidate set of file changes.
// A Patch is exclusively owned by the loop execution that produced it
// until handed to the applier.
type Patch struct {
	ID         string
	Files      []FileChange
	Summary    string
	Confidence float64
}

// TestReport is Testgen's output.
type TestReport struct {
	Passed        bool
	Total         int
	PassedCount   int
	FailedCount   int
	Coverage      float64
	ExecutionTime time.Duration
}

// Severity enumerates ReviewIssue and risk-factor severities.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ReviewIssue is one defect found in a single file by the Quality Reviewer.
type ReviewIssue struct {
	Severity    Severity
	Category    string
	File        string
	Line        *int
	Description string
	Suggestion  string
}

// ReviewResult is the Quality Reviewer's output.
type ReviewResult struct {
	Approved     bool
	QualityScore float64
	Issues       []ReviewIssue
	Suggestions  []string

	// CoverageDelta and PerformanceDelta are typed but left unset (nil)
	// by every reviewer in this codebase; no component computes them.
	CoverageDelta    *float64
	PerformanceDelta *float64
}

// RiskLevel enumerates the four risk bands.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskAssessment is the Risk Scorer's output.
type RiskAssessment struct {
	Level            RiskLevel
	Score            float64
	Blocked          bool
	Factors          []string
	Recommendations  []string
	RollbackCommands []string
}

// GateDecision is the final approve/block decision for one Patch.
type GateDecision struct {
	PatchID         string
	Approved        bool
	Risk            RiskAssessment
	Review          ReviewResult
	Reason          string
	RequiredActions []string
	RollbackPlan    string
}

// Artifact is a named, typed side-output a phase chooses to attach to a
// LoopResult (e.g. the raw risk/review JSON report) for callers that want
// it. Optional; nothing in the core requires artifacts to be present, and
// no phase in this codebase attaches one.
type Artifact struct {
	Name    string
	Kind    string
	Content string
}

// LoopResult aggregates everything produced by one execution of the loop.
type LoopResult struct {
	ExecutionID   string
	Success       bool
	Iterations    int
	ExecutionTime time.Duration
	Error         string

	Plan     *Plan
	Patch    *Patch
	Test     *TestReport
	Review   *ReviewResult
	Risk     *RiskAssessment
	Decision *GateDecision
	Files    []string

	Artifacts []Artifact
}
