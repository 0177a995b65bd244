package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(id string, deps ...string) *Step {
	s := &Step{ID: id, Dependencies: map[string]struct{}{}}
	for _, d := range deps {
		s.Dependencies[d] = struct{}{}
	}
	return s
}

func TestTopoSortSteps_LinearChain(t *testing.T) {
	steps := []*Step{step("c", "b"), step("b", "a"), step("a")}
	ordered, err := TopoSortSteps(steps)
	require.NoError(t, err)

	pos := make(map[string]int, len(ordered))
	for i, s := range ordered {
		pos[s.ID] = i
	}
	assert.Less(t, pos["a"], pos["b"])
	assert.Less(t, pos["b"], pos["c"])
}

func TestTopoSortSteps_Cycle(t *testing.T) {
	steps := []*Step{step("a", "b"), step("b", "a")}
	_, err := TopoSortSteps(steps)
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestTopoSortSteps_UnknownDependency(t *testing.T) {
	steps := []*Step{step("a", "missing")}
	_, err := TopoSortSteps(steps)
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestReadyStep(t *testing.T) {
	a := step("a")
	a.Status = StepDone
	b := step("b", "a")
	byID := map[string]*Step{"a": a, "b": b}

	assert.True(t, ReadyStep(b, byID))

	a.Status = StepRunning
	assert.False(t, ReadyStep(b, byID))
}
