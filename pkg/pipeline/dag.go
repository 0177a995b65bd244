package pipeline

// TopoSortSteps returns steps in an order where every dependency precedes
// its dependents, or ErrInvalidPlan if the dependency graph is not a DAG
// or a step depends on an ID that is not in steps.
// The Planner phase calls this at Plan creation time (spec §4.7); the
// orchestrator relies on the invariant already holding by the time a Plan
// reaches Phase 2.
func TopoSortSteps(steps []*Step) ([]*Step, error) {
	byID := make(map[string]*Step, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[string]int, len(steps))
	ordered := make([]*Step, 0, len(steps))

	var visit func(s *Step) error
	visit = func(s *Step) error {
		switch state[s.ID] {
		case visited:
			return nil
		case visiting:
			return ErrInvalidPlan
		}
		state[s.ID] = visiting
		for depID := range s.Dependencies {
			dep, ok := byID[depID]
			if !ok {
				return ErrInvalidPlan
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[s.ID] = visited
		ordered = append(ordered, s)
		return nil
	}

	for _, s := range steps {
		if err := visit(s); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// ReadyStep reports whether every dependency of s is done, i.e. s may
// transition from pending to running.
func ReadyStep(s *Step, byID map[string]*Step) bool {
	for depID := range s.Dependencies {
		dep, ok := byID[depID]
		if !ok || dep.Status != StepDone {
			return false
		}
	}
	return true
}

// AdvanceSteps drives every pending Step through running to a terminal
// state, in dependency order, once the orchestrator knows whether the plan
// as a whole succeeded. The phases execute a Plan's steps together rather
// than one at a time, so there is no separate "step N finished" signal;
// this instead replays the pending -> running -> done|failed lifecycle in
// the order TopoSortSteps already certified as a DAG, using ReadyStep to
// gate each transition on its dependencies. On success every step becomes
// ready in turn and ends Done. On failure, any step whose dependency did
// not reach Done is not ready and is marked Failed directly, so a failure
// cascades down the dependency chain instead of leaving downstream steps
// stuck pending.
func AdvanceSteps(steps []*Step, success bool) {
	byID := make(map[string]*Step, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}

	ordered, err := TopoSortSteps(steps)
	if err != nil {
		ordered = steps
	}

	terminal := StepDone
	if !success {
		terminal = StepFailed
	}

	for _, s := range ordered {
		if s.Status != StepPending {
			continue
		}
		if !ReadyStep(s, byID) {
			s.Status = StepFailed
			continue
		}
		s.Status = StepRunning
		s.Status = terminal
	}
}
