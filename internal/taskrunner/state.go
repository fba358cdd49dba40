package taskrunner

import "fmt"

// RunState tracks a task's lifecycle within a single invocation.
type RunState string

// Task lifecycle states. Succeeded and Failed are terminal.
const (
	RunStatePending   RunState = "pending"
	RunStateRunning   RunState = "running"
	RunStateSucceeded RunState = "succeeded"
	RunStateFailed    RunState = "failed"
)

const invalidTransitionErrorTemplateConstant = "task %q cannot transition from %s to %s"

// InvalidStateTransitionError reports an illegal task state transition.
type InvalidStateTransitionError struct {
	TaskName  string
	FromState RunState
	ToState   RunState
}

// Error describes the rejected transition.
func (errorDetails InvalidStateTransitionError) Error() string {
	return fmt.Sprintf(invalidTransitionErrorTemplateConstant, errorDetails.TaskName, errorDetails.FromState, errorDetails.ToState)
}

// runStateTracker records per-task states for one invocation.
type runStateTracker struct {
	states map[string]RunState
}

func newRunStateTracker(taskNames []string) *runStateTracker {
	states := make(map[string]RunState, len(taskNames))
	for _, taskName := range taskNames {
		states[taskName] = RunStatePending
	}
	return &runStateTracker{states: states}
}

func (tracker *runStateTracker) state(taskName string) RunState {
	if state, exists := tracker.states[taskName]; exists {
		return state
	}
	return RunStatePending
}

func (tracker *runStateTracker) transition(taskName string, target RunState) error {
	current := tracker.state(taskName)
	if !transitionAllowed(current, target) {
		return InvalidStateTransitionError{TaskName: taskName, FromState: current, ToState: target}
	}
	tracker.states[taskName] = target
	return nil
}

func transitionAllowed(from RunState, to RunState) bool {
	switch from {
	case RunStatePending:
		return to == RunStateRunning
	case RunStateRunning:
		return to == RunStateSucceeded || to == RunStateFailed
	default:
		return false
	}
}
