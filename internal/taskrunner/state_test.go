package taskrunner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunStateTrackerEnforcesLifecycle(testInstance *testing.T) {
	testCases := []struct {
		name        string
		transitions []RunState
		expectError bool
	}{
		{
			name:        "pending to running to succeeded",
			transitions: []RunState{RunStateRunning, RunStateSucceeded},
		},
		{
			name:        "pending to running to failed",
			transitions: []RunState{RunStateRunning, RunStateFailed},
		},
		{
			name:        "pending directly to succeeded",
			transitions: []RunState{RunStateSucceeded},
			expectError: true,
		},
		{
			name:        "succeeded is terminal",
			transitions: []RunState{RunStateRunning, RunStateSucceeded, RunStateRunning},
			expectError: true,
		},
		{
			name:        "failed is terminal",
			transitions: []RunState{RunStateRunning, RunStateFailed, RunStateRunning},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			tracker := newRunStateTracker([]string{"check"})

			var transitionError error
			for _, target := range testCase.transitions {
				transitionError = tracker.transition("check", target)
				if transitionError != nil {
					break
				}
			}

			if testCase.expectError {
				require.Error(subtest, transitionError)
				var invalidTransition InvalidStateTransitionError
				require.ErrorAs(subtest, transitionError, &invalidTransition)
				require.Equal(subtest, "check", invalidTransition.TaskName)
				return
			}
			require.NoError(subtest, transitionError)
		})
	}
}

func TestRunStateTrackerDefaultsToPending(t *testing.T) {
	tracker := newRunStateTracker([]string{"sync"})
	require.Equal(t, RunStatePending, tracker.state("sync"))
	require.Equal(t, RunStatePending, tracker.state("unregistered"))
}
