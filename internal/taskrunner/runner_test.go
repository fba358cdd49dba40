package taskrunner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/devtask/internal/execshell"
	"github.com/tyemirov/devtask/internal/taskgraph"
	"github.com/tyemirov/devtask/internal/taskrunner"
)

type recordedExecution struct {
	Command execshell.ShellCommand
}

type stubCommandExecutor struct {
	executions   []recordedExecution
	failOnIndex  int
	failureError error
}

func newStubCommandExecutor() *stubCommandExecutor {
	return &stubCommandExecutor{failOnIndex: -1}
}

func (executor *stubCommandExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	currentIndex := len(executor.executions)
	executor.executions = append(executor.executions, recordedExecution{Command: command})
	if executor.failOnIndex >= 0 && currentIndex == executor.failOnIndex {
		return execshell.ExecutionResult{}, executor.failureError
	}
	return execshell.ExecutionResult{ExitCode: 0}, nil
}

func (executor *stubCommandExecutor) executedDisplayNames() []string {
	names := make([]string, 0, len(executor.executions))
	for _, execution := range executor.executions {
		names = append(names, execution.Command.DisplayName())
	}
	return names
}

func buildRunnerTestGraph(t *testing.T) *taskgraph.Graph {
	t.Helper()
	graph, err := taskgraph.NewGraph([]taskgraph.Task{
		{Name: "sync", Commands: []string{"uv sync"}},
		{Name: "check", Prerequisites: []string{"sync"}, Commands: []string{"uv run ruff check .", "uv run pytest"}},
		{Name: "format", Prerequisites: []string{"sync"}, Commands: []string{"uv run ruff format ."}},
		{Name: "format-and-check", Prerequisites: []string{"format", "check"}},
	})
	require.NoError(t, err)
	return graph
}

func TestNewRunnerRequiresExecutor(t *testing.T) {
	runner, err := taskrunner.NewRunner(taskrunner.Dependencies{})
	require.Nil(t, runner)
	require.ErrorIs(t, err, taskrunner.ErrExecutorNotConfigured)
}

func TestRunExecutesPrerequisitesOnceInOrder(t *testing.T) {
	executor := newStubCommandExecutor()
	runner, err := taskrunner.NewRunner(taskrunner.Dependencies{Executor: executor})
	require.NoError(t, err)

	outcome, runError := runner.Run(context.Background(), buildRunnerTestGraph(t), "format-and-check", taskrunner.RuntimeOptions{})
	require.NoError(t, runError)

	require.Equal(t, []string{
		"uv sync",
		"uv run ruff format .",
		"uv run ruff check .",
		"uv run pytest",
	}, executor.executedDisplayNames())

	require.Equal(t, "format-and-check", outcome.RequestedTask)
	require.Empty(t, outcome.FailedTaskName)
	require.Equal(t, 4, outcome.ExecutedCommandCount)
	require.Len(t, outcome.TaskResults, 4)
	for _, taskResult := range outcome.TaskResults {
		require.Equal(t, taskrunner.RunStateSucceeded, taskResult.State)
	}
}

func TestRunAbortsOnFirstCommandFailure(t *testing.T) {
	failure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Program: "uv", Arguments: []string{"run", "ruff", "check", "."}},
		Result:  execshell.ExecutionResult{ExitCode: 2},
	}

	executor := newStubCommandExecutor()
	executor.failOnIndex = 1
	executor.failureError = failure

	runner, err := taskrunner.NewRunner(taskrunner.Dependencies{Executor: executor})
	require.NoError(t, err)

	outcome, runError := runner.Run(context.Background(), buildRunnerTestGraph(t), "check", taskrunner.RuntimeOptions{})

	var commandFailure execshell.CommandFailedError
	require.ErrorAs(t, runError, &commandFailure)
	require.Equal(t, 2, commandFailure.ExitCode())

	require.Equal(t, []string{"uv sync", "uv run ruff check ."}, executor.executedDisplayNames())
	require.Equal(t, "check", outcome.FailedTaskName)
	require.Len(t, outcome.TaskResults, 2)
	require.Equal(t, taskrunner.RunStateSucceeded, outcome.TaskResults[0].State)
	require.Equal(t, taskrunner.RunStateFailed, outcome.TaskResults[1].State)
	require.Empty(t, outcome.TaskResults[1].ExecutedCommands)
}

func TestRunDryRunSkipsExecutor(t *testing.T) {
	executor := newStubCommandExecutor()
	runner, err := taskrunner.NewRunner(taskrunner.Dependencies{Executor: executor})
	require.NoError(t, err)

	outcome, runError := runner.Run(context.Background(), buildRunnerTestGraph(t), "check", taskrunner.RuntimeOptions{DryRun: true})
	require.NoError(t, runError)

	require.Empty(t, executor.executions)
	require.True(t, outcome.DryRun)
	require.Equal(t, 3, outcome.ExecutedCommandCount)
	require.Equal(t, []string{"uv sync", "uv run ruff check .", "uv run pytest"}, outcome.ExecutedCommandLines())
}

func TestRunAppliesRuntimeOptionsToCommands(t *testing.T) {
	executor := newStubCommandExecutor()
	runner, err := taskrunner.NewRunner(taskrunner.Dependencies{Executor: executor})
	require.NoError(t, err)

	options := taskrunner.RuntimeOptions{
		WorkingDirectory:     "/srv/project",
		EnvironmentVariables: map[string]string{"UV_CACHE_DIR": "/tmp/uv"},
	}

	_, runError := runner.Run(context.Background(), buildRunnerTestGraph(t), "sync", options)
	require.NoError(t, runError)

	require.Len(t, executor.executions, 1)
	require.Equal(t, "/srv/project", executor.executions[0].Command.WorkingDirectory)
	require.Equal(t, options.EnvironmentVariables, executor.executions[0].Command.EnvironmentVariables)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	executor := newStubCommandExecutor()
	runner, err := taskrunner.NewRunner(taskrunner.Dependencies{Executor: executor})
	require.NoError(t, err)

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, runError := runner.Run(cancelledContext, buildRunnerTestGraph(t), "check", taskrunner.RuntimeOptions{})
	require.ErrorIs(t, runError, context.Canceled)
	require.Empty(t, executor.executions)
	require.Equal(t, "sync", outcome.FailedTaskName)
}

func TestRunRejectsUnknownTask(t *testing.T) {
	executor := newStubCommandExecutor()
	runner, err := taskrunner.NewRunner(taskrunner.Dependencies{Executor: executor})
	require.NoError(t, err)

	_, runError := runner.Run(context.Background(), buildRunnerTestGraph(t), "deploy", taskrunner.RuntimeOptions{})

	var unknownTaskError taskgraph.UnknownTaskError
	require.ErrorAs(t, runError, &unknownTaskError)
	require.Empty(t, executor.executions)
}

func TestRunReportsInvalidCommandLine(t *testing.T) {
	graph, err := taskgraph.NewGraph([]taskgraph.Task{
		{Name: "broken", Commands: []string{"echo \"unterminated"}},
	})
	require.NoError(t, err)

	executor := newStubCommandExecutor()
	runner, runnerError := taskrunner.NewRunner(taskrunner.Dependencies{Executor: executor})
	require.NoError(t, runnerError)

	outcome, runError := runner.Run(context.Background(), graph, "broken", taskrunner.RuntimeOptions{})

	var invalidCommandLineError execshell.InvalidCommandLineError
	require.True(t, errors.As(runError, &invalidCommandLineError))
	require.Equal(t, "broken", outcome.FailedTaskName)
	require.Empty(t, executor.executions)
}
