// Package taskrunner executes resolved task plans sequentially, stopping on the
// first failing command.
package taskrunner

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tyemirov/devtask/internal/execshell"
	"github.com/tyemirov/devtask/internal/taskgraph"
)

const (
	executorNotConfiguredMessageConstant = "task runner executor not configured"
	taskStartingMessageConstant          = "task starting"
	taskSucceededMessageConstant         = "task succeeded"
	taskFailedMessageConstant            = "task failed"
	dryRunCommandMessageConstant         = "command planned"
	taskNameFieldConstant                = "task"
	commandCountFieldConstant            = "command_count"
	commandLineFieldConstant             = "command"
	prerequisitesFieldConstant           = "prerequisites"
)

// ErrExecutorNotConfigured indicates the shell executor dependency was missing.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// CommandExecutor runs a single parsed shell command.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Dependencies describes the collaborators a Runner needs.
type Dependencies struct {
	Logger   *zap.Logger
	Executor CommandExecutor
}

// RuntimeOptions adjusts a single invocation.
type RuntimeOptions struct {
	DryRun               bool
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// Runner executes a task and its transitive prerequisites against a task graph.
type Runner struct {
	logger   *zap.Logger
	executor CommandExecutor
}

// NewRunner constructs a Runner from the provided dependencies.
func NewRunner(dependencies Dependencies) (*Runner, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, executor: dependencies.Executor}, nil
}

// Run resolves the requested task's execution plan and runs it sequentially.
//
// Every transitive prerequisite executes exactly once before its dependents,
// command lines run in declared order, and the first non-zero exit aborts the
// invocation with that command's failure as the returned error.
func (runner *Runner) Run(executionContext context.Context, graph *taskgraph.Graph, taskName string, options RuntimeOptions) (ExecutionOutcome, error) {
	plan, planError := graph.Plan(taskName)
	if planError != nil {
		return ExecutionOutcome{}, planError
	}

	outcome := ExecutionOutcome{RequestedTask: taskName, DryRun: options.DryRun}
	tracker := newRunStateTracker(plan.TaskNames())

	for taskIndex := range plan.Tasks {
		plannedTask := plan.Tasks[taskIndex]
		if transitionError := tracker.transition(plannedTask.Name, RunStateRunning); transitionError != nil {
			return outcome, transitionError
		}

		runner.logger.Debug(taskStartingMessageConstant,
			zap.String(taskNameFieldConstant, plannedTask.Name),
			zap.Strings(prerequisitesFieldConstant, plannedTask.Prerequisites),
			zap.Int(commandCountFieldConstant, len(plannedTask.Commands)),
		)

		taskResult, taskError := runner.runTaskCommands(executionContext, plannedTask, options)
		if taskError != nil {
			_ = tracker.transition(plannedTask.Name, RunStateFailed)
			taskResult.State = RunStateFailed
			outcome.TaskResults = append(outcome.TaskResults, taskResult)
			outcome.ExecutedCommandCount += len(taskResult.ExecutedCommands)
			outcome.FailedTaskName = plannedTask.Name
			runner.logger.Warn(taskFailedMessageConstant, zap.String(taskNameFieldConstant, plannedTask.Name), zap.Error(taskError))
			return outcome, taskError
		}

		if transitionError := tracker.transition(plannedTask.Name, RunStateSucceeded); transitionError != nil {
			return outcome, transitionError
		}
		taskResult.State = RunStateSucceeded
		outcome.TaskResults = append(outcome.TaskResults, taskResult)
		outcome.ExecutedCommandCount += len(taskResult.ExecutedCommands)
		runner.logger.Debug(taskSucceededMessageConstant, zap.String(taskNameFieldConstant, plannedTask.Name))
	}

	return outcome, nil
}

func (runner *Runner) runTaskCommands(executionContext context.Context, task taskgraph.Task, options RuntimeOptions) (TaskResult, error) {
	taskResult := TaskResult{TaskName: task.Name, State: RunStateRunning}

	for commandIndex := range task.Commands {
		commandLine := task.Commands[commandIndex]

		command, parseError := execshell.ParseCommandLine(commandLine)
		if parseError != nil {
			return taskResult, parseError
		}
		command.WorkingDirectory = options.WorkingDirectory
		command.EnvironmentVariables = options.EnvironmentVariables

		if options.DryRun {
			runner.logger.Info(dryRunCommandMessageConstant,
				zap.String(taskNameFieldConstant, task.Name),
				zap.String(commandLineFieldConstant, command.DisplayName()),
			)
			taskResult.ExecutedCommands = append(taskResult.ExecutedCommands, commandLine)
			continue
		}

		if contextError := executionContext.Err(); contextError != nil {
			return taskResult, contextError
		}

		if _, executionError := runner.executor.Execute(executionContext, command); executionError != nil {
			return taskResult, executionError
		}
		taskResult.ExecutedCommands = append(taskResult.ExecutedCommands, commandLine)
	}

	return taskResult, nil
}
