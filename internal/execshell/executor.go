// Package execshell runs external tool commands with structured logging and
// typed failure reporting.
package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant           = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant    = "shell executor command runner not configured"
	commandProgramMissingMessageConstant         = "shell command program not provided"
	commandStartMessageConstant                  = "command execution starting"
	commandSuccessMessageConstant                = "command execution completed"
	commandFailureMessageConstant                = "command returned non-zero status"
	commandRunnerErrorMessageConstant            = "command execution error"
	commandProgramFieldNameConstant              = "program"
	commandArgumentsFieldNameConstant            = "arguments"
	workingDirectoryFieldNameConstant            = "working_directory"
	exitCodeFieldNameConstant                    = "exit_code"
	standardErrorFieldNameConstant               = "stderr"
	consoleStartTemplateConstant                 = "$ %s"
	consoleFailureTemplateConstant               = "command failed (exit %d): %s"
	commandFailureErrorMessageTemplateConstant   = "%s exited with code %d"
	commandExecutionErrorMessageTemplateConstant = "%s execution failed"
	failureDetailLineLimitConstant               = 3
)

// ExecutionResult captures observable command results.
type ExecutionResult struct {
	StandardError string
	ExitCode      int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ShellExecutor orchestrates running shell commands with logging.
type ShellExecutor struct {
	commandRunner        CommandRunner
	logger               *zap.Logger
	humanReadableLogging bool
}

var (
	// ErrLoggerNotConfigured indicates the logger dependency was missing.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the command runner dependency was missing.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	// ErrCommandProgramMissing indicates the command program was not provided.
	ErrCommandProgramMissing = errors.New(commandProgramMissingMessageConstant)
)

// CommandFailedError provides details about commands exiting with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failure in a readable format.
func (commandError CommandFailedError) Error() string {
	baseMessage := fmt.Sprintf(
		commandFailureErrorMessageTemplateConstant,
		commandError.Command.DisplayName(),
		commandError.Result.ExitCode,
	)

	detail := strings.TrimSpace(commandError.Result.StandardError)
	if len(detail) == 0 {
		return baseMessage
	}

	lines := strings.Split(detail, "\n")
	if len(lines) > failureDetailLineLimitConstant {
		lines = lines[:failureDetailLineLimitConstant]
	}
	normalized := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	if len(normalized) == 0 {
		return baseMessage
	}
	return fmt.Sprintf("%s: %s", baseMessage, strings.Join(normalized, " | "))
}

// ExitCode exposes the failing command's exit status.
func (commandError CommandFailedError) ExitCode() int {
	return commandError.Result.ExitCode
}

// CommandExecutionError wraps unexpected execution failures from the runner.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the underlying runner failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorMessageTemplateConstant, executionError.Command.DisplayName())
}

// Unwrap exposes the underlying error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// DisplayName renders the command as a single printable line.
func (command ShellCommand) DisplayName() string {
	if len(command.Arguments) == 0 {
		return command.Program
	}
	return command.Program + " " + strings.Join(command.Arguments, " ")
}

// NewShellExecutor builds an executor for the provided runner and logger.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		commandRunner:        commandRunner,
		logger:               logger,
		humanReadableLogging: humanReadableLogging,
	}, nil
}

// Execute runs the provided shell command and logs lifecycle events.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if len(strings.TrimSpace(command.Program)) == 0 {
		return ExecutionResult{}, ErrCommandProgramMissing
	}

	if executor.humanReadableLogging {
		executor.logger.Info(fmt.Sprintf(consoleStartTemplateConstant, command.DisplayName()))
	} else {
		executor.logger.Info(commandStartMessageConstant,
			zap.String(commandProgramFieldNameConstant, command.Program),
			zap.Strings(commandArgumentsFieldNameConstant, command.Arguments),
			zap.String(workingDirectoryFieldNameConstant, command.WorkingDirectory),
		)
	}

	executionResult, runnerError := executor.commandRunner.Run(executionContext, command)
	if runnerError != nil {
		if executor.humanReadableLogging {
			executor.logger.Error(runnerError.Error())
		} else {
			executor.logger.Error(commandRunnerErrorMessageConstant,
				zap.String(commandProgramFieldNameConstant, command.Program),
				zap.Error(runnerError),
			)
		}
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runnerError}
	}

	if executionResult.ExitCode != 0 {
		if executor.humanReadableLogging {
			executor.logger.Warn(fmt.Sprintf(consoleFailureTemplateConstant, executionResult.ExitCode, command.DisplayName()))
		} else {
			executor.logger.Warn(commandFailureMessageConstant,
				zap.String(commandProgramFieldNameConstant, command.Program),
				zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
				zap.String(standardErrorFieldNameConstant, executionResult.StandardError),
			)
		}
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	if !executor.humanReadableLogging {
		executor.logger.Info(commandSuccessMessageConstant,
			zap.String(commandProgramFieldNameConstant, command.Program),
			zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
		)
	}
	return executionResult, nil
}
