package execshell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
)

const (
	interruptGracePeriodConstant      = 10 * time.Second
	signalledProcessExitCodeConstant  = 1
	stderrCaptureLimitBytesConstant   = 64 * 1024
)

// OSCommandRunner spawns external processes with os/exec.
//
// Standard output and standard error stream to the configured writers while the
// process runs; a bounded stderr tail is retained for failure reporting.
type OSCommandRunner struct {
	standardOutput io.Writer
	standardError  io.Writer
}

// NewOSCommandRunner constructs a runner forwarding to the provided writers,
// defaulting to the process's own streams.
func NewOSCommandRunner(standardOutput io.Writer, standardError io.Writer) *OSCommandRunner {
	if standardOutput == nil {
		standardOutput = os.Stdout
	}
	if standardError == nil {
		standardError = os.Stderr
	}
	return &OSCommandRunner{standardOutput: standardOutput, standardError: standardError}
}

// Run executes the command, waits for it to exit, and reports its exit code.
//
// Context cancellation interrupts the child first and kills it only after a
// grace period, so interactive interrupts reach the running tool.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	stderrTail := newBoundedBuffer(stderrCaptureLimitBytesConstant)

	executableCommand := exec.CommandContext(executionContext, command.Program, command.Arguments...)
	executableCommand.Dir = command.WorkingDirectory
	executableCommand.Stdout = runner.standardOutput
	executableCommand.Stderr = io.MultiWriter(runner.standardError, stderrTail)
	executableCommand.Env = mergeEnvironment(command.EnvironmentVariables)
	executableCommand.Cancel = func() error {
		return executableCommand.Process.Signal(os.Interrupt)
	}
	executableCommand.WaitDelay = interruptGracePeriodConstant

	runError := executableCommand.Run()
	if runError == nil {
		return ExecutionResult{ExitCode: 0}, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		exitCode := exitError.ExitCode()
		if exitCode < 0 {
			exitCode = signalledProcessExitCodeConstant
		}
		return ExecutionResult{StandardError: stderrTail.String(), ExitCode: exitCode}, nil
	}

	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, contextError
	}

	return ExecutionResult{}, runError
}

// mergeEnvironment overlays the provided variables on the ambient environment.
func mergeEnvironment(environmentVariables map[string]string) []string {
	if len(environmentVariables) == 0 {
		return nil
	}
	merged := os.Environ()
	for environmentKey, environmentValue := range environmentVariables {
		merged = append(merged, environmentKey+"="+environmentValue)
	}
	return merged
}

// boundedBuffer keeps the most recent writes up to a fixed size.
type boundedBuffer struct {
	limit  int
	buffer bytes.Buffer
}

func newBoundedBuffer(limit int) *boundedBuffer {
	return &boundedBuffer{limit: limit}
}

func (bounded *boundedBuffer) Write(payload []byte) (int, error) {
	bounded.buffer.Write(payload)
	if bounded.buffer.Len() > bounded.limit {
		trimmed := bounded.buffer.Bytes()[bounded.buffer.Len()-bounded.limit:]
		replacement := make([]byte, len(trimmed))
		copy(replacement, trimmed)
		bounded.buffer.Reset()
		bounded.buffer.Write(replacement)
	}
	return len(payload), nil
}

func (bounded *boundedBuffer) String() string {
	return bounded.buffer.String()
}
