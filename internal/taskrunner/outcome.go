package taskrunner

import "fmt"

const (
	summarySuccessTemplateConstant = "task %s: %d task(s), %d command(s) succeeded"
	summaryDryRunTemplateConstant  = "task %s: %d task(s), %d command(s) planned (dry run)"
	summaryFailureTemplateConstant = "task %s: failed in %s after %d command(s)"
)

// TaskResult captures one planned task's terminal state.
type TaskResult struct {
	TaskName         string
	State            RunState
	ExecutedCommands []string
}

// ExecutionOutcome aggregates a single invocation's observable results.
type ExecutionOutcome struct {
	RequestedTask        string
	TaskResults          []TaskResult
	ExecutedCommandCount int
	DryRun               bool
	FailedTaskName       string
}

// ExecutedCommandLines returns every command line in execution order.
func (outcome ExecutionOutcome) ExecutedCommandLines() []string {
	commandLines := make([]string, 0, outcome.ExecutedCommandCount)
	for resultIndex := range outcome.TaskResults {
		commandLines = append(commandLines, outcome.TaskResults[resultIndex].ExecutedCommands...)
	}
	return commandLines
}

// Summary renders a one-line human-readable account of the invocation.
func (outcome ExecutionOutcome) Summary() string {
	if len(outcome.FailedTaskName) > 0 {
		return fmt.Sprintf(summaryFailureTemplateConstant, outcome.RequestedTask, outcome.FailedTaskName, outcome.ExecutedCommandCount)
	}
	if outcome.DryRun {
		return fmt.Sprintf(summaryDryRunTemplateConstant, outcome.RequestedTask, len(outcome.TaskResults), outcome.ExecutedCommandCount)
	}
	return fmt.Sprintf(summarySuccessTemplateConstant, outcome.RequestedTask, len(outcome.TaskResults), outcome.ExecutedCommandCount)
}
