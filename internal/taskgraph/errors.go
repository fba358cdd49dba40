package taskgraph

import (
	"errors"
	"fmt"
	"strings"
)

const (
	unknownTaskErrorTemplateConstant          = "unknown task %q"
	duplicateTaskErrorTemplateConstant        = "task %q defined multiple times"
	unknownPrerequisiteErrorTemplateConstant  = "task %q requires unknown task %q"
	selfDependencyErrorTemplateConstant       = "task %q cannot depend on itself"
	cycleErrorMessageConstant                 = "task graph contains a dependency cycle"
	cycleErrorWithPathTemplateConstant        = cycleErrorMessageConstant + ": %s"
	cyclePathSeparatorConstant                = " -> "
	emptyTaskNameErrorMessageConstant         = "task name is empty"
	missingDefaultTaskErrorTemplateConstant   = "default task %q is not defined"
	emptyGraphDefinitionErrorMessageConstant  = "task graph defines no tasks"
	duplicateDefaultTaskErrorMessageConstant  = "task graph declares multiple default tasks"
)

// ErrEmptyTaskName indicates a task definition without a usable name.
var ErrEmptyTaskName = errors.New(emptyTaskNameErrorMessageConstant)

// ErrEmptyGraph indicates a graph constructed from zero task definitions.
var ErrEmptyGraph = errors.New(emptyGraphDefinitionErrorMessageConstant)

// ErrMultipleDefaultTasks indicates more than one task claimed the default role.
var ErrMultipleDefaultTasks = errors.New(duplicateDefaultTaskErrorMessageConstant)

// UnknownTaskError reports a requested task name absent from the graph.
type UnknownTaskError struct {
	TaskName string
}

// Error describes the missing task.
func (errorDetails UnknownTaskError) Error() string {
	return fmt.Sprintf(unknownTaskErrorTemplateConstant, errorDetails.TaskName)
}

// DuplicateTaskError reports a task name declared more than once.
type DuplicateTaskError struct {
	TaskName string
}

// Error describes the duplicated task.
func (errorDetails DuplicateTaskError) Error() string {
	return fmt.Sprintf(duplicateTaskErrorTemplateConstant, errorDetails.TaskName)
}

// UnknownPrerequisiteError reports a prerequisite referencing an undefined task.
type UnknownPrerequisiteError struct {
	TaskName         string
	PrerequisiteName string
}

// Error describes the dangling prerequisite reference.
func (errorDetails UnknownPrerequisiteError) Error() string {
	return fmt.Sprintf(unknownPrerequisiteErrorTemplateConstant, errorDetails.TaskName, errorDetails.PrerequisiteName)
}

// SelfDependencyError reports a task listing itself as a prerequisite.
type SelfDependencyError struct {
	TaskName string
}

// Error describes the self-dependency.
func (errorDetails SelfDependencyError) Error() string {
	return fmt.Sprintf(selfDependencyErrorTemplateConstant, errorDetails.TaskName)
}

// MissingDefaultTaskError reports a default task name that no definition provides.
type MissingDefaultTaskError struct {
	TaskName string
}

// Error describes the missing default task.
func (errorDetails MissingDefaultTaskError) Error() string {
	return fmt.Sprintf(missingDefaultTaskErrorTemplateConstant, errorDetails.TaskName)
}

// CycleError reports a dependency cycle with one deterministic witness path.
type CycleError struct {
	Path []string
}

// Error describes the cycle including the witness path when available.
func (errorDetails CycleError) Error() string {
	if len(errorDetails.Path) == 0 {
		return cycleErrorMessageConstant
	}
	return fmt.Sprintf(cycleErrorWithPathTemplateConstant, strings.Join(errorDetails.Path, cyclePathSeparatorConstant))
}
