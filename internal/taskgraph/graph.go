// Package taskgraph models the static, acyclic graph of named developer tasks
// and resolves execution plans over it.
package taskgraph

import (
	"sort"
	"strings"
)

// Task describes a named unit of work with ordered prerequisites and command lines.
type Task struct {
	Name          string
	Description   string
	Prerequisites []string
	Commands      []string
	Default       bool
}

// Graph is the immutable mapping from task name to task definition.
//
// Construction validates the definitions; a Graph value that exists is acyclic
// and internally consistent.
type Graph struct {
	tasksByName     map[string]Task
	declaredOrder   []string
	defaultTaskName string
}

// NewGraph validates the provided definitions and constructs an immutable graph.
func NewGraph(definitions []Task) (*Graph, error) {
	if len(definitions) == 0 {
		return nil, ErrEmptyGraph
	}

	tasksByName := make(map[string]Task, len(definitions))
	declaredOrder := make([]string, 0, len(definitions))
	defaultTaskName := ""

	for definitionIndex := range definitions {
		definition := definitions[definitionIndex]
		taskName := strings.TrimSpace(definition.Name)
		if len(taskName) == 0 {
			return nil, ErrEmptyTaskName
		}
		if _, alreadyDefined := tasksByName[taskName]; alreadyDefined {
			return nil, DuplicateTaskError{TaskName: taskName}
		}

		sanitizedPrerequisites, prerequisiteError := sanitizePrerequisites(taskName, definition.Prerequisites)
		if prerequisiteError != nil {
			return nil, prerequisiteError
		}

		sanitizedCommands := make([]string, 0, len(definition.Commands))
		for commandIndex := range definition.Commands {
			commandLine := strings.TrimSpace(definition.Commands[commandIndex])
			if len(commandLine) == 0 {
				continue
			}
			sanitizedCommands = append(sanitizedCommands, commandLine)
		}

		if definition.Default {
			if len(defaultTaskName) > 0 {
				return nil, ErrMultipleDefaultTasks
			}
			defaultTaskName = taskName
		}

		tasksByName[taskName] = Task{
			Name:          taskName,
			Description:   strings.TrimSpace(definition.Description),
			Prerequisites: sanitizedPrerequisites,
			Commands:      sanitizedCommands,
			Default:       definition.Default,
		}
		declaredOrder = append(declaredOrder, taskName)
	}

	for _, taskName := range declaredOrder {
		task := tasksByName[taskName]
		for _, prerequisiteName := range task.Prerequisites {
			if _, exists := tasksByName[prerequisiteName]; !exists {
				return nil, UnknownPrerequisiteError{TaskName: taskName, PrerequisiteName: prerequisiteName}
			}
		}
	}

	graph := &Graph{
		tasksByName:     tasksByName,
		declaredOrder:   declaredOrder,
		defaultTaskName: defaultTaskName,
	}

	if cycleValidationError := graph.validateAcyclic(); cycleValidationError != nil {
		return nil, cycleValidationError
	}

	return graph, nil
}

// sanitizePrerequisites trims, deduplicates, and checks prerequisite names while
// preserving declared order.
func sanitizePrerequisites(taskName string, prerequisites []string) ([]string, error) {
	sanitized := make([]string, 0, len(prerequisites))
	seen := make(map[string]struct{}, len(prerequisites))
	for prerequisiteIndex := range prerequisites {
		prerequisiteName := strings.TrimSpace(prerequisites[prerequisiteIndex])
		if len(prerequisiteName) == 0 {
			continue
		}
		if prerequisiteName == taskName {
			return nil, SelfDependencyError{TaskName: taskName}
		}
		if _, alreadyIncluded := seen[prerequisiteName]; alreadyIncluded {
			continue
		}
		seen[prerequisiteName] = struct{}{}
		sanitized = append(sanitized, prerequisiteName)
	}
	return sanitized, nil
}

// Lookup returns the task registered under the provided name.
func (graph *Graph) Lookup(taskName string) (Task, error) {
	trimmedTaskName := strings.TrimSpace(taskName)
	task, exists := graph.tasksByName[trimmedTaskName]
	if !exists {
		return Task{}, UnknownTaskError{TaskName: trimmedTaskName}
	}
	return task, nil
}

// Contains reports whether the provided task name is registered.
func (graph *Graph) Contains(taskName string) bool {
	_, exists := graph.tasksByName[strings.TrimSpace(taskName)]
	return exists
}

// TaskNames returns task names in declared order.
func (graph *Graph) TaskNames() []string {
	names := make([]string, len(graph.declaredOrder))
	copy(names, graph.declaredOrder)
	return names
}

// DefaultTaskName returns the task declared as default, or an empty string.
func (graph *Graph) DefaultTaskName() string {
	return graph.defaultTaskName
}

// validateAcyclic proves the graph has no cycles using Kahn's algorithm and, on
// failure, extracts one deterministic cycle path for the error message.
func (graph *Graph) validateAcyclic() error {
	remainingDegree := make(map[string]int, len(graph.declaredOrder))
	dependents := make(map[string][]string, len(graph.declaredOrder))
	for _, taskName := range graph.declaredOrder {
		remainingDegree[taskName] = len(graph.tasksByName[taskName].Prerequisites)
		for _, prerequisiteName := range graph.tasksByName[taskName].Prerequisites {
			dependents[prerequisiteName] = append(dependents[prerequisiteName], taskName)
		}
	}

	ready := make([]string, 0, len(graph.declaredOrder))
	for _, taskName := range graph.declaredOrder {
		if remainingDegree[taskName] == 0 {
			ready = append(ready, taskName)
		}
	}

	processedCount := 0
	for len(ready) > 0 {
		currentTaskName := ready[0]
		ready = ready[1:]
		processedCount++
		for _, dependentName := range dependents[currentTaskName] {
			remainingDegree[dependentName]--
			if remainingDegree[dependentName] == 0 {
				ready = append(ready, dependentName)
			}
		}
	}

	if processedCount == len(graph.declaredOrder) {
		return nil
	}

	return CycleError{Path: graph.findCycleWitness()}
}

// findCycleWitness performs a deterministic depth-first search over task names
// to extract a single stable cycle path.
func (graph *Graph) findCycleWitness() []string {
	const (
		colorUnvisited = 0
		colorInStack   = 1
		colorFinished  = 2
	)

	orderedNames := make([]string, len(graph.declaredOrder))
	copy(orderedNames, graph.declaredOrder)
	sort.Strings(orderedNames)

	colors := make(map[string]int, len(orderedNames))
	stack := make([]string, 0, len(orderedNames))

	var witness []string
	var visit func(taskName string) bool
	visit = func(taskName string) bool {
		colors[taskName] = colorInStack
		stack = append(stack, taskName)

		prerequisites := graph.tasksByName[taskName].Prerequisites
		for _, prerequisiteName := range prerequisites {
			switch colors[prerequisiteName] {
			case colorInStack:
				cycleStart := 0
				for stackIndex := range stack {
					if stack[stackIndex] == prerequisiteName {
						cycleStart = stackIndex
						break
					}
				}
				witness = append(append([]string{}, stack[cycleStart:]...), prerequisiteName)
				return true
			case colorUnvisited:
				if visit(prerequisiteName) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		colors[taskName] = colorFinished
		return false
	}

	for _, taskName := range orderedNames {
		if colors[taskName] == colorUnvisited {
			if visit(taskName) {
				return witness
			}
		}
	}

	return nil
}
