package taskgraph

// ExecutionPlan is the ordered set of tasks a single invocation will run.
//
// Prerequisites appear before their dependents, each task exactly once, and
// independent prerequisites keep their declared order.
type ExecutionPlan struct {
	Tasks []Task
}

// TaskNames returns the planned task names in execution order.
func (plan ExecutionPlan) TaskNames() []string {
	names := make([]string, 0, len(plan.Tasks))
	for taskIndex := range plan.Tasks {
		names = append(names, plan.Tasks[taskIndex].Name)
	}
	return names
}

// CommandCount returns the total number of command lines across the plan.
func (plan ExecutionPlan) CommandCount() int {
	total := 0
	for taskIndex := range plan.Tasks {
		total += len(plan.Tasks[taskIndex].Commands)
	}
	return total
}

// Plan resolves the execution order for the requested task.
//
// Resolution is a memoized depth-first walk: each transitive prerequisite is
// scheduled exactly once, before any task that depends on it, even when it is
// reachable through multiple paths.
func (graph *Graph) Plan(taskName string) (ExecutionPlan, error) {
	requestedTask, lookupError := graph.Lookup(taskName)
	if lookupError != nil {
		return ExecutionPlan{}, lookupError
	}

	scheduled := make(map[string]struct{}, len(graph.declaredOrder))
	orderedTasks := make([]Task, 0, len(graph.declaredOrder))

	var schedule func(task Task)
	schedule = func(task Task) {
		if _, alreadyScheduled := scheduled[task.Name]; alreadyScheduled {
			return
		}
		scheduled[task.Name] = struct{}{}
		for _, prerequisiteName := range task.Prerequisites {
			schedule(graph.tasksByName[prerequisiteName])
		}
		orderedTasks = append(orderedTasks, task)
	}
	schedule(requestedTask)

	return ExecutionPlan{Tasks: orderedTasks}, nil
}
