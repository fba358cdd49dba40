package taskgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/devtask/internal/taskgraph"
)

func buildDeveloperTaskGraph(t *testing.T) *taskgraph.Graph {
	t.Helper()
	graph, err := taskgraph.NewGraph([]taskgraph.Task{
		{Name: "sync", Commands: []string{"uv sync"}},
		{Name: "check", Prerequisites: []string{"sync"}, Commands: []string{"uv run ruff check .", "uv run pytest"}},
		{Name: "format", Prerequisites: []string{"sync"}, Commands: []string{"uv run ruff format ."}},
		{Name: "format-and-check", Prerequisites: []string{"format", "check"}},
		{Name: "all", Prerequisites: []string{"check"}, Default: true},
	})
	require.NoError(t, err)
	return graph
}

func TestPlanOrdersPrerequisitesBeforeDependents(t *testing.T) {
	graph := buildDeveloperTaskGraph(t)

	plan, err := graph.Plan("all")
	require.NoError(t, err)
	require.Equal(t, []string{"sync", "check", "all"}, plan.TaskNames())
	require.Equal(t, 3, plan.CommandCount())
}

func TestPlanSchedulesSharedPrerequisiteOnce(t *testing.T) {
	graph := buildDeveloperTaskGraph(t)

	plan, err := graph.Plan("format-and-check")
	require.NoError(t, err)
	require.Equal(t, []string{"sync", "format", "check", "format-and-check"}, plan.TaskNames())
}

func TestPlanPreservesDeclaredPrerequisiteOrder(t *testing.T) {
	graph, err := taskgraph.NewGraph([]taskgraph.Task{
		{Name: "left"},
		{Name: "right"},
		{Name: "top", Prerequisites: []string{"right", "left"}},
	})
	require.NoError(t, err)

	plan, planError := graph.Plan("top")
	require.NoError(t, planError)
	require.Equal(t, []string{"right", "left", "top"}, plan.TaskNames())
}

func TestPlanSingleTaskWithoutPrerequisites(t *testing.T) {
	graph := buildDeveloperTaskGraph(t)

	plan, err := graph.Plan("sync")
	require.NoError(t, err)
	require.Equal(t, []string{"sync"}, plan.TaskNames())
	require.Equal(t, 1, plan.CommandCount())
}

func TestPlanRejectsUnknownTask(t *testing.T) {
	graph := buildDeveloperTaskGraph(t)

	plan, err := graph.Plan("deploy")
	require.Empty(t, plan.Tasks)

	var unknownTaskError taskgraph.UnknownTaskError
	require.ErrorAs(t, err, &unknownTaskError)
	require.Equal(t, "deploy", unknownTaskError.TaskName)
}
