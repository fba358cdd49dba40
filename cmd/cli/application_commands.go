package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	runCommandUseConstant   = "run [task]"
	runCommandShortConstant = "Run a task and its prerequisites in dependency order"

	listCommandUseConstant   = "list"
	listCommandShortConstant = "List the configured tasks"

	graphCommandUseConstant   = "graph [task]"
	graphCommandShortConstant = "Show the ordered execution plan for a task"

	versionCommandUseConstant   = "version"
	versionCommandShortConstant = "Print the application version"

	listHeaderConstant           = "TASK\tDEFAULT\tREQUIRES\tCOMMANDS\tDESCRIPTION"
	listDefaultMarkerConstant    = "*"
	listEmptyCellConstant        = "-"
	listRequiresSeparatorConstant = ", "

	graphEncodeErrorTemplateConstant = "unable to render execution plan: %w"
)

type executionPlanDocument struct {
	Task  string                  `yaml:"task"`
	Steps []executionPlanStepView `yaml:"steps"`
}

type executionPlanStepView struct {
	Task     string   `yaml:"task"`
	Requires []string `yaml:"requires,omitempty"`
	Commands []string `yaml:"commands,omitempty"`
}

func (application *Application) registerCommands(rootCommand *cobra.Command) {
	rootCommand.AddCommand(application.buildRunCommand())
	rootCommand.AddCommand(application.buildListCommand())
	rootCommand.AddCommand(application.buildGraphCommand())
	rootCommand.AddCommand(application.buildVersionCommand())
}

func (application *Application) buildRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			requestedTaskName := ""
			if len(arguments) == 1 {
				requestedTaskName = arguments[0]
			}
			return application.runTask(command, requestedTaskName)
		},
	}
}

func (application *Application) buildListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			graph, graphError := application.configuration.BuildTaskGraph()
			if graphError != nil {
				return fmt.Errorf(taskGraphBuildErrorTemplateConstant, graphError)
			}

			tableWriter := tabwriter.NewWriter(command.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tableWriter, listHeaderConstant)
			for _, taskName := range graph.TaskNames() {
				taskDefinition, lookupError := graph.Lookup(taskName)
				if lookupError != nil {
					return lookupError
				}

				defaultMarker := listEmptyCellConstant
				if taskDefinition.Default {
					defaultMarker = listDefaultMarkerConstant
				}

				requiresCell := listEmptyCellConstant
				if len(taskDefinition.Prerequisites) > 0 {
					requiresCell = strings.Join(taskDefinition.Prerequisites, listRequiresSeparatorConstant)
				}

				descriptionCell := strings.TrimSpace(taskDefinition.Description)
				if len(descriptionCell) == 0 {
					descriptionCell = listEmptyCellConstant
				}

				fmt.Fprintf(tableWriter, "%s\t%s\t%s\t%d\t%s\n", taskDefinition.Name, defaultMarker, requiresCell, len(taskDefinition.Commands), descriptionCell)
			}
			return tableWriter.Flush()
		},
	}
}

func (application *Application) buildGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   graphCommandUseConstant,
		Short: graphCommandShortConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			graph, graphError := application.configuration.BuildTaskGraph()
			if graphError != nil {
				return fmt.Errorf(taskGraphBuildErrorTemplateConstant, graphError)
			}

			requestedTaskName := ""
			if len(arguments) == 1 {
				requestedTaskName = strings.TrimSpace(arguments[0])
			}
			if len(requestedTaskName) == 0 {
				requestedTaskName = graph.DefaultTaskName()
				if len(requestedTaskName) == 0 {
					return errors.New(noDefaultTaskMessageConstant)
				}
			}

			executionPlan, planError := graph.Plan(requestedTaskName)
			if planError != nil {
				return planError
			}

			planDocument := executionPlanDocument{Task: requestedTaskName}
			for _, plannedTask := range executionPlan.Tasks {
				planDocument.Steps = append(planDocument.Steps, executionPlanStepView{
					Task:     plannedTask.Name,
					Requires: plannedTask.Prerequisites,
					Commands: plannedTask.Commands,
				})
			}

			yamlEncoder := yaml.NewEncoder(command.OutOrStdout())
			yamlEncoder.SetIndent(2)
			if encodeError := yamlEncoder.Encode(planDocument); encodeError != nil {
				return fmt.Errorf(graphEncodeErrorTemplateConstant, encodeError)
			}
			return yamlEncoder.Close()
		},
	}
}

func (application *Application) buildVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   versionCommandUseConstant,
		Short: versionCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, application.versionResolver())
			return nil
		},
	}
}
