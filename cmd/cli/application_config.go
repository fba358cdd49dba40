package cli

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tyemirov/devtask/internal/taskgraph"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tasks  []TaskConfiguration            `mapstructure:"tasks"`
}

// ApplicationCommonConfiguration stores logging and execution defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
	DryRun           bool   `mapstructure:"dry_run"`
	WorkingDirectory string `mapstructure:"working_directory"`
	EnvironmentFile  string `mapstructure:"environment_file"`
}

// TaskConfiguration captures one task definition from the configuration file.
type TaskConfiguration struct {
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Requires    []string `mapstructure:"requires"`
	Commands    []string `mapstructure:"commands"`
	Default     bool     `mapstructure:"default"`
}

// BuildTaskGraph validates the configured task definitions into an immutable graph.
func (configuration ApplicationConfiguration) BuildTaskGraph() (*taskgraph.Graph, error) {
	definitions := make([]taskgraph.Task, 0, len(configuration.Tasks))
	for taskIndex := range configuration.Tasks {
		taskConfiguration := configuration.Tasks[taskIndex]
		definitions = append(definitions, taskgraph.Task{
			Name:          taskConfiguration.Name,
			Description:   taskConfiguration.Description,
			Prerequisites: taskConfiguration.Requires,
			Commands:      taskConfiguration.Commands,
			Default:       taskConfiguration.Default,
		})
	}
	return taskgraph.NewGraph(definitions)
}

// LoadEnvironmentFile reads the configured dotenv file into a variable map.
//
// An explicitly configured path must exist; the implicit default path is
// skipped silently when absent.
func (configuration ApplicationCommonConfiguration) LoadEnvironmentFile() (map[string]string, error) {
	environmentFilePath := strings.TrimSpace(configuration.EnvironmentFile)
	explicitlyConfigured := len(environmentFilePath) > 0
	if !explicitlyConfigured {
		environmentFilePath = defaultEnvironmentFileNameConstant
	}

	if _, statError := os.Stat(environmentFilePath); statError != nil {
		if explicitlyConfigured {
			return nil, statError
		}
		return nil, nil
	}

	return godotenv.Read(environmentFilePath)
}
