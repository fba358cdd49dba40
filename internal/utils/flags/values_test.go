package flags_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/devtask/internal/utils"
	flagutils "github.com/tyemirov/devtask/internal/utils/flags"
)

func buildFlagTestCommand() *cobra.Command {
	command := &cobra.Command{Use: "flagtest", RunE: func(*cobra.Command, []string) error { return nil }}
	command.SetArgs(nil)
	return command
}

func TestBoolFlagReportsValueAndChangeState(testInstance *testing.T) {
	command := buildFlagTestCommand()
	flagutils.AddToggleFlag(command.Flags(), nil, flagutils.DryRunFlagName, "", false, flagutils.DryRunFlagUsage)

	value, changed, flagError := flagutils.BoolFlag(command, flagutils.DryRunFlagName)
	require.NoError(testInstance, flagError)
	require.False(testInstance, value)
	require.False(testInstance, changed)

	require.NoError(testInstance, command.Flags().Set(flagutils.DryRunFlagName, "true"))

	value, changed, flagError = flagutils.BoolFlag(command, flagutils.DryRunFlagName)
	require.NoError(testInstance, flagError)
	require.True(testInstance, value)
	require.True(testInstance, changed)
}

func TestBoolFlagReportsMissingFlag(testInstance *testing.T) {
	command := buildFlagTestCommand()
	_, _, flagError := flagutils.BoolFlag(command, "absent")
	require.ErrorIs(testInstance, flagError, flagutils.ErrFlagNotDefined)
}

func TestStringFlagReportsValueAndChangeState(testInstance *testing.T) {
	command := buildFlagTestCommand()
	command.Flags().String("log-level", "", "")

	require.NoError(testInstance, command.Flags().Set("log-level", "debug"))

	value, changed, flagError := flagutils.StringFlag(command, "log-level")
	require.NoError(testInstance, flagError)
	require.Equal(testInstance, "debug", value)
	require.True(testInstance, changed)
}

func TestBoolFlagLocatesInheritedPersistentFlag(testInstance *testing.T) {
	rootCommand := buildFlagTestCommand()
	flagutils.BindExecutionFlags(rootCommand, flagutils.ExecutionDefaults{}, flagutils.ExecutionFlagDefinitions{
		DryRun: flagutils.ExecutionFlagDefinition{Name: flagutils.DryRunFlagName, Usage: flagutils.DryRunFlagUsage, Enabled: true},
	})

	childCommand := &cobra.Command{Use: "child", RunE: func(*cobra.Command, []string) error { return nil }}
	rootCommand.AddCommand(childCommand)

	require.NoError(testInstance, rootCommand.PersistentFlags().Set(flagutils.DryRunFlagName, "true"))

	value, changed, flagError := flagutils.BoolFlag(childCommand, flagutils.DryRunFlagName)
	require.NoError(testInstance, flagError)
	require.True(testInstance, value)
	require.True(testInstance, changed)
}

func TestCollectExecutionFlags(testInstance *testing.T) {
	command := buildFlagTestCommand()
	flagutils.AddToggleFlag(command.Flags(), nil, flagutils.DryRunFlagName, "", false, flagutils.DryRunFlagUsage)
	require.NoError(testInstance, command.Flags().Set(flagutils.DryRunFlagName, "true"))

	executionFlags := flagutils.CollectExecutionFlags(command)
	require.True(testInstance, executionFlags.DryRun)
	require.True(testInstance, executionFlags.DryRunSet)
}

func TestResolveExecutionFlagsPrefersContextValues(testInstance *testing.T) {
	command := buildFlagTestCommand()
	flagutils.AddToggleFlag(command.Flags(), nil, flagutils.DryRunFlagName, "", false, flagutils.DryRunFlagUsage)

	accessor := utils.NewCommandContextAccessor()
	command.SetContext(accessor.WithExecutionFlags(nil, utils.ExecutionFlags{DryRun: true, DryRunSet: true}))

	executionFlags, available := flagutils.ResolveExecutionFlags(command)
	require.True(testInstance, available)
	require.True(testInstance, executionFlags.DryRun)
}

func TestResolveExecutionFlagsFallsBackToFlags(testInstance *testing.T) {
	command := buildFlagTestCommand()
	flagutils.AddToggleFlag(command.Flags(), nil, flagutils.DryRunFlagName, "", false, flagutils.DryRunFlagUsage)

	_, available := flagutils.ResolveExecutionFlags(command)
	require.False(testInstance, available)

	require.NoError(testInstance, command.Flags().Set(flagutils.DryRunFlagName, "true"))
	executionFlags, available := flagutils.ResolveExecutionFlags(command)
	require.True(testInstance, available)
	require.True(testInstance, executionFlags.DryRun)
}
