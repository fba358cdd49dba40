package execshell_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/devtask/internal/execshell"
)

func TestParseCommandLine(testInstance *testing.T) {
	testCases := []struct {
		name              string
		commandLine       string
		expectedProgram   string
		expectedArguments []string
		expectError       bool
	}{
		{
			name:              "plain tokens",
			commandLine:       "uv run pytest",
			expectedProgram:   "uv",
			expectedArguments: []string{"run", "pytest"},
		},
		{
			name:              "double quoted argument keeps spaces",
			commandLine:       `ruff check "src with spaces"`,
			expectedProgram:   "ruff",
			expectedArguments: []string{"check", "src with spaces"},
		},
		{
			name:              "single quotes prevent splitting",
			commandLine:       `sh -c 'echo done'`,
			expectedProgram:   "sh",
			expectedArguments: []string{"-c", "echo done"},
		},
		{
			name:        "empty command line",
			commandLine: "   ",
			expectError: true,
		},
		{
			name:        "unterminated quote",
			commandLine: `echo "unterminated`,
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			command, parseError := execshell.ParseCommandLine(testCase.commandLine)
			if testCase.expectError {
				var invalidCommandLineError execshell.InvalidCommandLineError
				require.ErrorAs(subtest, parseError, &invalidCommandLineError)
				require.Equal(subtest, testCase.commandLine, invalidCommandLineError.CommandLine)
				return
			}
			require.NoError(subtest, parseError)
			require.Equal(subtest, testCase.expectedProgram, command.Program)
			require.Equal(subtest, testCase.expectedArguments, command.Arguments)
		})
	}
}

func TestShellCommandDisplayName(t *testing.T) {
	require.Equal(t, "uv", execshell.ShellCommand{Program: "uv"}.DisplayName())
	require.Equal(t, "uv run pytest", execshell.ShellCommand{Program: "uv", Arguments: []string{"run", "pytest"}}.DisplayName())
}
