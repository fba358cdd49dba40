package execshell

import (
	"fmt"

	"github.com/google/shlex"
)

const (
	emptyCommandLineErrorTemplateConstant = "command line %q contains no executable tokens"
	commandLineParseErrorTemplateConstant = "unable to tokenize command line %q: %v"
)

// ShellCommand represents a fully qualified command invocation.
type ShellCommand struct {
	Program              string
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// InvalidCommandLineError reports a command line that could not be tokenized.
type InvalidCommandLineError struct {
	CommandLine string
	Cause       error
}

// Error describes the tokenization failure.
func (errorDetails InvalidCommandLineError) Error() string {
	if errorDetails.Cause == nil {
		return fmt.Sprintf(emptyCommandLineErrorTemplateConstant, errorDetails.CommandLine)
	}
	return fmt.Sprintf(commandLineParseErrorTemplateConstant, errorDetails.CommandLine, errorDetails.Cause)
}

// Unwrap exposes the underlying tokenizer error.
func (errorDetails InvalidCommandLineError) Unwrap() error {
	return errorDetails.Cause
}

// ParseCommandLine splits a configured command line into a program and arguments.
//
// Tokenization follows POSIX shell quoting rules without interpolation; the
// resulting program is executed directly rather than through a shell.
func ParseCommandLine(commandLine string) (ShellCommand, error) {
	tokens, tokenizeError := shlex.Split(commandLine)
	if tokenizeError != nil {
		return ShellCommand{}, InvalidCommandLineError{CommandLine: commandLine, Cause: tokenizeError}
	}
	if len(tokens) == 0 {
		return ShellCommand{}, InvalidCommandLineError{CommandLine: commandLine}
	}
	return ShellCommand{Program: tokens[0], Arguments: tokens[1:]}, nil
}
