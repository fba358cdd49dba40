package main

import (
	"fmt"
	"os"

	"github.com/tyemirov/devtask/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the devtask command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(cli.ExitCodeForError(executionError))
	}
}
