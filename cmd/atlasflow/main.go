package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/atlaslabs/atlasflow/internal/cli"
	"github.com/atlaslabs/atlasflow/internal/engine"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		// Orchestration errors were already rendered by the formatter; anything
		// else (flag errors, unreadable databases) still needs a line here.
		var oe *engine.Error
		if !errors.As(err, &oe) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// cobra flag and usage errors
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
