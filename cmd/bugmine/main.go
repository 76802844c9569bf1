// Command bugmine mines reproducible bug datasets from version-control history.
package main

import (
	"os"

	"github.com/bugmine/bugmine/internal/cli/cobra"
	"github.com/bugmine/bugmine/internal/errors"
)

func main() {
	err := cobra.Execute(os.Stdout, os.Stderr)
	if err != nil {
		// Use verbose mode if --verbose global flag was set
		opts := errors.PrintOptions{
			Verbose: cobra.GetGlobalOpts().Verbose,
		}
		errors.PrintWithOptions(os.Stderr, err, opts)
		os.Exit(errors.ExitCode(err))
	}
}
