// Package cobra provides the Cobra-based CLI command tree for bugmine.
package cobra

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/bugmine/bugmine/internal/version"
)

// GlobalOpts holds global options parsed before subcommand dispatch.
type GlobalOpts struct {
	Verbose bool
}

// globalOpts stores the parsed global options for access by subcommands.
var globalOpts GlobalOpts

// GetGlobalOpts returns the parsed global options.
func GetGlobalOpts() GlobalOpts {
	return globalOpts
}

// NewRootCmd creates the root cobra command for bugmine.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bugmine",
		Short: "Mine reproducible bug datasets from version-control history",
		Long: `bugmine - mine reproducible bug datasets from version-control history

Bugmine resolves bug identifiers to buggy/fixed revision pairs, materializes
isolated checkouts, establishes a canonical build for each revision, derives
the inverse patch pair, and sanity-checks that the fixed revision builds and
passes its test suite.`,
		Version:       version.FullVersion(),
		SilenceErrors: true, // We handle error printing in main.go
		SilenceUsage:  true, // We handle usage printing manually
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&globalOpts.Verbose, "verbose", false, "show detailed error context")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add all subcommands
	rootCmd.AddCommand(
		newMineCmd(),
		newCheckoutCmd(),
		newReportCmd(),
		newProjectsCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command with the given output writers.
// This is the main entry point from main.go.
func Execute(stdout, stderr io.Writer) error {
	rootCmd := NewRootCmd()
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}
