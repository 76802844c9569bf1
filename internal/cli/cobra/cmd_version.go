package cobra

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bugmine/bugmine/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print bugmine version",
		Long:  "Print the bugmine version string.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bugmine %s\n", version.FullVersion())
		},
	}
}
