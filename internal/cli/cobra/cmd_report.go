package cobra

import (
	"github.com/spf13/cobra"

	"github.com/bugmine/bugmine/internal/commands"
	"github.com/bugmine/bugmine/internal/fs"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <project>",
		Short: "Summarize a project's mining progress",
		Long: `Print a per-bug summary of the project's dataset: which bugs are
complete, which were excluded for empty source patches, and which artifacts
are still missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Report(fs.NewRealFS(), commands.ReportOpts{Project: args[0]}, cmd.OutOrStdout())
		},
	}
}
