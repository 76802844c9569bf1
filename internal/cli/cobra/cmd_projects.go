package cobra

import (
	"github.com/spf13/cobra"

	"github.com/bugmine/bugmine/internal/commands"
	"github.com/bugmine/bugmine/internal/fs"
)

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List registered projects",
		Long:  "List every project registered in the data directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Projects(fs.NewRealFS(), cmd.OutOrStdout())
		},
	}
}
