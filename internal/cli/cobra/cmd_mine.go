package cobra

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bugmine/bugmine/internal/commands"
	"github.com/bugmine/bugmine/internal/exec"
	"github.com/bugmine/bugmine/internal/fs"
)

func newMineCmd() *cobra.Command {
	var keepGoing bool

	cmd := &cobra.Command{
		Use:   "mine <project> [selection]",
		Short: "Run the mining pipeline for a project's bugs",
		Long: `Run the full mining pipeline for the selected bugs of a project.

Arguments:
  project    registered project id (see 'bugmine projects')
  selection  bug id ("7") or inclusive range ("3..12"); omitted means all

Behavior:
  - initializes buggy and fixed workspaces per bug
  - derives the inverse source and test patches
  - sanity-checks the fixed revision (build + full test suite)
  - the first failure aborts the run unless --keep-going is set`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			selection := ""
			if len(args) == 2 {
				selection = args[1]
			}

			cr := exec.NewRealRunner()
			fsys := fs.NewRealFS()

			// Set up cancellation context for user SIGINT
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, os.Interrupt)
				<-sigCh
				cancel()
			}()

			opts := commands.MineOpts{
				Project:   args[0],
				Selection: selection,
				KeepGoing: keepGoing,
			}
			return commands.Mine(ctx, cr, fsys, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue past per-bug failures")

	return cmd
}
