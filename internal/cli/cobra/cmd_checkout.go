package cobra

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bugmine/bugmine/internal/commands"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/exec"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
)

func newCheckoutCmd() *cobra.Command {
	var phase string

	cmd := &cobra.Command{
		Use:   "checkout <project> <bug>",
		Short: "Materialize one revision's workspace",
		Long: `Check out a single bug revision into its workspace and print the path.

Arguments:
  project    registered project id
  bug        bug identifier from the project's commit database

The workspace is initialized exactly as during mining: the build descriptor
is established and the source layout detected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := ids.ParseSelection(args[1])
			if err != nil || sel.First != sel.Last {
				_ = cmd.Help()
				return errors.New(errors.EUsage, fmt.Sprintf("invalid bug id: %s", args[1]))
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, os.Interrupt)
				<-sigCh
				cancel()
			}()

			opts := commands.CheckoutOpts{
				Project: args[0],
				Bug:     sel.First,
				Phase:   phase,
			}
			return commands.Checkout(ctx, exec.NewRealRunner(), fs.NewRealFS(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&phase, "phase", "buggy", `revision to check out: "buggy" or "fixed"`)

	return cmd
}
