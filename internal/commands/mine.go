package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/bugmine/bugmine/internal/exec"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/pipeline"
)

// MineOpts holds options for the mine command.
type MineOpts struct {
	// Project is the registered project id (required).
	Project string

	// Selection is the bug selection argument: "N" or "N..M". Empty means
	// every bug in the commit database.
	Selection string

	// KeepGoing continues past per-bug failures instead of aborting.
	KeepGoing bool
}

// Mine runs the full mining pipeline for the selected bugs of a project.
func Mine(ctx context.Context, cr exec.CommandRunner, fsys fs.FS, opts MineOpts, stdout, stderr io.Writer) error {
	if err := requireGit(); err != nil {
		return err
	}
	env, err := loadProject(fsys, opts.Project)
	if err != nil {
		return err
	}

	sel, err := parseSelection(opts.Selection, env)
	if err != nil {
		return err
	}

	svc, err := pipeline.NewService(env.Paths, env.Project, env.Tools, env.DB, cr, fsys, stdout)
	if err != nil {
		return err
	}
	svc.KeepGoing = opts.KeepGoing

	res, err := svc.Mine(ctx, sel)
	fmt.Fprintf(stdout, "mined %d, skipped %d, failed %d\n",
		len(res.Mined), len(res.Skipped), len(res.Failed))
	return err
}

// parseSelection interprets the selection argument; empty selects the whole
// commit database.
func parseSelection(arg string, env projectEnv) (ids.Selection, error) {
	if arg == "" {
		bugs := env.DB.Bugs()
		if len(bugs) == 0 {
			return ids.Selection{}, nil
		}
		return ids.Selection{First: bugs[0], Last: bugs[len(bugs)-1]}, nil
	}
	return ids.ParseSelection(arg)
}
