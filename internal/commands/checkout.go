package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bugmine/bugmine/internal/build"
	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/exec"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/layout"
	"github.com/bugmine/bugmine/internal/revision"
	"github.com/bugmine/bugmine/internal/store"
	"github.com/bugmine/bugmine/internal/vcs"
)

// CheckoutOpts holds options for the checkout command.
type CheckoutOpts struct {
	// Project is the registered project id (required).
	Project string

	// Bug is the bug identifier (required).
	Bug ids.BugID

	// Phase selects the revision: "buggy" or "fixed".
	Phase string
}

// Checkout materializes a single revision's workspace and prints its path.
// It runs the same initialization as mining, so the workspace comes with its
// build descriptor established and its layout detected.
func Checkout(ctx context.Context, cr exec.CommandRunner, fsys fs.FS, opts CheckoutOpts, stdout io.Writer) error {
	phase := ids.Phase(opts.Phase)
	if phase != ids.PhaseBuggy && phase != ids.PhaseFixed {
		return errors.New(errors.EUsage, fmt.Sprintf("phase must be %q or %q, got %q",
			ids.PhaseBuggy, ids.PhaseFixed, opts.Phase))
	}

	if err := requireGit(); err != nil {
		return err
	}
	env, err := loadProject(fsys, opts.Project)
	if err != nil {
		return err
	}

	detector, err := layout.NewDetector(env.Project.Layouts)
	if err != nil {
		return err
	}
	adapter := vcs.NewAdapter(env.Project.RepoPath(env.Paths), env.DB, cr, fsys,
		config.ResolveHook(env.Project.PostCheckoutHook))
	init := &revision.Initializer{
		Paths:   env.Paths,
		Adapter: adapter,
		Synthesizer: build.NewSynthesizer(env.Paths, env.Project, cr, fsys, build.Tools{
			Analyzer:    env.Tools.Analyzer,
			Converter:   env.Tools.Converter,
			DepResolver: env.Tools.DepResolver,
		}),
		Detector: detector,
		Store:    store.NewStore(fsys, env.Paths, time.Now),
		FS:       fsys,
	}

	res, err := init.Initialize(ctx, ids.VersionID{Bug: opts.Bug, Phase: phase})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "checked out %s revision %s of bug %d\n", phase, res.Revision, opts.Bug)
	fmt.Fprintf(stdout, "workspace: %s\n", res.Workspace)
	fmt.Fprintf(stdout, "layout: %s\n", res.Layout)
	return nil
}
