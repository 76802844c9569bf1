// Package pipeline wires the per-bug mining flow: initialize both revisions,
// cross-validate their layouts, derive the patch pair, and sanity-check the
// fixed revision.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bugmine/bugmine/internal/build"
	"github.com/bugmine/bugmine/internal/commitdb"
	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/events"
	"github.com/bugmine/bugmine/internal/exec"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/layout"
	"github.com/bugmine/bugmine/internal/patch"
	"github.com/bugmine/bugmine/internal/revision"
	"github.com/bugmine/bugmine/internal/sanity"
	"github.com/bugmine/bugmine/internal/store"
	"github.com/bugmine/bugmine/internal/vcs"
)

// Service runs the mining pipeline for one project.
type Service struct {
	Paths   config.Paths
	Project config.Project
	DB      *commitdb.DB
	Init    *revision.Initializer
	Deriver *patch.Deriver
	Checker *sanity.Checker
	Store   *store.Store
	FS      fs.FS

	// KeepGoing isolates failures per bug instead of aborting the run.
	// Fail-fast is the default; isolation is an explicit opt-in.
	KeepGoing bool

	// Progress receives human-readable progress lines. Never nil after
	// NewService.
	Progress io.Writer
}

// NewService assembles a Service for one project from its registry entry,
// its commit database, and the shared runner and filesystem.
func NewService(paths config.Paths, proj config.Project, tools config.ToolConfig, db *commitdb.DB, cr exec.CommandRunner, filesystem fs.FS, progress io.Writer) (*Service, error) {
	detector, err := layout.NewDetector(proj.Layouts)
	if err != nil {
		return nil, err
	}
	adapter := vcs.NewAdapter(proj.RepoPath(paths), db, cr, filesystem, config.ResolveHook(proj.PostCheckoutHook))
	st := store.NewStore(filesystem, paths, time.Now)
	synth := &build.Synthesizer{
		Paths:   paths,
		Project: proj,
		CR:      cr,
		FS:      filesystem,
		Tools: build.Tools{
			Analyzer:    tools.Analyzer,
			Converter:   tools.Converter,
			DepResolver: tools.DepResolver,
		},
	}
	init := &revision.Initializer{
		Paths:       paths,
		Adapter:     adapter,
		Synthesizer: synth,
		Detector:    detector,
		Store:       st,
		FS:          filesystem,
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Service{
		Paths:   paths,
		Project: proj,
		DB:      db,
		Init:    init,
		Deriver: patch.NewDeriver(paths, adapter, filesystem),
		Checker: sanity.NewChecker(paths, adapter, filesystem, st, sanity.Tools{
			Builder: tools.Builder,
			Tester:  tools.Tester,
		}),
		Store:    st,
		FS:       filesystem,
		Progress: progress,
	}, nil
}

// RunResult summarizes a Mine run.
type RunResult struct {
	Mined   []ids.BugID
	Skipped []ids.BugID
	Failed  []ids.BugID
}

// Mine processes every bug of the selection present in the commit database,
// in ascending bug order. With KeepGoing unset the first failure aborts the
// run; otherwise failures are recorded and the remaining bugs still run.
func (s *Service) Mine(ctx context.Context, sel ids.Selection) (RunResult, error) {
	var res RunResult
	var firstErr error
	for _, bug := range s.DB.Bugs() {
		if !sel.Contains(bug) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(errors.EInternal, "mining interrupted", err)
		}
		skipped, err := s.MineBug(ctx, bug)
		switch {
		case err != nil && !s.KeepGoing:
			res.Failed = append(res.Failed, bug)
			return res, err
		case err != nil:
			res.Failed = append(res.Failed, bug)
			if firstErr == nil {
				firstErr = err
			}
			fmt.Fprintf(s.Progress, "bug %d: failed: %v\n", bug, err)
		case skipped:
			res.Skipped = append(res.Skipped, bug)
		default:
			res.Mined = append(res.Mined, bug)
		}
	}
	return res, firstErr
}

// MineBug runs the full pipeline for a single bug. The returned bool reports
// whether the sanity check was skipped because the source patch is empty.
func (s *Service) MineBug(ctx context.Context, bug ids.BugID) (skipped bool, err error) {
	log := events.NewLogger(s.Paths.EventsPath(int(bug)), s.Paths.ProjectID, int(bug))
	defer func() {
		if err != nil {
			_ = log.Append(events.BugFailed, map[string]any{"error": err.Error()})
		} else {
			_ = log.Append(events.BugDone, nil)
		}
	}()

	fmt.Fprintf(s.Progress, "bug %d: initializing revisions\n", bug)
	log.Stage("initialize")
	buggy, err := s.Init.Initialize(ctx, ids.VersionID{Bug: bug, Phase: ids.PhaseBuggy})
	if err != nil {
		log.StageDone("initialize", err)
		return false, err
	}
	fixed, err := s.Init.Initialize(ctx, ids.VersionID{Bug: bug, Phase: ids.PhaseFixed})
	if err != nil {
		log.StageDone("initialize", err)
		return false, err
	}
	log.StageDone("initialize", nil)

	// Both revisions must share one source layout; otherwise a single
	// patch pair cannot describe the bug, and nothing is exported.
	if !buggy.Layout.Equal(fixed.Layout) {
		err = errors.NewWithDetails(errors.ELayoutMismatch,
			"buggy and fixed revisions use different source layouts",
			map[string]string{
				"bug_id": fmt.Sprintf("%d", bug),
				"buggy":  buggy.Layout.String(),
				"fixed":  fixed.Layout.String(),
			})
		return false, err
	}

	fmt.Fprintf(s.Progress, "bug %d: deriving patches\n", bug)
	log.Stage("derive-patches")
	pair, err := s.Deriver.Derive(ctx, bug, buggy.Revision, fixed.Revision, buggy.Layout)
	if err != nil {
		log.StageDone("derive-patches", err)
		return false, err
	}
	if err = s.Store.RegisterPatch(bug, "src", pair.Source); err != nil {
		log.StageDone("derive-patches", err)
		return false, err
	}
	if err = s.Store.RegisterPatch(bug, "test", pair.Test); err != nil {
		log.StageDone("derive-patches", err)
		return false, err
	}
	log.StageDone("derive-patches", nil)

	if pair.Source.Empty {
		fmt.Fprintf(s.Progress, "bug %d: source patch empty, skipping sanity check\n", bug)
		_ = log.Append(events.SanitySkipped, map[string]any{"reason": "empty source patch"})
		return true, nil
	}

	fmt.Fprintf(s.Progress, "bug %d: running sanity check\n", bug)
	log.Stage("sanity-check")
	if _, err = s.Checker.Check(ctx, bug); err != nil {
		log.StageDone("sanity-check", err)
		return false, err
	}
	log.StageDone("sanity-check", nil)
	fmt.Fprintf(s.Progress, "bug %d: done\n", bug)
	return false, nil
}
