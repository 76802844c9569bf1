// Package patch derives and inspects the per-bug source and test patches.
//
// A patch is the unified diff from the fixed tree to the buggy tree, scoped
// to the detected source or test directory. No minimization happens here; an
// empty patch is a valid outcome, not an error.
package patch

import (
	"context"
	"fmt"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/layout"
	"github.com/bugmine/bugmine/internal/store"
	"github.com/bugmine/bugmine/internal/vcs"
)

// Pair is the derived patch pair for one bug.
type Pair struct {
	SourcePath string
	TestPath   string
	Source     store.PatchStats
	Test       store.PatchStats
}

// Deriver computes and persists patch pairs.
type Deriver struct {
	Paths   config.Paths
	Adapter *vcs.Adapter
	FS      fs.FS
}

// NewDeriver creates a deriver for one project.
func NewDeriver(paths config.Paths, adapter *vcs.Adapter, fsys fs.FS) *Deriver {
	return &Deriver{Paths: paths, Adapter: adapter, FS: fsys}
}

// Derive exports both patches (fixed -> buggy) and returns their stats.
// Idempotent: re-running on the same revision pair rewrites byte-identical files.
func (d *Deriver) Derive(ctx context.Context, bug ids.BugID, buggyRef, fixedRef string, lay layout.Layout) (Pair, error) {
	pair := Pair{
		SourcePath: d.Paths.SourcePatchPath(int(bug)),
		TestPath:   d.Paths.TestPatchPath(int(bug)),
	}

	if err := d.Adapter.ExportDiff(ctx, fixedRef, buggyRef, lay.SrcDir, pair.SourcePath); err != nil {
		return Pair{}, err
	}
	if err := d.Adapter.ExportDiff(ctx, fixedRef, buggyRef, lay.TestDir, pair.TestPath); err != nil {
		return Pair{}, err
	}

	var err error
	if pair.Source, err = d.stats(pair.SourcePath); err != nil {
		return Pair{}, err
	}
	if pair.Test, err = d.stats(pair.TestPath); err != nil {
		return Pair{}, err
	}
	return pair, nil
}

func (d *Deriver) stats(path string) (store.PatchStats, error) {
	data, err := d.FS.ReadFile(path)
	if err != nil {
		return store.PatchStats{}, errors.Wrap(errors.EPersistFailed, "failed to read derived patch", err)
	}
	stats, err := Stats(data)
	if err != nil {
		return store.PatchStats{}, errors.WrapWithDetails(errors.EDiffExportFailed,
			"exported diff is not a parseable unified diff", err,
			map[string]string{"patch": path})
	}
	return stats, nil
}

// Stats parses a unified diff and summarizes it. Empty input is a valid,
// empty patch.
func Stats(data []byte) (store.PatchStats, error) {
	if len(data) == 0 {
		return store.PatchStats{Empty: true}, nil
	}

	fds, err := diff.ParseMultiFileDiff(data)
	if err != nil {
		return store.PatchStats{}, fmt.Errorf("parse unified diff: %w", err)
	}

	stats := store.PatchStats{Files: len(fds)}
	for _, fd := range fds {
		stats.Hunks += len(fd.Hunks)
	}
	stats.Empty = stats.Files == 0
	return stats, nil
}
