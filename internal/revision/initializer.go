// Package revision orchestrates one revision's initialization: resolve,
// checkout into a fresh workspace, synthesize the build descriptor, detect
// the layout, and register the result.
package revision

import (
	"context"

	"github.com/bugmine/bugmine/internal/build"
	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/layout"
	"github.com/bugmine/bugmine/internal/store"
	"github.com/bugmine/bugmine/internal/vcs"
)

// Result is the normalized outcome of initializing one revision.
type Result struct {
	Revision   string
	Workspace  string
	Layout     layout.Layout
	Descriptor build.Descriptor
}

// Initializer wires the adapter, synthesizer, and detector for one project.
type Initializer struct {
	Paths       config.Paths
	Adapter     *vcs.Adapter
	Synthesizer *build.Synthesizer
	Detector    *layout.Detector
	Store       *store.Store
	FS          fs.FS
}

// Initialize resolves, checks out, and characterizes one revision, then
// registers its metadata so later stages can locate the tree without a
// second checkout.
//
// Any failure from resolution, checkout, or build synthesis propagates:
// there is no partial result for a bug whose build cannot be characterized.
//
// The layout-discovery checkout deliberately bypasses patch application to
// observe the revision's true, unpatched build; the sanity re-checkout is
// the one that may apply cached patch variants.
func (i *Initializer) Initialize(ctx context.Context, v ids.VersionID) (Result, error) {
	ref, err := i.Adapter.Resolve(v)
	if err != nil {
		return Result{}, err
	}

	workspace := i.Paths.WorkspaceDir(int(v.Bug), string(v.Phase))
	if err := i.cleanWorkspace(workspace); err != nil {
		return Result{}, err
	}
	if err := i.Adapter.Checkout(ctx, v, workspace); err != nil {
		return Result{}, err
	}

	desc, err := i.Synthesizer.Synthesize(ctx, workspace, v.Bug, v.Phase, ref)
	if err != nil {
		return Result{}, err
	}

	lay, err := i.Detector.Detect(workspace)
	if err != nil {
		return Result{}, err
	}

	rec := store.RevisionRecord{
		Revision:  ref,
		Workspace: workspace,
		SrcDir:    lay.SrcDir,
		TestDir:   lay.TestDir,
		BuildFile: desc.BuildFile,
		Generated: desc.Generated,
		CacheDir:  desc.CacheDir,
	}
	if err := i.Store.RegisterRevision(v.Bug, v.Phase, rec); err != nil {
		return Result{}, err
	}

	return Result{Revision: ref, Workspace: workspace, Layout: lay, Descriptor: desc}, nil
}

// cleanWorkspace discards any previous workspace for this (bug, phase).
// Deletion is guarded by the project directory prefix so a miscomputed path
// can never escape the data directory.
func (i *Initializer) cleanWorkspace(workspace string) error {
	if err := i.FS.MkdirAll(i.Paths.ProjectDir(), 0o755); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to create project dir", err)
	}
	if err := fs.SafeRemoveAll(workspace, i.Paths.ProjectDir()); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to clean workspace", err)
	}
	return nil
}
