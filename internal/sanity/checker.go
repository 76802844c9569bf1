// Package sanity verifies end to end that a bug's fixed revision builds and
// executes its test suite under the established build descriptor.
package sanity

import (
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bugmine/bugmine/internal/build"
	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/store"
	"github.com/bugmine/bugmine/internal/vcs"
)

// DefaultTimeout bounds one build or test invocation.
const DefaultTimeout = 30 * time.Minute

// Tools names the external executables driving the build and test run.
type Tools struct {
	// Builder compiles the workspace. Invoked as: builder <workspace> <buildFile>.
	Builder string

	// Tester runs the full declared test suite. Invoked as:
	// tester <workspace> <buildFile>.
	Tester string
}

// Result is the outcome of a sanity check.
type Result struct {
	OK      bool
	LogPath string
}

// Checker re-checks out the fixed revision and validates it.
type Checker struct {
	Paths   config.Paths
	Adapter *vcs.Adapter
	FS      fs.FS
	Store   *store.Store
	Tools   Tools
	Timeout time.Duration
}

// NewChecker creates a sanity checker for one project.
func NewChecker(paths config.Paths, adapter *vcs.Adapter, fsys fs.FS, st *store.Store, tools Tools) *Checker {
	return &Checker{Paths: paths, Adapter: adapter, FS: fsys, Store: st, Tools: tools, Timeout: DefaultTimeout}
}

// Check discards any prior sanity workspace, checks out the fixed revision
// fresh, applies a cached minimized patch variant when one exists (unlike the
// layout-discovery checkout, which observes the unpatched revision), then
// builds and runs the full test suite under the revision's registered build
// descriptor. A generated build file exists only in the initialization
// workspace and the revision-keyed cache, never in the clone, so it is
// restored from the cache first.
//
// A non-zero build or test outcome is E_SANITY_CHECK_FAILED: the candidate is
// unusable until the cause is fixed upstream, never silently skipped.
func (c *Checker) Check(ctx context.Context, bug ids.BugID) (Result, error) {
	workspace := c.Paths.WorkspaceDir(int(bug), string(ids.PhaseSanity))
	logPath := filepath.Join(c.Paths.ScratchRoot(int(bug)), "sanity.log")
	result := Result{LogPath: logPath}

	meta, err := c.Store.ReadMeta(bug)
	if err != nil {
		return result, err
	}
	rec, ok := meta.Revisions[ids.PhaseFixed]
	if !ok {
		return result, errors.NewWithDetails(errors.EInternal,
			"fixed revision not initialized before sanity check",
			map[string]string{"bug_id": strconv.Itoa(int(bug))})
	}

	if err := fs.SafeRemoveAll(workspace, c.Paths.ProjectDir()); err != nil {
		return result, errors.Wrap(errors.EPersistFailed, "failed to discard prior sanity workspace", err)
	}

	if err := c.Adapter.Checkout(ctx, ids.VersionID{Bug: bug, Phase: ids.PhaseSanity}, workspace); err != nil {
		return result, err
	}

	// The sanity checkout is allowed to see the minimized patch variant.
	minimized := filepath.Join(c.Paths.PatchesDir(), strconv.Itoa(int(bug))+".src.minimized.patch")
	if _, err := c.FS.Stat(minimized); err == nil {
		if err := c.Adapter.ApplyPatch(ctx, workspace, minimized); err != nil {
			return result, err
		}
	}

	buildFile := filepath.Join(workspace, build.CanonicalBuildFile)
	if rec.Generated {
		if err := c.restoreGeneratedBuildFile(rec, buildFile); err != nil {
			return result, err
		}
	}

	if err := c.runStep(ctx, bug, "build", c.Tools.Builder, workspace, buildFile, logPath); err != nil {
		return result, err
	}
	if err := c.runStep(ctx, bug, "test", c.Tools.Tester, workspace, buildFile, logPath); err != nil {
		return result, err
	}

	result.OK = true
	return result, nil
}

// restoreGeneratedBuildFile copies the revision's cached generated build file
// into the sanity workspace.
func (c *Checker) restoreGeneratedBuildFile(rec store.RevisionRecord, dst string) error {
	cacheDir := rec.CacheDir
	if cacheDir == "" {
		cacheDir = c.Paths.BuildCacheDir(rec.Revision)
	}
	data, err := c.FS.ReadFile(filepath.Join(cacheDir, build.CanonicalBuildFile))
	if err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed,
			"failed to restore generated build file from cache", err,
			map[string]string{"revision": rec.Revision, "cache_dir": cacheDir})
	}
	if err := c.FS.WriteFile(dst, data, 0o644); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to write generated build file", err)
	}
	return nil
}

// runStep executes one external step with output appended to the sanity log.
// The exit status (or signal) of the external process is surfaced in the
// error details so the operator can distinguish failure kinds.
func (c *Checker) runStep(ctx context.Context, bug ids.BugID, step, tool, workspace, buildFile, logPath string) error {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to create sanity log directory", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to open sanity log", err)
	}
	defer logFile.Close()

	started := time.Now().UTC()
	_, _ = fmt.Fprintf(logFile, "# bugmine sanity %s\n", step)
	_, _ = fmt.Fprintf(logFile, "# timestamp: %s\n", started.Format(time.RFC3339))
	_, _ = fmt.Fprintf(logFile, "# command: %s %s %s\n", tool, workspace, buildFile)
	_, _ = fmt.Fprintf(logFile, "# ---\n\n")

	cmd := osexec.CommandContext(stepCtx, tool, workspace, buildFile)
	cmd.Dir = workspace
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	runErr := cmd.Run()
	if runErr == nil {
		return nil
	}

	details := map[string]string{
		"op":        "sanity." + step,
		"bug_id":    fmt.Sprintf("%d", bug),
		"workspace": workspace,
		"command":   tool,
		"log":       logPath,
	}
	if stepCtx.Err() == context.DeadlineExceeded {
		details["timed_out"] = "true"
		return errors.NewWithDetails(errors.ESanityCheckFailed,
			fmt.Sprintf("sanity %s timed out after %s", step, timeout), details)
	}
	if ee, ok := runErr.(*osexec.ExitError); ok {
		details["exit_code"] = fmt.Sprintf("%d", ee.ExitCode())
		if ws, ok := ee.Sys().(interface{ Signaled() bool }); ok && ws.Signaled() {
			details["signal"] = "true"
		}
		return errors.NewWithDetails(errors.ESanityCheckFailed,
			fmt.Sprintf("sanity %s failed (exit %d); see %s", step, ee.ExitCode(), logPath), details)
	}
	return errors.WrapWithDetails(errors.ESanityCheckFailed,
		fmt.Sprintf("failed to execute sanity %s", step), runErr, details)
}
