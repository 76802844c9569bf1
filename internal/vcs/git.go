// Package vcs provides the version-control adapter: resolving version
// identifiers to revision references, materializing isolated checkouts, and
// exporting scoped diffs. The backend is git, driven through exec.CommandRunner.
package vcs

import (
	"context"
	"fmt"
	"strings"

	"github.com/bugmine/bugmine/internal/commitdb"
	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/exec"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
)

// maxCapturedOutput bounds stderr/stdout captured into error details.
const maxCapturedOutput = 32 * 1024

// Adapter performs git operations for one project.
type Adapter struct {
	// RepoDir is the project's cloned repository root.
	RepoDir string

	// DB is the project's commit database.
	DB *commitdb.DB

	// CR runs git commands.
	CR exec.CommandRunner

	// FS is used for persisting exported diffs.
	FS fs.FS

	// Hook is the optional post-checkout capability. Invoked synchronously
	// after files are materialized and before Checkout returns.
	Hook config.Hook
}

// NewAdapter creates an adapter for one project repository.
func NewAdapter(repoDir string, db *commitdb.DB, cr exec.CommandRunner, fsys fs.FS, hook config.Hook) *Adapter {
	return &Adapter{RepoDir: repoDir, DB: db, CR: cr, FS: fsys, Hook: hook}
}

// Resolve maps a version identifier to its revision reference.
// Fails with E_UNKNOWN_REVISION if the bug is absent from the commit database.
func (a *Adapter) Resolve(v ids.VersionID) (string, error) {
	return a.DB.Resolve(v)
}

// Checkout materializes the revision for v into workspace.
//
// The workspace is created as a local clone so the tree carries its own .git
// and later patch application can use git apply. The post-checkout hook, when
// configured, runs before Checkout returns; a hook failure fails the checkout.
func (a *Adapter) Checkout(ctx context.Context, v ids.VersionID, workspace string) error {
	ref, err := a.Resolve(v)
	if err != nil {
		return err
	}

	if err := a.git(ctx, v, "clone", "--no-checkout", "--quiet", a.RepoDir, workspace); err != nil {
		return err
	}
	if err := a.git(ctx, v, "-C", workspace, "checkout", "--detach", "--quiet", ref); err != nil {
		return err
	}

	if a.Hook != nil {
		if err := a.Hook(ctx, a.CR, workspace); err != nil {
			return errors.WrapWithDetails(errors.ECheckoutFailed,
				"post-checkout hook failed",
				err,
				map[string]string{
					"op":        "vcs.checkout",
					"phase":     string(v.Phase),
					"revision":  ref,
					"workspace": workspace,
				})
		}
	}
	return nil
}

// ExportDiff writes the unified diff from fromRef to toRef, restricted to
// scopeDir, to outPath. An empty diff writes an empty file; that is a valid
// outcome, not an error.
func (a *Adapter) ExportDiff(ctx context.Context, fromRef, toRef, scopeDir, outPath string) error {
	args := []string{
		"-C", a.RepoDir,
		"diff", "--no-ext-diff", "--no-color",
		fromRef, toRef,
		"--", scopeDir,
	}
	result, err := a.CR.Run(ctx, "git", args, exec.RunOpts{})
	if err != nil {
		return errors.Wrap(errors.EGitNotInstalled, "failed to execute git diff", err)
	}
	if result.ExitCode != 0 {
		return errors.NewWithDetails(errors.EDiffExportFailed,
			"git diff failed: "+strings.TrimSpace(result.Stderr),
			commandDetails("git", args, result))
	}

	if err := fs.WriteFileAtomic(a.FS, outPath, []byte(result.Stdout), 0o644); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to write diff to "+outPath, err)
	}
	return nil
}

// ApplyPatch applies a unified diff file to workspace via git apply.
// Used by the sanity checkout when a cached patch variant exists.
func (a *Adapter) ApplyPatch(ctx context.Context, workspace, patchPath string) error {
	args := []string{"-C", workspace, "apply", "--whitespace=nowarn", patchPath}
	result, err := a.CR.Run(ctx, "git", args, exec.RunOpts{})
	if err != nil {
		return errors.Wrap(errors.EGitNotInstalled, "failed to execute git apply", err)
	}
	if result.ExitCode != 0 {
		return errors.NewWithDetails(errors.ECheckoutFailed,
			"git apply failed: "+strings.TrimSpace(result.Stderr),
			commandDetails("git", args, result))
	}
	return nil
}

// git runs one git command for a checkout step and converts failures into
// E_CHECKOUT_FAILED with captured output.
func (a *Adapter) git(ctx context.Context, v ids.VersionID, args ...string) error {
	result, err := a.CR.Run(ctx, "git", args, exec.RunOpts{})
	if err != nil {
		return errors.WrapWithDetails(errors.EGitNotInstalled,
			"failed to execute git",
			err,
			map[string]string{"command": "git " + strings.Join(args, " ")})
	}
	if result.ExitCode != 0 {
		details := commandDetails("git", args, result)
		details["op"] = "vcs.checkout"
		details["phase"] = string(v.Phase)
		return errors.NewWithDetails(errors.ECheckoutFailed,
			"git checkout failed: "+strings.TrimSpace(result.Stderr),
			details)
	}
	return nil
}

func commandDetails(name string, args []string, result exec.Result) map[string]string {
	details := map[string]string{
		"command":   name + " " + strings.Join(args, " "),
		"exit_code": fmt.Sprintf("%d", result.ExitCode),
	}
	if result.Stderr != "" {
		stderr := result.Stderr
		if len(stderr) > maxCapturedOutput {
			stderr = stderr[:maxCapturedOutput]
			details["stderr_truncated"] = "true"
		}
		details["stderr"] = stderr
	}
	if result.Stdout != "" {
		stdout := result.Stdout
		if len(stdout) > maxCapturedOutput {
			stdout = stdout[:maxCapturedOutput]
			details["stdout_truncated"] = "true"
		}
		details["stdout"] = stdout
	}
	return details
}
