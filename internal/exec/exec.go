// Package exec provides external command execution behind a stubbable interface.
// All VCS and build-tool invocations go through CommandRunner so tests can
// substitute canned results without spawning processes.
package exec

import (
	"bytes"
	"context"
	"os"
	osexec "os/exec"
)

// RunOpts contains per-invocation options for Run.
type RunOpts struct {
	// Dir is the working directory for the command. Empty means inherit.
	Dir string

	// Env is appended to the inherited environment when non-nil.
	Env []string

	// Stdin is the command's standard input. Nil means /dev/null.
	Stdin []byte
}

// Result holds the outcome of a completed command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner runs external commands to completion.
type CommandRunner interface {
	// Run executes name with args and waits for it to finish.
	// A non-zero exit status is NOT an error; it is reported via Result.ExitCode.
	// An error is returned only when the command could not be started
	// (binary missing, context cancelled before start, fork failure).
	Run(ctx context.Context, name string, args []string, opts RunOpts) (Result, error)
}

// RealRunner is the production CommandRunner backed by os/exec.
type RealRunner struct{}

// NewRealRunner creates a CommandRunner that spawns real processes.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run implements CommandRunner.
func (r *RealRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) (Result, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if opts.Env != nil {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	if opts.Stdin != nil {
		cmd.Stdin = bytes.NewReader(opts.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *osexec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// Start failure (binary not found, permission denied, ...)
		return result, err
	}

	result.ExitCode = 0
	return result, nil
}

// LookPath reports whether a binary is resolvable on PATH.
func LookPath(name string) bool {
	_, err := osexec.LookPath(name)
	return err == nil
}

func asExitError(err error, target **osexec.ExitError) bool {
	ee, ok := err.(*osexec.ExitError)
	if !ok {
		return false
	}
	*target = ee
	return true
}
