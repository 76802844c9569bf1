package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Repo is a throwaway git repository built under t.TempDir().
type Repo struct {
	t    *testing.T
	Root string
}

// NewRepo initializes an empty git repository with deterministic commit
// metadata. Cleanup is handled by t.TempDir().
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	if err := UnsetGitEnv(); err != nil {
		t.Fatalf("failed to clear git env: %v", err)
	}

	r := &Repo{t: t, Root: t.TempDir()}
	r.Git("init", "--quiet")
	r.Git("config", "user.email", "test@example.com")
	r.Git("config", "user.name", "Test User")
	return r
}

// Git runs a git command in the repo root and fails the test on error.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Root
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_DATE=2000-01-01T00:00:00+0000",
		"GIT_COMMITTER_DATE=2000-01-01T00:00:00+0000",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes a file (creating parent dirs) relative to the repo root.
func (r *Repo) WriteFile(rel, content string) {
	r.t.Helper()
	path := filepath.Join(r.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("failed to create dir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("failed to write %s: %v", rel, err)
	}
}

// RemoveFile deletes a file relative to the repo root.
func (r *Repo) RemoveFile(rel string) {
	r.t.Helper()
	if err := os.Remove(filepath.Join(r.Root, filepath.FromSlash(rel))); err != nil {
		r.t.Fatalf("failed to remove %s: %v", rel, err)
	}
}

// Commit stages everything and commits, returning the commit hash.
func (r *Repo) Commit(msg string) string {
	r.t.Helper()
	r.Git("add", "-A")
	r.Git("commit", "--quiet", "-m", msg)
	return r.Git("rev-parse", "HEAD")
}
