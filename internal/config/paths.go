// Package config handles loading and validation of bugmine configuration:
// the data directory layout and the per-project registry.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// DataDirEnv is the environment variable overriding the data directory.
const DataDirEnv = "BUGMINE_DATA_DIR"

// Paths is the immutable set of per-project filesystem locations derived from
// the data directory. One Paths value is constructed per (data dir, project)
// and passed into each component's constructor; no component reads process-wide
// state.
type Paths struct {
	DataDir   string
	ProjectID string
}

// NewPaths creates the path set for one project under dataDir.
func NewPaths(dataDir, projectID string) Paths {
	return Paths{DataDir: dataDir, ProjectID: projectID}
}

// ProjectDir returns the root directory for a project's mined data.
func (p Paths) ProjectDir() string {
	return filepath.Join(p.DataDir, "projects", p.ProjectID)
}

// RegistryPath returns the path of the project registry file under dataDir.
func RegistryPath(dataDir string) string {
	return filepath.Join(dataDir, "projects.yaml")
}

// PatchesDir returns the directory holding derived patch files.
func (p Paths) PatchesDir() string {
	return filepath.Join(p.ProjectDir(), "patches")
}

// SourcePatchPath returns the persisted source patch path for a bug.
func (p Paths) SourcePatchPath(bugID int) string {
	return filepath.Join(p.PatchesDir(), strconv.Itoa(bugID)+".src.patch")
}

// TestPatchPath returns the persisted test patch path for a bug.
func (p Paths) TestPatchPath(bugID int) string {
	return filepath.Join(p.PatchesDir(), strconv.Itoa(bugID)+".test.patch")
}

// AnalyzerDir returns the analyzer-output directory for one bug and phase.
// Exclusive per (bug, phase); holds the includes/excludes test-class files.
func (p Paths) AnalyzerDir(bugID int, phase string) string {
	return filepath.Join(p.ProjectDir(), "analyzer", strconv.Itoa(bugID), phase)
}

// BuildCacheDir returns the revision-keyed build-descriptor cache directory.
// Exclusive per revision; populated once and reused across bugs that share
// the revision.
func (p Paths) BuildCacheDir(revision string) string {
	return filepath.Join(p.ProjectDir(), "buildcache", revision)
}

// DepCacheDir returns the run-isolated dependency cache for a revision.
func (p Paths) DepCacheDir(revision string) string {
	return filepath.Join(p.BuildCacheDir(revision), "deps")
}

// ScratchRoot returns the per-bug scratch root. Each bug gets its own root so
// concurrent bug processing never shares scratch state.
func (p Paths) ScratchRoot(bugID int) string {
	return filepath.Join(p.ProjectDir(), "scratch", strconv.Itoa(bugID))
}

// WorkspaceDir returns the checkout workspace for one bug and phase
// ("buggy", "fixed", or "sanity").
func (p Paths) WorkspaceDir(bugID int, phase string) string {
	return filepath.Join(p.ScratchRoot(bugID), phase)
}

// MetaDir returns the directory holding registered revision metadata.
func (p Paths) MetaDir() string {
	return filepath.Join(p.ProjectDir(), "meta")
}

// MetaPath returns the metadata file for a bug.
func (p Paths) MetaPath(bugID int) string {
	return filepath.Join(p.MetaDir(), strconv.Itoa(bugID)+".json")
}

// EventsPath returns the per-bug event log path.
func (p Paths) EventsPath(bugID int) string {
	return filepath.Join(p.ProjectDir(), "events", strconv.Itoa(bugID)+".jsonl")
}

// ResolveDataDir determines the data directory: $BUGMINE_DATA_DIR if set,
// otherwise ~/.bugmine. A .env file in the working directory is loaded
// best-effort first so local setups can pin the data dir per checkout.
func ResolveDataDir() (string, error) {
	_ = godotenv.Load()

	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bugmine"), nil
}
