// Package commands implements bugmine CLI commands.
package commands

import (
	"github.com/bugmine/bugmine/internal/commitdb"
	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/exec"
	"github.com/bugmine/bugmine/internal/fs"
)

// projectEnv is everything a per-project command needs resolved up front.
type projectEnv struct {
	Paths   config.Paths
	Project config.Project
	Tools   config.ToolConfig
	DB      *commitdb.DB
}

// requireGit fails early with a stable code when git is not on PATH, before
// any workspace state is touched.
func requireGit() error {
	if !exec.LookPath("git") {
		return errors.New(errors.EGitNotInstalled, "git not found on PATH")
	}
	return nil
}

// loadProject resolves the data directory, loads the registry, and opens the
// project's commit database.
func loadProject(fsys fs.FS, projectID string) (projectEnv, error) {
	if projectID == "" {
		return projectEnv{}, errors.New(errors.EUsage, "project id is required")
	}

	dataDir, err := config.ResolveDataDir()
	if err != nil {
		return projectEnv{}, err
	}

	reg, err := config.LoadRegistry(fsys, config.RegistryPath(dataDir))
	if err != nil {
		return projectEnv{}, err
	}
	proj, err := reg.Lookup(projectID)
	if err != nil {
		return projectEnv{}, err
	}

	paths := config.NewPaths(dataDir, proj.ID)
	db, err := commitdb.Load(fsys, proj.CommitDBPath(paths))
	if err != nil {
		return projectEnv{}, err
	}

	return projectEnv{Paths: paths, Project: proj, Tools: reg.Tools, DB: db}, nil
}
