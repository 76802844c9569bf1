package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/fs"
)

// Registry is the parsed project registry (projects.yaml).
type Registry struct {
	Tools    ToolConfig `yaml:"tools"`
	Projects []Project  `yaml:"projects"`
}

// ToolConfig names the external executables the pipeline drives. Every field
// has a default; registries override individual entries.
type ToolConfig struct {
	// Analyzer extracts test-class include/exclude sets from a build file.
	Analyzer string `yaml:"analyzer"`

	// Converter materializes a canonical build file from a higher-level descriptor.
	Converter string `yaml:"converter"`

	// DepResolver populates a local dependency cache.
	DepResolver string `yaml:"dep_resolver"`

	// Builder compiles a workspace for the sanity check.
	Builder string `yaml:"builder"`

	// Tester runs a workspace's full test suite for the sanity check.
	Tester string `yaml:"tester"`
}

// defaultTools are the conventional tool names shipped alongside bugmine.
var defaultTools = ToolConfig{
	Analyzer:    "bugmine-analyzer",
	Converter:   "bugmine-convert",
	DepResolver: "bugmine-resolve-deps",
	Builder:     "bugmine-build",
	Tester:      "bugmine-test",
}

// Project is one tracked project's configuration record. It replaces the
// one-subclass-per-project pattern with plain data: paths, the commit
// database location, layout conventions, and named capabilities.
type Project struct {
	// ID is the short project identifier (e.g. "lang", "math").
	ID string `yaml:"id"`

	// Name is the human-readable project name.
	Name string `yaml:"name"`

	// RepoDir is the path (absolute, or relative to the data dir) of the
	// project's cloned version-control repository.
	RepoDir string `yaml:"repo_dir"`

	// CommitDB is the path of the append-only commit database file.
	// Empty means <project dir>/commit-db.csv.
	CommitDB string `yaml:"commit_db"`

	// Layouts names the layout predicates to try, in order. Empty means the
	// built-in default order.
	Layouts []string `yaml:"layouts"`

	// PostCheckoutHook names a registered hook run after each checkout.
	// Empty means no hook.
	PostCheckoutHook string `yaml:"post_checkout_hook"`

	// BuildPatchDir is a directory of per-bug patches applied to generated
	// build files to correct known conversion defects. Empty means none.
	BuildPatchDir string `yaml:"build_patch_dir"`
}

// MaxRegistrySize bounds the registry file size read into memory.
const MaxRegistrySize = 1 << 20

// LoadRegistry reads and validates the project registry.
func LoadRegistry(fsys fs.FS, path string) (*Registry, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.EInvalidRegistry, fmt.Sprintf("project registry not found: %s", path))
		}
		return nil, errors.Wrap(errors.EInvalidRegistry, "failed to read project registry", err)
	}
	if len(data) > MaxRegistrySize {
		return nil, errors.New(errors.EInvalidRegistry, "project registry exceeds size limit")
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, errors.New(errors.EInvalidRegistry, "invalid yaml: "+err.Error())
	}

	applyToolDefaults(&reg.Tools)
	if err := validateRegistry(&reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func applyToolDefaults(t *ToolConfig) {
	if t.Analyzer == "" {
		t.Analyzer = defaultTools.Analyzer
	}
	if t.Converter == "" {
		t.Converter = defaultTools.Converter
	}
	if t.DepResolver == "" {
		t.DepResolver = defaultTools.DepResolver
	}
	if t.Builder == "" {
		t.Builder = defaultTools.Builder
	}
	if t.Tester == "" {
		t.Tester = defaultTools.Tester
	}
}

// CommitDBPath resolves the project's commit database location. An empty
// commit_db field defaults to commit-db.csv under the project's data dir.
func (p Project) CommitDBPath(paths Paths) string {
	if p.CommitDB != "" {
		if filepath.IsAbs(p.CommitDB) {
			return p.CommitDB
		}
		return filepath.Join(paths.DataDir, p.CommitDB)
	}
	return filepath.Join(paths.ProjectDir(), "commit-db.csv")
}

// RepoPath resolves the project's repository directory against the data dir.
func (p Project) RepoPath(paths Paths) string {
	if filepath.IsAbs(p.RepoDir) {
		return p.RepoDir
	}
	return filepath.Join(paths.DataDir, p.RepoDir)
}

// Lookup returns the project record for id.
func (r *Registry) Lookup(id string) (Project, error) {
	for _, p := range r.Projects {
		if p.ID == id {
			return p, nil
		}
	}
	return Project{}, errors.New(errors.EUnknownProject, fmt.Sprintf("project not registered: %s", id))
}

func validateRegistry(reg *Registry) error {
	seen := make(map[string]bool, len(reg.Projects))
	for i, p := range reg.Projects {
		if p.ID == "" {
			return errors.New(errors.EInvalidRegistry, fmt.Sprintf("project %d has empty id", i))
		}
		if seen[p.ID] {
			return errors.New(errors.EInvalidRegistry, "duplicate project id: "+p.ID)
		}
		seen[p.ID] = true
		if p.RepoDir == "" {
			return errors.New(errors.EInvalidRegistry, fmt.Sprintf("project %s has empty repo_dir", p.ID))
		}
		if p.PostCheckoutHook != "" && !KnownHook(p.PostCheckoutHook) {
			return errors.New(errors.EInvalidRegistry,
				fmt.Sprintf("project %s references unknown post_checkout_hook %q", p.ID, p.PostCheckoutHook))
		}
	}
	return nil
}
