// Package build determines a workspace's native build system and synthesizes
// the canonical build descriptor the rest of the pipeline consumes.
//
// Ordered policy, first applicable branch wins:
//  1. a canonical build file (build.xml) is already present: analyze it directly
//  2. a higher-level descriptor (pom.xml) is present: convert, patch, cache,
//     analyze, and resolve dependencies
//  3. neither: E_UNSUPPORTED_BUILD_SYSTEM, fatal
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/exec"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
)

// Canonical build file names.
const (
	CanonicalBuildFile = "build.xml"
	HigherLevelFile    = "pom.xml"
)

// Analyzer output file names, the durable per-bug contract.
const (
	IncludesFile = "includes"
	ExcludesFile = "excludes"
)

// Descriptor is the canonical build configuration established for one
// workspace, plus the location of any generated artifacts.
type Descriptor struct {
	// BuildFile is the canonical build file path inside the workspace.
	BuildFile string `json:"build_file"`

	// Generated is true when the build file was synthesized from a
	// higher-level descriptor rather than committed in the revision.
	Generated bool `json:"generated"`

	// CacheDir is the revision-keyed artifact cache directory, empty for
	// native build files.
	CacheDir string `json:"cache_dir,omitempty"`
}

// Tools names the external executables the synthesizer drives.
type Tools struct {
	// Analyzer extracts test-class inclusion/exclusion sets from a build file.
	// Invoked as: analyzer <workspaceRoot> <outputDir> <buildFileName>.
	Analyzer string

	// Converter materializes build.xml from pom.xml.
	// Invoked as: converter <workspaceRoot>.
	Converter string

	// DepResolver populates a local dependency cache.
	// Invoked as: depresolver <workspaceRoot> <cacheDir>.
	DepResolver string
}

// Synthesizer converts heterogeneous build systems into the canonical
// descriptor for one project.
type Synthesizer struct {
	Paths   config.Paths
	Project config.Project
	CR      exec.CommandRunner
	FS      fs.FS
	Tools   Tools
}

// NewSynthesizer creates a synthesizer for one project.
func NewSynthesizer(paths config.Paths, project config.Project, cr exec.CommandRunner, fsys fs.FS, tools Tools) *Synthesizer {
	return &Synthesizer{Paths: paths, Project: project, CR: cr, FS: fsys, Tools: tools}
}

// Synthesize establishes the build descriptor for a checked-out workspace and
// writes the analyzer output for (bug, phase). revision keys the artifact cache.
func (s *Synthesizer) Synthesize(ctx context.Context, workspace string, bug ids.BugID, phase ids.Phase, revision string) (Descriptor, error) {
	native := filepath.Join(workspace, CanonicalBuildFile)
	if _, err := s.FS.Stat(native); err == nil {
		if err := s.analyze(ctx, workspace, bug, phase, CanonicalBuildFile); err != nil {
			return Descriptor{}, err
		}
		return Descriptor{BuildFile: native}, nil
	}

	higher := filepath.Join(workspace, HigherLevelFile)
	if _, err := s.FS.Stat(higher); err == nil {
		return s.synthesizeFromHigherLevel(ctx, workspace, bug, phase, revision)
	}

	return Descriptor{}, errors.NewWithDetails(errors.EUnsupportedBuildSystem,
		fmt.Sprintf("workspace has neither %s nor %s", CanonicalBuildFile, HigherLevelFile),
		map[string]string{
			"op":        "build.synthesize",
			"bug_id":    fmt.Sprintf("%d", bug),
			"phase":     string(phase),
			"workspace": workspace,
		})
}

// synthesizeFromHigherLevel converts pom.xml into the canonical build file,
// applies the project's conversion patch, caches the generated artifacts
// keyed by revision, analyzes the result, and resolves dependencies.
//
// The cache entry is created exclusively: artifacts are built into a partial
// directory and renamed into place, so two bugs sharing a revision cannot
// clobber each other's entry.
func (s *Synthesizer) synthesizeFromHigherLevel(ctx context.Context, workspace string, bug ids.BugID, phase ids.Phase, revision string) (Descriptor, error) {
	cacheDir := s.Paths.BuildCacheDir(revision)
	generated := filepath.Join(workspace, CanonicalBuildFile)

	cachedBuildFile := filepath.Join(cacheDir, CanonicalBuildFile)
	if _, err := s.FS.Stat(cachedBuildFile); err == nil {
		// Cache hit: reuse the previously generated build file.
		if err := copyFile(s.FS, cachedBuildFile, generated); err != nil {
			return Descriptor{}, errors.Wrap(errors.EPersistFailed, "failed to restore cached build file", err)
		}
	} else {
		if err := s.convert(ctx, workspace, bug, phase); err != nil {
			return Descriptor{}, err
		}
		if err := s.applyConversionPatch(ctx, workspace, bug); err != nil {
			return Descriptor{}, err
		}
		if err := s.populateCache(cacheDir, generated); err != nil {
			return Descriptor{}, err
		}
	}

	if err := s.analyze(ctx, workspace, bug, phase, CanonicalBuildFile); err != nil {
		return Descriptor{}, err
	}
	if err := s.resolveDeps(ctx, workspace, revision); err != nil {
		return Descriptor{}, err
	}

	return Descriptor{BuildFile: generated, Generated: true, CacheDir: cacheDir}, nil
}

// analyze runs the external analyzer, producing includes/excludes files in
// the per-bug analyzer output directory.
func (s *Synthesizer) analyze(ctx context.Context, workspace string, bug ids.BugID, phase ids.Phase, buildFileName string) error {
	outDir := s.Paths.AnalyzerDir(int(bug), string(phase))
	if err := s.FS.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to create analyzer output dir", err)
	}

	args := []string{workspace, outDir, buildFileName}
	result, err := s.CR.Run(ctx, s.Tools.Analyzer, args, exec.RunOpts{Dir: workspace})
	if err != nil {
		return errors.Wrap(errors.EAnalyzerFailed, "failed to execute build-file analyzer", err)
	}
	if result.ExitCode != 0 {
		return errors.NewWithDetails(errors.EAnalyzerFailed,
			"build-file analyzer failed: "+strings.TrimSpace(result.Stderr),
			map[string]string{
				"op":        "build.analyze",
				"bug_id":    fmt.Sprintf("%d", bug),
				"phase":     string(phase),
				"command":   s.Tools.Analyzer + " " + strings.Join(args, " "),
				"exit_code": fmt.Sprintf("%d", result.ExitCode),
			})
	}
	return nil
}

// convert invokes the external conversion tool to materialize build.xml.
func (s *Synthesizer) convert(ctx context.Context, workspace string, bug ids.BugID, phase ids.Phase) error {
	result, err := s.CR.Run(ctx, s.Tools.Converter, []string{workspace}, exec.RunOpts{Dir: workspace})
	if err != nil {
		return errors.Wrap(errors.EBuildConversionFailed, "failed to execute build converter", err)
	}
	if result.ExitCode != 0 {
		return errors.NewWithDetails(errors.EBuildConversionFailed,
			"build conversion failed: "+strings.TrimSpace(result.Stderr),
			map[string]string{
				"op":        "build.convert",
				"bug_id":    fmt.Sprintf("%d", bug),
				"phase":     string(phase),
				"exit_code": fmt.Sprintf("%d", result.ExitCode),
			})
	}
	if _, err := s.FS.Stat(filepath.Join(workspace, CanonicalBuildFile)); err != nil {
		return errors.New(errors.EBuildConversionFailed,
			"build converter exited 0 but produced no "+CanonicalBuildFile)
	}
	return nil
}

// applyConversionPatch applies the project's per-bug patch correcting known
// conversion defects in the generated build file. Missing patch means none.
func (s *Synthesizer) applyConversionPatch(ctx context.Context, workspace string, bug ids.BugID) error {
	if s.Project.BuildPatchDir == "" {
		return nil
	}
	patchPath := filepath.Join(s.Project.BuildPatchDir, fmt.Sprintf("%d.build.patch", bug))
	if _, err := s.FS.Stat(patchPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.EBuildConversionFailed, "failed to stat conversion patch", err)
	}

	args := []string{"-C", workspace, "apply", "--whitespace=nowarn", patchPath}
	result, err := s.CR.Run(ctx, "git", args, exec.RunOpts{})
	if err != nil {
		return errors.Wrap(errors.EGitNotInstalled, "failed to execute git apply", err)
	}
	if result.ExitCode != 0 {
		return errors.NewWithDetails(errors.EBuildConversionFailed,
			"conversion patch did not apply: "+strings.TrimSpace(result.Stderr),
			map[string]string{
				"op":     "build.patch",
				"bug_id": fmt.Sprintf("%d", bug),
				"patch":  patchPath,
			})
	}
	return nil
}

// resolveDeps runs the external dependency resolver into the revision's
// run-isolated dependency cache.
func (s *Synthesizer) resolveDeps(ctx context.Context, workspace, revision string) error {
	depDir := s.Paths.DepCacheDir(revision)
	if err := s.FS.MkdirAll(depDir, 0o755); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to create dependency cache dir", err)
	}

	args := []string{workspace, depDir}
	result, err := s.CR.Run(ctx, s.Tools.DepResolver, args, exec.RunOpts{Dir: workspace})
	if err != nil {
		return errors.Wrap(errors.EDepResolutionFailed, "failed to execute dependency resolver", err)
	}
	if result.ExitCode != 0 {
		return errors.NewWithDetails(errors.EDepResolutionFailed,
			"dependency resolution failed: "+strings.TrimSpace(result.Stderr),
			map[string]string{
				"op":        "build.deps",
				"revision":  revision,
				"cache_dir": depDir,
				"exit_code": fmt.Sprintf("%d", result.ExitCode),
			})
	}
	return nil
}

// populateCache moves the generated build file into the revision-keyed cache
// via a partial directory + rename so creation is exclusive. Losing a rename
// race means another bug populated the same revision first; that entry wins.
func (s *Synthesizer) populateCache(cacheDir, generated string) error {
	parent := filepath.Dir(cacheDir)
	if err := s.FS.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to create build cache root", err)
	}

	partial := cacheDir + ".partial"
	if err := s.FS.RemoveAll(partial); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to clear partial cache dir", err)
	}
	if err := s.FS.MkdirAll(partial, 0o755); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to create partial cache dir", err)
	}
	if err := copyFile(s.FS, generated, filepath.Join(partial, CanonicalBuildFile)); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to stage generated build file", err)
	}

	if err := s.FS.Rename(partial, cacheDir); err != nil {
		if _, statErr := s.FS.Stat(cacheDir); statErr == nil {
			_ = s.FS.RemoveAll(partial)
			return nil
		}
		return errors.Wrap(errors.EPersistFailed, "failed to commit build cache entry", err)
	}
	return nil
}

// ReadAnalyzerOutput returns the test classes listed in an analyzer output
// file (includes or excludes), one per line.
func ReadAnalyzerOutput(fsys fs.FS, path string) ([]string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var classes []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			classes = append(classes, line)
		}
	}
	return classes, nil
}

func copyFile(fsys fs.FS, src, dst string) error {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return fsys.WriteFile(dst, data, 0o644)
}
