package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/fs"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRegistry_Valid(t *testing.T) {
	path := writeRegistry(t, `
tools:
  analyzer: /opt/tools/analyze
projects:
  - id: lang
    name: Commons Lang
    repo_dir: repos/lang
    layouts: [maven-standard]
    post_checkout_hook: disable-daemons
  - id: math
    name: Commons Math
    repo_dir: /srv/repos/math
    commit_db: dbs/math.csv
`)
	reg, err := LoadRegistry(fs.NewRealFS(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Explicit tool entries survive; unset ones take defaults.
	if reg.Tools.Analyzer != "/opt/tools/analyze" {
		t.Fatalf("analyzer = %q", reg.Tools.Analyzer)
	}
	if reg.Tools.Builder != "bugmine-build" || reg.Tools.Tester != "bugmine-test" {
		t.Fatalf("defaults not applied: %+v", reg.Tools)
	}

	lang, err := reg.Lookup("lang")
	if err != nil {
		t.Fatal(err)
	}
	if lang.Name != "Commons Lang" || lang.PostCheckoutHook != "disable-daemons" {
		t.Fatalf("unexpected project: %+v", lang)
	}

	paths := NewPaths("/data", "math")
	math, _ := reg.Lookup("math")
	if got := math.RepoPath(paths); got != "/srv/repos/math" {
		t.Fatalf("absolute repo_dir must pass through, got %q", got)
	}
	if got := math.CommitDBPath(paths); got != filepath.Join("/data", "dbs/math.csv") {
		t.Fatalf("relative commit_db resolves against data dir, got %q", got)
	}
	if got := lang.CommitDBPath(NewPaths("/data", "lang")); got != filepath.Join("/data", "projects", "lang", "commit-db.csv") {
		t.Fatalf("default commit_db location wrong: %q", got)
	}
}

func TestLoadRegistry_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		message string
	}{
		{
			name:    "empty id",
			yaml:    "projects:\n  - repo_dir: r\n",
			message: "empty id",
		},
		{
			name:    "duplicate id",
			yaml:    "projects:\n  - {id: lang, repo_dir: a}\n  - {id: lang, repo_dir: b}\n",
			message: "duplicate project id",
		},
		{
			name:    "empty repo_dir",
			yaml:    "projects:\n  - {id: lang}\n",
			message: "empty repo_dir",
		},
		{
			name:    "unknown hook",
			yaml:    "projects:\n  - {id: lang, repo_dir: r, post_checkout_hook: nope}\n",
			message: "unknown post_checkout_hook",
		},
		{
			name:    "malformed yaml",
			yaml:    "projects: [\n",
			message: "invalid yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry(fs.NewRealFS(), writeRegistry(t, tt.yaml))
			if errors.GetCode(err) != errors.EInvalidRegistry {
				t.Fatalf("expected E_INVALID_REGISTRY, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("error %q does not mention %q", err, tt.message)
			}
		})
	}
}

func TestLoadRegistry_Missing(t *testing.T) {
	_, err := LoadRegistry(fs.NewRealFS(), filepath.Join(t.TempDir(), "nope.yaml"))
	if errors.GetCode(err) != errors.EInvalidRegistry {
		t.Fatalf("expected E_INVALID_REGISTRY, got %v", err)
	}
}

func TestLookup_Unknown(t *testing.T) {
	reg := &Registry{}
	_, err := reg.Lookup("ghost")
	if errors.GetCode(err) != errors.EUnknownProject {
		t.Fatalf("expected E_UNKNOWN_PROJECT, got %v", err)
	}
}

func TestResolveHook(t *testing.T) {
	if ResolveHook("") != nil {
		t.Fatal("empty name must resolve to nil hook")
	}
	if ResolveHook("disable-daemons") == nil {
		t.Fatal("builtin hook must resolve")
	}
	if !KnownHook("pin-build-tool-urls") || KnownHook("nope") {
		t.Fatal("KnownHook misreports builtin names")
	}
}

func TestDisableDaemonsHook(t *testing.T) {
	workspace := t.TempDir()
	hook := ResolveHook("disable-daemons")

	// Missing gradle.properties: the hook creates it.
	if err := hook(context.Background(), nil, workspace); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(workspace, "gradle.properties"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "org.gradle.daemon=false") {
		t.Fatalf("daemon setting missing: %q", data)
	}

	// Existing setting is left alone.
	if err := os.WriteFile(filepath.Join(workspace, "gradle.properties"),
		[]byte("org.gradle.daemon=true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := hook(context.Background(), nil, workspace); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(filepath.Join(workspace, "gradle.properties"))
	if string(data) != "org.gradle.daemon=true\n" {
		t.Fatalf("existing daemon setting was overwritten: %q", data)
	}
}

func TestFixTestRunnerHook(t *testing.T) {
	workspace := t.TempDir()
	buildFile := filepath.Join(workspace, "build.xml")
	if err := os.WriteFile(buildFile,
		[]byte(`<java classname="junit.textui.TestRunner"/>`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ResolveHook("fix-test-runner")(context.Background(), nil, workspace); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(buildFile)
	if !strings.Contains(string(data), "org.junit.runner.JUnitCore") {
		t.Fatalf("runner not rewritten: %q", data)
	}
}
