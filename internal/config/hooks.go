package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bugmine/bugmine/internal/exec"
)

// Hook is a post-checkout capability run synchronously after a workspace has
// been materialized and before the checkout returns. Projects opt into one by
// name in the registry; a hook failure fails the checkout.
type Hook func(ctx context.Context, cr exec.CommandRunner, workspace string) error

// builtinHooks maps registry hook names to implementations.
var builtinHooks = map[string]Hook{
	"pin-build-tool-urls": pinBuildToolURLs,
	"disable-daemons":     disableDaemons,
	"fix-test-runner":     fixTestRunner,
}

// KnownHook reports whether name is a registered hook.
func KnownHook(name string) bool {
	_, ok := builtinHooks[name]
	return ok
}

// ResolveHook returns the hook for name, or nil for the empty name.
// Callers must have validated the name via the registry loader.
func ResolveHook(name string) Hook {
	if name == "" {
		return nil
	}
	return builtinHooks[name]
}

// pinBuildToolURLs rewrites wrapper properties so build-tool distributions
// resolve from archive mirrors instead of dead vendor URLs. Old revisions of
// long-lived projects routinely reference distributions that no longer exist.
func pinBuildToolURLs(_ context.Context, _ exec.CommandRunner, workspace string) error {
	props := filepath.Join(workspace, "gradle", "wrapper", "gradle-wrapper.properties")
	data, err := os.ReadFile(props)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	patched := strings.ReplaceAll(string(data),
		"http\\://services.gradle.org", "https\\://services.gradle.org")
	return os.WriteFile(props, []byte(patched), 0o644)
}

// disableDaemons forces build-tool daemons off so every build invocation is
// hermetic and exits with the build.
func disableDaemons(_ context.Context, _ exec.CommandRunner, workspace string) error {
	props := filepath.Join(workspace, "gradle.properties")
	line := "org.gradle.daemon=false\n"
	data, err := os.ReadFile(props)
	if err != nil {
		if os.IsNotExist(err) {
			return os.WriteFile(props, []byte(line), 0o644)
		}
		return err
	}
	if strings.Contains(string(data), "org.gradle.daemon=") {
		return nil
	}
	out := strings.TrimRight(string(data), "\n") + "\n" + line
	return os.WriteFile(props, []byte(out), 0o644)
}

// fixTestRunner normalizes the JUnit runner declaration in legacy build files
// that reference runner classes removed in later tool versions.
func fixTestRunner(_ context.Context, _ exec.CommandRunner, workspace string) error {
	buildFile := filepath.Join(workspace, "build.xml")
	data, err := os.ReadFile(buildFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	patched := strings.ReplaceAll(string(data),
		"junit.textui.TestRunner", "org.junit.runner.JUnitCore")
	if patched == string(data) {
		return nil
	}
	return os.WriteFile(buildFile, []byte(patched), 0o644)
}
