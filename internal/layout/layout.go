// Package layout detects the source/test directory convention of a
// checked-out workspace.
//
// Detection runs a small ordered list of predicates and returns the first
// match. It is deterministic and side-effect free, and it is re-run per
// workspace: two revisions of the same project should never diverge, but the
// pipeline verifies that instead of assuming it.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bugmine/bugmine/internal/errors"
)

// Layout is the relative source/test directory pair of a workspace.
type Layout struct {
	SrcDir  string `json:"src_dir"`
	TestDir string `json:"test_dir"`
}

// Equal reports structural equality of two layouts.
func (l Layout) Equal(other Layout) bool {
	return l.SrcDir == other.SrcDir && l.TestDir == other.TestDir
}

func (l Layout) String() string {
	return fmt.Sprintf("{src:%q test:%q}", l.SrcDir, l.TestDir)
}

// Predicate inspects a workspace root and either claims it (ok=true, with the
// detected layout) or passes.
type Predicate struct {
	Name   string
	Detect func(workspace string) (Layout, bool)
}

// builtinPredicates are the known directory conventions, most specific first.
var builtinPredicates = []Predicate{
	{Name: "maven-standard", Detect: detectMavenStandard},
	{Name: "src-test-split", Detect: detectSrcTestSplit},
	{Name: "flat-src", Detect: detectFlatSrc},
}

// Detector holds the ordered predicate list for one project.
type Detector struct {
	predicates []Predicate
}

// NewDetector builds a detector from registry predicate names. An empty list
// selects the full built-in order. Unknown names fail so a registry typo
// cannot silently shrink the predicate list.
func NewDetector(names []string) (*Detector, error) {
	if len(names) == 0 {
		return &Detector{predicates: builtinPredicates}, nil
	}
	var preds []Predicate
	for _, name := range names {
		p, ok := lookupPredicate(name)
		if !ok {
			return nil, errors.New(errors.EInvalidRegistry, fmt.Sprintf("unknown layout predicate: %q", name))
		}
		preds = append(preds, p)
	}
	return &Detector{predicates: preds}, nil
}

// Detect inspects the workspace and returns the first matching layout.
// Fails with E_UNKNOWN_LAYOUT when no predicate matches.
func (d *Detector) Detect(workspace string) (Layout, error) {
	for _, p := range d.predicates {
		if l, ok := p.Detect(workspace); ok {
			return l, nil
		}
	}
	return Layout{}, errors.NewWithDetails(errors.EUnknownLayout,
		fmt.Sprintf("no known source/test layout in %s", workspace),
		map[string]string{"workspace": workspace})
}

func lookupPredicate(name string) (Predicate, bool) {
	for _, p := range builtinPredicates {
		if p.Name == name {
			return p, true
		}
	}
	return Predicate{}, false
}

// detectMavenStandard matches the nested src/main/<lang> convention.
func detectMavenStandard(workspace string) (Layout, bool) {
	if isDir(workspace, "src/main/java") && isDir(workspace, "src/test/java") {
		return Layout{SrcDir: "src/main/java", TestDir: "src/test/java"}, true
	}
	return Layout{}, false
}

// detectSrcTestSplit matches the flat src/ + test/ pair of older trees.
func detectSrcTestSplit(workspace string) (Layout, bool) {
	if isDir(workspace, "src", "java") && isDir(workspace, "src", "test") {
		return Layout{SrcDir: "src/java", TestDir: "src/test"}, true
	}
	if isDir(workspace, "src") && isDir(workspace, "test") {
		return Layout{SrcDir: "src", TestDir: "test"}, true
	}
	return Layout{}, false
}

// detectFlatSrc matches trees where tests live beside sources under src/.
func detectFlatSrc(workspace string) (Layout, bool) {
	if isDir(workspace, "src") {
		return Layout{SrcDir: "src", TestDir: "src"}, true
	}
	return Layout{}, false
}

func isDir(workspace string, parts ...string) bool {
	p := filepath.Join(append([]string{workspace}, parts...)...)
	info, err := os.Stat(filepath.FromSlash(p))
	return err == nil && info.IsDir()
}
