// Package report summarizes a project's mining progress from the durable
// per-bug metadata records.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bugmine/bugmine/internal/build"
	"github.com/bugmine/bugmine/internal/commitdb"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/store"
)

// BugStatus is one bug's standing in the dataset.
type BugStatus struct {
	BugID ids.BugID

	// Complete is true when both revisions are registered and both patch
	// records exist.
	Complete bool

	// MissingParts lists the pipeline artifacts that are absent.
	MissingParts []string

	// SourceEmpty is true for candidates whose source patch carried no
	// change; they are recorded but excluded from the usable dataset.
	SourceEmpty bool

	// Patches summarizes the recorded patch pair, keyed "src" and "test".
	Patches map[string]store.PatchStats

	// IncludedTests and ExcludedTests count the test classes the analyzer
	// selected for the fixed revision. Zero when no analyzer output exists.
	IncludedTests int
	ExcludedTests int
}

// requiredParts are the artifact names a complete bug record must carry.
var requiredParts = []string{
	"buggy revision",
	"fixed revision",
	"source patch",
	"test patch",
}

// ProjectReport aggregates bug statuses for one project.
type ProjectReport struct {
	Project  string
	Bugs     []BugStatus
	Complete int
	Usable   int
}

// Build reads the metadata of every bug in the commit database and assembles
// the project report. Bugs with no record yet report every part missing.
func Build(project string, db *commitdb.DB, st *store.Store) (*ProjectReport, error) {
	rep := &ProjectReport{Project: project}
	for _, bug := range db.Bugs() {
		meta, err := st.ReadMeta(bug)
		if err != nil {
			return nil, err
		}
		status := statusOf(bug, meta)
		status.IncludedTests = countAnalyzerClasses(st, bug, build.IncludesFile)
		status.ExcludedTests = countAnalyzerClasses(st, bug, build.ExcludesFile)
		if status.Complete {
			rep.Complete++
			if !status.SourceEmpty {
				rep.Usable++
			}
		}
		rep.Bugs = append(rep.Bugs, status)
	}
	return rep, nil
}

func statusOf(bug ids.BugID, meta store.BugMeta) BugStatus {
	status := BugStatus{BugID: bug, Patches: meta.Patches}

	checks := []struct {
		part string
		ok   bool
	}{
		{"buggy revision", hasRevision(meta, ids.PhaseBuggy)},
		{"fixed revision", hasRevision(meta, ids.PhaseFixed)},
		{"source patch", hasPatch(meta, "src")},
		{"test patch", hasPatch(meta, "test")},
	}
	for _, c := range checks {
		if !c.ok {
			status.MissingParts = append(status.MissingParts, c.part)
		}
	}
	status.Complete = len(status.MissingParts) == 0
	if src, ok := meta.Patches["src"]; ok {
		status.SourceEmpty = src.Empty
	}
	return status
}

func hasRevision(meta store.BugMeta, phase ids.Phase) bool {
	rec, ok := meta.Revisions[phase]
	return ok && rec.Revision != ""
}

func hasPatch(meta store.BugMeta, kind string) bool {
	_, ok := meta.Patches[kind]
	return ok
}

// countAnalyzerClasses counts the test classes in one analyzer output file
// for the bug's fixed revision. Missing output counts as zero.
func countAnalyzerClasses(st *store.Store, bug ids.BugID, name string) int {
	path := filepath.Join(st.Paths.AnalyzerDir(int(bug), string(ids.PhaseFixed)), name)
	classes, err := build.ReadAnalyzerOutput(st.FS, path)
	if err != nil {
		return 0
	}
	return len(classes)
}

// Render writes a human-readable summary, one line per bug.
func (r *ProjectReport) Render(w io.Writer) {
	fmt.Fprintf(w, "project %s: %d/%d bugs complete, %d usable\n",
		r.Project, r.Complete, len(r.Bugs), r.Usable)
	for _, b := range r.Bugs {
		switch {
		case b.Complete && b.SourceEmpty:
			fmt.Fprintf(w, "  bug %-5d complete (empty source patch, excluded)\n", b.BugID)
		case b.Complete:
			src := b.Patches["src"]
			fmt.Fprintf(w, "  bug %-5d complete (%d files, %d hunks, %d test classes)\n",
				b.BugID, src.Files, src.Hunks, b.IncludedTests)
		default:
			fmt.Fprintf(w, "  bug %-5d incomplete: missing %s\n",
				b.BugID, strings.Join(b.MissingParts, ", "))
		}
	}
}
