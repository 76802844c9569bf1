package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bugmine/bugmine/internal/commitdb"
	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/store"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func setup(t *testing.T) (*commitdb.DB, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "commit-db.csv")
	rows := "1,aaa1,bbb1\n2,aaa2,bbb2\n3,aaa3,bbb3\n"
	if err := os.WriteFile(dbPath, []byte(rows), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := commitdb.Load(fs.NewRealFS(), dbPath)
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewStore(fs.NewRealFS(), config.NewPaths(t.TempDir(), "demo"), fixedNow)
	return db, st
}

func registerComplete(t *testing.T, st *store.Store, bug ids.BugID, srcEmpty bool) {
	t.Helper()
	for _, phase := range []ids.Phase{ids.PhaseBuggy, ids.PhaseFixed} {
		if err := st.RegisterRevision(bug, phase, store.RevisionRecord{Revision: "r-" + string(phase)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.RegisterPatch(bug, "src", store.PatchStats{Files: 2, Hunks: 3, Empty: srcEmpty}); err != nil {
		t.Fatal(err)
	}
	if err := st.RegisterPatch(bug, "test", store.PatchStats{Empty: true}); err != nil {
		t.Fatal(err)
	}
}

func TestBuild(t *testing.T) {
	db, st := setup(t)
	registerComplete(t, st, 1, false)
	registerComplete(t, st, 2, true)
	// Bug 3: only the buggy revision was initialized before a failure.
	if err := st.RegisterRevision(3, ids.PhaseBuggy, store.RevisionRecord{Revision: "r"}); err != nil {
		t.Fatal(err)
	}

	rep, err := Build("demo", db, st)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Complete != 2 || rep.Usable != 1 {
		t.Fatalf("complete=%d usable=%d, want 2 and 1", rep.Complete, rep.Usable)
	}
	if len(rep.Bugs) != 3 {
		t.Fatalf("expected 3 bug statuses, got %d", len(rep.Bugs))
	}

	b3 := rep.Bugs[2]
	if b3.Complete {
		t.Fatal("bug 3 must be incomplete")
	}
	want := []string{"fixed revision", "source patch", "test patch"}
	if len(b3.MissingParts) != len(want) {
		t.Fatalf("missing parts = %v, want %v", b3.MissingParts, want)
	}
	for i, p := range want {
		if b3.MissingParts[i] != p {
			t.Fatalf("missing parts = %v, want %v", b3.MissingParts, want)
		}
	}
}

func TestRender(t *testing.T) {
	db, st := setup(t)
	registerComplete(t, st, 1, false)
	registerComplete(t, st, 2, true)

	// Analyzer output for bug 1's fixed revision.
	outDir := st.Paths.AnalyzerDir(1, string(ids.PhaseFixed))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "includes"),
		[]byte("org.demo.CalcTest\norg.demo.ParserTest\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := Build("demo", db, st)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	rep.Render(&buf)

	out := buf.String()
	if !strings.Contains(out, "2/3 bugs complete, 1 usable") {
		t.Fatalf("summary line wrong:\n%s", out)
	}
	if !strings.Contains(out, "bug 1") || !strings.Contains(out, "2 files, 3 hunks, 2 test classes") {
		t.Fatalf("bug 1 line wrong:\n%s", out)
	}
	if !strings.Contains(out, "empty source patch, excluded") {
		t.Fatalf("bug 2 line wrong:\n%s", out)
	}
	if !strings.Contains(out, "bug 3") || !strings.Contains(out, "incomplete") {
		t.Fatalf("bug 3 line wrong:\n%s", out)
	}
}
