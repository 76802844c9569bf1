package store

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/layout"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	paths := config.NewPaths(t.TempDir(), "demo")
	return NewStore(fs.NewRealFS(), paths, fixedNow)
}

func TestReadMeta_MissingIsEmpty(t *testing.T) {
	s := newTestStore(t)

	meta, err := s.ReadMeta(7)
	if err != nil {
		t.Fatalf("ReadMeta failed: %v", err)
	}
	if meta.BugID != 7 || meta.Project != "demo" {
		t.Errorf("unexpected empty meta: %+v", meta)
	}
	if len(meta.Revisions) != 0 {
		t.Errorf("expected no revisions, got %v", meta.Revisions)
	}
}

func TestRegisterRevision_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	rec := RevisionRecord{
		Revision:  "ref_f5",
		Workspace: "/scratch/5/fixed",
		SrcDir:    "src/main/java",
		TestDir:   "src/test/java",
		BuildFile: "/scratch/5/fixed/build.xml",
	}
	if err := s.RegisterRevision(5, ids.PhaseFixed, rec); err != nil {
		t.Fatalf("RegisterRevision failed: %v", err)
	}

	meta, err := s.ReadMeta(5)
	if err != nil {
		t.Fatalf("ReadMeta failed: %v", err)
	}
	got, ok := meta.Revisions[ids.PhaseFixed]
	if !ok {
		t.Fatal("fixed revision not registered")
	}
	if got != rec {
		t.Errorf("got %+v, want %+v", got, rec)
	}
	if meta.UpdatedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected timestamp: %s", meta.UpdatedAt)
	}

	l, ok := meta.Layout(ids.PhaseFixed)
	if !ok || !l.Equal(layout.Layout{SrcDir: "src/main/java", TestDir: "src/test/java"}) {
		t.Errorf("unexpected layout: %v", l)
	}
}

func TestRegisterRevision_PreservesOtherPhase(t *testing.T) {
	s := newTestStore(t)

	if err := s.RegisterRevision(5, ids.PhaseBuggy, RevisionRecord{Revision: "ref_b5"}); err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterRevision(5, ids.PhaseFixed, RevisionRecord{Revision: "ref_f5"}); err != nil {
		t.Fatal(err)
	}

	meta, err := s.ReadMeta(5)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Revisions[ids.PhaseBuggy].Revision != "ref_b5" {
		t.Error("buggy revision lost after registering fixed")
	}
	if meta.Revisions[ids.PhaseFixed].Revision != "ref_f5" {
		t.Error("fixed revision missing")
	}
}

func TestRegisterPatch(t *testing.T) {
	s := newTestStore(t)

	if err := s.RegisterPatch(9, "src", PatchStats{Empty: true}); err != nil {
		t.Fatalf("RegisterPatch failed: %v", err)
	}
	if err := s.RegisterPatch(9, "test", PatchStats{Files: 1, Hunks: 2}); err != nil {
		t.Fatalf("RegisterPatch failed: %v", err)
	}

	meta, err := s.ReadMeta(9)
	if err != nil {
		t.Fatal(err)
	}
	if !meta.Patches["src"].Empty {
		t.Error("src patch not recorded as empty")
	}
	if meta.Patches["test"].Hunks != 2 {
		t.Errorf("test patch stats lost: %+v", meta.Patches["test"])
	}
}

func TestReadMeta_Corrupt(t *testing.T) {
	s := newTestStore(t)
	path := s.Paths.MetaPath(3)
	if err := os.MkdirAll(s.Paths.MetaDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.ReadMeta(3)
	if err == nil || !strings.Contains(err.Error(), "corrupt") {
		t.Errorf("expected corrupt metadata error, got %v", err)
	}
}
