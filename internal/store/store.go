// Package store persists per-bug revision metadata. Files are written
// atomically via temp file + rename so a crash never leaves a torn record.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
	"github.com/bugmine/bugmine/internal/layout"
)

// RevisionRecord is the registered metadata of one initialized revision.
// Later stages (patch export, sanity) locate the checked-out tree through it
// instead of performing a second checkout.
type RevisionRecord struct {
	Revision  string `json:"revision"`
	Workspace string `json:"workspace"`
	SrcDir    string `json:"src_dir"`
	TestDir   string `json:"test_dir"`
	BuildFile string `json:"build_file"`
	Generated bool   `json:"generated"`
	CacheDir  string `json:"cache_dir,omitempty"`
}

// PatchStats summarizes a derived patch, computed from parsing it.
type PatchStats struct {
	Files int  `json:"files"`
	Hunks int  `json:"hunks"`
	Empty bool `json:"empty"`
}

// BugMeta is the durable record for one bug, keyed by phase.
type BugMeta struct {
	SchemaVersion string                       `json:"schema_version"`
	Project       string                       `json:"project"`
	BugID         int                          `json:"bug_id"`
	UpdatedAt     string                       `json:"updated_at"` // RFC3339
	Revisions     map[ids.Phase]RevisionRecord `json:"revisions"`
	Patches       map[string]PatchStats        `json:"patches,omitempty"` // "src" | "test"
}

// Store handles persistence of bug metadata for one project.
type Store struct {
	FS    fs.FS
	Paths config.Paths
	Now   func() time.Time // injectable clock for deterministic tests
}

// NewStore creates a store for one project's data directory. A nil clock
// defaults to time.Now.
func NewStore(fsys fs.FS, paths config.Paths, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{FS: fsys, Paths: paths, Now: now}
}

// ReadMeta loads the metadata record for a bug. A missing record returns an
// empty, initialized BugMeta rather than an error.
func (s *Store) ReadMeta(bug ids.BugID) (BugMeta, error) {
	path := s.Paths.MetaPath(int(bug))
	data, err := s.FS.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.emptyMeta(bug), nil
		}
		return BugMeta{}, errors.Wrap(errors.EPersistFailed, "failed to read bug metadata", err)
	}

	var meta BugMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return BugMeta{}, errors.Wrap(errors.EPersistFailed,
			fmt.Sprintf("corrupt bug metadata: %s", path), err)
	}
	if meta.Revisions == nil {
		meta.Revisions = make(map[ids.Phase]RevisionRecord)
	}
	return meta, nil
}

// RegisterRevision records an initialized revision under its phase.
func (s *Store) RegisterRevision(bug ids.BugID, phase ids.Phase, rec RevisionRecord) error {
	meta, err := s.ReadMeta(bug)
	if err != nil {
		return err
	}
	meta.Revisions[phase] = rec
	return s.writeMeta(bug, meta)
}

// RegisterPatch records the stats of a derived patch ("src" or "test").
func (s *Store) RegisterPatch(bug ids.BugID, kind string, stats PatchStats) error {
	meta, err := s.ReadMeta(bug)
	if err != nil {
		return err
	}
	if meta.Patches == nil {
		meta.Patches = make(map[string]PatchStats)
	}
	meta.Patches[kind] = stats
	return s.writeMeta(bug, meta)
}

func (s *Store) writeMeta(bug ids.BugID, meta BugMeta) error {
	meta.UpdatedAt = s.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(errors.EInternal, "failed to marshal bug metadata", err)
	}
	data = append(data, '\n')

	if err := fs.WriteFileAtomic(s.FS, s.Paths.MetaPath(int(bug)), data, 0o644); err != nil {
		return errors.Wrap(errors.EPersistFailed, "failed to write bug metadata", err)
	}
	return nil
}

func (s *Store) emptyMeta(bug ids.BugID) BugMeta {
	return BugMeta{
		SchemaVersion: "1.0",
		Project:       s.Paths.ProjectID,
		BugID:         int(bug),
		Revisions:     make(map[ids.Phase]RevisionRecord),
	}
}

// Layout returns the detected layout stored for a phase.
func (m BugMeta) Layout(phase ids.Phase) (layout.Layout, bool) {
	rec, ok := m.Revisions[phase]
	if !ok {
		return layout.Layout{}, false
	}
	return layout.Layout{SrcDir: rec.SrcDir, TestDir: rec.TestDir}, true
}
