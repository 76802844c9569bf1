// Package events provides per-bug pipeline event logging.
// Events are stored in append-only JSONL files, one file per bug.
package events

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Event represents a single line in a bug's events.jsonl.
// This is the public contract for the events file format.
type Event struct {
	SchemaVersion string         `json:"schema_version"`
	Timestamp     string         `json:"timestamp"` // RFC3339
	Project       string         `json:"project"`
	BugID         int            `json:"bug_id"`
	Event         string         `json:"event"`
	Data          map[string]any `json:"data,omitempty"`
}

// Event names emitted by the pipeline.
const (
	StageStart    = "stage_start"
	StageEnd      = "stage_end"
	SanitySkipped = "sanity_skipped"
	BugDone       = "bug_done"
	BugFailed     = "bug_failed"
)

// Logger appends events for one bug. Best-effort: append failures are
// returned but callers typically ignore them and continue.
type Logger struct {
	Path    string
	Project string
	BugID   int
	Now     func() time.Time
}

// NewLogger creates an event logger writing to path.
func NewLogger(path, project string, bugID int) *Logger {
	return &Logger{Path: path, Project: project, BugID: bugID, Now: time.Now}
}

// Append writes one event line.
func (l *Logger) Append(event string, data map[string]any) error {
	e := Event{
		SchemaVersion: "1.0",
		Timestamp:     l.Now().UTC().Format(time.RFC3339),
		Project:       l.Project,
		BugID:         l.BugID,
		Event:         event,
		Data:          data,
	}
	return appendLine(l.Path, e)
}

// Stage emits a stage_start event for name.
func (l *Logger) Stage(name string) {
	_ = l.Append(StageStart, map[string]any{"stage": name})
}

// StageDone emits a stage_end event with the stage outcome.
func (l *Logger) StageDone(name string, err error) {
	data := map[string]any{"stage": name, "ok": err == nil}
	if err != nil {
		data["error"] = err.Error()
	}
	_ = l.Append(StageEnd, data)
}

func appendLine(path string, e Event) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = f.Write(data)
	return err
}
