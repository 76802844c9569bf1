package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events", "5.jsonl")
	l := NewLogger(path, "demo", 5)
	l.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l, path
}

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open events file: %v", err)
	}
	defer f.Close()

	var out []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("invalid event line %q: %v", scanner.Text(), err)
		}
		out = append(out, e)
	}
	return out
}

func TestAppend_CreatesFileAndAccumulates(t *testing.T) {
	l, path := newTestLogger(t)

	l.Stage("checkout")
	l.StageDone("checkout", nil)
	if err := l.Append(SanitySkipped, map[string]any{"reason": "empty source patch"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got := readEvents(t, path)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Event != StageStart || got[0].Data["stage"] != "checkout" {
		t.Errorf("unexpected first event: %+v", got[0])
	}
	if got[1].Event != StageEnd || got[1].Data["ok"] != true {
		t.Errorf("unexpected second event: %+v", got[1])
	}
	if got[2].Event != SanitySkipped || got[2].Data["reason"] != "empty source patch" {
		t.Errorf("unexpected third event: %+v", got[2])
	}
	for _, e := range got {
		if e.Project != "demo" || e.BugID != 5 {
			t.Errorf("event missing identity fields: %+v", e)
		}
		if e.Timestamp != "2026-01-02T03:04:05Z" {
			t.Errorf("unexpected timestamp: %s", e.Timestamp)
		}
	}
}

func TestStageDone_RecordsError(t *testing.T) {
	l, path := newTestLogger(t)

	l.StageDone("sanity", errors.New("E_SANITY_CHECK_FAILED: tests failed"))

	got := readEvents(t, path)
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Data["ok"] != false {
		t.Error("failed stage recorded as ok")
	}
	if got[0].Data["error"] == "" {
		t.Error("stage error not recorded")
	}
}
