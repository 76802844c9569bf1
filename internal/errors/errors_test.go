package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(EUnknownRevision, "bug 42 not in commit database")
	if err.Error() != "E_UNKNOWN_REVISION: bug 42 not in commit database" {
		t.Fatalf("unexpected format: %q", err.Error())
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain error", stderrors.New("boom"), ""},
		{"direct", New(ECheckoutFailed, "x"), ECheckoutFailed},
		{"wrapped cause", Wrap(EPersistFailed, "x", stderrors.New("disk full")), EPersistFailed},
		{"fmt-wrapped", fmt.Errorf("outer: %w", New(EUsage, "x")), EUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Fatalf("GetCode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(ECheckoutFailed, "clone failed", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped cause must survive errors.Is")
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Fatalf("nil = %d, want 0", got)
	}
	if got := ExitCode(New(EUsage, "bad flag")); got != 2 {
		t.Fatalf("usage = %d, want 2", got)
	}
	if got := ExitCode(New(ESanityCheckFailed, "tests failed")); got != 1 {
		t.Fatalf("failure = %d, want 1", got)
	}
	if got := ExitCode(stderrors.New("plain")); got != 1 {
		t.Fatalf("plain = %d, want 1", got)
	}
}

func TestDetailsCopied(t *testing.T) {
	details := map[string]string{"bug_id": "5"}
	err := NewWithDetails(ELayoutMismatch, "layouts differ", details)
	details["bug_id"] = "mutated"

	me, ok := AsMineError(err)
	if !ok {
		t.Fatal("expected MineError")
	}
	if me.Details["bug_id"] != "5" {
		t.Fatal("details must be defensively copied")
	}
}

func TestPrintWithOptions(t *testing.T) {
	err := NewWithDetails(ESanityCheckFailed, "test step failed",
		map[string]string{"bug_id": "5", "exit_code": "3", "stderr": "assertion blew up"})

	var quiet bytes.Buffer
	PrintWithOptions(&quiet, err, PrintOptions{})
	out := quiet.String()
	if !strings.Contains(out, "error_code: E_SANITY_CHECK_FAILED") {
		t.Fatalf("missing code line:\n%s", out)
	}
	if !strings.Contains(out, "exit_code: 3") {
		t.Fatalf("default context keys missing:\n%s", out)
	}
	if strings.Contains(out, "assertion blew up") {
		t.Fatalf("stderr detail must be verbose-only:\n%s", out)
	}

	var verbose bytes.Buffer
	PrintWithOptions(&verbose, err, PrintOptions{Verbose: true})
	if !strings.Contains(verbose.String(), "assertion blew up") {
		t.Fatalf("verbose output missing stderr detail:\n%s", verbose.String())
	}
}
