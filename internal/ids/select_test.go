package ids

import (
	"testing"

	"github.com/bugmine/bugmine/internal/errors"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    Selection
		wantErr bool
	}{
		{name: "single id", arg: "5", want: Selection{First: 5, Last: 5}},
		{name: "range", arg: "3..9", want: Selection{First: 3, Last: 9}},
		{name: "range single element", arg: "4..4", want: Selection{First: 4, Last: 4}},
		{name: "whitespace tolerated", arg: "3.. 9", want: Selection{First: 3, Last: 9}},
		{name: "reversed range", arg: "9..3", wantErr: true},
		{name: "non-numeric", arg: "x", wantErr: true},
		{name: "zero id", arg: "0", wantErr: true},
		{name: "negative id", arg: "-2", wantErr: true},
		{name: "empty", arg: "", wantErr: true},
		{name: "dangling range", arg: "3..", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelection(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSelection(%q) expected error, got %+v", tt.arg, got)
				}
				if code := errors.GetCode(err); code != errors.EUsage {
					t.Errorf("expected E_USAGE, got %s", code)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSelection(%q) failed: %v", tt.arg, err)
			}
			if got != tt.want {
				t.Errorf("ParseSelection(%q) = %+v, want %+v", tt.arg, got, tt.want)
			}
		})
	}
}

func TestSelectionContains(t *testing.T) {
	s := Selection{First: 3, Last: 9}
	for _, b := range []BugID{3, 5, 9} {
		if !s.Contains(b) {
			t.Errorf("Contains(%d) = false, want true", b)
		}
	}
	for _, b := range []BugID{2, 10} {
		if s.Contains(b) {
			t.Errorf("Contains(%d) = true, want false", b)
		}
	}
}
