// Package ids defines bug identifiers and selection parsing.
package ids

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bugmine/bugmine/internal/errors"
)

// BugID names one tracked defect. Totally ordered; supplied externally.
type BugID int

// Phase discriminates the two revisions of a bug.
type Phase string

const (
	PhaseBuggy Phase = "buggy"
	PhaseFixed Phase = "fixed"
	// PhaseSanity is the scratch workspace used by the sanity re-checkout.
	// It is not a revision discriminator; it names a workspace slot only.
	PhaseSanity Phase = "sanity"
)

// VersionID is the checkout key: a bug plus the buggy/fixed discriminator.
type VersionID struct {
	Bug   BugID
	Phase Phase
}

func (v VersionID) String() string {
	return fmt.Sprintf("%d/%s", v.Bug, v.Phase)
}

// Selection is an inclusive range of bug identifiers.
type Selection struct {
	First BugID
	Last  BugID
}

// Contains reports whether b falls within the selection.
func (s Selection) Contains(b BugID) bool {
	return b >= s.First && b <= s.Last
}

// ParseSelection parses a bug selection argument: a single id ("7") or an
// inclusive range ("3..12"). Returns E_USAGE for anything else.
func ParseSelection(arg string) (Selection, error) {
	if arg == "" {
		return Selection{}, errors.New(errors.EUsage, "empty bug selection")
	}

	if first, last, ok := strings.Cut(arg, ".."); ok {
		lo, err := parseBugID(first)
		if err != nil {
			return Selection{}, err
		}
		hi, err := parseBugID(last)
		if err != nil {
			return Selection{}, err
		}
		if hi < lo {
			return Selection{}, errors.New(errors.EUsage,
				fmt.Sprintf("invalid bug range %q: end precedes start", arg))
		}
		return Selection{First: lo, Last: hi}, nil
	}

	id, err := parseBugID(arg)
	if err != nil {
		return Selection{}, err
	}
	return Selection{First: id, Last: id}, nil
}

func parseBugID(s string) (BugID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, errors.New(errors.EUsage, fmt.Sprintf("invalid bug identifier: %q", s))
	}
	return BugID(n), nil
}
