// Package commitdb reads the append-only commit database: one line per bug
// mapping the bug identifier to its buggy and fixed revision references.
//
// Format: "bugID,buggyRef,fixedRef" per line. Blank lines and lines starting
// with '#' are ignored. The file is owned by project configuration and is
// strictly read-only at pipeline time.
package commitdb

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bugmine/bugmine/internal/errors"
	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/ids"
)

// Pair is the two revision references recorded for one bug.
type Pair struct {
	Buggy string
	Fixed string
}

// DB is an in-memory, read-only view of one project's commit database.
type DB struct {
	entries map[ids.BugID]Pair
	order   []ids.BugID
}

// Load reads and validates the commit database at path.
//
// Validation is strict: a malformed row, a duplicate bug id, or a row whose
// buggy and fixed references are equal is E_COMMIT_DB_CORRUPT. A missing file
// is E_COMMIT_DB_NOT_FOUND.
func Load(fsys fs.FS, path string) (*DB, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ECommitDBNotFound, fmt.Sprintf("commit database not found: %s", path))
		}
		return nil, errors.Wrap(errors.ECommitDBNotFound, "failed to read commit database", err)
	}

	db := &DB{entries: make(map[ids.BugID]Pair)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			return nil, corrupt(path, lineNo, "expected 3 fields")
		}

		n, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil || n <= 0 {
			return nil, corrupt(path, lineNo, "invalid bug id "+fields[0])
		}
		bug := ids.BugID(n)

		buggy := strings.TrimSpace(fields[1])
		fixed := strings.TrimSpace(fields[2])
		if buggy == "" || fixed == "" {
			return nil, corrupt(path, lineNo, "empty revision reference")
		}
		if buggy == fixed {
			return nil, corrupt(path, lineNo, "buggy and fixed revisions are identical")
		}
		if _, dup := db.entries[bug]; dup {
			return nil, corrupt(path, lineNo, fmt.Sprintf("duplicate entry for bug %d", bug))
		}

		db.entries[bug] = Pair{Buggy: buggy, Fixed: fixed}
		db.order = append(db.order, bug)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ECommitDBCorrupt, "failed to scan commit database", err)
	}

	return db, nil
}

// Lookup returns the revision pair for bug, or E_UNKNOWN_REVISION if absent.
func (db *DB) Lookup(bug ids.BugID) (Pair, error) {
	pair, ok := db.entries[bug]
	if !ok {
		return Pair{}, errors.New(errors.EUnknownRevision, fmt.Sprintf("bug %d not in commit database", bug))
	}
	return pair, nil
}

// Resolve returns the single revision reference for a version id.
func (db *DB) Resolve(v ids.VersionID) (string, error) {
	pair, err := db.Lookup(v.Bug)
	if err != nil {
		return "", err
	}
	switch v.Phase {
	case ids.PhaseBuggy:
		return pair.Buggy, nil
	case ids.PhaseFixed, ids.PhaseSanity:
		return pair.Fixed, nil
	default:
		return "", errors.New(errors.EInternal, fmt.Sprintf("unknown phase %q", v.Phase))
	}
}

// Bugs returns all bug ids in ascending order, independent of file order.
func (db *DB) Bugs() []ids.BugID {
	out := make([]ids.BugID, len(db.order))
	copy(out, db.order)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func corrupt(path string, line int, msg string) error {
	return errors.NewWithDetails(errors.ECommitDBCorrupt,
		fmt.Sprintf("commit database %s line %d: %s", path, line, msg),
		map[string]string{"op": "commitdb.load"})
}
