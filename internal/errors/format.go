// Package errors provides error formatting for bugmine CLI output.
package errors

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintOptions controls error output formatting.
type PrintOptions struct {
	// Verbose enables detailed error output with more context keys and longer values.
	Verbose bool
}

// Context key whitelist (default mode, in printing order).
var defaultContextKeys = []string{
	"op",
	"project",
	"bug_id",
	"phase",
	"revision",
	"workspace",
	"command",
	"exit_code",
	"log",
}

// Additional context keys for verbose mode.
var verboseContextKeys = []string{
	"op",
	"project",
	"bug_id",
	"phase",
	"revision",
	"buggy",
	"fixed",
	"workspace",
	"src_dir",
	"test_dir",
	"build_file",
	"cache_dir",
	"command",
	"exit_code",
	"stderr",
	"stdout",
	"log",
	"patch",
	"hint",
}

const (
	maxValueLen      = 256 // max chars for single-line context values
	maxExtraValueLen = 128 // max chars for extra section values
)

// Format formats an error for display without I/O.
// This is a pure function; it never reads files or performs network I/O.
func Format(err error, opts PrintOptions) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	me, isMine := AsMineError(err)
	if !isMine {
		// Fallback for non-MineError errors
		sb.WriteString(err.Error())
		sb.WriteString("\n")
		return sb.String()
	}

	// Line 1: error_code
	sb.WriteString("error_code: ")
	sb.WriteString(string(me.Code))
	sb.WriteString("\n")

	// Line 2: message
	sb.WriteString(me.Msg)
	sb.WriteString("\n")

	if len(me.Details) == 0 {
		return sb.String()
	}

	sb.WriteString("\n")

	contextKeys := defaultContextKeys
	if opts.Verbose {
		contextKeys = verboseContextKeys
	}

	printed := make(map[string]bool)
	for _, key := range contextKeys {
		val, ok := me.Details[key]
		if !ok || val == "" {
			continue
		}
		printed[key] = true
		sb.WriteString(fmt.Sprintf("  %s: %s\n", key, truncate(val, maxValueLen)))
	}

	// In verbose mode, print any remaining keys in a deterministic order.
	if opts.Verbose {
		var extra []string
		for key := range me.Details {
			if !printed[key] {
				extra = append(extra, key)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			sb.WriteString("\n")
			for _, key := range extra {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", key, truncate(me.Details[key], maxExtraValueLen)))
			}
		}
	}

	return sb.String()
}

// PrintWithOptions writes a formatted error to w.
func PrintWithOptions(w io.Writer, err error, opts PrintOptions) {
	if err == nil {
		return
	}
	_, _ = io.WriteString(w, Format(err, opts))
}

// truncate trims s to at most n characters, appending an ellipsis marker when cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
