package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotUnderPrefix is returned when a removal target is not under the allowed prefix.
type ErrNotUnderPrefix struct {
	Target string
	Prefix string
}

func (e *ErrNotUnderPrefix) Error() string {
	return fmt.Sprintf("target %q is not under allowed prefix %q", e.Target, e.Prefix)
}

// SafeRemoveAll removes a directory only if it is a proper subpath of the
// allowed prefix. Workspace and scratch cleanup goes through this guard so a
// miscomputed path can never delete a checked-out project repository or
// anything else outside the data directory.
//
// Both paths are cleaned and resolved through symlinks before comparison.
// A missing target is a successful no-op. Any resolution failure fails closed.
func SafeRemoveAll(target, allowedPrefix string) error {
	cleanTarget := filepath.Clean(target)
	cleanPrefix := filepath.Clean(allowedPrefix)

	resolvedTarget, err := filepath.EvalSymlinks(cleanTarget)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &ErrNotUnderPrefix{Target: target, Prefix: allowedPrefix}
	}

	resolvedPrefix, err := filepath.EvalSymlinks(cleanPrefix)
	if err != nil {
		return &ErrNotUnderPrefix{Target: target, Prefix: allowedPrefix}
	}

	if !IsSubpath(resolvedTarget, resolvedPrefix) {
		return &ErrNotUnderPrefix{Target: target, Prefix: allowedPrefix}
	}

	return os.RemoveAll(cleanTarget)
}

// IsSubpath returns true if target is a proper subpath of prefix.
// Both paths must already be cleaned and resolved. Equality is not a subpath.
func IsSubpath(target, prefix string) bool {
	prefixWithSep := prefix
	if !strings.HasSuffix(prefixWithSep, string(filepath.Separator)) {
		prefixWithSep = prefix + string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefixWithSep) && len(target) > len(prefix)
}
