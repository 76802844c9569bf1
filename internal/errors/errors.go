// Package errors defines the stable error code system for bugmine.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable error code string.
type Code string

// Error codes. Stable public contract consumed by downstream tooling.
const (
	EUsage    Code = "E_USAGE"
	EInternal Code = "E_INTERNAL"

	// Configuration and registry error codes
	EUnknownProject  Code = "E_UNKNOWN_PROJECT"
	EInvalidRegistry Code = "E_INVALID_REGISTRY"
	EPersistFailed   Code = "E_PERSIST_FAILED"

	// Tool/prerequisite error codes
	EGitNotInstalled Code = "E_GIT_NOT_INSTALLED"

	// Commit database error codes
	ECommitDBNotFound Code = "E_COMMIT_DB_NOT_FOUND"
	ECommitDBCorrupt  Code = "E_COMMIT_DB_CORRUPT" // malformed row or buggy == fixed
	EUnknownRevision  Code = "E_UNKNOWN_REVISION"  // bug id absent from the commit database

	// Checkout and layout error codes
	ECheckoutFailed Code = "E_CHECKOUT_FAILED" // VCS error or post-checkout hook failure
	EUnknownLayout  Code = "E_UNKNOWN_LAYOUT"  // no layout predicate matched
	ELayoutMismatch Code = "E_LAYOUT_MISMATCH" // buggy vs fixed layouts differ for one bug

	// Build descriptor error codes
	EUnsupportedBuildSystem Code = "E_UNSUPPORTED_BUILD_SYSTEM"
	EBuildConversionFailed  Code = "E_BUILD_CONVERSION_FAILED"
	EAnalyzerFailed         Code = "E_ANALYZER_FAILED"
	EDepResolutionFailed    Code = "E_DEP_RESOLUTION_FAILED"

	// Patch and sanity error codes
	EDiffExportFailed  Code = "E_DIFF_EXPORT_FAILED"
	ESanityCheckFailed Code = "E_SANITY_CHECK_FAILED" // build or test run failed on the fixed revision
)

// MineError is the standard error type for bugmine errors.
type MineError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *MineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *MineError) Unwrap() error {
	return e.Cause
}

// New creates a new MineError with the given code and message.
func New(code Code, msg string) error {
	return &MineError{Code: code, Msg: msg}
}

// NewWithDetails creates a new MineError with code, message, and details.
// Details map is defensively copied (nil if empty).
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &MineError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new MineError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &MineError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new MineError wrapping an underlying error with details.
// Details map is defensively copied (nil if empty).
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &MineError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the error code from an error, or empty string if not a MineError.
func GetCode(err error) Code {
	var me *MineError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// AsMineError returns (*MineError, true) if err is or wraps a MineError.
func AsMineError(err error) (*MineError, bool) {
	var me *MineError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// copyDetails returns a defensive copy of the details map, or nil if empty/nil.
func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitCode returns the appropriate exit code for an error.
// Returns 0 if err is nil, 2 for E_USAGE, 1 for all other errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if GetCode(err) == EUsage {
		return 2
	}
	return 1
}
