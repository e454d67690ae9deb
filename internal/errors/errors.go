// Package errors provides structured error types for sstsweep.
// All errors include a category, code, message, and the offending file so
// the run driver can apply one abort policy across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryDecode     ErrorCategory = "DECODE"
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategorySpace      ErrorCategory = "SPACE"
	ErrCategoryReclaim    ErrorCategory = "RECLAIM"
	ErrCategoryArchive    ErrorCategory = "ARCHIVE"
	ErrCategoryAudit      ErrorCategory = "AUDIT"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Decode codes
	CodeTruncatedInput        = "TRUNCATED_INPUT"
	CodeMissingStatsComponent = "MISSING_STATS_COMPONENT"
	CodeUnsupportedFormat     = "UNSUPPORTED_FORMAT"
	CodeNegativeSkip          = "NEGATIVE_SKIP"

	// Validation codes
	CodeSanityViolation = "SANITY_VIOLATION"

	// Space codes
	CodeInconsistentComponentSet = "INCONSISTENT_COMPONENT_SET"

	// Reclaim codes
	CodeLinkFailed    = "LINK_FAILED"
	CodeUnlinkFailed  = "UNLINK_FAILED"
	CodeEngineRunning = "ENGINE_RUNNING"

	// Archive codes
	CodeUploadFailed = "UPLOAD_FAILED"

	// Audit codes
	CodeJournalFailed = "JOURNAL_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// SweepError is the structured error type used throughout the system.
// Every SweepError is fatal for the run: the tool makes a
// destructive-adjacent safety decision, so there is no recoverable tier.
type SweepError struct {
	Category ErrorCategory
	Code     string
	Message  string
	// File names the offending sstable component, when one exists.
	File  string
	Cause error
}

// Error returns a formatted error string.
func (e *SweepError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = fmt.Sprintf("%s (file: %s)", msg, e.File)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *SweepError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *SweepError) Is(target error) bool {
	var t *SweepError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new SweepError.
func New(category ErrorCategory, code, message string) *SweepError {
	return &SweepError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new SweepError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *SweepError {
	return &SweepError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// WithFile returns a copy of the error naming the offending component
// file. The original error is not modified.
func (e *SweepError) WithFile(file string) *SweepError {
	dup := *e
	dup.File = file
	return &dup
}

// TruncatedInput creates a decode error for a read past the end of a
// metadata buffer.
func TruncatedInput(message string) *SweepError {
	return New(ErrCategoryDecode, CodeTruncatedInput, message)
}

// MissingStatsComponent creates a decode error for a statistics file whose
// directory has no Stats entry. The decoder attaches the filename.
func MissingStatsComponent() *SweepError {
	return New(ErrCategoryDecode, CodeMissingStatsComponent, "statistics file has no Stats component")
}

// UnsupportedFormat creates a decode error for an unrecognized format tag.
func UnsupportedFormat(file string, cause error) *SweepError {
	return Wrap(ErrCategoryDecode, CodeUnsupportedFormat, "unsupported sstable format", cause).WithFile(file)
}

// SanityViolation creates a validation error naming the failing field and
// the violated bound.
func SanityViolation(file, field, bound string) *SweepError {
	return New(ErrCategoryValidation, CodeSanityViolation,
		fmt.Sprintf("bad metadata: %s %s", field, bound)).WithFile(file)
}

// InconsistentComponentSet creates a space-accounting error for a missing
// mandatory component.
func InconsistentComponentSet(file string, cause error) *SweepError {
	return Wrap(ErrCategorySpace, CodeInconsistentComponentSet, "mandatory sstable component missing", cause).WithFile(file)
}

// IsCode reports whether err carries the given structured code.
func IsCode(err error, code string) bool {
	var se *SweepError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
