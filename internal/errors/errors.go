package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Is and As re-export the stdlib helpers so callers need a single
// errors import.
func Is(err, target error) bool       { return stderrors.Is(err, target) }
func As(err error, target any) bool   { return stderrors.As(err, target) }
func New(text string) error           { return stderrors.New(text) }
func Errorf(f string, a ...any) error { return fmt.Errorf(f, a...) }

// Error types for the remediation pipeline
type ErrorType string

const (
	// Fatal input errors - these abort the whole run
	ErrorTypeInputNotFound ErrorType = "input_not_found"
	ErrorTypeRootNotFound  ErrorType = "root_not_found"

	// Per-file, non-fatal errors
	ErrorTypeRule     ErrorType = "rule_application"
	ErrorTypeConflict ErrorType = "conflict_parse"
	ErrorTypeWrite    ErrorType = "write"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// InputNotFoundError reports a missing diagnostics report or source
// root. It is the only error class that halts a run.
type InputNotFoundError struct {
	Type       ErrorType
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewInputNotFound creates a fatal missing-input error for the
// diagnostics report file.
func NewInputNotFound(path string, err error) *InputNotFoundError {
	return &InputNotFoundError{
		Type:       ErrorTypeInputNotFound,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewRootNotFound creates a fatal missing-input error for the source
// tree root.
func NewRootNotFound(path string, err error) *InputNotFoundError {
	return &InputNotFoundError{
		Type:       ErrorTypeRootNotFound,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Path, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *InputNotFoundError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether an error should halt the run. Only the two
// missing-input classes qualify; everything else is accumulated.
func IsFatal(err error) bool {
	var nf *InputNotFoundError
	return As(err, &nf)
}

// RuleError represents one rule failing on one file. The engine logs
// it and continues with the remaining rules and files.
type RuleError struct {
	RuleID     string
	FilePath   string
	Underlying error
	Timestamp  time.Time
}

// NewRuleError creates a new rule application error
func NewRuleError(ruleID, path string, err error) *RuleError {
	return &RuleError{
		RuleID:     ruleID,
		FilePath:   path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s failed for %s: %v", e.RuleID, e.FilePath, e.Underlying)
}

// Unwrap returns the underlying error
func (e *RuleError) Unwrap() error {
	return e.Underlying
}

// ConflictParseError represents a malformed conflict marker sequence.
// The region is left untouched and counted as unresolved.
type ConflictParseError struct {
	FilePath  string
	Offset    int
	Detail    string
	Timestamp time.Time
}

// NewConflictParseError creates a new conflict parse error
func NewConflictParseError(path string, offset int, detail string) *ConflictParseError {
	return &ConflictParseError{
		FilePath:  path,
		Offset:    offset,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *ConflictParseError) Error() string {
	return fmt.Sprintf("malformed conflict markers in %s at offset %d: %s", e.FilePath, e.Offset, e.Detail)
}

// WriteError represents a failed file write. The file is skipped and
// treated as if no change occurred; partial content is never left
// behind.
type WriteError struct {
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewWriteError creates a new write error
func NewWriteError(path string, err error) *WriteError {
	return &WriteError{
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed for %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *WriteError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple accumulated errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nil entries
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
