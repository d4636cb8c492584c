package errors

import (
	"errors"
	"fmt"
)

// ScoutError is the structured error type for scout.
// It carries enough context to diagnose a failure without a stack trace:
// the failing mapping path for converter errors, the index name for store errors.
type ScoutError struct {
	// Code is the unique error code (e.g., "ERR_407_MARSHALL").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Store, Marshalling, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Path is the mapping path or index name the error refers to.
	Path string

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *ScoutError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s (path: %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ScoutError) Unwrap() error {
	return e.Cause
}

// Is matches by code so errors.Is(err, &ScoutError{Code: ...}) works.
func (e *ScoutError) Is(target error) bool {
	if t, ok := target.(*ScoutError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *ScoutError) WithDetail(key, value string) *ScoutError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *ScoutError) WithSuggestion(suggestion string) *ScoutError {
	e.Suggestion = suggestion
	return e
}

// WithPath sets the mapping path or index name.
func (e *ScoutError) WithPath(path string) *ScoutError {
	e.Path = path
	return e
}

// New creates a new ScoutError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *ScoutError {
	return &ScoutError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a ScoutError from an existing error.
func Wrap(code string, err error) *ScoutError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigurationError reports a bad or missing mapping or converter.
// These are raised at mapping-build time, before anything is marshalled.
func ConfigurationError(path, message string, cause error) *ScoutError {
	return New(ErrCodeMappingInvalid, message, cause).WithPath(path)
}

// UnknownConverterError reports a converter name the registry cannot resolve.
func UnknownConverterError(path, name string) *ScoutError {
	return New(ErrCodeConverterUnknown, fmt.Sprintf("no converter registered under %q", name), nil).
		WithPath(path).
		WithSuggestion("register the converter before binding the mapping")
}

// MarshallingError reports a value or shape mismatch during marshall/unmarshall.
func MarshallingError(path, message string, cause error) *ScoutError {
	return New(ErrCodeMarshall, message, cause).WithPath(path)
}

// UnmarshallingError reports a failure while rebuilding a value from a Resource.
func UnmarshallingError(path, message string, cause error) *ScoutError {
	return New(ErrCodeUnmarshall, message, cause).WithPath(path)
}

// StoreError reports an index open or replace failure for the named index.
func StoreError(name, message string, cause error) *ScoutError {
	return New(ErrCodeStoreOpen, message, cause).WithPath(name)
}

// ReplaceError reports a failed hot swap; the previous mapping stays in effect.
func ReplaceError(name, message string, cause error) *ScoutError {
	return New(ErrCodeStoreReplace, message, cause).WithPath(name)
}

// CleanupWarning reports a failure while closing a discarded handle.
func CleanupWarning(name string, cause error) *ScoutError {
	return New(ErrCodeCleanupFailed, "failed to close discarded index handle", cause).WithPath(name)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code. Returns empty string if not a ScoutError.
func GetCode(err error) string {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category. Returns empty string if not a ScoutError.
func GetCategory(err error) Category {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// GetPath extracts the mapping path or index name from the first ScoutError in the chain.
func GetPath(err error) string {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Path
	}
	return ""
}
