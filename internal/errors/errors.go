package errors

import (
	stderrors "errors"
	"fmt"
)

// PatrologyError is the structured error type for patrology.
// It provides rich context for error handling, logging, and user presentation.
type PatrologyError struct {
	// Code is the unique error code (e.g., "ERR_403_INVALID_QUERY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Store, Ingestion, Query, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

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
func (e *PatrologyError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PatrologyError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with PatrologyError.
func (e *PatrologyError) Is(target error) bool {
	if t, ok := target.(*PatrologyError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *PatrologyError) WithDetail(key, value string) *PatrologyError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *PatrologyError) WithSuggestion(suggestion string) *PatrologyError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PatrologyError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *PatrologyError {
	return &PatrologyError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a PatrologyError from an existing error.
// The error's message becomes the PatrologyError message.
func Wrap(code string, err error) *PatrologyError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *PatrologyError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StoreError creates an error for an unavailable or failing store.
func StoreError(message string, cause error) *PatrologyError {
	return New(ErrCodeStoreIO, message, cause)
}

// IngestionError creates an error for malformed or conflicting ingestion input.
func IngestionError(message string, cause error) *PatrologyError {
	return New(ErrCodeIndexFailed, message, cause)
}

// QueryError creates an error for a malformed query.
func QueryError(message string, cause error) *PatrologyError {
	return New(ErrCodeInvalidQuery, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *PatrologyError {
	return New(ErrCodeInternal, message, cause)
}

// As finds the first PatrologyError in err's chain.
func As(err error) (*PatrologyError, bool) {
	var pe *PatrologyError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if pe, ok := As(err); ok {
		return pe.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if pe, ok := As(err); ok {
		return pe.Severity == SeverityFatal
	}
	return false
}

// IsQuery reports whether err carries a query error anywhere in its chain.
func IsQuery(err error) bool {
	return GetCategory(err) == CategoryQuery
}

// IsIngestion reports whether err carries an ingestion error.
func IsIngestion(err error) bool {
	return GetCategory(err) == CategoryIngestion
}

// IsStore reports whether err carries a store error.
func IsStore(err error) bool {
	return GetCategory(err) == CategoryStore
}

// GetCode extracts the error code from a PatrologyError.
// Returns empty string if not a PatrologyError.
func GetCode(err error) string {
	if pe, ok := As(err); ok {
		return pe.Code
	}
	return ""
}

// GetCategory extracts the category from a PatrologyError.
// Returns empty string if not a PatrologyError.
func GetCategory(err error) Category {
	if pe, ok := As(err); ok {
		return pe.Category
	}
	return ""
}
