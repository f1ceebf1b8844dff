// Package errors provides structured error handling for patrology.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Store errors (database, disk, full-text index)
//   - 3XX: Ingestion errors
//   - 4XX: Query errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStore indicates the underlying storage is unavailable or failed.
	CategoryStore Category = "STORE"
	// CategoryIngestion indicates malformed or conflicting input during indexing.
	CategoryIngestion Category = "INGESTION"
	// CategoryQuery indicates a malformed query.
	CategoryQuery Category = "QUERY"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"

	// Store errors (200-299)
	ErrCodeStoreUnavailable = "ERR_201_STORE_UNAVAILABLE"
	ErrCodeStoreIO          = "ERR_202_STORE_IO"
	ErrCodeStoreBusy        = "ERR_203_STORE_BUSY"
	ErrCodeStoreLocked      = "ERR_204_STORE_LOCKED"
	ErrCodeCorruptIndex     = "ERR_205_CORRUPT_INDEX"
	ErrCodeStoreClosed      = "ERR_206_STORE_CLOSED"

	// Ingestion errors (300-399)
	ErrCodeInvalidDocument  = "ERR_301_INVALID_DOCUMENT"
	ErrCodeDuplicateChapter = "ERR_302_DUPLICATE_CHAPTER"
	ErrCodeMalformedCorpus  = "ERR_303_MALFORMED_CORPUS"
	ErrCodeIndexFailed      = "ERR_304_INDEX_FAILED"

	// Query errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidStrategy = "ERR_402_INVALID_STRATEGY"
	ErrCodeInvalidQuery    = "ERR_403_INVALID_QUERY"
	ErrCodeQueryEmpty      = "ERR_404_QUERY_EMPTY"
	ErrCodeInvalidLimit    = "ERR_405_INVALID_LIMIT"
	ErrCodeNotFound        = "ERR_406_NOT_FOUND"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '3':
		return CategoryIngestion
	case '4':
		return CategoryQuery
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeStoreUnavailable:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStoreBusy:
		return true
	default:
		return false
	}
}
