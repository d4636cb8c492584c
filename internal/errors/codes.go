// Package errors provides structured error handling for scout.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (mapping and converter setup)
//   - 2XX: Store errors (index open, replace, cleanup)
//   - 4XX: Validation and marshalling errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration or mapping-build errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStore indicates index storage errors.
	CategoryStore Category = "STORE"
	// CategoryMarshalling indicates value/shape mismatches during conversion.
	CategoryMarshalling Category = "MARSHALLING"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the caller can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates best-effort cleanup failed; logged, never escalated.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeMappingInvalid   = "ERR_104_MAPPING_INVALID"
	ErrCodeConverterUnknown = "ERR_105_CONVERTER_UNKNOWN"
	ErrCodeSettingMalformed = "ERR_106_SETTING_MALFORMED"

	// Store errors (200-299)
	ErrCodeStoreOpen     = "ERR_207_STORE_OPEN"
	ErrCodeStoreReplace  = "ERR_208_STORE_REPLACE"
	ErrCodeCleanupFailed = "ERR_209_CLEANUP_FAILED"
	ErrCodeStoreWrite    = "ERR_210_STORE_WRITE"

	// Validation and marshalling errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeMarshall          = "ERR_407_MARSHALL"
	ErrCodeUnmarshall        = "ERR_408_UNMARSHALL"
	ErrCodeCollectionSize    = "ERR_409_COLLECTION_SIZE"
	ErrCodeIdentifierMissing = "ERR_410_IDENTIFIER_MISSING"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '4':
		switch code {
		case ErrCodeMarshall, ErrCodeUnmarshall, ErrCodeCollectionSize, ErrCodeIdentifierMissing:
			return CategoryMarshalling
		}
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeMappingInvalid, ErrCodeConverterUnknown:
		// Mapping problems fail fast before any marshalling attempt.
		return SeverityFatal
	case ErrCodeCleanupFailed:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Store open and replace leave manager state untouched, so a retry is safe.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStoreOpen, ErrCodeStoreReplace:
		return true
	default:
		return false
	}
}
