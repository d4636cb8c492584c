package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoutError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("disk gone")

	// When: wrapping it as a store error
	err := StoreError("articles", "open index", originalErr)

	// Then: unwrapping returns the original error
	require.NotNil(t, err)
	assert.Equal(t, originalErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, originalErr))
}

func TestScoutError_Error_IncludesPath(t *testing.T) {
	tests := []struct {
		name     string
		err      *ScoutError
		expected string
	}{
		{
			name:     "marshalling error with path",
			err:      MarshallingError("tags", "expected a collection", nil),
			expected: "[ERR_407_MARSHALL] expected a collection (path: tags)",
		},
		{
			name:     "plain error without path",
			err:      New(ErrCodeInternal, "boom", nil),
			expected: "[ERR_501_INTERNAL] boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestScoutError_Is_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("binding article: %w", UnknownConverterError("title", "money"))

	assert.True(t, errors.Is(err, &ScoutError{Code: ErrCodeConverterUnknown}))
	assert.False(t, errors.Is(err, &ScoutError{Code: ErrCodeMarshall}))
}

func TestConstructors_DeriveCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name      string
		err       *ScoutError
		category  Category
		severity  Severity
		retryable bool
	}{
		{"configuration", ConfigurationError("id", "identifier must be stored", nil), CategoryConfig, SeverityFatal, false},
		{"unknown converter", UnknownConverterError("id", "x"), CategoryConfig, SeverityFatal, false},
		{"marshalling", MarshallingError("tags", "bad", nil), CategoryMarshalling, SeverityError, false},
		{"unmarshalling", UnmarshallingError("tags", "bad", nil), CategoryMarshalling, SeverityError, false},
		{"store", StoreError("idx", "open", nil), CategoryStore, SeverityError, true},
		{"replace", ReplaceError("idx", "swap", nil), CategoryStore, SeverityError, true},
		{"cleanup", CleanupWarning("idx", nil), CategoryStore, SeverityWarning, false},
		{"validation", New(ErrCodeInvalidInput, "bad", nil), CategoryValidation, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.severity, tt.err.Severity)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
		})
	}
}

func TestGetPath_FindsWrappedScoutError(t *testing.T) {
	err := fmt.Errorf("marshall article: %w", MarshallingError("author.name", "not a string", nil))

	assert.Equal(t, "author.name", GetPath(err))
	assert.Equal(t, ErrCodeMarshall, GetCode(err))
	assert.Equal(t, CategoryMarshalling, GetCategory(err))
	assert.Equal(t, "", GetPath(errors.New("plain")))
}

func TestIsFatal_OnlyForConfigurationErrors(t *testing.T) {
	assert.True(t, IsFatal(ConfigurationError("id", "bad", nil)))
	assert.False(t, IsFatal(StoreError("idx", "open", nil)))
	assert.False(t, IsFatal(nil))
}

func TestFormatForCLI_ShowsPathHintAndCode(t *testing.T) {
	out := FormatForCLI(UnknownConverterError("price", "money"))

	assert.Contains(t, out, "Error: no converter registered under \"money\"")
	assert.Contains(t, out, "Path: price")
	assert.Contains(t, out, "Hint: register the converter")
	assert.Contains(t, out, "Code: ERR_105_CONVERTER_UNKNOWN")
}

func TestFormatForCLI_WrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(errors.New("plain failure"))
	assert.Contains(t, out, "plain failure")
	assert.Contains(t, out, ErrCodeInternal)
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestLogAttrs_IncludesDetails(t *testing.T) {
	err := StoreError("idx", "open", errors.New("io")).WithDetail("ref", "idx-2")

	attrs := LogAttrs(err)
	keys := make(map[string]string, len(attrs))
	for _, a := range attrs {
		keys[a.Key] = a.Value.String()
	}

	assert.Equal(t, ErrCodeStoreOpen, keys["error_code"])
	assert.Equal(t, "idx", keys["path"])
	assert.Equal(t, "io", keys["cause"])
	assert.Equal(t, "idx-2", keys["detail_ref"])
}

func TestRetry_RetriesRetryableErrors(t *testing.T) {
	// Given: a function failing twice with a retryable error
	attempts := 0
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	// When: retrying
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return StoreError("idx", "busy", nil)
		}
		return nil
	})

	// Then: it eventually succeeds
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return MarshallingError("id", "bad", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, ErrCodeMarshall, GetCode(err))
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return StoreError("idx", "busy", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "failed after 2 retries")
	assert.True(t, IsRetryable(err))
}

func TestRetry_HonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryConfig(), func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
