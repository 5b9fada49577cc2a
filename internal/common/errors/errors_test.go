package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name              string
		err               *StandardError
		expectedCode      string
		expectedRetries   int
		expectedRetryable bool
	}{
		{
			name:            "no comparables is a business error",
			err:             NewNoComparablesError(stderrors.New("empty")),
			expectedCode:    "NO_COMPARABLES",
			expectedRetries: 0,
		},
		{
			name:              "query failure retries",
			err:               NewQueryExecutionFailedError("loss_vehicle", stderrors.New("conn reset")),
			expectedCode:      "QUERY_EXECUTION_FAILED",
			expectedRetries:   3,
			expectedRetryable: true,
		},
		{
			name:              "search timeout retries less",
			err:               NewSearchTimeoutError("vehicle_listings"),
			expectedCode:      "SEARCH_TIMEOUT",
			expectedRetries:   2,
			expectedRetryable: true,
		},
		{
			name:            "parse errors surface as invalid input",
			err:             NewParseError(stderrors.New("unexpected EOF")),
			expectedCode:    "INVALID_INPUT",
			expectedRetries: 0,
		},
		{
			name:            "missing appraisal maps to loss vehicle not found",
			err:             NewAppraisalNotFoundError("apr-1"),
			expectedCode:    "LOSS_VEHICLE_NOT_FOUND",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)

			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)
			assert.Equal(t, tt.expectedRetryable, bpmnErr.Retryable)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_NonRetryableOverridesPolicy(t *testing.T) {
	stdErr := NewQueryExecutionFailedError("loss_vehicle", stderrors.New("boom"))
	stdErr.Retryable = false

	assert.Zero(t, ConvertToBPMNError(stdErr).Retries)
}

func TestBPMNError_ToErrorVariables(t *testing.T) {
	stdErr := NewComparableValidationFailedError("year: INVALID_YEAR").
		WithMetadata("comparableId", "comp-9")

	vars := ConvertToBPMNError(stdErr).ToErrorVariables()

	assert.Equal(t, "COMPARABLE_VALIDATION_FAILED", vars["errorCode"])
	assert.Equal(t, "year: INVALID_YEAR", vars["errorDetails"])
	assert.Equal(t, false, vars["retryable"])
	assert.Equal(t, "comp-9", vars["comparableId"])
	assert.Contains(t, vars, "timestamp")
}

func TestNormalize(t *testing.T) {
	t.Run("finds wrapped standard error", func(t *testing.T) {
		original := NewLossVehicleNotFoundError("apr-7")
		wrapped := fmt.Errorf("load appraisal: %w", original)

		assert.Same(t, original, Normalize(wrapped))
	})

	t.Run("wraps plain errors as internal", func(t *testing.T) {
		plain := stderrors.New("nil map")

		stdErr := Normalize(plain)

		assert.Equal(t, ErrCodeInternal, stdErr.Code)
		assert.Equal(t, "nil map", stdErr.Details)
		assert.ErrorIs(t, stdErr, plain)
	})
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	stdErr := NewDatabaseConnectionFailedError(cause)

	require.ErrorIs(t, stdErr, cause)
	assert.Equal(t, "StandardError[DATABASE_CONNECTION_FAILED]: Database connection error", stdErr.Error())
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeNoComparables:                "VALUATION",
		ErrCodeComparableValidationFailed:   "VALUATION",
		ErrCodeMarketValueCalculationFailed: "VALUATION",
		ErrCodeQueryTimeout:                 "DATABASE",
		ErrCodeIndexNotFound:                "SEARCH",
		ErrCodeRecipientNotFound:            "NOTIFICATION",
		ErrCodeLossVehicleNotFound:          "DATA",
		ErrCodeInvalidInput:                 "VALIDATION",
	}

	for code, expected := range tests {
		assert.Equal(t, expected, GetErrorCategory(code), string(code))
	}
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeNotificationSendFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeCacheUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidInput))
	assert.False(t, IsRetryableErrorCode(ErrCodeNoComparables))
}
