// internal/workers/valuation/calculate-market-value/handler_test.go
package calculatemarketvalue

import (
	"context"
	"testing"
	"time"

	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

type recordedValue struct {
	value      float64
	confidence int
}

type fakeRecorder struct {
	values []recordedValue
}

func (f *fakeRecorder) RecordMarketValue(_ context.Context, value float64, confidence int) {
	f.values = append(f.values, recordedValue{value: value, confidence: confidence})
}

func scored(id string, adjustedPrice, score float64) models.ScoredComparable {
	return models.ScoredComparable{
		Comparable:    models.Comparable{ID: id, ListPrice: adjustedPrice},
		QualityScore:  score,
		AdjustedPrice: adjustedPrice,
	}
}

func createTestInput() *Input {
	return &Input{
		AppraisalID: "A-1",
		LossVehicle: models.LossVehicle{Year: 2021, Make: "Ford", Model: "F-150", Mileage: 40000},
		ScoredComparables: []models.ScoredComparable{
			scored("a", 20000, 100),
			scored("b", 18000, 80),
			scored("c", 22000, 90),
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_WeightedMarketValue(t *testing.T) {
	recorder := &fakeRecorder{}
	h := NewHandler(createTestConfig(), recorder, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, 20074.0, output.FinalMarketValue)
	require.NotNil(t, output.CalculationBreakdown)
	assert.Equal(t, 5420000.0, output.CalculationBreakdown.TotalWeightedValue)
	assert.Equal(t, 270.0, output.CalculationBreakdown.TotalWeights)
	assert.Len(t, output.CalculationBreakdown.Steps, 5)

	assert.Equal(t, 3, output.Confidence.Factors.ComparableCount)
	assert.Equal(t, 95, output.Confidence.Level)

	require.Len(t, recorder.values, 1)
	assert.Equal(t, recordedValue{value: 20074, confidence: 95}, recorder.values[0])
}

func TestHandler_Execute_NilRecorder(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, 20074.0, output.FinalMarketValue)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		comparables  []models.ScoredComparable
		expectedCode apperrors.ErrorCode
	}{
		{
			name:         "no comparables",
			comparables:  nil,
			expectedCode: apperrors.ErrCodeNoComparables,
		},
		{
			name:         "zero total weight",
			comparables:  []models.ScoredComparable{scored("a", 20000, 0), scored("b", 21000, 0)},
			expectedCode: apperrors.ErrCodeMarketValueCalculationFailed,
		},
		{
			name:         "weights cancel out",
			comparables:  []models.ScoredComparable{scored("a", 20000, 10), scored("b", 21000, -10)},
			expectedCode: apperrors.ErrCodeMarketValueCalculationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			h := NewHandler(createTestConfig(), recorder, logger.NewTestLogger(t))

			input := createTestInput()
			input.ScoredComparables = tt.comparables

			output, err := h.Execute(context.Background(), input)

			require.Error(t, err)
			assert.Nil(t, output)
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.Empty(t, recorder.values)
		})
	}
}

func TestHandler_Execute_NoComparablesIsNotRetried(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})

	bpmnErr := apperrors.ConvertToBPMNError(apperrors.Normalize(err))
	assert.Equal(t, string(apperrors.ErrCodeNoComparables), bpmnErr.Code)
	assert.Equal(t, 0, bpmnErr.Retries)
}
