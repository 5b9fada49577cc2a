// internal/workers/data-access/query-postgresql/handler_test.go
package querypostgresql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createValidInput(queryType models.QueryType) *Input {
	return &Input{
		QueryType:  string(queryType),
		Parameters: map[string]interface{}{"appraisalId": "A-1"},
	}
}

const (
	lossVehiclePattern = `SELECT loss_year, (.+) FROM appraisals WHERE id = \$1`
	comparablesPattern = `SELECT id, appraisal_id, (.+) FROM comparables WHERE appraisal_id = \$1 ORDER BY date_added`
	settlementPattern  = `SELECT id, adjuster_id, (.+) FROM appraisals WHERE id = \$1`
)

func lossVehicleColumns() []string {
	return []string{
		"loss_year", "loss_make", "loss_model", "loss_mileage", "loss_location",
		"loss_condition", "loss_equipment", "market_value", "settlement_value",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		queryType      models.QueryType
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:      "loss vehicle",
			queryType: models.QueryTypeLossVehicle,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(lossVehicleColumns()).AddRow(
					2020, "Toyota", "Camry", 50000, "Austin, TX",
					"Good", "{Navigation,Sunroof}", nil, 18500.0,
				)
				mock.ExpectQuery(lossVehiclePattern).WithArgs("A-1").WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				v := output.Data.(models.LossVehicle)
				assert.Equal(t, 2020, v.Year)
				assert.Equal(t, "Camry", v.Model)
				assert.Equal(t, []string{"Navigation", "Sunroof"}, v.Equipment)
				assert.Nil(t, v.MarketValue)
				require.NotNil(t, v.SettlementValue)
				assert.Equal(t, 18500.0, *v.SettlementValue)
			},
		},
		{
			name:      "appraisal comparables",
			queryType: models.QueryTypeAppraisalComparables,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "appraisal_id", "source", "source_url", "date_added", "year", "make", "model",
					"trim", "mileage", "location", "distance_from_loss", "list_price", "condition", "equipment",
				}).AddRow(
					"comp-1", "A-1", "AutoTrader", "https://example.com/1", added, 2020, "Toyota", "Camry",
					"SE", 45000, "Round Rock, TX", 18.5, 24000.0, "Good", "{Navigation}",
				).AddRow(
					"comp-2", "A-1", "Dealer", nil, added, 2019, "Toyota", "Camry",
					nil, 61000, "San Marcos, TX", 31.0, 21500.0, "Fair", "{}",
				)
				mock.ExpectQuery(comparablesPattern).WithArgs("A-1").WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)
				comps := output.Data.([]models.Comparable)
				require.Len(t, comps, 2)
				assert.Equal(t, "comp-1", comps[0].ID)
				assert.Equal(t, "SE", comps[0].Trim)
				assert.Equal(t, added, comps[0].DateAdded)
				assert.Equal(t, []string{"Navigation"}, comps[0].Equipment)
				assert.Empty(t, comps[1].SourceURL)
				assert.Empty(t, comps[1].Equipment)
				assert.Equal(t, 21500.0, comps[1].ListPrice)
			},
		},
		{
			name:      "no comparables yet",
			queryType: models.QueryTypeAppraisalComparables,
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(comparablesPattern).WithArgs("A-1").
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Zero(t, output.RowCount)
				assert.Equal(t, []models.Comparable{}, output.Data)
			},
		},
		{
			name:      "appraisal settlement",
			queryType: models.QueryTypeAppraisalSettlement,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "adjuster_id", "status", "market_value", "settlement_value", "updated_at",
				}).AddRow("A-1", "ADJ-7", "open", 20074.0, 18500.0, "2024-03-02T10:00:00Z")
				mock.ExpectQuery(settlementPattern).WithArgs("A-1").WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				data := output.Data.(map[string]interface{})
				assert.Equal(t, "ADJ-7", data["adjusterId"])
				assert.Equal(t, 18500.0, *data["settlementValue"].(*float64))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mockQuery(mock)
			handler := NewHandler(createTestConfig(), db, createTestLogger(t))

			output, err := handler.Execute(context.Background(), createValidInput(tt.queryType))

			require.NoError(t, err)
			require.NotNil(t, output)
			assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))
			tt.validateOutput(t, output)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		mockQuery    func(mock sqlmock.Sqlmock)
		expectedCode apperrors.ErrorCode
	}{
		{
			name:         "unknown query type",
			input:        &Input{QueryType: "vehicle_history", Parameters: map[string]interface{}{}},
			expectedCode: apperrors.ErrCodeInvalidQueryType,
		},
		{
			name:         "missing appraisal id",
			input:        &Input{QueryType: string(models.QueryTypeLossVehicle)},
			expectedCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:  "loss vehicle not found",
			input: createValidInput(models.QueryTypeLossVehicle),
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(lossVehiclePattern).WithArgs("A-1").
					WillReturnRows(sqlmock.NewRows(lossVehicleColumns()))
			},
			expectedCode: apperrors.ErrCodeLossVehicleNotFound,
		},
		{
			name:  "settlement for unknown appraisal",
			input: createValidInput(models.QueryTypeAppraisalSettlement),
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(settlementPattern).WithArgs("A-1").WillReturnError(sql.ErrNoRows)
			},
			expectedCode: apperrors.ErrCodeAppraisalNotFound,
		},
		{
			name:  "query failure",
			input: createValidInput(models.QueryTypeAppraisalComparables),
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(comparablesPattern).WithArgs("A-1").
					WillReturnError(errors.New("connection refused"))
			},
			expectedCode: apperrors.ErrCodeQueryExecutionFailed,
		},
		{
			name:  "query timeout",
			input: createValidInput(models.QueryTypeAppraisalComparables),
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(comparablesPattern).WithArgs("A-1").
					WillReturnError(context.DeadlineExceeded)
			},
			expectedCode: apperrors.ErrCodeQueryTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			if tt.mockQuery != nil {
				tt.mockQuery(mock)
			}
			handler := NewHandler(createTestConfig(), db, createTestLogger(t))

			output, err := handler.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.Nil(t, output)
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_NilInput(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	output, err := NewHandler(createTestConfig(), db, createTestLogger(t)).Execute(context.Background(), nil)

	assert.Nil(t, output)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
}

// ==========================
// Benchmark Tests
// ==========================

func BenchmarkHandler_Execute_LossVehicle(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < b.N; i++ {
		mock.ExpectQuery(lossVehiclePattern).WithArgs("A-1").WillReturnRows(
			sqlmock.NewRows(lossVehicleColumns()).AddRow(
				2020, "Toyota", "Camry", 50000, "Austin, TX", "Good", "{}", nil, nil,
			))
	}
	handler := NewHandler(createTestConfig(), db, logger.NewNoOpLogger())
	input := createValidInput(models.QueryTypeLossVehicle)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := handler.Execute(context.Background(), input); err != nil {
			b.Fatal(err)
		}
	}
}
