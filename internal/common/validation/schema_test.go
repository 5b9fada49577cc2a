package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"appraisalId", "lossVehicle"},
		"properties": map[string]interface{}{
			"appraisalId": map[string]interface{}{"type": "string", "minLength": 1},
			"lossVehicle": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"year", "mileage"},
				"properties": map[string]interface{}{
					"year":    map[string]interface{}{"type": "integer"},
					"mileage": map[string]interface{}{"type": "integer", "minimum": 0},
				},
			},
			"priority": map[string]interface{}{"type": "string", "enum": []interface{}{"normal", "high"}},
		},
	}
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name          string
		document      string
		expectValid   bool
		expectedField string
		expectedCode  string
	}{
		{
			name:        "valid document",
			document:    `{"appraisalId":"apr-1","lossVehicle":{"year":2020,"mileage":42000}}`,
			expectValid: true,
		},
		{
			name:          "missing top level field",
			document:      `{"lossVehicle":{"year":2020,"mileage":42000}}`,
			expectedField: "appraisalId",
			expectedCode:  "REQUIRED_FIELD_MISSING",
		},
		{
			name:          "missing nested field",
			document:      `{"appraisalId":"apr-1","lossVehicle":{"year":2020}}`,
			expectedField: "lossVehicle.mileage",
			expectedCode:  "REQUIRED_FIELD_MISSING",
		},
		{
			name:          "wrong type",
			document:      `{"appraisalId":"apr-1","lossVehicle":{"year":"2020","mileage":42000}}`,
			expectedField: "lossVehicle.year",
			expectedCode:  "INVALID_TYPE",
		},
		{
			name:          "negative mileage",
			document:      `{"appraisalId":"apr-1","lossVehicle":{"year":2020,"mileage":-5}}`,
			expectedField: "lossVehicle.mileage",
			expectedCode:  "MINIMUM_VIOLATION",
		},
		{
			name:          "enum violation",
			document:      `{"appraisalId":"apr-1","lossVehicle":{"year":2020,"mileage":1},"priority":"urgent"}`,
			expectedField: "priority",
			expectedCode:  "INVALID_ENUM_VALUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateJSON(testSchema(), tt.document)
			require.NoError(t, err)

			assert.Equal(t, tt.expectValid, result.Valid)
			if tt.expectValid {
				assert.Empty(t, result.Errors)
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.expectedField, result.Errors[0].Field)
			assert.Equal(t, tt.expectedCode, result.Errors[0].Code)
			assert.Contains(t, result.Summary(), tt.expectedField)
		})
	}
}

func TestValidateJSON_EmptySchemaAcceptsAnything(t *testing.T) {
	result, err := ValidateJSON(nil, `{"anything":true}`)

	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateJSON_MalformedDocument(t *testing.T) {
	_, err := ValidateJSON(testSchema(), `{"appraisalId":`)

	assert.Error(t, err)
}

type testInput struct {
	AppraisalID string      `json:"appraisalId" validate:"required"`
	Threshold   float64     `json:"threshold" validate:"gte=0,lte=100"`
	Priority    string      `json:"priority,omitempty" validate:"omitempty,oneof=normal high"`
	Vehicle     testVehicle `json:"lossVehicle"`
}

type testVehicle struct {
	Year int `json:"year" validate:"required,min=1900"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name          string
		input         testInput
		expectValid   bool
		expectedField string
		expectedCode  string
	}{
		{
			name:        "valid",
			input:       testInput{AppraisalID: "apr-1", Threshold: 10, Vehicle: testVehicle{Year: 2020}},
			expectValid: true,
		},
		{
			name:          "missing id",
			input:         testInput{Threshold: 10, Vehicle: testVehicle{Year: 2020}},
			expectedField: "appraisalId",
			expectedCode:  "REQUIRED_FIELD_MISSING",
		},
		{
			name:          "threshold out of range",
			input:         testInput{AppraisalID: "apr-1", Threshold: 150, Vehicle: testVehicle{Year: 2020}},
			expectedField: "threshold",
			expectedCode:  "MAXIMUM_VIOLATION",
		},
		{
			name:          "bad priority",
			input:         testInput{AppraisalID: "apr-1", Priority: "urgent", Vehicle: testVehicle{Year: 2020}},
			expectedField: "priority",
			expectedCode:  "INVALID_ENUM_VALUE",
		},
		{
			name:          "nested field uses json path",
			input:         testInput{AppraisalID: "apr-1", Vehicle: testVehicle{Year: 1850}},
			expectedField: "lossVehicle.year",
			expectedCode:  "MINIMUM_VIOLATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateStruct(tt.input)

			assert.Equal(t, tt.expectValid, result.Valid)
			if tt.expectValid {
				return
			}
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.expectedField, result.Errors[0].Field)
			assert.Equal(t, tt.expectedCode, result.Errors[0].Code)
		})
	}
}
