package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

// ==========================
// Test Helper Functions
// ==========================

func validateDoc(t *testing.T, schema map[string]interface{}, doc string) *gojsonschema.Result {
	t.Helper()
	res, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewStringLoader(doc))
	require.NoError(t, err)
	return res
}

// ==========================
// Tests
// ==========================

func TestBuiltin_IsValid(t *testing.T) {
	reg := Builtin()
	require.NoError(t, reg.Validate())
	assert.Len(t, reg.Activities, 7)

	for _, taskType := range []string{
		"validate-comparable",
		"score-comparables",
		"calculate-market-value",
		"build-market-analysis",
		"send-valuation-notice",
		"query-postgresql",
		"search-comparable-listings",
	} {
		assert.NotNil(t, InputSchema(taskType), taskType)
	}
	assert.Nil(t, InputSchema("unknown-task"))
}

func TestInputSchema_ScoreComparables(t *testing.T) {
	schema := InputSchema("score-comparables")

	valid := `{
		"appraisalId": "A-1",
		"lossVehicle": {"year": 2020, "make": "Toyota", "model": "Camry", "mileage": 50000},
		"comparables": [{"id": "c1", "year": 2020, "make": "Toyota", "model": "Camry", "mileage": 45000, "listPrice": 24000}],
		"someOtherProcessVariable": true
	}`
	assert.True(t, validateDoc(t, schema, valid).Valid())

	noComparables := `{
		"lossVehicle": {"year": 2020, "make": "Toyota", "model": "Camry", "mileage": 50000},
		"comparables": []
	}`
	assert.False(t, validateDoc(t, schema, noComparables).Valid())

	wrongType := `{
		"lossVehicle": {"year": "2020", "make": "Toyota", "model": "Camry", "mileage": 50000},
		"comparables": [{"id": "c1", "year": 2020, "make": "Toyota", "model": "Camry", "mileage": 45000, "listPrice": 24000}]
	}`
	assert.False(t, validateDoc(t, schema, wrongType).Valid())
}

func TestInputSchema_SendValuationNoticePriority(t *testing.T) {
	schema := InputSchema("send-valuation-notice")

	doc := `{"appraisalId": "A-1", "adjusterId": "adj-1", "marketAnalysis": {}, "priority": "urgent"}`
	assert.False(t, validateDoc(t, schema, doc).Valid())

	doc = `{"appraisalId": "A-1", "adjusterId": "adj-1", "marketAnalysis": {}, "priority": "high"}`
	assert.True(t, validateDoc(t, schema, doc).Valid())
}

func TestActivityRegistry_Validate(t *testing.T) {
	base := func() *ActivityRegistry {
		return &ActivityRegistry{Activities: []Activity{{
			ID: "a", DisplayName: "A", TaskType: "a", Category: "valuation", Timeout: "5s",
		}}}
	}

	tests := []struct {
		name   string
		mutate func(r *ActivityRegistry)
		errMsg string
	}{
		{name: "valid", mutate: func(r *ActivityRegistry) {}},
		{name: "empty", mutate: func(r *ActivityRegistry) { r.Activities = nil }, errMsg: "no activities"},
		{name: "duplicate id", mutate: func(r *ActivityRegistry) {
			r.Activities = append(r.Activities, r.Activities[0])
		}, errMsg: "duplicate activity ID"},
		{name: "duplicate task type", mutate: func(r *ActivityRegistry) {
			dup := r.Activities[0]
			dup.ID = "b"
			r.Activities = append(r.Activities, dup)
		}, errMsg: "duplicate task type"},
		{name: "missing category", mutate: func(r *ActivityRegistry) { r.Activities[0].Category = "" }, errMsg: "Category"},
		{name: "bad timeout", mutate: func(r *ActivityRegistry) { r.Activities[0].Timeout = "ten seconds" }, errMsg: "invalid timeout"},
		{name: "bad schema", mutate: func(r *ActivityRegistry) {
			r.Activities[0].InputSchema = map[string]interface{}{"type": 42}
		}, errMsg: "input schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := base()
			tt.mutate(reg)
			err := reg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")

	require.NoError(t, SaveRegistry(Builtin(), path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Validate())

	a, ok := loaded.Find("calculate-market-value")
	require.True(t, ok)
	assert.Equal(t, "Calculate Market Value", a.DisplayName)
	assert.Contains(t, a.ErrorCodes, "NO_COMPARABLES")
}

func TestActivityRegistry_Upsert(t *testing.T) {
	reg := &ActivityRegistry{}
	reg.Upsert(Activity{ID: "b", TaskType: "b"})
	reg.Upsert(Activity{ID: "a", TaskType: "a"})
	reg.Upsert(Activity{ID: "b", TaskType: "b", Version: "2.0.0"})

	require.Len(t, reg.Activities, 2)
	assert.Equal(t, "a", reg.Activities[0].ID)
	assert.Equal(t, "2.0.0", reg.Activities[1].Version)
	assert.NotEmpty(t, reg.LastUpdated)
}
