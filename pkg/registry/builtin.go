// pkg/registry/builtin.go
package registry

const BuiltinVersion = "1.0.0"

var (
	lossVehicleSchema = object(
		[]string{"year", "make", "model", "mileage"},
		map[string]interface{}{
			"year":            typed("integer"),
			"make":            nonEmptyString(),
			"model":           nonEmptyString(),
			"mileage":         minNumber("integer", 0),
			"location":        typed("string"),
			"condition":       typed("string"),
			"equipment":       arrayOf(typed("string"), 0),
			"settlementValue": typed("number"),
		},
	)

	comparableSchema = object(
		[]string{"id", "year", "make", "model", "mileage", "listPrice"},
		map[string]interface{}{
			"id":               nonEmptyString(),
			"year":             typed("integer"),
			"make":             typed("string"),
			"model":            typed("string"),
			"mileage":          minNumber("integer", 0),
			"listPrice":        minNumber("number", 0),
			"distanceFromLoss": minNumber("number", 0),
			"condition":        typed("string"),
			"equipment":        arrayOf(typed("string"), 0),
		},
	)

	// Candidates are checked by the validation service, so the schema only
	// pins JSON types.
	candidateSchema = object(nil, map[string]interface{}{
		"source":           typed("string"),
		"year":             typed("integer"),
		"make":             typed("string"),
		"model":            typed("string"),
		"mileage":          typed("integer"),
		"listPrice":        typed("number"),
		"location":         typed("string"),
		"distanceFromLoss": typed("number"),
		"condition":        typed("string"),
		"equipment":        arrayOf(typed("string"), 0),
	})

	scoredComparableSchema = func() map[string]interface{} {
		props := map[string]interface{}{}
		for k, v := range comparableSchema["properties"].(map[string]interface{}) {
			props[k] = v
		}
		props["qualityScore"] = typed("number")
		props["adjustedPrice"] = typed("number")
		return object([]string{"id", "listPrice", "qualityScore", "adjustedPrice"}, props)
	}()
)

// Builtin returns the activities implemented by this module.
func Builtin() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     BuiltinVersion,
		LastUpdated: "2026-10-01T00:00:00Z",
		Activities:  []Activity{
			{
				ID:                   "validate-comparable",
				DisplayName:          "Validate Comparable",
				Description:          "Checks a candidate comparable (or a batch) for required fields, ranges and plausibility",
				Category:             "valuation",
				TaskType:             "validate-comparable",
				Version:              "1.0.0",
				ImplementationStatus: "completed",
				Workflows:            []string{"vehicle-valuation"},
				InputSchema:          object(nil, map[string]interface{}{
					"appraisalId":         typed("string"),
					"comparable":          candidateSchema,
					"comparables":         arrayOf(candidateSchema, 0),
					"existingComparables": arrayOf(comparableSchema, 0),
					"lossVehicle":         lossVehicleSchema,
					"rejectInvalid":       typed("boolean"),
				}),
				OutputSchema: object(nil, map[string]interface{}{
					"validationResult":  typed("object"),
					"validationSummary": typed("object"),
				}),
				ErrorCodes: []string{"INVALID_INPUT", "COMPARABLE_VALIDATION_FAILED"},
				Timeout:    "5s",
				Tags:       []string{"validation"},
			},
			{
				ID:                   "score-comparables",
				DisplayName:          "Score Comparables",
				Description:          "Computes quality scores and price adjustments for each comparable against the loss vehicle",
				Category:             "valuation",
				TaskType:             "score-comparables",
				Version:              "1.0.0",
				ImplementationStatus: "completed",
				Workflows:            []string{"vehicle-valuation"},
				InputSchema:          object([]string{"lossVehicle", "comparables"}, map[string]interface{}{
					"appraisalId":     typed("string"),
					"lossVehicle":     lossVehicleSchema,
					"comparables":     arrayOf(comparableSchema, 1),
					"equipmentValues": map[string]interface{}{"type": "object", "additionalProperties": minNumber("number", 0)},
				}),
				OutputSchema: object([]string{"evaluations", "scoredComparables"}, map[string]interface{}{
					"evaluations":       typed("array"),
					"scoredComparables": typed("array"),
				}),
				ErrorCodes: []string{"INVALID_INPUT", "NO_COMPARABLES"},
				Timeout:    "10s",
				Tags:       []string{"scoring", "adjustment"},
			},
			{
				ID:                   "calculate-market-value",
				DisplayName:          "Calculate Market Value",
				Description:          "Quality-weighted average of adjusted comparable prices with a confidence level",
				Category:             "valuation",
				TaskType:             "calculate-market-value",
				Version:              "1.0.0",
				ImplementationStatus: "completed",
				Workflows:            []string{"vehicle-valuation"},
				InputSchema:          object([]string{"scoredComparables"}, map[string]interface{}{
					"appraisalId":       typed("string"),
					"lossVehicle":       lossVehicleSchema,
					"scoredComparables": arrayOf(scoredComparableSchema, 0),
				}),
				OutputSchema: object([]string{"finalMarketValue", "calculationBreakdown", "confidence"}, map[string]interface{}{
					"finalMarketValue":     typed("number"),
					"calculationBreakdown": typed("object"),
					"confidence":           typed("object"),
				}),
				ErrorCodes: []string{"INVALID_INPUT", "NO_COMPARABLES", "MARKET_VALUE_CALCULATION_FAILED"},
				Timeout:    "10s",
				Tags:       []string{"market-value"},
			},
			{
				ID:                   "build-market-analysis",
				DisplayName:          "Build Market Analysis",
				Description:          "Compares the market value with the insurance settlement value of the appraisal",
				Category:             "valuation",
				TaskType:             "build-market-analysis",
				Version:              "1.0.0",
				ImplementationStatus: "completed",
				Workflows:            []string{"vehicle-valuation"},
				InputSchema:          object([]string{"appraisalId", "calculationBreakdown", "confidence"}, map[string]interface{}{
					"appraisalId":          nonEmptyString(),
					"calculationBreakdown": object([]string{"finalMarketValue"}, map[string]interface{}{"finalMarketValue": typed("number")}),
					"confidence":           object([]string{"level"}, map[string]interface{}{"level": typed("integer")}),
					"insuranceValue":       minNumber("number", 0),
				}),
				OutputSchema: object([]string{"analysisId", "marketAnalysis"}, map[string]interface{}{
					"analysisId":     typed("string"),
					"marketAnalysis": typed("object"),
				}),
				ErrorCodes: []string{"INVALID_INPUT", "APPRAISAL_NOT_FOUND", "DATABASE_CONNECTION_FAILED", "QUERY_EXECUTION_FAILED"},
				Timeout:    "10s",
				Retries:    3,
				Tags:       []string{"analysis", "cache"},
			},
			{
				ID:                   "send-valuation-notice",
				DisplayName:          "Send Valuation Notice",
				Description:          "Notifies the adjuster by email, and by SMS when urgent, of an undervalued settlement",
				Category:             "notification",
				TaskType:             "send-valuation-notice",
				Version:              "1.0.0",
				ImplementationStatus: "completed",
				Workflows:            []string{"vehicle-valuation"},
				InputSchema:          object([]string{"appraisalId", "adjusterId", "marketAnalysis"}, map[string]interface{}{
					"appraisalId":    nonEmptyString(),
					"adjusterId":     nonEmptyString(),
					"marketAnalysis": typed("object"),
					"priority":       enum("low", "normal", "high"),
				}),
				OutputSchema: object([]string{"notificationId", "status"}, map[string]interface{}{
					"notificationId": typed("string"),
					"status":         enum("sent", "failed", "skipped", "disabled"),
					"channels":       arrayOf(typed("string"), 0),
					"sentAt":         typed("string"),
				}),
				ErrorCodes: []string{"INVALID_INPUT", "RECIPIENT_NOT_FOUND", "NOTIFICATION_SEND_FAILED"},
				Timeout:    "15s",
				Retries:    3,
				Tags:       []string{"ses", "sns"},
			},
			{
				ID:                   "query-postgresql",
				DisplayName:          "Query PostgreSQL",
				Description:          "Runs a named appraisal query",
				Category:             "data-access",
				TaskType:             "query-postgresql",
				Version:              "1.0.0",
				ImplementationStatus: "completed",
				Workflows:            []string{"vehicle-valuation"},
				InputSchema:          object([]string{"queryType", "parameters"}, map[string]interface{}{
					"queryType":  enum("loss_vehicle", "appraisal_comparables", "appraisal_settlement"),
					"parameters": typed("object"),
				}),
				OutputSchema: object([]string{"data", "rowCount"}, map[string]interface{}{
					"data":               map[string]interface{}{},
					"rowCount":           typed("integer"),
					"queryExecutionTime": typed("integer"),
				}),
				ErrorCodes: []string{"INVALID_QUERY_TYPE", "INVALID_INPUT", "LOSS_VEHICLE_NOT_FOUND", "QUERY_EXECUTION_FAILED", "QUERY_TIMEOUT"},
				Timeout:    "10s",
				Retries:    3,
				Tags:       []string{"postgres"},
			},
			{
				ID:                   "search-comparable-listings",
				DisplayName:          "Search Comparable Listings",
				Description:          "Finds candidate comparables for the loss vehicle in the listings index",
				Category:             "data-access",
				TaskType:             "search-comparable-listings",
				Version:              "1.0.0",
				ImplementationStatus: "completed",
				Workflows:            []string{"vehicle-valuation"},
				InputSchema:          object([]string{"lossVehicle"}, map[string]interface{}{
					"appraisalId": typed("string"),
					"lossVehicle": lossVehicleSchema,
					"index":       typed("string"),
					"criteria":    object(nil, map[string]interface{}{
						"yearWindow":     minNumber("integer", 0),
						"maxMileage":     minNumber("integer", 0),
						"maxDistance":    minNumber("number", 0),
						"from":           minNumber("integer", 0),
						"size":           minNumber("integer", 1),
						"excludeSources": arrayOf(typed("string"), 0),
					}),
					"origin": object([]string{"lat", "lon"}, map[string]interface{}{
						"lat": typed("number"),
						"lon": typed("number"),
					}),
				}),
				OutputSchema: object([]string{"comparables", "totalHits"}, map[string]interface{}{
					"comparables": typed("array"),
					"totalHits":   typed("integer"),
					"maxScore":    typed("number"),
					"took":        typed("integer"),
				}),
				ErrorCodes: []string{"INVALID_INPUT", "INDEX_NOT_FOUND", "SEARCH_QUERY_FAILED", "SEARCH_TIMEOUT", "ELASTICSEARCH_CONNECTION_FAILED"},
				Timeout:    "10s",
				Retries:    3,
				Tags:       []string{"elasticsearch"},
			},
		},
	}
}

var builtin = Builtin()

// InputSchema returns the built-in input schema for taskType, or nil.
func InputSchema(taskType string) map[string]interface{} {
	if a, ok := builtin.FindByTaskType(taskType); ok {
		return a.InputSchema
	}
	return nil
}
