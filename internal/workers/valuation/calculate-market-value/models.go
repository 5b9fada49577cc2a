// internal/workers/valuation/calculate-market-value/models.go
package calculatemarketvalue

import (
	"valuation-workers/internal/models"
	"valuation-workers/internal/valuation/marketvalue"
)

type Input struct {
	AppraisalID       string                    `json:"appraisalId,omitempty"`
	LossVehicle       models.LossVehicle        `json:"lossVehicle"`
	ScoredComparables []models.ScoredComparable `json:"scoredComparables"`
}

type Output struct {
	FinalMarketValue     float64                           `json:"finalMarketValue"`
	CalculationBreakdown *marketvalue.CalculationBreakdown `json:"calculationBreakdown"`
	Confidence           marketvalue.ConfidenceResult      `json:"confidence"`
}
