// internal/workers/valuation/build-market-analysis/models.go
package buildmarketanalysis

import (
	"valuation-workers/internal/valuation/analysis"
	"valuation-workers/internal/valuation/marketvalue"
)

// Input takes the calculate-market-value output. When InsuranceValue is
// absent the settlement value stored on the appraisal is used.
type Input struct {
	AppraisalID          string                            `json:"appraisalId" validate:"required"`
	CalculationBreakdown *marketvalue.CalculationBreakdown `json:"calculationBreakdown" validate:"required"`
	Confidence           marketvalue.ConfidenceResult      `json:"confidence"`
	InsuranceValue       *float64                          `json:"insuranceValue,omitempty" validate:"omitempty,gte=0"`
}

type Output struct {
	AnalysisID     string                  `json:"analysisId"`
	AppraisalID    string                  `json:"appraisalId"`
	MarketAnalysis analysis.MarketAnalysis `json:"marketAnalysis"`
	InsuranceFrom  string                  `json:"insuranceValueSource"` // "input", "cache", "database", "none"
	GeneratedAt    string                  `json:"generatedAt"`
}

const (
	SourceInput    = "input"
	SourceCache    = "cache"
	SourceDatabase = "database"
	SourceNone     = "none"
)
