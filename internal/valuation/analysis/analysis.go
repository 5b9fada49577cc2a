// internal/valuation/analysis/analysis.go
package analysis

import (
	"github.com/shopspring/decimal"

	"valuation-workers/internal/valuation/marketvalue"
)

// MarketAnalysis compares a computed market value against the value the
// insurer offered. Money fields are rounded to cents. Without an insurance
// value the comparison fields stay zero and IsUndervalued is false.
type MarketAnalysis struct {
	FinalMarketValue          float64                           `json:"finalMarketValue"`
	HasInsuranceValue         bool                              `json:"hasInsuranceValue"`
	InsuranceValue            float64                           `json:"insuranceValue"`
	ValueDifference           float64                           `json:"valueDifference"`
	ValueDifferencePercentage float64                           `json:"valueDifferencePercentage"`
	IsUndervalued             bool                              `json:"isUndervalued"`
	ConfidenceLevel           int                               `json:"confidenceLevel"`
	Breakdown                 *marketvalue.CalculationBreakdown `json:"calculationBreakdown"`
	Confidence                marketvalue.ConfidenceResult      `json:"confidence"`
}

var hundred = decimal.NewFromInt(100)

func Compose(breakdown *marketvalue.CalculationBreakdown, confidence marketvalue.ConfidenceResult, insuranceValue float64) MarketAnalysis {
	var market decimal.Decimal
	if breakdown != nil {
		market = decimal.NewFromFloat(breakdown.FinalMarketValue)
	}
	insurance := decimal.NewFromFloat(insuranceValue)
	diff := market.Sub(insurance)

	pct := decimal.Zero
	if !insurance.IsZero() {
		pct = diff.Div(insurance).Mul(hundred)
	}

	return MarketAnalysis{
		FinalMarketValue:          market.Round(2).InexactFloat64(),
		HasInsuranceValue:         true,
		InsuranceValue:            insurance.Round(2).InexactFloat64(),
		ValueDifference:           diff.Round(2).InexactFloat64(),
		ValueDifferencePercentage: pct.Round(2).InexactFloat64(),
		IsUndervalued:             diff.IsPositive(),
		ConfidenceLevel:           confidence.Level,
		Breakdown:                 breakdown,
		Confidence:                confidence,
	}
}

// ComposeWithoutInsurance reports the market value when no settlement has
// been offered yet.
func ComposeWithoutInsurance(breakdown *marketvalue.CalculationBreakdown, confidence marketvalue.ConfidenceResult) MarketAnalysis {
	var market decimal.Decimal
	if breakdown != nil {
		market = decimal.NewFromFloat(breakdown.FinalMarketValue)
	}
	return MarketAnalysis{
		FinalMarketValue: market.Round(2).InexactFloat64(),
		ConfidenceLevel:  confidence.Level,
		Breakdown:        breakdown,
		Confidence:       confidence,
	}
}
