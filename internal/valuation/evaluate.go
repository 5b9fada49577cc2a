// Package valuation ties the per-comparable calculators together. Every
// derived value is recomputed from its inputs on each call.
package valuation

import (
	"valuation-workers/internal/models"
	"valuation-workers/internal/valuation/adjustment"
	"valuation-workers/internal/valuation/quality"
)

type Evaluation struct {
	Comparable  models.Comparable           `json:"comparable"`
	Quality     quality.Breakdown           `json:"qualityScore"`
	Adjustments adjustment.PriceAdjustments `json:"adjustments"`
}

func (e Evaluation) Scored() models.ScoredComparable {
	return models.ScoredComparable{
		Comparable:    e.Comparable,
		QualityScore:  e.Quality.FinalScore,
		AdjustedPrice: e.Adjustments.AdjustedPrice,
	}
}

func Evaluate(c models.Comparable, loss models.LossVehicle, customValues map[string]float64) Evaluation {
	return Evaluation{
		Comparable:  c,
		Quality:     quality.CalculateScore(c, loss),
		Adjustments: adjustment.CalculateTotalAdjustments(c, loss, customValues),
	}
}

func EvaluateAll(comparables []models.Comparable, loss models.LossVehicle, customValues map[string]float64) []Evaluation {
	evaluations := make([]Evaluation, 0, len(comparables))
	for _, c := range comparables {
		evaluations = append(evaluations, Evaluate(c, loss, customValues))
	}
	return evaluations
}

// Scored projects evaluations onto the inputs the market value calculation needs.
func Scored(evaluations []Evaluation) []models.ScoredComparable {
	scored := make([]models.ScoredComparable, 0, len(evaluations))
	for _, e := range evaluations {
		scored = append(scored, e.Scored())
	}
	return scored
}
