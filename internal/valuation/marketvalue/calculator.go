// internal/valuation/marketvalue/calculator.go
package marketvalue

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"valuation-workers/internal/models"
)

var ErrNoComparables = errors.New("Cannot calculate market value with zero comparables")

const (
	PointsPerComparable   = 20
	MaxCountPoints        = 60
	MaxConfidence         = 95
	TightScoreDeviation   = 10.0
	LooseScoreDeviation   = 20.0
	TightPriceVariation   = 0.15
	LoosePriceVariation   = 0.25
	StrongConsistencyBump = 20
	WeakConsistencyBump   = 10
)

type WeightedComparable struct {
	ID            string  `json:"id"`
	ListPrice     float64 `json:"listPrice"`
	AdjustedPrice float64 `json:"adjustedPrice"`
	QualityScore  float64 `json:"qualityScore"`
	WeightedValue float64 `json:"weightedValue"`
}

type CalculationStep struct {
	Step        int     `json:"step"`
	Description string  `json:"description"`
	Calculation string  `json:"calculation"`
	Result      float64 `json:"result"`
}

type CalculationBreakdown struct {
	Comparables        []WeightedComparable `json:"comparables"`
	TotalWeightedValue float64              `json:"totalWeightedValue"`
	TotalWeights       float64              `json:"totalWeights"`
	FinalMarketValue   float64              `json:"finalMarketValue"`
	Steps              []CalculationStep    `json:"steps"`
}

type ConfidenceFactors struct {
	ComparableCount      int     `json:"comparableCount"`
	QualityScoreVariance float64 `json:"qualityScoreVariance"`
	PriceVariance        float64 `json:"priceVariance"`
}

type ConfidenceResult struct {
	Level   int               `json:"level"`
	Factors ConfidenceFactors `json:"factors"`
}

// CalculateMarketValue computes the quality-weighted average of adjusted
// prices. The loss vehicle is only referenced in the narrative.
func CalculateMarketValue(comparables []models.ScoredComparable, loss models.LossVehicle) (*CalculationBreakdown, error) {
	if len(comparables) == 0 {
		return nil, ErrNoComparables
	}

	weighted := make([]WeightedComparable, 0, len(comparables))
	var totalWeightedValue, totalWeights float64
	for _, c := range comparables {
		w := WeightedComparable{
			ID:            c.ID,
			ListPrice:     c.ListPrice,
			AdjustedPrice: c.AdjustedPrice,
			QualityScore:  c.QualityScore,
			WeightedValue: c.AdjustedPrice * c.QualityScore,
		}
		weighted = append(weighted, w)
		totalWeightedValue += w.WeightedValue
		totalWeights += w.QualityScore
	}

	average := totalWeightedValue / totalWeights

	return &CalculationBreakdown{
		Comparables:        weighted,
		TotalWeightedValue: totalWeightedValue,
		TotalWeights:       totalWeights,
		FinalMarketValue:   math.Round(average),
		Steps:              buildSteps(weighted, loss, totalWeightedValue, totalWeights, average),
	}, nil
}

func buildSteps(weighted []WeightedComparable, loss models.LossVehicle, totalWeightedValue, totalWeights, average float64) []CalculationStep {
	listed := make([]string, 0, len(weighted))
	products := make([]string, 0, len(weighted))
	values := make([]string, 0, len(weighted))
	scores := make([]string, 0, len(weighted))
	for _, w := range weighted {
		listed = append(listed, fmt.Sprintf("%s: $%.2f adjusted, score %.1f", w.ID, w.AdjustedPrice, w.QualityScore))
		products = append(products, fmt.Sprintf("$%.2f × %.1f = %.2f", w.AdjustedPrice, w.QualityScore, w.WeightedValue))
		values = append(values, fmt.Sprintf("%.2f", w.WeightedValue))
		scores = append(scores, fmt.Sprintf("%.1f", w.QualityScore))
	}

	subject := strings.TrimSpace(fmt.Sprintf("%d %s %s", loss.Year, loss.Make, loss.Model))
	return []CalculationStep{
		{
			Step:        1,
			Description: fmt.Sprintf("List %d comparable vehicles for the %s", len(weighted), subject),
			Calculation: strings.Join(listed, "; "),
			Result:      float64(len(weighted)),
		},
		{
			Step:        2,
			Description: "Multiply each adjusted price by its quality score",
			Calculation: strings.Join(products, "; "),
			Result:      totalWeightedValue,
		},
		{
			Step:        3,
			Description: "Sum the weighted values",
			Calculation: strings.Join(values, " + "),
			Result:      totalWeightedValue,
		},
		{
			Step:        4,
			Description: "Sum the quality scores",
			Calculation: strings.Join(scores, " + "),
			Result:      totalWeights,
		},
		{
			Step:        5,
			Description: "Divide total weighted value by total weights for the quality-weighted average",
			Calculation: fmt.Sprintf("%.2f ÷ %.1f = %.2f", totalWeightedValue, totalWeights, average),
			Result:      average,
		},
	}
}

func CalculateConfidenceLevel(comparables []models.ScoredComparable) ConfidenceResult {
	if len(comparables) == 0 {
		return ConfidenceResult{}
	}

	scores := make([]float64, len(comparables))
	prices := make([]float64, len(comparables))
	for i, c := range comparables {
		scores[i] = c.QualityScore
		prices[i] = c.AdjustedPrice
	}

	scoreDeviation := CalculateStandardDeviation(scores)
	priceVariation := CalculateCoefficientOfVariation(prices)

	level := min(len(comparables)*PointsPerComparable, MaxCountPoints)

	switch {
	case scoreDeviation < TightScoreDeviation:
		level += StrongConsistencyBump
	case scoreDeviation < LooseScoreDeviation:
		level += WeakConsistencyBump
	}

	switch {
	case priceVariation < TightPriceVariation:
		level += StrongConsistencyBump
	case priceVariation < LoosePriceVariation:
		level += WeakConsistencyBump
	}

	return ConfidenceResult{
		Level: min(level, MaxConfidence),
		Factors: ConfidenceFactors{
			ComparableCount:      len(comparables),
			QualityScoreVariance: scoreDeviation,
			PriceVariance:        priceVariation,
		},
	}
}

// CalculateStandardDeviation returns the population standard deviation, 0 for
// empty input.
func CalculateStandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}

// CalculateCoefficientOfVariation is stddev/mean, 0 when either is undefined.
func CalculateCoefficientOfVariation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	if m == 0 {
		return 0
	}
	return CalculateStandardDeviation(values) / m
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
