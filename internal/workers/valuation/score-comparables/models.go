// internal/workers/valuation/score-comparables/models.go
package scorecomparables

import (
	"valuation-workers/internal/models"
	"valuation-workers/internal/valuation"
)

type Input struct {
	AppraisalID     string              `json:"appraisalId,omitempty"`
	LossVehicle     models.LossVehicle  `json:"lossVehicle" validate:"required"`
	Comparables     []models.Comparable `json:"comparables" validate:"required,min=1,dive"`
	EquipmentValues map[string]float64  `json:"equipmentValues,omitempty" validate:"omitempty,dive,gte=0"`
}

type Output struct {
	Evaluations       []valuation.Evaluation    `json:"evaluations"`
	ScoredComparables []models.ScoredComparable `json:"scoredComparables"`
}
