// internal/workers/valuation/validate-comparable/models.go
package validatecomparable

import (
	"valuation-workers/internal/models"
	"valuation-workers/internal/valuation/validation"
)

// Input carries either one candidate (Comparable) or a batch (Comparables).
// ExistingComparables and LossVehicle only apply to the single form.
type Input struct {
	AppraisalID         string                 `json:"appraisalId,omitempty"`
	Comparable          *validation.Candidate  `json:"comparable,omitempty"`
	Comparables         []validation.Candidate `json:"comparables,omitempty"`
	ExistingComparables []models.Comparable    `json:"existingComparables,omitempty"`
	LossVehicle         *models.LossVehicle    `json:"lossVehicle,omitempty"`
	RejectInvalid       bool                   `json:"rejectInvalid,omitempty"`
}

type Output struct {
	ValidationResult  *validation.Result  `json:"validationResult,omitempty"`
	ValidationSummary *validation.Summary `json:"validationSummary,omitempty"`
}
