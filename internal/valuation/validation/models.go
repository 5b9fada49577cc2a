// internal/valuation/validation/models.go
package validation

import "valuation-workers/internal/models"

type ErrorKind string

const (
	ErrMissingRequiredField ErrorKind = "MISSING_REQUIRED_FIELD"
	ErrInvalidYear          ErrorKind = "INVALID_YEAR"
	ErrInvalidMileage       ErrorKind = "INVALID_MILEAGE"
	ErrInvalidPrice         ErrorKind = "INVALID_PRICE"
	ErrInvalidLocation      ErrorKind = "INVALID_LOCATION"
)

// Candidate is a comparable as entered, before it is stored. Numeric fields
// are pointers so an absent value can be told apart from zero.
type Candidate struct {
	ID               string   `json:"id,omitempty"`
	Source           string   `json:"source"`
	Year             *int     `json:"year"`
	Make             string   `json:"make"`
	Model            string   `json:"model"`
	Trim             string   `json:"trim,omitempty"`
	Mileage          *int     `json:"mileage"`
	ListPrice        *float64 `json:"listPrice"`
	Location         string   `json:"location"`
	DistanceFromLoss *float64 `json:"distanceFromLoss,omitempty"`
	Condition        string   `json:"condition"`
	Equipment        []string `json:"equipment,omitempty"`
}

// FromComparable converts a stored comparable back into a candidate.
func FromComparable(c models.Comparable) Candidate {
	year, mileage, price, distance := c.Year, c.Mileage, c.ListPrice, c.DistanceFromLoss
	return Candidate{
		ID:               c.ID,
		Source:           c.Source,
		Year:             &year,
		Make:             c.Make,
		Model:            c.Model,
		Trim:             c.Trim,
		Mileage:          &mileage,
		ListPrice:        &price,
		Location:         c.Location,
		DistanceFromLoss: &distance,
		Condition:        c.Condition,
		Equipment:        c.Equipment,
	}
}

type FieldError struct {
	Field           string    `json:"field"`
	Kind            ErrorKind `json:"error"`
	SuggestedAction string    `json:"suggestedAction"`
}

type FieldWarning struct {
	Field           string `json:"field"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggestedAction,omitempty"`
}

type Result struct {
	IsValid  bool           `json:"isValid"`
	Errors   []FieldError   `json:"errors"`
	Warnings []FieldWarning `json:"warnings"`
}

type CriticalIssue struct {
	ComparableIndex int    `json:"comparableIndex"`
	ComparableID    string `json:"comparableId,omitempty"`
	FieldError
}

type Summary struct {
	TotalComparables int             `json:"totalComparables"`
	ValidComparables int             `json:"validComparables"`
	TotalErrors      int             `json:"totalErrors"`
	CriticalIssues   []CriticalIssue `json:"criticalIssues"`
}
