// internal/workers/data-access/search-comparable-listings/models.go
package searchcomparablelistings

import (
	"valuation-workers/internal/models"
	"valuation-workers/internal/workers/data-access/search-comparable-listings/queries"
)

type Input struct {
	AppraisalID string             `json:"appraisalId,omitempty"`
	LossVehicle models.LossVehicle `json:"lossVehicle"`
	Index       string             `json:"index,omitempty"`
	Criteria    Criteria           `json:"criteria"`
	Origin      *queries.GeoPoint  `json:"origin,omitempty"`
}

// Criteria overrides the configured search defaults. Nil or zero fields
// fall back to the worker configuration.
type Criteria struct {
	YearWindow     *int     `json:"yearWindow,omitempty"`
	MaxMileage     int      `json:"maxMileage,omitempty"`
	MaxDistance    float64  `json:"maxDistance,omitempty"`
	From           int      `json:"from,omitempty"`
	Size           int      `json:"size,omitempty"`
	ExcludeSources []string `json:"excludeSources,omitempty"`
}

type Output struct {
	Comparables []models.Comparable `json:"comparables"`
	TotalHits   int64               `json:"totalHits"`
	MaxScore    float64             `json:"maxScore"`
	Took        int64               `json:"took"` // milliseconds
}
