// internal/models/vehicle.go
package models

import (
	"strings"
	"time"
)

// LossVehicle is the vehicle under appraisal.
type LossVehicle struct {
	Year            int      `json:"year"`
	Make            string   `json:"make"`
	Model           string   `json:"model"`
	Mileage         int      `json:"mileage"`
	Location        string   `json:"location"`
	Condition       string   `json:"condition,omitempty"` // defaults to "Good"
	Equipment       []string `json:"equipment,omitempty"`
	MarketValue     *float64 `json:"marketValue,omitempty"`
	SettlementValue *float64 `json:"settlementValue,omitempty"`
}

// Comparable is a market listing used as valuation evidence.
type Comparable struct {
	ID               string    `json:"id"`
	AppraisalID      string    `json:"appraisalId"`
	Source           string    `json:"source"`
	SourceURL        string    `json:"sourceUrl,omitempty"`
	DateAdded        time.Time `json:"dateAdded"`
	Year             int       `json:"year"`
	Make             string    `json:"make"`
	Model            string    `json:"model"`
	Trim             string    `json:"trim,omitempty"`
	Mileage          int       `json:"mileage"`
	Location         string    `json:"location"`
	DistanceFromLoss float64   `json:"distanceFromLoss"`
	ListPrice        float64   `json:"listPrice"`
	Condition        string    `json:"condition"`
	Equipment        []string  `json:"equipment,omitempty"`
}

// ScoredComparable carries the derived values the market value calculation weighs.
type ScoredComparable struct {
	Comparable
	QualityScore  float64 `json:"qualityScore"`
	AdjustedPrice float64 `json:"adjustedPrice"`
}

type Condition string

const (
	ConditionPoor      Condition = "Poor"
	ConditionFair      Condition = "Fair"
	ConditionGood      Condition = "Good"
	ConditionExcellent Condition = "Excellent"
)

// ParseCondition matches case-insensitively; anything unrecognised is Good.
func ParseCondition(s string) Condition {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "poor":
		return ConditionPoor
	case "fair":
		return ConditionFair
	case "excellent":
		return ConditionExcellent
	default:
		return ConditionGood
	}
}

func (c Condition) IsValid() bool {
	switch c {
	case ConditionPoor, ConditionFair, ConditionGood, ConditionExcellent:
		return true
	}
	return false
}

// FeatureKey is the case-insensitive identity of an equipment entry.
func FeatureKey(feature string) string {
	return strings.ToLower(strings.TrimSpace(feature))
}
