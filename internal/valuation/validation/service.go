// internal/valuation/validation/service.go
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"valuation-workers/internal/models"
)

const (
	MinYear          = 1990
	OldVehicleYears  = 20
	MaxMileage       = 500000
	HighMileage      = 200000
	MaxMilesPerYear  = 50000
	LowMileage       = 1000
	LowMileageAge    = 5
	MinPrice         = 500.0
	MaxPrice         = 500000.0
	LowPrice         = 2000.0
	HighPrice        = 100000.0
	FarDistance      = 100.0
	VeryFarDistance  = 300.0
	MinOutlierSample = 3
	OutlierPercent   = 30.0
	MaxYearDiff      = 2
	MaxMileageDiff   = 0.30
)

var locationRegex = regexp.MustCompile(`^[^,]*[^,\s][^,]*,\s*([^,]*)$`)
var stateRegex = regexp.MustCompile(`^[A-Za-z]{2}$`)

type checker struct {
	currentYear int
	errors      []FieldError
	warnings    []FieldWarning
}

func (c *checker) fail(field string, kind ErrorKind, action string) {
	c.errors = append(c.errors, FieldError{Field: field, Kind: kind, SuggestedAction: action})
}

func (c *checker) warn(field, message, action string) {
	c.warnings = append(c.warnings, FieldWarning{Field: field, Message: message, SuggestedAction: action})
}

// Validate checks a single candidate. existing and loss may be nil; the
// outlier and loss-vehicle checks are skipped without them. It never panics
// and reports every finding through the Result.
func Validate(candidate Candidate, existing []models.Comparable, loss *models.LossVehicle) Result {
	c := &checker{
		currentYear: time.Now().Year(),
		errors:      []FieldError{},
		warnings:    []FieldWarning{},
	}

	c.checkRequired(candidate)

	if candidate.Year != nil {
		c.checkYear(*candidate.Year)
	}
	if candidate.Mileage != nil {
		c.checkMileage(*candidate.Mileage, candidate.Year)
	}
	if candidate.ListPrice != nil {
		c.checkPrice(*candidate.ListPrice)
	}
	if strings.TrimSpace(candidate.Location) != "" {
		c.checkLocation(candidate.Location)
	}
	c.checkMakeModel(candidate.Make, candidate.Model)
	c.checkEquipment(candidate.Equipment)
	if candidate.DistanceFromLoss != nil {
		c.checkDistance(*candidate.DistanceFromLoss)
	}
	if candidate.ListPrice != nil && len(existing) >= MinOutlierSample {
		c.checkOutlier(*candidate.ListPrice, existing)
	}
	if loss != nil {
		c.crossValidate(candidate, *loss)
	}

	return Result{
		IsValid:  len(c.errors) == 0,
		Errors:   c.errors,
		Warnings: c.warnings,
	}
}

// ValidateMultiple validates each candidate on its own.
func ValidateMultiple(candidates []Candidate) []Result {
	results := make([]Result, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, Validate(cand, nil, nil))
	}
	return results
}

func GetValidationSummary(candidates []Candidate) Summary {
	summary := Summary{
		TotalComparables: len(candidates),
		CriticalIssues:   []CriticalIssue{},
	}
	for i, res := range ValidateMultiple(candidates) {
		if res.IsValid {
			summary.ValidComparables++
		}
		summary.TotalErrors += len(res.Errors)
		for _, fe := range res.Errors {
			summary.CriticalIssues = append(summary.CriticalIssues, CriticalIssue{
				ComparableIndex: i,
				ComparableID:    candidates[i].ID,
				FieldError:      fe,
			})
		}
	}
	return summary
}

func (c *checker) checkRequired(cand Candidate) {
	missing := func(field, action string) {
		c.fail(field, ErrMissingRequiredField, action)
	}
	if strings.TrimSpace(cand.Source) == "" {
		missing("source", "Enter the listing source (e.g. AutoTrader, Cars.com, dealer name)")
	}
	if cand.Year == nil {
		missing("year", "Enter the model year of the vehicle")
	}
	if strings.TrimSpace(cand.Make) == "" {
		missing("make", "Enter the vehicle manufacturer")
	}
	if strings.TrimSpace(cand.Model) == "" {
		missing("model", "Enter the vehicle model")
	}
	if cand.Mileage == nil {
		missing("mileage", "Enter the odometer reading in miles")
	}
	if cand.ListPrice == nil {
		missing("listPrice", "Enter the advertised list price")
	}
	if strings.TrimSpace(cand.Location) == "" {
		missing("location", "Enter the listing location in \"City, ST\" format")
	}
	if strings.TrimSpace(cand.Condition) == "" {
		missing("condition", "Select a condition: Poor, Fair, Good or Excellent")
	}
}

func (c *checker) checkYear(year int) {
	maxYear := c.currentYear + 1
	if year < MinYear || year > maxYear {
		c.fail("year", ErrInvalidYear, fmt.Sprintf("Enter a year between %d and %d", MinYear, maxYear))
		return
	}
	if c.currentYear-year > OldVehicleYears {
		c.warn("year", fmt.Sprintf("Vehicle is more than %d years old", OldVehicleYears),
			"Confirm the listing is a reasonable comparable for the loss vehicle")
	}
}

func (c *checker) checkMileage(mileage int, year *int) {
	if mileage < 0 {
		c.fail("mileage", ErrInvalidMileage, "Mileage must be positive")
		return
	}
	if mileage >= MaxMileage {
		c.fail("mileage", ErrInvalidMileage, fmt.Sprintf("Mileage must be below %d; verify the odometer reading", MaxMileage))
		return
	}
	if mileage > HighMileage {
		c.warn("mileage", "High mileage", "Verify the odometer reading")
	}
	if year == nil {
		return
	}
	age := c.currentYear - *year
	if age < 1 {
		age = 1
	}
	if mileage > MaxMilesPerYear*age {
		c.warn("mileage", "Mileage seems high for vehicle age", "Verify the odometer reading and model year")
	}
	if mileage < LowMileage && c.currentYear-*year > LowMileageAge {
		c.warn("mileage", "Very low mileage for a vehicle of this age", "Confirm the mileage is not a typo")
	}
}

func (c *checker) checkPrice(price float64) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < MinPrice || price > MaxPrice {
		c.fail("listPrice", ErrInvalidPrice, fmt.Sprintf("Enter a price between $%.0f and $%.0f", MinPrice, MaxPrice))
		return
	}
	if price < LowPrice {
		c.warn("listPrice", "Very low price", "Check whether the listing is salvage or parts only")
	} else if price > HighPrice {
		c.warn("listPrice", "High-value vehicle", "Confirm the price and trim level")
	}
}

func (c *checker) checkLocation(location string) {
	const action = "Enter the location in \"City, ST\" format (e.g. \"Austin, TX\")"
	m := locationRegex.FindStringSubmatch(strings.TrimSpace(location))
	if m == nil {
		c.fail("location", ErrInvalidLocation, action)
		return
	}
	if !stateRegex.MatchString(strings.TrimSpace(m[1])) {
		c.fail("location", ErrInvalidLocation, action)
	}
}

func (c *checker) checkMakeModel(vehicleMake, vehicleModel string) {
	vehicleMake, vehicleModel = strings.TrimSpace(vehicleMake), strings.TrimSpace(vehicleModel)
	if vehicleMake != "" {
		if !isKnownMake(vehicleMake) {
			c.warn("make", fmt.Sprintf("Unrecognized manufacturer %q", vehicleMake), "Check the spelling of the make")
		}
		if strings.IndexFunc(vehicleMake, unicode.IsDigit) >= 0 {
			c.warn("make", "Make contains digits", "Check whether the model was entered as the make")
		}
		if len(vehicleMake) < 2 {
			c.warn("make", "Make is unusually short", "")
		}
	}
	if vehicleModel != "" && len(vehicleModel) < 2 {
		c.warn("model", "Model is unusually short", "")
	}
	if vehicleMake != "" && strings.EqualFold(vehicleMake, vehicleModel) {
		c.warn("model", "Make and model are identical", "Check that the model name was entered correctly")
	}
}

func (c *checker) checkEquipment(equipment []string) {
	if len(equipment) == 0 {
		c.warn("equipment", "No equipment listed", "Add equipment from the listing to improve adjustment accuracy")
		return
	}
	seen := make(map[string]struct{}, len(equipment))
	for _, item := range equipment {
		key := models.FeatureKey(item)
		if _, dup := seen[key]; dup {
			c.warn("equipment", fmt.Sprintf("Duplicate equipment entry %q", item), "Remove the duplicate")
			continue
		}
		seen[key] = struct{}{}
	}
}

func (c *checker) checkDistance(distance float64) {
	switch {
	case distance > VeryFarDistance:
		c.warn("distanceFromLoss", fmt.Sprintf("Comparable is very far from loss vehicle (%.0f miles)", distance),
			"Look for a closer comparable if available")
	case distance > FarDistance:
		c.warn("distanceFromLoss", fmt.Sprintf("Comparable is far from loss vehicle (%.0f miles)", distance), "")
	}
}

func (c *checker) checkOutlier(price float64, existing []models.Comparable) {
	var sum float64
	for _, e := range existing {
		sum += e.ListPrice
	}
	mean := sum / float64(len(existing))
	if mean == 0 {
		return
	}
	diff := math.Abs(price-mean) / mean * 100
	if diff > OutlierPercent {
		c.warn("listPrice", fmt.Sprintf("Price differs from the average of existing comparables by %.1f%%", diff),
			"Verify the price or the comparable's equipment and condition")
	}
}

func (c *checker) crossValidate(cand Candidate, loss models.LossVehicle) {
	if cand.Year != nil && loss.Year != 0 {
		diff := *cand.Year - loss.Year
		if diff < 0 {
			diff = -diff
		}
		if diff > MaxYearDiff {
			c.warn("year", fmt.Sprintf("Year differs by %d years from loss vehicle", diff), "")
		}
	}
	if cand.Make != "" && loss.Make != "" && !strings.EqualFold(strings.TrimSpace(cand.Make), strings.TrimSpace(loss.Make)) {
		c.warn("make", fmt.Sprintf("Make %q differs from loss vehicle make %q", cand.Make, loss.Make), "")
	}
	if cand.Model != "" && loss.Model != "" && !strings.EqualFold(strings.TrimSpace(cand.Model), strings.TrimSpace(loss.Model)) {
		c.warn("model", fmt.Sprintf("Model %q differs from loss vehicle model %q", cand.Model, loss.Model), "")
	}
	if cand.Mileage != nil && loss.Mileage > 0 {
		diff := math.Abs(float64(*cand.Mileage-loss.Mileage)) / float64(loss.Mileage)
		if diff > MaxMileageDiff {
			c.warn("mileage", fmt.Sprintf("Mileage differs significantly from loss vehicle (%.0f%%)", diff*100), "")
		}
	}
}
