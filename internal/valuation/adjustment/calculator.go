// internal/valuation/adjustment/calculator.go
package adjustment

import (
	"fmt"
	"time"

	"valuation-workers/internal/models"
)

type EquipmentAdjustmentType string

const (
	EquipmentMissing EquipmentAdjustmentType = "missing"
	EquipmentExtra   EquipmentAdjustmentType = "extra"
)

type MileageAdjustment struct {
	MileageDifference int     `json:"mileageDifference"`
	DepreciationRate  float64 `json:"depreciationRate"`
	AdjustmentAmount  float64 `json:"adjustmentAmount"`
	Explanation       string  `json:"explanation"`
}

type EquipmentAdjustment struct {
	Feature     string                  `json:"feature"`
	Type        EquipmentAdjustmentType `json:"type"`
	Value       float64                 `json:"value"`
	Explanation string                  `json:"explanation"`
}

// SignedValue is the amount this adjustment contributes to the total.
func (e EquipmentAdjustment) SignedValue() float64 {
	if e.Type == EquipmentExtra {
		return -e.Value
	}
	return e.Value
}

type ConditionAdjustment struct {
	ComparableCondition  string  `json:"comparableCondition"`
	LossVehicleCondition string  `json:"lossVehicleCondition"`
	Multiplier           float64 `json:"multiplier"`
	AdjustmentAmount     float64 `json:"adjustmentAmount"`
	Explanation          string  `json:"explanation"`
}

// PriceAdjustments always satisfies AdjustedPrice == list price + TotalAdjustment.
type PriceAdjustments struct {
	MileageAdjustment    MileageAdjustment     `json:"mileageAdjustment"`
	EquipmentAdjustments []EquipmentAdjustment `json:"equipmentAdjustments"`
	ConditionAdjustment  ConditionAdjustment   `json:"conditionAdjustment"`
	TotalAdjustment      float64               `json:"totalAdjustment"`
	AdjustedPrice        float64               `json:"adjustedPrice"`
}

func CalculateMileageAdjustment(c models.Comparable, loss models.LossVehicle) MileageAdjustment {
	diff := c.Mileage - loss.Mileage
	abs := diff
	if abs < 0 {
		abs = -abs
	}

	if abs < MileageThreshold {
		return MileageAdjustment{
			MileageDifference: diff,
			Explanation: fmt.Sprintf("Mileage difference of %d miles is under the %d-mile threshold; no adjustment",
				abs, MileageThreshold),
		}
	}

	age := time.Now().Year() - c.Year
	rate := depreciationRate(age)
	amount := -float64(diff) * rate

	direction := "higher"
	if diff < 0 {
		direction = "lower"
	}
	return MileageAdjustment{
		MileageDifference: diff,
		DepreciationRate:  rate,
		AdjustmentAmount:  amount,
		Explanation: fmt.Sprintf("Comparable mileage is %d miles %s than loss vehicle; at $%.2f/mile for a %d-year-old vehicle the adjustment is %s",
			abs, direction, rate, max(age, 0), formatSigned(amount)),
	}
}

// CalculateEquipmentAdjustments compares equipment case-insensitively. Loss
// features absent from the comparable are "missing"; comparable features
// absent from the loss vehicle are "extra".
func CalculateEquipmentAdjustments(c models.Comparable, loss models.LossVehicle, customValues map[string]float64) []EquipmentAdjustment {
	lossKeys := keySet(loss.Equipment)
	compKeys := keySet(c.Equipment)
	values := NormalizeEquipmentValues(customValues)
	adjustments := []EquipmentAdjustment{}

	seen := map[string]struct{}{}
	for _, feature := range loss.Equipment {
		key := models.FeatureKey(feature)
		if _, dup := seen[key]; dup || key == "" {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := compKeys[key]; ok {
			continue
		}
		value := lookupEquipmentValue(key, values)
		adjustments = append(adjustments, EquipmentAdjustment{
			Feature:     feature,
			Type:        EquipmentMissing,
			Value:       value,
			Explanation: fmt.Sprintf("Comparable is missing %s (+$%.2f)", feature, value),
		})
	}

	seen = map[string]struct{}{}
	for _, feature := range c.Equipment {
		key := models.FeatureKey(feature)
		if _, dup := seen[key]; dup || key == "" {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := lossKeys[key]; ok {
			continue
		}
		value := lookupEquipmentValue(key, values)
		adjustments = append(adjustments, EquipmentAdjustment{
			Feature:     feature,
			Type:        EquipmentExtra,
			Value:       value,
			Explanation: fmt.Sprintf("Comparable has extra %s not on loss vehicle (-$%.2f)", feature, value),
		})
	}

	return adjustments
}

// CalculateConditionAdjustment restates the comparable's price on the loss
// vehicle's condition basis.
func CalculateConditionAdjustment(c models.Comparable, lossVehicleCondition string) ConditionAdjustment {
	compCondition := models.ParseCondition(c.Condition)
	lossCondition := models.ParseCondition(lossVehicleCondition)
	compMult := conditionMultipliers[compCondition]
	lossMult := conditionMultipliers[lossCondition]

	amount := c.ListPrice/compMult*lossMult - c.ListPrice

	var explanation string
	switch {
	case compCondition == lossCondition:
		explanation = fmt.Sprintf("Both vehicles are in %s condition; no adjustment", compCondition)
	case compMult > lossMult:
		explanation = fmt.Sprintf("Comparable is in better condition (%s vs %s); adjusted %s", compCondition, lossCondition, formatSigned(amount))
	default:
		explanation = fmt.Sprintf("Comparable is in worse condition (%s vs %s); adjusted %s", compCondition, lossCondition, formatSigned(amount))
	}

	return ConditionAdjustment{
		ComparableCondition:  string(compCondition),
		LossVehicleCondition: string(lossCondition),
		Multiplier:           lossMult / compMult,
		AdjustmentAmount:     amount,
		Explanation:          explanation,
	}
}

func CalculateTotalAdjustments(c models.Comparable, loss models.LossVehicle, customValues map[string]float64) PriceAdjustments {
	lossCondition := loss.Condition
	if lossCondition == "" {
		lossCondition = string(models.ConditionGood)
	}

	mileage := CalculateMileageAdjustment(c, loss)
	equipment := CalculateEquipmentAdjustments(c, loss, customValues)
	condition := CalculateConditionAdjustment(c, lossCondition)

	total := mileage.AdjustmentAmount + condition.AdjustmentAmount
	for _, e := range equipment {
		total += e.SignedValue()
	}

	return PriceAdjustments{
		MileageAdjustment:    mileage,
		EquipmentAdjustments: equipment,
		ConditionAdjustment:  condition,
		TotalAdjustment:      total,
		AdjustedPrice:        c.ListPrice + total,
	}
}

func keySet(features []string) map[string]struct{} {
	set := make(map[string]struct{}, len(features))
	for _, f := range features {
		set[models.FeatureKey(f)] = struct{}{}
	}
	return set
}

func formatSigned(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-$%.2f", -amount)
	}
	return fmt.Sprintf("+$%.2f", amount)
}
