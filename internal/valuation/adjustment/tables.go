// internal/valuation/adjustment/tables.go
package adjustment

import (
	"sort"

	"valuation-workers/internal/models"
)

const (
	MileageThreshold      = 1000
	DefaultEquipmentValue = 500.0
)

type depreciationTier struct {
	maxAge int // inclusive; -1 means no upper bound
	rate   float64
}

var depreciationTiers = []depreciationTier{
	{maxAge: 3, rate: 0.25},
	{maxAge: 7, rate: 0.15},
	{maxAge: -1, rate: 0.05},
}

// Keys are models.FeatureKey values.
var equipmentValues = map[string]float64{
	"navigation":              1000,
	"navigation system":       1000,
	"sunroof":                 800,
	"moonroof":                800,
	"panoramic roof":          1200,
	"panoramic sunroof":       1200,
	"leather seats":           1200,
	"heated seats":            500,
	"ventilated seats":        700,
	"heated steering wheel":   250,
	"backup camera":           400,
	"360 camera":              600,
	"bluetooth":               200,
	"premium audio":           700,
	"premium sound":           700,
	"alloy wheels":            600,
	"third row seating":       1500,
	"all-wheel drive":         2000,
	"awd":                     2000,
	"4wd":                     2500,
	"four-wheel drive":        2500,
	"remote start":            300,
	"keyless entry":           250,
	"push button start":       250,
	"adaptive cruise control": 900,
	"blind spot monitoring":   600,
	"lane departure warning":  500,
	"lane keep assist":        500,
	"apple carplay":           300,
	"android auto":            300,
	"tow package":             800,
	"towing package":          800,
	"running boards":          400,
	"power liftgate":          400,
}

var conditionMultipliers = map[models.Condition]float64{
	models.ConditionPoor:      0.85,
	models.ConditionFair:      0.95,
	models.ConditionGood:      1.00,
	models.ConditionExcellent: 1.05,
}

func depreciationRate(age int) float64 {
	for _, tier := range depreciationTiers {
		if tier.maxAge < 0 || age <= tier.maxAge {
			return tier.rate
		}
	}
	return depreciationTiers[len(depreciationTiers)-1].rate
}

// EquipmentValue looks a feature up in customValues first, then the built-in
// table, then falls back to DefaultEquipmentValue. Custom keys are matched
// after folding with models.FeatureKey.
func EquipmentValue(feature string, customValues map[string]float64) float64 {
	return lookupEquipmentValue(models.FeatureKey(feature), NormalizeEquipmentValues(customValues))
}

// NormalizeEquipmentValues folds keys with models.FeatureKey. When several
// keys fold to one feature, a key already in folded form wins, otherwise the
// lexically smallest key.
func NormalizeEquipmentValues(values map[string]float64) map[string]float64 {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	normalized := make(map[string]float64, len(values))
	folded := make(map[string]bool, len(values))
	for _, k := range keys {
		key := models.FeatureKey(k)
		if key == "" {
			continue
		}
		if _, ok := normalized[key]; ok && (folded[key] || k != key) {
			continue
		}
		normalized[key] = values[k]
		folded[key] = k == key
	}
	return normalized
}

// lookupEquipmentValue expects key and customValues to be folded already.
func lookupEquipmentValue(key string, customValues map[string]float64) float64 {
	if value, ok := customValues[key]; ok {
		return value
	}
	if value, ok := equipmentValues[key]; ok {
		return value
	}
	return DefaultEquipmentValue
}

func ConditionMultiplier(condition string) float64 {
	return conditionMultipliers[models.ParseCondition(condition)]
}
