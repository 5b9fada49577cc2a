// internal/valuation/quality/calculator.go
package quality

import (
	"fmt"
	"math"

	"valuation-workers/internal/models"
)

const (
	BaseScore = 100.0

	LocalRadiusMiles    = 100.0
	MilesPerPenaltyPt   = 10.0
	MaxDistancePenalty  = 20.0
	SameYearBonus       = 5.0
	AgePenaltyPerYear   = 2.0
	MaxAgePenalty       = 10.0
	MileageBandPercent  = 20.0
	MileageBonus        = 5.0
	PercentPerMileagePt = 5.0
	MaxMileagePenalty   = 15.0
	MaxEquipmentBonus   = 10.0
	MissingFeaturePts   = 2.5
	ExtraFeaturePts     = 0.5
	MaxEquipmentPenalty = 15.0
)

type Explanations struct {
	Distance  string `json:"distance"`
	Age       string `json:"age"`
	Mileage   string `json:"mileage"`
	Equipment string `json:"equipment"`
}

// Breakdown holds non-negative penalty and bonus magnitudes. FinalScore is
// not clamped and can exceed BaseScore.
type Breakdown struct {
	BaseScore        float64      `json:"baseScore"`
	DistancePenalty  float64      `json:"distancePenalty"`
	AgePenalty       float64      `json:"agePenalty"`
	AgeBonus         float64      `json:"ageBonus"`
	MileagePenalty   float64      `json:"mileagePenalty"`
	MileageBonus     float64      `json:"mileageBonus"`
	EquipmentPenalty float64      `json:"equipmentPenalty"`
	EquipmentBonus   float64      `json:"equipmentBonus"`
	FinalScore       float64      `json:"finalScore"`
	Explanations     Explanations `json:"explanations"`
}

// CalculateScore rates how closely a comparable matches the loss vehicle.
func CalculateScore(c models.Comparable, loss models.LossVehicle) Breakdown {
	b := Breakdown{BaseScore: BaseScore}

	b.DistancePenalty, b.Explanations.Distance = calculateDistanceFit(c.DistanceFromLoss)
	b.AgePenalty, b.AgeBonus, b.Explanations.Age = calculateAgeFit(c.Year, loss.Year)
	b.MileagePenalty, b.MileageBonus, b.Explanations.Mileage = calculateMileageFit(c.Mileage, loss.Mileage)
	b.EquipmentPenalty, b.EquipmentBonus, b.Explanations.Equipment = calculateEquipmentFit(c.Equipment, loss.Equipment)

	b.FinalScore = b.BaseScore -
		(b.DistancePenalty + b.AgePenalty + b.MileagePenalty + b.EquipmentPenalty) +
		(b.AgeBonus + b.MileageBonus + b.EquipmentBonus)

	return b
}

func calculateDistanceFit(distance float64) (float64, string) {
	if distance <= LocalRadiusMiles {
		return 0, fmt.Sprintf("%.0f miles from loss vehicle, within the %.0f-mile local market", distance, LocalRadiusMiles)
	}
	penalty := math.Min(MaxDistancePenalty, (distance-LocalRadiusMiles)/MilesPerPenaltyPt)
	return penalty, fmt.Sprintf("%.0f miles from loss vehicle, %.0f miles beyond the local market (-%.1f)",
		distance, distance-LocalRadiusMiles, penalty)
}

func calculateAgeFit(year, lossYear int) (penalty, bonus float64, explanation string) {
	diff := year - lossYear
	if diff == 0 {
		return 0, SameYearBonus, fmt.Sprintf("Same model year as loss vehicle (+%.1f)", SameYearBonus)
	}

	direction := "newer"
	if diff < 0 {
		direction = "older"
		diff = -diff
	}
	penalty = math.Min(MaxAgePenalty, float64(diff)*AgePenaltyPerYear)
	return penalty, 0, fmt.Sprintf("%d %s %s than loss vehicle (-%.1f)", diff, pluralize("year", diff), direction, penalty)
}

func calculateMileageFit(mileage, lossMileage int) (penalty, bonus float64, explanation string) {
	var pct float64
	switch {
	case lossMileage > 0:
		pct = math.Abs(float64(mileage-lossMileage)) / float64(lossMileage) * 100
	case mileage > 0:
		pct = 100
	}

	if pct <= MileageBandPercent {
		if mileage <= lossMileage {
			return 0, MileageBonus, fmt.Sprintf("%d miles, at or below loss vehicle mileage within %.0f%% (+%.1f)",
				mileage, MileageBandPercent, MileageBonus)
		}
		return 0, 0, fmt.Sprintf("%d miles, %.1f%% higher than loss vehicle, within the %.0f%% band",
			mileage, pct, MileageBandPercent)
	}

	direction := "higher"
	if mileage < lossMileage {
		direction = "lower"
	}
	penalty = math.Min(MaxMileagePenalty, (pct-MileageBandPercent)/PercentPerMileagePt)
	return penalty, 0, fmt.Sprintf("%d miles, %.1f%% %s than loss vehicle (-%.1f)", mileage, pct, direction, penalty)
}

func calculateEquipmentFit(equipment, lossEquipment []string) (penalty, bonus float64, explanation string) {
	lossSet := featureSet(lossEquipment)
	if len(lossSet) == 0 {
		return 0, 0, "No equipment listed for loss vehicle; equipment not scored"
	}
	compSet := featureSet(equipment)

	matched, missing := 0, 0
	for key := range lossSet {
		if _, ok := compSet[key]; ok {
			matched++
		} else {
			missing++
		}
	}
	extra := 0
	for key := range compSet {
		if _, ok := lossSet[key]; !ok {
			extra++
		}
	}

	bonus = MaxEquipmentBonus * float64(matched) / float64(len(lossSet))
	penalty = math.Min(MaxEquipmentPenalty, float64(missing)*MissingFeaturePts+float64(extra)*ExtraFeaturePts)
	return penalty, bonus, fmt.Sprintf("Has %d of %d loss vehicle features, %d missing, %d extra (+%.1f/-%.1f)",
		matched, len(lossSet), missing, extra, bonus, penalty)
}

func featureSet(features []string) map[string]struct{} {
	set := make(map[string]struct{}, len(features))
	for _, f := range features {
		if key := models.FeatureKey(f); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
