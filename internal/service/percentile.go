package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// Percentile engines place a patient against age-matched population
// baselines. The two screening domains use different baseline tables and
// factor adjustments but share the [5,95] reporting clamp.

const (
	percentileFloor   = 5
	percentileCeiling = 95
)

type cervicalBaseline struct {
	low, moderate, high int
}

type ageBucket struct {
	min, max int
	label    string
	baseline cervicalBaseline
}

var cervicalAgeBuckets = []ageBucket{
	{20, 29, "20-29", cervicalBaseline{8, 18, 35}},
	{30, 39, "30-39", cervicalBaseline{12, 25, 45}},
	{40, 49, "40-49", cervicalBaseline{15, 30, 50}},
	{50, 59, "50-59", cervicalBaseline{10, 22, 40}},
	{60, 100, "60+", cervicalBaseline{6, 15, 30}},
}

// defaultCervicalBucket covers out-of-range ages.
var defaultCervicalBucket = cervicalAgeBuckets[1]

// PercentileEngine computes population percentile estimates.
type PercentileEngine struct {
	log *logrus.Logger
}

// NewPercentileEngine creates a new percentile engine.
func NewPercentileEngine(logger *logrus.Logger) *PercentileEngine {
	return &PercentileEngine{log: logger}
}

// CervicalPercentile estimates where the assessment sits in the patient's
// age-group risk distribution.
func (e *PercentileEngine) CervicalPercentile(a *domain.CervicalAssessment, score int) *domain.PercentileResult {
	bucket := defaultCervicalBucket
	for _, b := range cervicalAgeBuckets {
		if a.Age >= b.min && a.Age <= b.max {
			bucket = b
			break
		}
	}

	var percentile int
	switch {
	case score >= cervicalHighCutoff:
		percentile = bucket.baseline.high
	case score >= cervicalModerateCutoff:
		percentile = bucket.baseline.moderate
	default:
		percentile = bucket.baseline.low
	}

	factors := 0
	bump := func(points int) {
		percentile += points
		factors++
	}

	if a.Smoking.Bool() {
		bump(8)
	}
	switch {
	case a.SexualPartners >= 6:
		bump(6)
	case a.SexualPartners >= 3:
		bump(4)
	}
	if a.PreviousSTDs.Bool() {
		bump(6)
	}
	if a.HIVPositive.Bool() {
		bump(12)
	}
	if a.HPVVaccination.Bool() {
		percentile -= 5
	}
	if a.Exercise == "rarely" || a.Exercise == "never" {
		bump(3)
	}
	if a.Diet == "poor" {
		bump(3)
	}
	if a.Stress == "high" || a.Stress == "very high" {
		bump(3)
	}

	keySymptoms := a.Symptoms.CountOf(
		domain.SymBleedingBetweenPeriods,
		domain.SymBleedingAfterSex,
		domain.SymUnusualDischarge,
		domain.SymPelvicPain,
		domain.SymPainDuringSex,
	)
	switch {
	case keySymptoms >= 3:
		percentile += 10
	case keySymptoms >= 2:
		percentile += 6
	case keySymptoms >= 1:
		percentile += 3
	}
	factors += keySymptoms

	percentile = clampPercentile(percentile)

	result := &domain.PercentileResult{
		Percentile:        percentile,
		AgeGroup:          bucket.label,
		RiskFactorsCount:  factors,
		Interpretation:    cervicalInterpretation(percentile),
		PopulationContext: populationContext(percentile),
	}

	e.log.WithFields(logrus.Fields{
		"condition":  domain.ConditionCervicalDetailed,
		"age_group":  result.AgeGroup,
		"percentile": result.Percentile,
		"factors":    result.RiskFactorsCount,
	}).Info("Cervical percentile computed")

	return result
}

var ovarianBaselines = []struct {
	min, max int
	label    string
	baseline int
}{
	{0, 19, "Under 20", 25},
	{20, 29, "20-29", 40},
	{30, 39, "30-39", 50},
	{40, 49, "40-49", 45},
	{50, 59, "50-59", 35},
	{60, 200, "60+", 20},
}

// OvarianCystPercentile estimates where the assessment sits in the
// patient's age-group risk distribution.
func (e *PercentileEngine) OvarianCystPercentile(a *domain.OvarianCystAssessment, score int) *domain.PercentileResult {
	label := "30-39"
	percentile := 50
	for _, b := range ovarianBaselines {
		if a.Age >= b.min && a.Age <= b.max {
			label = b.label
			percentile = b.baseline
			break
		}
	}

	switch {
	case score >= ovarianHighCutoff:
		percentile += 25
	case score >= ovarianModerateCutoff:
		percentile += 10
	default:
		percentile -= 15
	}

	// Structural diagnoses weigh double in the factor count.
	factors := 0
	for _, present := range []bool{
		a.PCOSDiagnosis.Bool(),
		a.Endometriosis.Bool(),
		a.PreviousOvarianCysts.Bool(),
	} {
		if present {
			factors += 2
		}
	}
	for _, present := range []bool{
		a.MenstrualIrregularity.Bool(),
		a.FamilyHistoryOvarian.Bool(),
		a.Symptoms.Has(domain.SymPelvicPain),
		a.Symptoms.Has(domain.SymIrregularPeriods),
	} {
		if present {
			factors++
		}
	}

	percentile = clampPercentile(percentile)

	result := &domain.PercentileResult{
		Percentile:        percentile,
		AgeGroup:          label,
		RiskFactorsCount:  factors,
		Interpretation:    ovarianInterpretation(percentile),
		PopulationContext: populationContext(percentile),
	}

	e.log.WithFields(logrus.Fields{
		"condition":  domain.ConditionOvarianCystDetailed,
		"age_group":  result.AgeGroup,
		"percentile": result.Percentile,
		"factors":    result.RiskFactorsCount,
	}).Info("Ovarian-cyst percentile computed")

	return result
}

func clampPercentile(p int) int {
	if p < percentileFloor {
		return percentileFloor
	}
	if p > percentileCeiling {
		return percentileCeiling
	}
	return p
}

func populationContext(percentile int) string {
	return fmt.Sprintf("Your risk level is higher than %d%% of women in your age group", percentile)
}

func cervicalInterpretation(percentile int) string {
	switch {
	case percentile >= 70:
		return "Your risk is higher than most women in your age group. Please seek prompt medical attention."
	case percentile >= 40:
		return "Your risk is moderate compared to women in your age group. Keep up with regular screening."
	case percentile >= 20:
		return "Your risk is in the lower-to-moderate range for your age group. Continue routine screening."
	default:
		return "Your risk is lower than most women in your age group. Maintain your healthy habits."
	}
}

func ovarianInterpretation(percentile int) string {
	switch {
	case percentile >= 70:
		return "Your risk is higher than most women in your age group. Please seek prompt medical attention."
	case percentile >= 50:
		return "Your risk is moderate compared to women in your age group. Monitor your symptoms and keep scheduled check-ups."
	default:
		return "Your risk is lower than most women in your age group. Maintain routine check-ups."
	}
}
