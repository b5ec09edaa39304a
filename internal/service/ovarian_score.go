package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// ovarianSymptomWeights holds the additive score for each reported
// ovarian-cyst symptom.
var ovarianSymptomWeights = map[string]int{
	domain.SymPelvicPain:              10,
	domain.SymAbdominalBloating:       8,
	domain.SymFeelingFullQuickly:      8,
	domain.SymFrequentUrination:       8,
	domain.SymDifficultyEmptyingBladder: 8,
	domain.SymPainDuringSex:           8,
	domain.SymIrregularPeriods:        5,
	domain.SymHeavyPeriods:            8,
	domain.SymPainfulPeriods:          6,
	domain.SymSpottingBetweenPeriods:  8,
	domain.SymMissedPeriods:           8,
	domain.SymBreastTenderness:        6,
	domain.SymMoodChanges:             6,
	domain.SymWeightGain:              6,
	domain.SymAcneChanges:             6,
	domain.SymHairGrowthChanges:       6,
	domain.SymNauseaVomiting:          8,
	domain.SymBackPain:                6,
	domain.SymLegPain:                 6,
	domain.SymFatigue:                 6,
}

// OvarianSymptomKeys lists every symptom the ovarian-cyst questionnaire
// asks about, in scoring order.
var OvarianSymptomKeys = []string{
	domain.SymPelvicPain,
	domain.SymAbdominalBloating,
	domain.SymFeelingFullQuickly,
	domain.SymFrequentUrination,
	domain.SymDifficultyEmptyingBladder,
	domain.SymPainDuringSex,
	domain.SymIrregularPeriods,
	domain.SymHeavyPeriods,
	domain.SymPainfulPeriods,
	domain.SymSpottingBetweenPeriods,
	domain.SymMissedPeriods,
	domain.SymBreastTenderness,
	domain.SymMoodChanges,
	domain.SymWeightGain,
	domain.SymAcneChanges,
	domain.SymHairGrowthChanges,
	domain.SymNauseaVomiting,
	domain.SymBackPain,
	domain.SymLegPain,
	domain.SymFatigue,
}

// OvarianCystScorer computes weighted ovarian-cyst risk scores.
type OvarianCystScorer struct {
	log *logrus.Logger
}

// NewOvarianCystScorer creates a new ovarian-cyst risk scorer.
func NewOvarianCystScorer(logger *logrus.Logger) *OvarianCystScorer {
	return &OvarianCystScorer{log: logger}
}

// Score computes the ovarian-cyst risk score from a normalized assessment.
// The returned score is clamped to [0,100].
func (s *OvarianCystScorer) Score(a *domain.OvarianCystAssessment) *domain.ScoreResult {
	b := newScoreBuilder()

	// Functional cysts cluster in the reproductive years, so younger
	// ages carry more weight than older ones.
	switch {
	case a.Age >= 20 && a.Age <= 35:
		b.add("age 20-35", 15)
	case a.Age >= 36 && a.Age <= 45:
		b.add("age 36-45", 12)
	case a.Age >= 46 && a.Age <= 55:
		b.add("age 46-55", 8)
	case a.Age > 55:
		b.add("age over 55", 5)
	}

	if a.CycleLength > 35 || a.CycleLength < 21 {
		b.add("abnormal cycle length", 12)
	}

	b.addIf(a.MenstrualIrregularity.Bool(), "menstrual irregularity", 5)
	b.addIf(!a.PregnancyHistory.Bool(), "no pregnancy history", 10)
	b.addIf(a.FamilyHistoryOvarian.Bool(), "family history of ovarian conditions", 12)
	b.addIf(a.PCOSDiagnosis.Bool(), "PCOS diagnosis", 30)
	b.addIf(a.Endometriosis.Bool(), "endometriosis", 20)
	b.addIf(a.PreviousOvarianCysts.Bool(), "previous ovarian cysts", 25)
	b.addIf(a.HormoneTherapy.Bool(), "hormone therapy", 10)
	b.addIf(a.FertilityTreatments.Bool(), "fertility treatments", 15)
	b.addIf(a.Smoking.Bool(), "smoking", 10)

	switch a.Weight {
	case "obese", "overweight":
		b.add("overweight", 12)
	case "underweight":
		b.add("underweight", 8)
	}

	switch a.Exercise {
	case "rarely", "never":
		b.add("little exercise", 8)
	case "regularly":
		b.add("regular exercise", -3)
	}

	switch a.Diet {
	case "poor":
		b.add("poor diet", 8)
	case "excellent":
		b.add("excellent diet", -3)
	}

	switch a.Stress {
	case "very high":
		b.add("very high stress", 15)
	case "high":
		b.add("high stress", 10)
	}

	// Combined oral contraceptives suppress ovulation and with it most
	// functional cysts.
	method := strings.ToLower(a.ContraceptiveMethod)
	if strings.Contains(method, "oral") || strings.Contains(method, "pill") {
		b.add("oral contraceptives", -8)
	}

	s.scoreLastPelvicExam(b, a.LastPelvicExam)

	for _, key := range OvarianSymptomKeys {
		if a.Symptoms.Has(key) {
			b.add("symptom: "+key, ovarianSymptomWeights[key])
		}
	}

	if a.PCOSDiagnosis.Bool() &&
		(a.Symptoms.Has(domain.SymIrregularPeriods) || a.Symptoms.Has(domain.SymPelvicPain)) {
		b.add("PCOS with active symptoms", 10)
	}

	result := b.result()

	s.log.WithFields(logrus.Fields{
		"condition": domain.ConditionOvarianCystDetailed,
		"age":       a.Age,
		"score":     result.Score,
		"factors":   len(result.Factors),
	}).Info("Ovarian-cyst risk score computed")

	return result
}

func (s *OvarianCystScorer) scoreLastPelvicExam(b *scoreBuilder, raw string) {
	answer := strings.ToLower(strings.TrimSpace(raw))
	if answer == "" {
		return
	}
	if answer == "never" {
		b.add("never had pelvic exam", 15)
		return
	}
	if !strings.Contains(answer, "year") {
		return
	}
	years, err := parseLeadingInt(answer)
	if err != nil {
		b.add("exam recency unclear", 5)
		return
	}
	switch {
	case years >= 3:
		b.add(fmt.Sprintf("last pelvic exam %d+ years ago", years), 10)
	case years >= 2:
		b.add(fmt.Sprintf("last pelvic exam %d years ago", years), 5)
	}
}

// OvarianCoverage estimates screening insurance coverage eligibility.
func (s *OvarianCystScorer) OvarianCoverage(a *domain.OvarianCystAssessment, level domain.RiskLevel) *domain.InsuranceCoverage {
	score := 65

	switch {
	case a.Age >= 20 && a.Age <= 50:
		score += 20
	case a.Age > 50:
		score += 10
	}

	switch level {
	case domain.RiskHigh:
		score += 25
	case domain.RiskModerate:
		score += 15
	}

	if a.Symptoms.AnyOf(domain.SymPelvicPain, domain.SymAbdominalBloating,
		domain.SymIrregularPeriods, domain.SymHeavyPeriods) {
		score += 20
	}

	if a.PCOSDiagnosis.Bool() {
		score += 15
	}
	if a.Endometriosis.Bool() {
		score += 15
	}
	if a.PreviousOvarianCysts.Bool() {
		score += 15
	}

	likely := "Possibly"
	if score >= 80 {
		likely = "Yes"
	}
	return &domain.InsuranceCoverage{Score: score, Likely: likely}
}
