package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// cervicalSymptomWeights holds the additive score for each reported
// cervical symptom. Weights reflect symptom specificity for cervical
// pathology, post-menopausal bleeding being the strongest signal.
var cervicalSymptomWeights = map[string]int{
	domain.SymBleedingBetweenPeriods: 15,
	domain.SymBleedingAfterSex:       20,
	domain.SymBleedingAfterMenopause: 25,
	domain.SymPeriodsHeavier:         12,
	domain.SymPeriodsLonger:          12,
	domain.SymUnusualDischarge:       12,
	domain.SymDischargeSmellsBad:     15,
	domain.SymDischargeColorChange:   12,
	domain.SymPainDuringSex:          15,
	domain.SymPelvicPain:             18,
	domain.SymPainfulUrination:       10,
	domain.SymBloodInUrine:           15,
	domain.SymFrequentUrination:      8,
	domain.SymRectalBleeding:         20,
	domain.SymPainfulBowelMovements:  15,
	domain.SymUnexplainedWeightLoss:  20,
	domain.SymConstantTiredness:      8,
	domain.SymLegSwelling:            15,
	domain.SymBackPain:               12,
}

// CervicalSymptomKeys lists every symptom the cervical questionnaire asks
// about, in scoring order.
var CervicalSymptomKeys = []string{
	domain.SymBleedingBetweenPeriods,
	domain.SymBleedingAfterSex,
	domain.SymBleedingAfterMenopause,
	domain.SymPeriodsHeavier,
	domain.SymPeriodsLonger,
	domain.SymUnusualDischarge,
	domain.SymDischargeSmellsBad,
	domain.SymDischargeColorChange,
	domain.SymPainDuringSex,
	domain.SymPelvicPain,
	domain.SymPainfulUrination,
	domain.SymBloodInUrine,
	domain.SymFrequentUrination,
	domain.SymRectalBleeding,
	domain.SymPainfulBowelMovements,
	domain.SymUnexplainedWeightLoss,
	domain.SymConstantTiredness,
	domain.SymLegSwelling,
	domain.SymBackPain,
}

// CervicalScorer computes weighted cervical cancer risk scores.
type CervicalScorer struct {
	log *logrus.Logger
}

// NewCervicalScorer creates a new cervical risk scorer.
func NewCervicalScorer(logger *logrus.Logger) *CervicalScorer {
	return &CervicalScorer{log: logger}
}

// Score computes the cervical risk score from a normalized assessment.
// The returned score is clamped to [0,100]; the factor breakdown keeps
// the unclamped contributions for reporting.
func (s *CervicalScorer) Score(a *domain.CervicalAssessment) *domain.ScoreResult {
	b := newScoreBuilder()

	switch {
	case a.Age >= 60:
		b.add("age 60+", 8)
	case a.Age >= 50:
		b.add("age 50-59", 12)
	case a.Age >= 40:
		b.add("age 40-49", 18)
	case a.Age >= 30:
		b.add("age 30-39", 20)
	case a.Age >= 25:
		b.add("age 25-29", 12)
	}

	switch {
	case a.SexualPartners >= 6:
		b.add("sexual partners 6+", 18)
	case a.SexualPartners >= 3:
		b.add("sexual partners 3-5", 12)
	case a.SexualPartners >= 2:
		b.add("sexual partners 2", 8)
	}

	switch {
	case a.AgeFirstIntercourse <= 16:
		b.add("first intercourse at 16 or younger", 12)
	case a.AgeFirstIntercourse <= 18:
		b.add("first intercourse at 17-18", 8)
	}

	b.addIf(a.Smoking.Bool(), "smoking", 20)
	b.addIf(a.FamilyCancerHistory.Bool(), "family cancer history", 12)
	b.addIf(a.PreviousSTDs.Bool(), "previous STDs", 15)
	b.addIf(a.HIVPositive.Bool(), "HIV positive", 25)
	b.addIf(a.ImmunosuppressiveDrugs.Bool(), "immunosuppressive drugs", 15)
	b.addIf(a.HPVVaccination.Bool(), "HPV vaccination", -15)

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

	switch a.Alcohol {
	case "heavy", "excessive":
		b.add("heavy alcohol use", 10)
	case "moderate":
		b.add("moderate alcohol use", 3)
	}

	switch a.Stress {
	case "very high":
		b.add("very high stress", 12)
	case "high":
		b.add("high stress", 8)
	}

	switch a.Sleep {
	case "very poor":
		b.add("very poor sleep", 10)
	case "poor":
		b.add("poor sleep", 6)
	}

	method := strings.ToLower(a.ContraceptiveMethod)
	if strings.Contains(method, "oral") && strings.Contains(method, "long-term") {
		b.add("long-term oral contraceptives", 5)
	}

	s.scoreLastScreening(b, a.LastScreening)

	for _, key := range CervicalSymptomKeys {
		if a.Symptoms.Has(key) {
			b.add("symptom: "+key, cervicalSymptomWeights[key])
		}
	}

	result := b.result()

	s.log.WithFields(logrus.Fields{
		"condition": domain.ConditionCervicalDetailed,
		"age":       a.Age,
		"score":     result.Score,
		"factors":   len(result.Factors),
	}).Info("Cervical risk score computed")

	return result
}

// scoreLastScreening scores screening recency. "never" is the strongest
// signal; otherwise the answer is expected to look like "5 years ago".
func (s *CervicalScorer) scoreLastScreening(b *scoreBuilder, raw string) {
	answer := strings.ToLower(strings.TrimSpace(raw))
	if answer == "" {
		return
	}
	if answer == "never" {
		b.add("never screened", 20)
		return
	}
	if !strings.Contains(answer, "year") {
		return
	}
	years, err := parseLeadingInt(answer)
	if err != nil {
		b.add("screening recency unclear", 8)
		return
	}
	switch {
	case years >= 5:
		b.add(fmt.Sprintf("last screening %d+ years ago", years), 15)
	case years >= 3:
		b.add(fmt.Sprintf("last screening %d years ago", years), 10)
	}
}

// CervicalCoverage estimates screening insurance coverage eligibility.
func (s *CervicalScorer) CervicalCoverage(a *domain.CervicalAssessment, level domain.RiskLevel) *domain.InsuranceCoverage {
	score := 60

	switch {
	case a.Age >= 21 && a.Age <= 65:
		score += 25
	case a.Age > 65:
		score += 15
	}

	switch level {
	case domain.RiskHigh:
		score += 25
	case domain.RiskModerate:
		score += 15
	}

	if a.Symptoms.AnyOf(domain.SymBleedingBetweenPeriods, domain.SymBleedingAfterSex,
		domain.SymUnusualDischarge, domain.SymPelvicPain) {
		score += 20
	}

	if strings.EqualFold(strings.TrimSpace(a.LastScreening), "never") {
		score += 15
	}
	if a.FamilyCancerHistory.Bool() {
		score += 10
	}
	if a.PreviousSTDs.Bool() {
		score += 10
	}

	likely := "Possibly"
	if score >= 75 {
		likely = "Yes"
	}
	return &domain.InsuranceCoverage{Score: score, Likely: likely}
}

// parseLeadingInt extracts the integer prefix from answers like
// "5 years ago".
func parseLeadingInt(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.Atoi(fields[0])
}

// scoreBuilder accumulates factor contributions and clamps the total.
type scoreBuilder struct {
	total   int
	factors []domain.FactorContribution
}

func newScoreBuilder() *scoreBuilder {
	return &scoreBuilder{}
}

func (b *scoreBuilder) add(factor string, points int) {
	b.total += points
	b.factors = append(b.factors, domain.FactorContribution{Factor: factor, Points: points})
}

func (b *scoreBuilder) addIf(cond bool, factor string, points int) {
	if cond {
		b.add(factor, points)
	}
}

func (b *scoreBuilder) result() *domain.ScoreResult {
	score := b.total
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return &domain.ScoreResult{Score: score, Factors: b.factors}
}
