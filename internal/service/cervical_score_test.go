package service

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyacheck/screening-server/internal/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func baselineCervical() *domain.CervicalAssessment {
	return &domain.CervicalAssessment{
		Age:                    32,
		SexualPartners:         2,
		AgeFirstIntercourse:    17,
		Smoking:                domain.No,
		FamilyCancerHistory:    domain.No,
		PreviousSTDs:           domain.No,
		HIVPositive:            domain.No,
		ImmunosuppressiveDrugs: domain.No,
		HPVVaccination:         domain.No,
		Exercise:               "regularly",
		Diet:                   "excellent",
		Alcohol:                "none",
		Stress:                 "low",
		Sleep:                  "good",
		LastScreening:          "never",
		Symptoms:               domain.Symptoms{},
	}
}

func TestCervicalScoreBaselineProfile(t *testing.T) {
	scorer := NewCervicalScorer(testLogger())

	// age 32 (+20), 2 partners (+8), first intercourse at 17 (+8),
	// regular exercise (-3), excellent diet (-3), never screened (+20).
	result := scorer.Score(baselineCervical())

	assert.Equal(t, 50, result.Score)

	level, err := ClassifyRisk(domain.ConditionCervicalDetailed, result.Score)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskModerate, level)
}

func TestCervicalScoreClampsAtHundred(t *testing.T) {
	scorer := NewCervicalScorer(testLogger())

	a := baselineCervical()
	a.HIVPositive = domain.Yes
	a.Symptoms = domain.Symptoms{domain.SymBleedingAfterMenopause: domain.Yes}

	// 50 + 25 (HIV) + 25 (post-menopausal bleeding) = 100 exactly.
	result := scorer.Score(a)
	assert.Equal(t, 100, result.Score)

	// Stacking more symptoms must not push past the ceiling.
	a.Symptoms[domain.SymPelvicPain] = domain.Yes
	result = scorer.Score(a)
	assert.Equal(t, 100, result.Score)

	level, err := ClassifyRisk(domain.ConditionCervicalDetailed, result.Score)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, level)
}

func TestCervicalScoreNeverNegative(t *testing.T) {
	scorer := NewCervicalScorer(testLogger())

	a := &domain.CervicalAssessment{
		Age:            20,
		HPVVaccination: domain.Yes,
		Exercise:       "regularly",
		Diet:           "excellent",
		Symptoms:       domain.Symptoms{},
	}

	// -15 -3 -3 would be -21 raw.
	result := scorer.Score(a)
	assert.Equal(t, 0, result.Score)
}

func TestCervicalScoreAgeBands(t *testing.T) {
	scorer := NewCervicalScorer(testLogger())

	tests := []struct {
		age  int
		want int
	}{
		{22, 0},
		{25, 12},
		{29, 12},
		{30, 20},
		{39, 20},
		{40, 18},
		{49, 18},
		{50, 12},
		{59, 12},
		{60, 8},
		{75, 8},
	}

	for _, tt := range tests {
		a := &domain.CervicalAssessment{Age: tt.age, Symptoms: domain.Symptoms{}}
		result := scorer.Score(a)
		assert.Equal(t, tt.want, result.Score, "age %d", tt.age)
	}
}

func TestCervicalScoreMonotonicInSymptoms(t *testing.T) {
	scorer := NewCervicalScorer(testLogger())

	a := baselineCervical()
	base := scorer.Score(a).Score

	a.Symptoms[domain.SymUnusualDischarge] = domain.Yes
	withSymptom := scorer.Score(a).Score

	assert.Equal(t, base+12, withSymptom)
}

func TestCervicalScoreScreeningRecency(t *testing.T) {
	scorer := NewCervicalScorer(testLogger())

	tests := []struct {
		name   string
		answer string
		want   int
	}{
		{"never", "never", 20},
		{"five years", "5 years ago", 15},
		{"seven years", "7 years ago", 15},
		{"three years", "3 years ago", 10},
		{"recent", "1 year ago", 0},
		{"unparseable years", "some years back", 8},
		{"no year wording", "last visit", 0},
		{"blank", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &domain.CervicalAssessment{Age: 22, LastScreening: tt.answer, Symptoms: domain.Symptoms{}}
			result := scorer.Score(a)
			assert.Equal(t, tt.want, result.Score)
		})
	}
}

func TestCervicalScoreContraceptiveNeedsBothTerms(t *testing.T) {
	scorer := NewCervicalScorer(testLogger())

	a := &domain.CervicalAssessment{Age: 22, ContraceptiveMethod: "oral", Symptoms: domain.Symptoms{}}
	assert.Equal(t, 0, scorer.Score(a).Score)

	a.ContraceptiveMethod = "Oral contraceptives (long-term)"
	assert.Equal(t, 5, scorer.Score(a).Score)
}

func TestCervicalCoverage(t *testing.T) {
	scorer := NewCervicalScorer(testLogger())

	a := baselineCervical()
	// base 60 + age 21-65 (25) + moderate tier (15) + never screened (15) = 115
	cov := scorer.CervicalCoverage(a, domain.RiskModerate)
	assert.Equal(t, 115, cov.Score)
	assert.Equal(t, "Yes", cov.Likely)

	young := &domain.CervicalAssessment{Age: 19, Symptoms: domain.Symptoms{}}
	cov = scorer.CervicalCoverage(young, domain.RiskLow)
	assert.Equal(t, 60, cov.Score)
	assert.Equal(t, "Possibly", cov.Likely)
}
