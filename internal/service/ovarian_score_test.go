package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyacheck/screening-server/internal/domain"
)

func baselineOvarian() *domain.OvarianCystAssessment {
	return &domain.OvarianCystAssessment{
		Age:                   27,
		CycleLength:           28,
		MenstrualIrregularity: domain.No,
		PregnancyHistory:      domain.Yes,
		FamilyHistoryOvarian:  domain.No,
		PCOSDiagnosis:         domain.No,
		Endometriosis:         domain.No,
		PreviousOvarianCysts:  domain.No,
		HormoneTherapy:        domain.No,
		FertilityTreatments:   domain.No,
		Smoking:               domain.No,
		Weight:                "normal",
		Exercise:              "sometimes",
		Diet:                  "average",
		Stress:                "low",
		Symptoms:              domain.Symptoms{},
	}
}

func TestOvarianScorePCOSProfile(t *testing.T) {
	scorer := NewOvarianCystScorer(testLogger())

	a := baselineOvarian()
	a.PCOSDiagnosis = domain.Yes
	a.Symptoms = domain.Symptoms{
		domain.SymIrregularPeriods: domain.Yes,
		domain.SymPelvicPain:       domain.Yes,
	}

	// age 27 (+15), PCOS (+30), irregular periods symptom (+5),
	// pelvic pain symptom (+10), PCOS interaction (+10) = 70.
	result := scorer.Score(a)
	assert.Equal(t, 70, result.Score)

	level, err := ClassifyRisk(domain.ConditionOvarianCystDetailed, result.Score)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, level)
}

// Menstrual irregularity in the history section and irregular_periods in
// the symptom section both contribute when both are reported. The scoring
// table declares both weights, so one clinical signal can add twice.
func TestOvarianScoreIrregularityContributesTwice(t *testing.T) {
	scorer := NewOvarianCystScorer(testLogger())

	a := baselineOvarian()
	base := scorer.Score(a).Score

	a.MenstrualIrregularity = domain.Yes
	withHistory := scorer.Score(a).Score
	assert.Equal(t, base+5, withHistory)

	a.Symptoms[domain.SymIrregularPeriods] = domain.Yes
	withBoth := scorer.Score(a).Score
	assert.Equal(t, base+10, withBoth)
}

func TestOvarianScoreAgeBands(t *testing.T) {
	scorer := NewOvarianCystScorer(testLogger())

	tests := []struct {
		age  int
		want int
	}{
		{18, 0},
		{20, 15},
		{35, 15},
		{36, 12},
		{45, 12},
		{46, 8},
		{55, 8},
		{56, 5},
	}

	for _, tt := range tests {
		a := baselineOvarian()
		a.Age = tt.age
		a.PregnancyHistory = domain.Yes
		result := scorer.Score(a)
		assert.Equal(t, tt.want, result.Score, "age %d", tt.age)
	}
}

func TestOvarianScoreCycleLength(t *testing.T) {
	scorer := NewOvarianCystScorer(testLogger())

	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"short cycle", 20, 12},
		{"long cycle", 36, 12},
		{"lower bound ok", 21, 0},
		{"upper bound ok", 35, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := baselineOvarian()
			a.Age = 18
			a.CycleLength = tt.length
			assert.Equal(t, tt.want, scorer.Score(a).Score)
		})
	}
}

func TestOvarianScoreNulliparityAndContraceptives(t *testing.T) {
	scorer := NewOvarianCystScorer(testLogger())

	a := baselineOvarian()
	a.Age = 18
	a.PregnancyHistory = domain.No
	assert.Equal(t, 10, scorer.Score(a).Score)

	a.ContraceptiveMethod = "the pill"
	assert.Equal(t, 2, scorer.Score(a).Score)

	a.ContraceptiveMethod = "oral contraceptives"
	assert.Equal(t, 2, scorer.Score(a).Score)
}

func TestOvarianScorePelvicExamRecency(t *testing.T) {
	scorer := NewOvarianCystScorer(testLogger())

	tests := []struct {
		name   string
		answer string
		want   int
	}{
		{"never", "never", 15},
		{"three years", "3 years ago", 10},
		{"two years", "2 years ago", 5},
		{"one year", "1 year ago", 0},
		{"unparseable", "a few years", 5},
		{"blank", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := baselineOvarian()
			a.Age = 18
			a.LastPelvicExam = tt.answer
			assert.Equal(t, tt.want, scorer.Score(a).Score)
		})
	}
}

func TestOvarianScoreInteractionNeedsSymptom(t *testing.T) {
	scorer := NewOvarianCystScorer(testLogger())

	a := baselineOvarian()
	a.Age = 18
	a.PCOSDiagnosis = domain.Yes

	// PCOS alone: +30, no interaction bonus without a qualifying symptom.
	assert.Equal(t, 30, scorer.Score(a).Score)

	a.Symptoms[domain.SymPelvicPain] = domain.Yes
	// +10 symptom, +10 interaction.
	assert.Equal(t, 50, scorer.Score(a).Score)
}

func TestOvarianCoverage(t *testing.T) {
	scorer := NewOvarianCystScorer(testLogger())

	a := baselineOvarian()
	a.PCOSDiagnosis = domain.Yes
	a.Symptoms = domain.Symptoms{domain.SymPelvicPain: domain.Yes}

	// base 65 + age 20-50 (20) + high tier (25) + symptom (20) + PCOS (15) = 145
	cov := scorer.OvarianCoverage(a, domain.RiskHigh)
	assert.Equal(t, 145, cov.Score)
	assert.Equal(t, "Yes", cov.Likely)

	older := baselineOvarian()
	older.Age = 60
	cov = scorer.OvarianCoverage(older, domain.RiskLow)
	assert.Equal(t, 75, cov.Score)
	assert.Equal(t, "Possibly", cov.Likely)
}

func TestClassifyRiskBoundaries(t *testing.T) {
	tests := []struct {
		condition domain.Condition
		score     int
		want      domain.RiskLevel
	}{
		{domain.ConditionCervicalDetailed, 0, domain.RiskLow},
		{domain.ConditionCervicalDetailed, 34, domain.RiskLow},
		{domain.ConditionCervicalDetailed, 35, domain.RiskModerate},
		{domain.ConditionCervicalDetailed, 59, domain.RiskModerate},
		{domain.ConditionCervicalDetailed, 60, domain.RiskHigh},
		{domain.ConditionCervicalDetailed, 100, domain.RiskHigh},
		{domain.ConditionOvarianCystDetailed, 39, domain.RiskLow},
		{domain.ConditionOvarianCystDetailed, 40, domain.RiskModerate},
		{domain.ConditionOvarianCystDetailed, 69, domain.RiskModerate},
		{domain.ConditionOvarianCystDetailed, 70, domain.RiskHigh},
		{domain.ConditionCervicalLegacy, 60, domain.RiskHigh},
		{domain.ConditionOvarianLegacy, 40, domain.RiskModerate},
	}

	for _, tt := range tests {
		got, err := ClassifyRisk(tt.condition, tt.score)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s score %d", tt.condition, tt.score)
	}
}

func TestClassifyRiskRejectsOutOfRange(t *testing.T) {
	_, err := ClassifyRisk(domain.ConditionCervicalDetailed, -1)
	assert.Error(t, err)

	_, err = ClassifyRisk(domain.ConditionCervicalDetailed, 101)
	assert.Error(t, err)

	_, err = ClassifyRisk(domain.Condition("breast"), 50)
	assert.Error(t, err)
}
