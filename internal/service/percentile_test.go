package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afyacheck/screening-server/internal/domain"
)

func TestCervicalPercentileBaselines(t *testing.T) {
	e := NewPercentileEngine(testLogger())

	tests := []struct {
		name      string
		age       int
		score     int
		wantPct   int
		wantGroup string
	}{
		{"low tier twenties", 25, 10, 8, "20-29"},
		{"moderate tier twenties", 25, 40, 18, "20-29"},
		{"high tier twenties", 25, 70, 35, "20-29"},
		{"high tier thirties", 34, 65, 45, "30-39"},
		{"high tier forties", 45, 65, 50, "40-49"},
		{"moderate tier fifties", 55, 40, 22, "50-59"},
		{"low tier sixties", 68, 10, 6, "60+"},
		{"out of range age uses thirties bucket", 18, 40, 25, "30-39"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &domain.CervicalAssessment{Age: tt.age, Symptoms: domain.Symptoms{}}
			got := e.CervicalPercentile(a, tt.score)
			assert.Equal(t, tt.wantPct, got.Percentile)
			assert.Equal(t, tt.wantGroup, got.AgeGroup)
		})
	}
}

func TestCervicalPercentileAdjustments(t *testing.T) {
	e := NewPercentileEngine(testLogger())

	a := &domain.CervicalAssessment{
		Age:            45,
		Smoking:        domain.Yes,
		SexualPartners: 6,
		PreviousSTDs:   domain.Yes,
		HIVPositive:    domain.Yes,
		Symptoms: domain.Symptoms{
			domain.SymBleedingAfterSex: domain.Yes,
			domain.SymPelvicPain:       domain.Yes,
			domain.SymUnusualDischarge: domain.Yes,
		},
	}

	// baseline 50 (40-49 high) + 8 + 6 + 6 + 12 + 10 (3 key symptoms)
	// = 92, inside the ceiling.
	got := e.CervicalPercentile(a, 80)
	assert.Equal(t, 92, got.Percentile)
	assert.Equal(t, 7, got.RiskFactorsCount)
	assert.Contains(t, got.Interpretation, "prompt medical attention")
	assert.Equal(t, "Your risk level is higher than 92% of women in your age group", got.PopulationContext)
}

func TestCervicalPercentileClampsToCeiling(t *testing.T) {
	e := NewPercentileEngine(testLogger())

	a := &domain.CervicalAssessment{
		Age:            45,
		Smoking:        domain.Yes,
		SexualPartners: 8,
		PreviousSTDs:   domain.Yes,
		HIVPositive:    domain.Yes,
		Exercise:       "never",
		Diet:           "poor",
		Stress:         "very high",
		Symptoms: domain.Symptoms{
			domain.SymBleedingAfterSex: domain.Yes,
			domain.SymPelvicPain:       domain.Yes,
			domain.SymUnusualDischarge: domain.Yes,
		},
	}

	got := e.CervicalPercentile(a, 90)
	assert.Equal(t, 95, got.Percentile)
}

func TestCervicalPercentileFloorWithVaccination(t *testing.T) {
	e := NewPercentileEngine(testLogger())

	a := &domain.CervicalAssessment{
		Age:            68,
		HPVVaccination: domain.Yes,
		Symptoms:       domain.Symptoms{},
	}

	// baseline 6 (60+ low) - 5 = 1, clamps to the floor.
	got := e.CervicalPercentile(a, 10)
	assert.Equal(t, 5, got.Percentile)
	assert.Contains(t, got.Interpretation, "lower than most")
}

func TestOvarianPercentileBaselinesAndTierAdjustment(t *testing.T) {
	e := NewPercentileEngine(testLogger())

	tests := []struct {
		name      string
		age       int
		score     int
		wantPct   int
		wantGroup string
	}{
		{"teen low tier", 17, 10, 10, "Under 20"},
		{"twenties moderate tier", 25, 45, 50, "20-29"},
		{"thirties high tier", 33, 75, 75, "30-39"},
		{"forties low tier", 44, 20, 30, "40-49"},
		{"fifties moderate tier", 55, 50, 45, "50-59"},
		{"sixties low tier clamps to floor", 65, 10, 5, "60+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := baselineOvarian()
			a.Age = tt.age
			got := e.OvarianCystPercentile(a, tt.score)
			assert.Equal(t, tt.wantPct, got.Percentile)
			assert.Equal(t, tt.wantGroup, got.AgeGroup)
		})
	}
}

func TestOvarianPercentileRiskFactorCount(t *testing.T) {
	e := NewPercentileEngine(testLogger())

	a := baselineOvarian()
	a.PCOSDiagnosis = domain.Yes
	a.Endometriosis = domain.Yes
	a.MenstrualIrregularity = domain.Yes
	a.FamilyHistoryOvarian = domain.Yes
	a.Symptoms = domain.Symptoms{
		domain.SymPelvicPain:       domain.Yes,
		domain.SymIrregularPeriods: domain.Yes,
	}

	// 2+2 for the diagnoses, 1 each for the other four.
	got := e.OvarianCystPercentile(a, 80)
	assert.Equal(t, 8, got.RiskFactorsCount)
	assert.Contains(t, got.Interpretation, "prompt medical attention")
}

func TestOvarianPercentileModerateInterpretation(t *testing.T) {
	e := NewPercentileEngine(testLogger())

	a := baselineOvarian()
	a.Age = 25
	got := e.OvarianCystPercentile(a, 45)
	assert.Equal(t, 50, got.Percentile)
	assert.Contains(t, got.Interpretation, "moderate")
}
