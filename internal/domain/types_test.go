package domain

import "testing"

func TestRiskLevelIsValid(t *testing.T) {
	tests := []struct {
		name  string
		level RiskLevel
		want  bool
	}{
		{"low", RiskLow, true},
		{"moderate", RiskModerate, true},
		{"high", RiskHigh, true},
		{"unknown is not assignable", RiskUnknown, false},
		{"empty", RiskLevel(""), false},
		{"garbage", RiskLevel("Severe"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRiskLevelRequiresPromptFollowUp(t *testing.T) {
	if !RiskHigh.RequiresPromptFollowUp() {
		t.Error("High must require prompt follow-up")
	}
	if RiskModerate.RequiresPromptFollowUp() || RiskLow.RequiresPromptFollowUp() {
		t.Error("Low and Moderate must not require prompt follow-up")
	}
}

func TestConditionIsValid(t *testing.T) {
	for _, c := range []Condition{
		ConditionCervicalDetailed, ConditionOvarianCystDetailed,
		ConditionCervicalLegacy, ConditionOvarianLegacy,
	} {
		if !c.IsValid() {
			t.Errorf("condition %s should be valid", c)
		}
	}
	if Condition("breast-detailed").IsValid() {
		t.Error("unregistered condition should be invalid")
	}
}

func TestValidateScore(t *testing.T) {
	tests := []struct {
		name    string
		score   int
		wantErr bool
	}{
		{"zero", 0, false},
		{"max", 100, false},
		{"mid", 57, false},
		{"negative", -1, true},
		{"above max", 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScore(tt.score)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScore(%d) error = %v, wantErr %v", tt.score, err, tt.wantErr)
			}
		})
	}
}

func TestSymptomsHelpers(t *testing.T) {
	s := Symptoms{
		SymPelvicPain:       Yes,
		SymBleedingAfterSex: No,
		SymBackPain:         Yes,
	}

	if !s.Has(SymPelvicPain) {
		t.Error("pelvic_pain should be present")
	}
	if s.Has(SymBleedingAfterSex) {
		t.Error("explicit No should not count as present")
	}
	if s.Has(SymUnusualDischarge) {
		t.Error("missing key should default to absent")
	}
	if got := s.CountOf(SymPelvicPain, SymBackPain, SymUnusualDischarge); got != 2 {
		t.Errorf("CountOf = %d, want 2", got)
	}
	if !s.AnyOf(SymUnusualDischarge, SymBackPain) {
		t.Error("AnyOf should find back_pain")
	}
}
