// Package domain contains core business entities and types for women's-health
// screening risk assessment following WHO (2022) cervical screening guidance
// and ASCCP (2019) risk-based management consensus guidelines.
package domain

import (
	"errors"
	"fmt"
)

// RiskLevel represents the screening risk tier assigned to an assessment.
// Tiers drive care-plan timelines and guideline validation, so only the
// values below may enter clinical decision-making.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"

	// RiskUnknown is produced only by the guideline validator when no
	// WHO/ASCCP rule matches the test combination.
	RiskUnknown RiskLevel = "Unknown"
)

// Condition identifies which screening workflow an assessment belongs to.
type Condition string

const (
	ConditionCervicalDetailed    Condition = "cervical-detailed"
	ConditionOvarianCystDetailed Condition = "ovarian-cyst-detailed"
	ConditionCervicalLegacy      Condition = "cervical-legacy"
	ConditionOvarianLegacy       Condition = "ovarian-legacy"
)

// YesNo is a normalized binary answer. Raw questionnaire input is free
// text; only the normalizer may produce these values.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// TestResult is a normalized HPV or Pap smear outcome.
type TestResult string

const (
	ResultPositive TestResult = "Positive"
	ResultNegative TestResult = "Negative"
)

// ScreeningType is a normalized screening modality.
type ScreeningType string

const (
	ScreeningPapSmear ScreeningType = "PAP SMEAR"
	ScreeningHPVDNA   ScreeningType = "HPV DNA"
	ScreeningVIA      ScreeningType = "VIA"
)

// Validation errors for screening data integrity
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidRiskLevel = errors.New("invalid risk level")
	ErrInvalidCondition = errors.New("invalid screening condition")
	ErrInvalidScore     = errors.New("risk score out of range")
)

// IsValid reports whether the risk level is one of the assignable tiers.
// RiskUnknown is deliberately excluded: it is a validator fallback, never
// an assessment outcome.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	return string(r)
}

// RequiresPromptFollowUp determines whether the tier needs accelerated
// clinical follow-up. Used by the care-plan generator and alerting.
func (r RiskLevel) RequiresPromptFollowUp() bool {
	return r == RiskHigh
}

// LogFields returns structured logging fields for audit trails.
func (r RiskLevel) LogFields() map[string]any {
	return map[string]any{
		"risk_level":              string(r),
		"is_valid":                r.IsValid(),
		"requires_prompt_followup": r.RequiresPromptFollowUp(),
	}
}

// IsValid validates the screening condition.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionCervicalDetailed, ConditionOvarianCystDetailed,
		ConditionCervicalLegacy, ConditionOvarianLegacy:
		return true
	default:
		return false
	}
}

// String returns the string representation of the condition.
func (c Condition) String() string {
	return string(c)
}

// Bool converts a normalized answer to a boolean.
func (y YesNo) Bool() bool {
	return y == Yes
}

// IsValid validates the normalized answer.
func (y YesNo) IsValid() bool {
	return y == Yes || y == No
}

// IsValid validates the normalized test result.
func (t TestResult) IsValid() bool {
	return t == ResultPositive || t == ResultNegative
}

// IsValid validates the normalized screening type.
func (s ScreeningType) IsValid() bool {
	switch s {
	case ScreeningPapSmear, ScreeningHPVDNA, ScreeningVIA:
		return true
	default:
		return false
	}
}

// ValidateScore ensures a risk score is inside the reportable range.
func ValidateScore(score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("score %d: %w", score, ErrInvalidScore)
	}
	return nil
}
