package service

import (
	"github.com/afyacheck/screening-server/internal/domain"
)

// Tier cut points per condition. Ovarian-cyst scoring stacks larger
// weights (PCOS alone is 30), so its cut points sit higher.
const (
	cervicalModerateCutoff = 35
	cervicalHighCutoff     = 60

	ovarianModerateCutoff = 40
	ovarianHighCutoff     = 70
)

// ClassifyRisk maps a risk score to a tier for the given condition.
// Legacy conditions share the cut points of their detailed counterpart.
func ClassifyRisk(condition domain.Condition, score int) (domain.RiskLevel, error) {
	if err := domain.ValidateScore(score); err != nil {
		return "", domain.NewValidationError("score", "must be between 0 and 100", score)
	}

	var moderate, high int
	switch condition {
	case domain.ConditionCervicalDetailed, domain.ConditionCervicalLegacy:
		moderate, high = cervicalModerateCutoff, cervicalHighCutoff
	case domain.ConditionOvarianCystDetailed, domain.ConditionOvarianLegacy:
		moderate, high = ovarianModerateCutoff, ovarianHighCutoff
	default:
		return "", domain.NewValidationError("condition", "unknown screening condition", string(condition))
	}

	switch {
	case score >= high:
		return domain.RiskHigh, nil
	case score >= moderate:
		return domain.RiskModerate, nil
	default:
		return domain.RiskLow, nil
	}
}
