package service

import (
	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// GuidelineRule is one structured entry in the WHO/ASCCP validation table.
// Predicates are evaluated in table order and the first match wins.
type GuidelineRule struct {
	Name           string
	Recommendation string
	RiskLevel      domain.RiskLevel
	Guideline      string
	MinimumAge     int
	Rationale      string
	Matches        func(hpv, pap domain.TestResult, age int) bool
}

// GuidelineValidator checks proposed recommendations against the ordered
// WHO/ASCCP rule table.
type GuidelineValidator struct {
	log   *logrus.Logger
	rules []GuidelineRule
}

// NewGuidelineValidator creates a validator with the standard rule table.
func NewGuidelineValidator(logger *logrus.Logger) *GuidelineValidator {
	return &GuidelineValidator{
		log:   logger,
		rules: standardGuidelineRules(),
	}
}

// standardGuidelineRules returns the WHO (2022) / ASCCP (2019) rule table.
// Order matters: the co-positive rule must shadow the single-positive ones.
func standardGuidelineRules() []GuidelineRule {
	return []GuidelineRule{
		{
			Name:           "HPV Positive and Pap Positive",
			Recommendation: "Colposcopy, Biopsy, Cytology",
			RiskLevel:      domain.RiskHigh,
			Guideline:      "ASCCP 2019",
			MinimumAge:     30,
			Rationale:      "High-risk HPV with abnormal Pap smear requires immediate investigation (ASCCP 2019).",
			Matches: func(hpv, pap domain.TestResult, age int) bool {
				return hpv == domain.ResultPositive && pap == domain.ResultPositive
			},
		},
		{
			Name:           "HPV Positive and Pap Negative, Young",
			Recommendation: "Hpv Vaccine And Sexual Education",
			RiskLevel:      domain.RiskModerate,
			Guideline:      "WHO 2022",
			MinimumAge:     0,
			Rationale:      "HPV positivity under 25 is usually transient; vaccination and education are first-line (WHO 2022).",
			Matches: func(hpv, pap domain.TestResult, age int) bool {
				return hpv == domain.ResultPositive && pap == domain.ResultNegative && age < 25
			},
		},
		{
			Name:           "HPV Positive and Pap Negative, Older",
			Recommendation: "Annual Follow Up And Pap Smear In 3 Years",
			RiskLevel:      domain.RiskModerate,
			Guideline:      "ASCCP 2019",
			MinimumAge:     25,
			Rationale:      "HPV positivity with normal cytology warrants surveillance (ASCCP 2019).",
			Matches: func(hpv, pap domain.TestResult, age int) bool {
				return hpv == domain.ResultPositive && pap == domain.ResultNegative && age >= 25
			},
		},
		{
			Name:           "HPV Negative and Pap Negative",
			Recommendation: "Repeat Pap Smear In 3 Years",
			RiskLevel:      domain.RiskLow,
			Guideline:      "WHO 2022",
			MinimumAge:     0,
			Rationale:      "Both tests negative; routine screening interval applies (WHO 2022).",
			Matches: func(hpv, pap domain.TestResult, age int) bool {
				return hpv == domain.ResultNegative && pap == domain.ResultNegative
			},
		},
		{
			Name:           "HPV Negative and Pap Positive",
			Recommendation: "Colposcopy, Biopsy, Cytology",
			RiskLevel:      domain.RiskModerate,
			Guideline:      "ASCCP 2019",
			MinimumAge:     0,
			Rationale:      "Abnormal cytology needs diagnostic work-up regardless of HPV status (ASCCP 2019).",
			Matches: func(hpv, pap domain.TestResult, age int) bool {
				return hpv == domain.ResultNegative && pap == domain.ResultPositive
			},
		},
	}
}

// Validate scans the rule table in order and returns the first match.
// A rule only matches when the patient also meets its minimum age; a
// co-positive result under 30 therefore falls through to the no-match
// result rather than triggering the colposcopy rule. When no rule
// matches, the proposal is echoed back unchallenged with an Unknown
// risk level; compliance is exact string equality between the proposed
// and validated recommendations.
func (v *GuidelineValidator) Validate(hpv, pap domain.TestResult, age int, proposed string) *domain.GuidelineMatch {
	for _, rule := range v.rules {
		if !rule.Matches(hpv, pap, age) || age < rule.MinimumAge {
			continue
		}

		match := &domain.GuidelineMatch{
			MatchedRule:             rule.Name,
			ValidatedRecommendation: rule.Recommendation,
			RiskLevel:               rule.RiskLevel,
			Guideline:               rule.Guideline,
			Rationale:               rule.Rationale,
			MinimumAge:              rule.MinimumAge,
			MeetsMinimumAge:         true,
			IsCompliant:             proposed == rule.Recommendation,
		}

		v.log.WithFields(logrus.Fields{
			"rule":         rule.Name,
			"hpv":          hpv,
			"pap":          pap,
			"age":          age,
			"proposed":     proposed,
			"is_compliant": match.IsCompliant,
		}).Info("Guideline rule matched")

		return match
	}

	v.log.WithFields(logrus.Fields{
		"hpv": hpv,
		"pap": pap,
		"age": age,
	}).Warn("No guideline rule matched")

	return &domain.GuidelineMatch{
		MatchedRule:             "None",
		ValidatedRecommendation: proposed,
		RiskLevel:               domain.RiskUnknown,
		Guideline:               "None",
		Rationale:               "No matching WHO/ASCCP guideline found.",
		MinimumAge:              0,
		MeetsMinimumAge:         true,
		IsCompliant:             true,
	}
}
