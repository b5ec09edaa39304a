package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// EducationGenerator builds patient-facing education content keyed by
// risk tier and triggered risk factors.
type EducationGenerator struct {
	log *logrus.Logger
}

// NewEducationGenerator creates a new education content generator.
func NewEducationGenerator(logger *logrus.Logger) *EducationGenerator {
	return &EducationGenerator{log: logger}
}

var cervicalPreventionTips = []string{
	"Attend cervical screening at the recommended intervals.",
	"HPV vaccination protects against the virus types that cause most cervical cancers.",
	"Use condoms to lower the chance of HPV and other infections.",
	"Do not smoke; smoking weakens the cervix's ability to clear HPV.",
	"See a provider about any unusual bleeding or discharge without delay.",
}

var ovarianPreventionTips = []string{
	"Keep regular pelvic exams even when you have no symptoms.",
	"Track your menstrual cycle so changes are easy to spot.",
	"Hormonal contraceptives can lower the chance of functional cysts; discuss options with your provider.",
	"Seek care promptly for sudden or severe pelvic pain.",
}

// CervicalEducation builds education content for a cervical assessment.
func (g *EducationGenerator) CervicalEducation(a *domain.CervicalAssessment, level domain.RiskLevel) *domain.EducationContent {
	content := &domain.EducationContent{
		PreventionTips: cervicalPreventionTips,
	}

	switch level {
	case domain.RiskHigh:
		content.WhatThisMeans = "Your answers show several factors linked to higher cervical cancer risk. This does not mean you have cancer, but it does mean testing should not wait."
		content.WhyItMatters = "Cervical changes found early are very treatable. Acting on a high-risk result is how screening saves lives."
	case domain.RiskModerate:
		content.WhatThisMeans = "Your answers show some factors linked to cervical cancer risk. Regular screening is the best way to stay ahead of them."
		content.WhyItMatters = "Most cervical cancers develop slowly. Keeping your screening schedule catches changes years before they become dangerous."
	default:
		content.WhatThisMeans = "Your answers do not show major cervical cancer risk factors right now."
		content.WhyItMatters = "Routine screening is still important because cervical changes can develop without symptoms."
	}

	var recs []string
	if a.Smoking.Bool() {
		recs = append(recs, "Quitting smoking lowers your cervical cancer risk within a few years.")
	}
	if !a.HPVVaccination.Bool() {
		recs = append(recs, "Ask about HPV vaccination; it helps even after becoming sexually active.")
	}
	if a.Exercise == "rarely" || a.Exercise == "never" {
		recs = append(recs, "Regular physical activity supports the immune response that clears HPV.")
	}
	if a.Diet == "poor" {
		recs = append(recs, "A diet rich in fruits and vegetables supports cervical health.")
	}
	if strings.EqualFold(strings.TrimSpace(a.LastScreening), "never") {
		recs = append(recs, "A first screening visit is quick and can be done at most health clinics.")
	}
	content.LifestyleRecommendations = recs

	g.log.WithFields(logrus.Fields{
		"condition":  domain.ConditionCervicalDetailed,
		"risk_level": level,
	}).Debug("Cervical education content generated")

	return content
}

// OvarianEducation builds education content for an ovarian-cyst assessment.
func (g *EducationGenerator) OvarianEducation(a *domain.OvarianCystAssessment, level domain.RiskLevel) *domain.EducationContent {
	content := &domain.EducationContent{
		PreventionTips: ovarianPreventionTips,
	}

	switch level {
	case domain.RiskHigh:
		content.WhatThisMeans = "Your answers show several factors linked to ovarian cysts. An ultrasound can tell whether a cyst is present and what kind it is."
		content.WhyItMatters = "Most cysts are harmless, but ones that grow or cause pain need treatment. Early imaging keeps small problems small."
	case domain.RiskModerate:
		content.WhatThisMeans = "Your answers show some factors linked to ovarian cysts. Most cysts come and go without treatment."
		content.WhyItMatters = "Knowing your baseline makes it easier to notice changes that need attention."
	default:
		content.WhatThisMeans = "Your answers do not show major ovarian cyst risk factors right now."
		content.WhyItMatters = "Routine pelvic exams keep it that way by catching changes early."
	}

	var recs []string
	if a.PCOSDiagnosis.Bool() {
		recs = append(recs, "With PCOS, regular monitoring and hormone management reduce cyst formation.")
	}
	if a.Endometriosis.Bool() {
		recs = append(recs, "Endometriosis care plans often include imaging to watch for endometriomas.")
	}
	if a.Weight == "obese" || a.Weight == "overweight" {
		recs = append(recs, "Gradual weight management helps regulate the hormones behind many cysts.")
	}
	if a.Stress == "high" || a.Stress == "very high" {
		recs = append(recs, "Stress management supports a regular cycle.")
	}
	if len(recs) == 0 {
		recs = []string{
			"Keep a balanced diet and regular exercise routine.",
			"Note any new pelvic pain or bloating and mention it at your next visit.",
		}
	}
	content.LifestyleRecommendations = recs

	g.log.WithFields(logrus.Fields{
		"condition":  domain.ConditionOvarianCystDetailed,
		"risk_level": level,
	}).Debug("Ovarian-cyst education content generated")

	return content
}

// Legacy education for the model-backed flows: recommendation-keyed FAQ
// lists, with HPV FAQs included only when the recommendation mentions HPV.

var generalFAQs = []string{
	"How often should I be screened? Follow the interval in your recommendation; WHO advises at least every 3 years for Pap-based screening.",
	"Does screening hurt? It can be briefly uncomfortable but should not be painful.",
	"What if my result is abnormal? An abnormal result means more testing, not a cancer diagnosis.",
}

var hpvFAQs = []string{
	"What is HPV? A very common virus; most infections clear on their own within two years.",
	"Does HPV mean I will get cancer? No. Only persistent infection with high-risk types raises cancer risk.",
	"Can HPV be treated? The virus itself has no cure, but the cell changes it causes are treatable.",
}

// LegacyFAQs returns the FAQ list for a recommendation.
func LegacyFAQs(recommendation string) []string {
	faqs := make([]string, 0, len(generalFAQs)+len(hpvFAQs))
	faqs = append(faqs, generalFAQs...)
	if strings.Contains(strings.ToLower(recommendation), "hpv") {
		faqs = append(faqs, hpvFAQs...)
	}
	return faqs
}

// LegacyFollowUpInterval returns the follow-up interval for a legacy
// recommendation: repeat/observe paths get a longer leash.
func LegacyFollowUpInterval(recommendation string) string {
	rec := strings.ToLower(recommendation)
	if strings.Contains(rec, "repeat") || strings.Contains(rec, "observation") {
		return "3 months"
	}
	return "1 month"
}

// legacyPlanResources maps validated recommendations to patient resources.
var legacyPlanResources = map[string][]string{
	"Colposcopy, Biopsy, Cytology": {
		"Referral letter for colposcopy",
		"What to expect during a colposcopy",
	},
	"Repeat Pap Smear In 3 Years": {
		"Screening interval reminder card",
	},
	"Annual Follow Up And Pap Smear In 3 Years": {
		"Annual follow-up schedule",
		"Screening interval reminder card",
	},
	"Hpv Vaccine And Sexual Education": {
		"HPV vaccination clinic locations",
		"Sexual health education materials",
	},
}

// LegacyPlanResources returns the resource list for a recommendation, or a
// generic fallback.
func LegacyPlanResources(recommendation string) []string {
	if res, ok := legacyPlanResources[recommendation]; ok {
		return res
	}
	return []string{"General screening information leaflet"}
}
