package service

import (
	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// CarePlanGenerator builds tier- and factor-driven follow-up plans.
type CarePlanGenerator struct {
	log *logrus.Logger
}

// NewCarePlanGenerator creates a new care-plan generator.
func NewCarePlanGenerator(logger *logrus.Logger) *CarePlanGenerator {
	return &CarePlanGenerator{log: logger}
}

// CervicalCarePlan builds the follow-up plan for a cervical assessment.
func (g *CarePlanGenerator) CervicalCarePlan(a *domain.CervicalAssessment, level domain.RiskLevel) *domain.CarePlan {
	plan := &domain.CarePlan{}

	switch level {
	case domain.RiskHigh:
		plan.Summary = "Your answers show several factors that need medical review soon."
		plan.Timeline = "Within 2-4 weeks"
		plan.NextSteps = "Book an appointment with a gynecologist for HPV and Pap smear testing."
		plan.Resources = []string{
			"Gynecologist appointment",
			"HPV/Pap smear testing",
			"Possible additional testing if symptoms present",
		}
		plan.MonitoringPlan = "Attend all follow-up appointments and report any new symptoms right away."
	case domain.RiskModerate:
		plan.Summary = "Your answers show some factors worth discussing with a health provider."
		plan.Timeline = "Within 1-3 months"
		plan.NextSteps = "Schedule a screening visit and discuss your risk factors with a provider."
		plan.Resources = []string{
			"Health clinic screening visit",
			"HPV/Pap smear testing",
		}
		plan.MonitoringPlan = "Keep your screening schedule and note any changes in your health."
	default:
		plan.Summary = "Your answers do not show major risk factors right now."
		plan.Timeline = "Within 6-12 months (or as scheduled)"
		plan.NextSteps = "Continue routine screening at the recommended interval."
		plan.Resources = []string{
			"Routine screening reminder",
		}
		plan.MonitoringPlan = "Continue routine screening and healthy habits."
	}

	plan.LifestyleActions = cervicalLifestyleActions(a)

	if a.Symptoms.AnyOf(domain.SymBleedingBetweenPeriods, domain.SymBleedingAfterSex, domain.SymPelvicPain) {
		plan.NextSteps += " Be sure to discuss your symptoms in detail with your provider."
		plan.MonitoringPlan += " Keep track of your symptoms, including when they happen and how long they last."
	}

	g.log.WithFields(logrus.Fields{
		"condition":  domain.ConditionCervicalDetailed,
		"risk_level": level,
		"timeline":   plan.Timeline,
	}).Info("Cervical care plan generated")

	return plan
}

// cervicalLifestyleActions appends triggered actions in a fixed order so
// plans are stable for the same inputs.
func cervicalLifestyleActions(a *domain.CervicalAssessment) []string {
	var actions []string
	if a.Smoking.Bool() {
		actions = append(actions, "Quit smoking; it is one of the strongest changeable risk factors for cervical cancer.")
	}
	if a.Exercise == "rarely" || a.Exercise == "never" {
		actions = append(actions, "Start gentle regular exercise, such as walking 30 minutes most days.")
	}
	if a.Diet == "poor" {
		actions = append(actions, "Improve your diet with more fruits and vegetables to support your immune system.")
	}
	if a.Stress == "high" || a.Stress == "very high" {
		actions = append(actions, "Try stress management techniques such as breathing exercises or talking to someone you trust.")
	}
	if !a.HPVVaccination.Bool() {
		actions = append(actions, "Ask your provider whether HPV vaccination is right for you.")
	}
	if a.LastScreening == "never" {
		actions = append(actions, "If screening feels worrying, bring a friend or family member to your appointment.")
	}
	return actions
}

// OvarianCarePlan builds the follow-up plan for an ovarian-cyst assessment.
func (g *CarePlanGenerator) OvarianCarePlan(a *domain.OvarianCystAssessment, level domain.RiskLevel) *domain.CarePlan {
	plan := &domain.CarePlan{}

	switch level {
	case domain.RiskHigh:
		plan.Summary = "Your answers show factors that need a prompt gynecological review."
		plan.Timeline = "Within 1-2 weeks"
		plan.NextSteps = "See a gynecologist for a transvaginal ultrasound and blood tests."
		plan.Resources = []string{
			"Gynecologist appointment",
			"Transvaginal ultrasound",
			"Tumor marker blood tests (CA-125)",
		}
		plan.MonitoringPlan = "Follow your provider's monitoring schedule closely and report sudden severe pain immediately."
	case domain.RiskModerate:
		plan.Summary = "Your answers show some factors worth reviewing with a health provider."
		plan.Timeline = "Within 4-6 weeks"
		plan.NextSteps = "Schedule a pelvic exam and discuss an ultrasound with your provider."
		plan.Resources = []string{
			"Pelvic examination",
			"Pelvic ultrasound if recommended",
		}
		plan.MonitoringPlan = "Track your cycle and symptoms between appointments."
	default:
		plan.Summary = "Your answers do not show major risk factors right now."
		plan.Timeline = "Within 3-6 months (or as scheduled)"
		plan.NextSteps = "Continue routine pelvic exams at the recommended interval."
		plan.Resources = []string{
			"Routine pelvic exam reminder",
		}
		plan.MonitoringPlan = "Continue routine check-ups and note any cycle changes."
	}

	plan.LifestyleActions = ovarianLifestyleActions(a)

	if a.Symptoms.AnyOf(domain.SymPelvicPain, domain.SymAbdominalBloating, domain.SymIrregularPeriods) {
		plan.NextSteps += " Keep a symptom diary noting pain, bloating, and cycle changes to share with your provider."
	}

	g.log.WithFields(logrus.Fields{
		"condition":  domain.ConditionOvarianCystDetailed,
		"risk_level": level,
		"timeline":   plan.Timeline,
	}).Info("Ovarian-cyst care plan generated")

	return plan
}

func ovarianLifestyleActions(a *domain.OvarianCystAssessment) []string {
	var actions []string
	if a.Smoking.Bool() {
		actions = append(actions, "Quit smoking to reduce hormonal disruption.")
	}
	if a.Weight == "obese" || a.Weight == "overweight" {
		actions = append(actions, "Work toward a healthy weight; it helps regulate hormone levels.")
	}
	if a.Exercise == "rarely" || a.Exercise == "never" {
		actions = append(actions, "Add regular moderate exercise to support hormonal balance.")
	}
	if a.Diet == "poor" {
		actions = append(actions, "Improve your diet with whole grains, fruits, and vegetables.")
	}
	if a.Stress == "high" || a.Stress == "very high" {
		actions = append(actions, "Manage stress with relaxation techniques; stress can worsen hormonal symptoms.")
	}
	if len(actions) == 0 {
		actions = []string{
			"Maintain a balanced diet and regular exercise.",
			"Keep regular sleep hours to support hormonal balance.",
			"Attend routine check-ups even when you feel well.",
		}
	}
	return actions
}
