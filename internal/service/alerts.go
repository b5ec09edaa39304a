package service

import (
	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// AlertEngine raises clinical alerts for findings that must escalate
// outside the normal care-plan timeline.
type AlertEngine struct {
	log *logrus.Logger
}

// NewAlertEngine creates a new clinical alert engine.
func NewAlertEngine(logger *logrus.Logger) *AlertEngine {
	return &AlertEngine{log: logger}
}

// CervicalAlerts evaluates cervical escalation rules.
func (e *AlertEngine) CervicalAlerts(hpv, pap domain.TestResult, age int) []domain.ClinicalAlert {
	var alerts []domain.ClinicalAlert

	if hpv == domain.ResultPositive && pap == domain.ResultPositive && age > 30 {
		alerts = append(alerts, domain.ClinicalAlert{
			Level:    domain.RiskHigh,
			Message:  "HPV positive with abnormal Pap smear at age over 30.",
			Action:   "Refer for colposcopy",
			Deadline: "Within 2 weeks",
		})
	}

	for _, a := range alerts {
		e.log.WithFields(logrus.Fields{
			"alert":    a.Message,
			"action":   a.Action,
			"deadline": a.Deadline,
		}).Warn("Clinical alert raised")
	}

	return alerts
}

// OvarianAlerts evaluates ovarian escalation rules from imaging and lab
// findings when they are available.
func (e *AlertEngine) OvarianAlerts(cystSizeCM, ca125 float64) []domain.ClinicalAlert {
	var alerts []domain.ClinicalAlert

	if cystSizeCM > 5 {
		alerts = append(alerts, domain.ClinicalAlert{
			Level:    domain.RiskHigh,
			Message:  "Ovarian cyst larger than 5 cm on imaging.",
			Action:   "Urgent gynecology referral",
			Deadline: "Within 1 week",
		})
	}
	// CA-125 above 35 U/mL is the conventional referral threshold.
	if ca125 > 35 {
		alerts = append(alerts, domain.ClinicalAlert{
			Level:    domain.RiskHigh,
			Message:  "CA-125 above reference range.",
			Action:   "Urgent gynecology referral",
			Deadline: "Within 1 week",
		})
	}

	for _, a := range alerts {
		e.log.WithFields(logrus.Fields{
			"alert":    a.Message,
			"action":   a.Action,
			"deadline": a.Deadline,
		}).Warn("Clinical alert raised")
	}

	return alerts
}
