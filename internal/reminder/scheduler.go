package reminder

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
	"github.com/afyacheck/screening-server/internal/followup"
)

// Scheduler sweeps the follow-up store once a day and sends SMS
// reminders for everything due. Failed sends stay unsent and are
// retried on the next sweep.
type Scheduler struct {
	log    *logrus.Logger
	store  followup.Store
	sender domain.SMSSender
	cfg    domain.ReminderConfig

	// now is swappable for tests.
	now func() time.Time
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(logger *logrus.Logger, store followup.Store, sender domain.SMSSender, cfg domain.ReminderConfig) *Scheduler {
	return &Scheduler{
		log:    logger,
		store:  store,
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run blocks until the context is cancelled, sweeping at the configured
// hour each day. An initial sweep runs at startup to catch reminders
// that came due while the service was down.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("Reminder scheduler disabled")
		return
	}

	s.log.WithField("daily_hour", s.cfg.DailyHour).Info("Reminder scheduler started")

	s.Sweep(ctx)

	for {
		next := s.nextRun()
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Reminder scheduler stopped")
			return
		}
	}
}

// nextRun returns the next occurrence of the configured daily hour.
func (s *Scheduler) nextRun() time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.DailyHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Sweep sends every due reminder once. Each reminder is marked sent
// only after the gateway accepts it.
func (s *Scheduler) Sweep(ctx context.Context) {
	due, err := s.store.ListDue(ctx, s.now())
	if err != nil {
		s.log.WithError(err).Error("Failed to list due follow-ups")
		return
	}

	if len(due) == 0 {
		s.log.Debug("No follow-up reminders due")
		return
	}

	sent := 0
	for _, fu := range due {
		if ctx.Err() != nil {
			return
		}

		message := fu.Message
		if message == "" {
			message = s.cfg.Message
		}

		if err := s.sender.Send(ctx, fu.Phone, message); err != nil {
			s.log.WithFields(logrus.Fields{
				"followup_id": fu.ID,
				"patient_id":  fu.PatientID,
				"error":       err,
			}).Warn("Failed to send reminder, will retry next sweep")
			continue
		}

		if err := s.store.MarkSent(ctx, fu.ID, s.now()); err != nil {
			s.log.WithFields(logrus.Fields{
				"followup_id": fu.ID,
				"error":       err,
			}).Error("Reminder sent but could not be marked, may resend")
			continue
		}
		sent++
	}

	s.log.WithFields(logrus.Fields{
		"due":  len(due),
		"sent": sent,
	}).Info("Reminder sweep completed")
}
