package service

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// TimelineBuilder assembles a patient's longitudinal assessment history
// with score deltas between consecutive assessments of the same condition.
type TimelineBuilder struct {
	log   *logrus.Logger
	store domain.AssessmentStore
}

// NewTimelineBuilder creates a patient history timeline builder.
func NewTimelineBuilder(logger *logrus.Logger, store domain.AssessmentStore) *TimelineBuilder {
	return &TimelineBuilder{log: logger, store: store}
}

// maxTimelineEntries bounds the history pulled for one patient.
const maxTimelineEntries = 200

// Build returns the patient's assessments oldest-first with risk
// progression annotations.
func (b *TimelineBuilder) Build(ctx context.Context, patientID string) ([]domain.TimelineEntry, error) {
	records, err := b.store.ListByPatient(ctx, patientID, maxTimelineEntries, 0)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	lastScore := map[domain.Condition]int{}
	entries := make([]domain.TimelineEntry, 0, len(records))
	for _, r := range records {
		entry := domain.TimelineEntry{
			AssessmentID: r.ID,
			Condition:    r.Condition,
			Score:        r.Score,
			RiskLevel:    r.RiskLevel,
			CreatedAt:    r.CreatedAt,
		}

		if prev, ok := lastScore[r.Condition]; ok {
			entry.ScoreDelta = r.Score - prev
			switch {
			case entry.ScoreDelta > 0:
				entry.Trend = "worsening"
			case entry.ScoreDelta < 0:
				entry.Trend = "improving"
			default:
				entry.Trend = "stable"
			}
		} else {
			entry.Trend = "baseline"
		}
		lastScore[r.Condition] = r.Score

		entries = append(entries, entry)
	}

	b.log.WithFields(logrus.Fields{
		"patient_id": patientID,
		"entries":    len(entries),
	}).Debug("Patient timeline built")

	return entries, nil
}
