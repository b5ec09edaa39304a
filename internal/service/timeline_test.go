package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyacheck/screening-server/internal/domain"
)

func TestTimelineBuildOrdersAndAnnotates(t *testing.T) {
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store := &memStore{records: []*domain.AssessmentRecord{
		// Deliberately out of order.
		{
			ID: uuid.New(), PatientID: "p-1", Condition: domain.ConditionCervicalDetailed,
			Score: 40, RiskLevel: domain.RiskModerate, CreatedAt: base.AddDate(0, 2, 0),
		},
		{
			ID: uuid.New(), PatientID: "p-1", Condition: domain.ConditionCervicalDetailed,
			Score: 55, RiskLevel: domain.RiskModerate, CreatedAt: base,
		},
		{
			ID: uuid.New(), PatientID: "p-1", Condition: domain.ConditionOvarianCystDetailed,
			Score: 30, RiskLevel: domain.RiskLow, CreatedAt: base.AddDate(0, 1, 0),
		},
		{
			ID: uuid.New(), PatientID: "p-1", Condition: domain.ConditionCervicalDetailed,
			Score: 40, RiskLevel: domain.RiskModerate, CreatedAt: base.AddDate(0, 4, 0),
		},
	}}

	b := NewTimelineBuilder(testLogger(), store)
	entries, err := b.Build(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Oldest first.
	assert.Equal(t, 55, entries[0].Score)
	assert.Equal(t, "baseline", entries[0].Trend)

	// The ovarian assessment starts its own baseline; cervical deltas skip it.
	assert.Equal(t, domain.ConditionOvarianCystDetailed, entries[1].Condition)
	assert.Equal(t, "baseline", entries[1].Trend)

	assert.Equal(t, 40, entries[2].Score)
	assert.Equal(t, -15, entries[2].ScoreDelta)
	assert.Equal(t, "improving", entries[2].Trend)

	assert.Equal(t, 0, entries[3].ScoreDelta)
	assert.Equal(t, "stable", entries[3].Trend)
}

func TestTimelineBuildEmptyHistory(t *testing.T) {
	b := NewTimelineBuilder(testLogger(), &memStore{})

	entries, err := b.Build(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
