package followup

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectPing()
	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	return store, mock
}

func TestPostgresStore_Save_Upsert(t *testing.T) {
	store, mock := newMockStore(t)

	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO followups")).
		WithArgs("p-100", "+254712345678", "cervical-detailed", due, "Reminder", false,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	fu := &FollowUp{
		PatientID: "p-100",
		Phone:     "+254712345678",
		Condition: "cervical-detailed",
		DueDate:   due,
		Message:   "Reminder",
	}

	err := store.Save(context.Background(), fu)
	require.NoError(t, err)
	assert.Equal(t, int64(7), fu.ID)
	assert.Equal(t, created, fu.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListDue_Mock(t *testing.T) {
	store, mock := newMockStore(t)

	asOf := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	due := asOf.AddDate(0, 0, -2)

	rows := sqlmock.NewRows([]string{
		"id", "patient_id", "phone", "condition",
		"due_date", "message", "sent", "sent_at", "created_at", "updated_at",
	}).AddRow(int64(1), "p-1", "+254700000001", "", due, "Overdue", false, nil, due, due)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE sent = FALSE AND due_date <= $1")).
		WithArgs(asOf).
		WillReturnRows(rows)

	got, err := store.ListDue(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p-1", got[0].PatientID)
	assert.False(t, got[0].Sent)
	assert.True(t, got[0].SentAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkSent_Mock(t *testing.T) {
	store, mock := newMockStore(t)

	sentAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE followups SET sent = TRUE")).
		WithArgs(sentAt, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.MarkSent(context.Background(), 7, sentAt)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
