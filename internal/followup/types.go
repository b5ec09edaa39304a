package followup

import (
	"context"
	"io"
	"time"
)

// FollowUp is a scheduled screening reminder for a patient. One row per
// patient and due date; rescheduling the same date updates in place.
type FollowUp struct {
	ID           int64     `json:"id"`
	PatientID    string    `json:"patient_id"`
	Phone        string    `json:"phone"`
	Condition    string    `json:"condition"`
	DueDate      time.Time `json:"due_date"`
	Message      string    `json:"message"`
	Sent         bool      `json:"sent"`
	SentAt       time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists follow-up reminders.
type Store interface {
	// Save stores a follow-up, updating the existing row when one exists
	// for the same patient and due date.
	Save(ctx context.Context, fu *FollowUp) error

	// Get retrieves the follow-up for a patient and due date, or nil.
	Get(ctx context.Context, patientID string, dueDate time.Time) (*FollowUp, error)

	// ListByPatient returns a patient's follow-ups with pagination.
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*FollowUp, error)

	// ListDue returns unsent follow-ups due on or before the given time.
	ListDue(ctx context.Context, asOf time.Time) ([]*FollowUp, error)

	// MarkSent records that the reminder was delivered.
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error

	// Count returns the total number of follow-ups.
	Count(ctx context.Context) (int64, error)

	// Delete removes a follow-up by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON writes all follow-ups as JSON.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON reads follow-ups from JSON, skipping existing rows.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close releases store resources.
	Close() error
}

// Export is the JSON envelope for follow-up dumps.
type Export struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	FollowUps  []*FollowUp `json:"follow_ups"`
}
