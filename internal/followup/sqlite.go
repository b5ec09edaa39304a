package followup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite follow-up store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	// Create schema
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanFollowUp scans a row into a FollowUp struct.
func scanFollowUp(s scanner) (*FollowUp, error) {
	fu := &FollowUp{}
	var sentAt sql.NullTime

	err := s.Scan(
		&fu.ID, &fu.PatientID, &fu.Phone, &fu.Condition,
		&fu.DueDate, &fu.Message, &fu.Sent, &sentAt,
		&fu.CreatedAt, &fu.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sentAt.Valid {
		fu.SentAt = sentAt.Time
	}
	return fu, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS followups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id TEXT NOT NULL,
		phone TEXT NOT NULL,
		condition TEXT DEFAULT '',
		due_date DATETIME NOT NULL,
		message TEXT DEFAULT '',
		sent INTEGER NOT NULL DEFAULT 0,
		sent_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(patient_id, due_date)
	);

	CREATE INDEX IF NOT EXISTS idx_followups_patient ON followups(patient_id);
	CREATE INDEX IF NOT EXISTS idx_followups_due ON followups(due_date);
	CREATE INDEX IF NOT EXISTS idx_followups_sent ON followups(sent);
	`

	_, err := db.Exec(schema)
	return err
}

const selectColumns = `id, patient_id, phone, condition,
		due_date, message, sent, sent_at, created_at, updated_at`

// Save stores or updates a follow-up reminder.
func (s *SQLiteStore) Save(ctx context.Context, fu *FollowUp) error {
	now := time.Now()

	// Check if exists
	var existingID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM followups WHERE patient_id = ? AND due_date = ?",
		fu.PatientID, fu.DueDate,
	).Scan(&existingID)

	if err == nil {
		// Update existing
		fu.ID = existingID
		fu.UpdatedAt = now

		_, err = s.db.ExecContext(ctx, `
			UPDATE followups SET
				phone = ?,
				condition = ?,
				message = ?,
				sent = ?,
				updated_at = ?
			WHERE id = ?
		`,
			fu.Phone,
			fu.Condition,
			fu.Message,
			fu.Sent,
			now,
			existingID,
		)
		return err
	}

	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing: %w", err)
	}

	// Insert new
	fu.CreatedAt = now
	fu.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO followups (
			patient_id, phone, condition, due_date, message, sent,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		fu.PatientID,
		fu.Phone,
		fu.Condition,
		fu.DueDate,
		fu.Message,
		fu.Sent,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	fu.ID = id

	return nil
}

// Get retrieves the follow-up for a patient and due date.
func (s *SQLiteStore) Get(ctx context.Context, patientID string, dueDate time.Time) (*FollowUp, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM followups
		WHERE patient_id = ? AND due_date = ?
		LIMIT 1
	`, patientID, dueDate)

	fu, err := scanFollowUp(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return fu, nil
}

// ListByPatient returns a patient's follow-ups newest-due-first.
func (s *SQLiteStore) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*FollowUp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM followups
		WHERE patient_id = ?
		ORDER BY due_date DESC
		LIMIT ? OFFSET ?
	`, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// ListDue returns unsent follow-ups due on or before asOf, oldest first.
func (s *SQLiteStore) ListDue(ctx context.Context, asOf time.Time) ([]*FollowUp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM followups
		WHERE sent = 0 AND due_date <= ?
		ORDER BY due_date ASC
	`, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

func collectRows(rows *sql.Rows) ([]*FollowUp, error) {
	var result []*FollowUp
	for rows.Next() {
		fu, err := scanFollowUp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, fu)
	}
	return result, rows.Err()
}

// MarkSent records delivery of the reminder.
func (s *SQLiteStore) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE followups SET sent = 1, sent_at = ?, updated_at = ?
		WHERE id = ?
	`, sentAt, time.Now(), id)
	return err
}

// Count returns the total number of follow-ups.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM followups").Scan(&count)
	return count, err
}

// Delete removes a follow-up by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM followups WHERE id = ?", id)
	return err
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// ExportJSON exports all follow-ups to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM followups
		ORDER BY due_date DESC
		LIMIT ?
	`, maxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to list follow-ups: %w", err)
	}
	defer rows.Close()

	all, err := collectRows(rows)
	if err != nil {
		return fmt.Errorf("failed to list follow-ups: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		FollowUps:  all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports follow-ups from a JSON reader.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, fu := range export.FollowUps {
		// Check if exists
		existing, err := s.Get(ctx, fu.PatientID, fu.DueDate)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if existing != nil {
			skipped++
			continue
		}

		// Import
		if err := s.Save(ctx, fu); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
