package followup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL follow-up store.
// It expects the database and schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL follow-up store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

const pgSelectColumns = `id, patient_id, phone, condition,
		due_date, message, sent, sent_at, created_at, updated_at`

// Save stores or updates a follow-up reminder.
func (s *PostgresStore) Save(ctx context.Context, fu *FollowUp) error {
	now := time.Now()

	// Use upsert (INSERT ... ON CONFLICT)
	query := `
		INSERT INTO followups (
			patient_id, phone, condition, due_date, message, sent,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (patient_id, due_date) DO UPDATE SET
			phone = EXCLUDED.phone,
			condition = EXCLUDED.condition,
			message = EXCLUDED.message,
			sent = EXCLUDED.sent,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		fu.PatientID,
		fu.Phone,
		fu.Condition,
		fu.DueDate,
		fu.Message,
		fu.Sent,
		now,
		now,
	).Scan(&fu.ID, &fu.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save follow-up: %w", err)
	}

	fu.UpdatedAt = now
	return nil
}

// Get retrieves the follow-up for a patient and due date.
func (s *PostgresStore) Get(ctx context.Context, patientID string, dueDate time.Time) (*FollowUp, error) {
	query := `
		SELECT ` + pgSelectColumns + `
		FROM followups
		WHERE patient_id = $1 AND due_date = $2
		LIMIT 1
	`

	fu, err := pgScanFollowUp(s.db.QueryRowContext(ctx, query, patientID, dueDate))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get follow-up: %w", err)
	}
	return fu, nil
}

// ListByPatient returns a patient's follow-ups with pagination.
func (s *PostgresStore) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*FollowUp, error) {
	query := `
		SELECT ` + pgSelectColumns + `
		FROM followups
		WHERE patient_id = $1
		ORDER BY due_date DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow-ups: %w", err)
	}
	defer rows.Close()

	return pgCollectRows(rows)
}

// ListDue returns unsent follow-ups due on or before asOf, oldest first.
func (s *PostgresStore) ListDue(ctx context.Context, asOf time.Time) ([]*FollowUp, error) {
	query := `
		SELECT ` + pgSelectColumns + `
		FROM followups
		WHERE sent = FALSE AND due_date <= $1
		ORDER BY due_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list due follow-ups: %w", err)
	}
	defer rows.Close()

	return pgCollectRows(rows)
}

func pgScanFollowUp(s scanner) (*FollowUp, error) {
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

func pgCollectRows(rows *sql.Rows) ([]*FollowUp, error) {
	var result []*FollowUp
	for rows.Next() {
		fu, err := pgScanFollowUp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, fu)
	}
	return result, rows.Err()
}

// MarkSent records delivery of the reminder.
func (s *PostgresStore) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE followups SET sent = TRUE, sent_at = $1, updated_at = $2
		WHERE id = $3
	`, sentAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark follow-up sent: %w", err)
	}
	return nil
}

// Count returns the total number of follow-ups.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM followups").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count follow-ups: %w", err)
	}
	return count, nil
}

// Delete removes a follow-up by ID.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM followups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete follow-up: %w", err)
	}
	return nil
}

// pgMaxExportLimit is the maximum number of entries to export at once.
const pgMaxExportLimit = 1000000

// ExportJSON exports all follow-ups to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	query := `
		SELECT ` + pgSelectColumns + `
		FROM followups
		ORDER BY due_date DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, pgMaxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to list follow-ups: %w", err)
	}
	defer rows.Close()

	all, err := pgCollectRows(rows)
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
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
