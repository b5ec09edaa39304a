package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// AssessmentRepository handles assessment record persistence
type AssessmentRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *pgxpool.Pool, logger *logrus.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new assessment record
func (r *AssessmentRepository) Create(ctx context.Context, record *domain.AssessmentRecord) error {
	carePlan, err := json.Marshal(record.CarePlan)
	if err != nil {
		return fmt.Errorf("marshaling care plan: %w", err)
	}

	query := `
		INSERT INTO assessments (
			id, patient_id, condition, score, risk_level, percentile,
			care_plan, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err = r.db.Exec(ctx, query,
		record.ID,
		record.PatientID,
		string(record.Condition),
		record.Score,
		string(record.RiskLevel),
		record.Percentile,
		carePlan,
		record.CreatedAt,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"assessment_id": record.ID,
			"patient_id":    record.PatientID,
			"error":         err,
		}).Error("Failed to create assessment record")
		return fmt.Errorf("creating assessment: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"assessment_id": record.ID,
		"patient_id":    record.PatientID,
		"condition":     record.Condition,
		"risk_level":    record.RiskLevel,
	}).Info("Assessment record created")

	return nil
}

// GetByID retrieves an assessment record by its ID
func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*domain.AssessmentRecord, error) {
	query := `
		SELECT id, patient_id, condition, score, risk_level, percentile,
			   care_plan, created_at
		FROM assessments
		WHERE id = $1`

	record, err := r.scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("assessment not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"assessment_id": id,
			"error":         err,
		}).Error("Failed to get assessment by ID")
		return nil, fmt.Errorf("getting assessment by ID: %w", err)
	}

	return record, nil
}

// ListByPatient retrieves a patient's assessments newest-first with
// pagination
func (r *AssessmentRepository) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*domain.AssessmentRecord, error) {
	query := `
		SELECT id, patient_id, condition, score, risk_level, percentile,
			   care_plan, created_at
		FROM assessments
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, patientID, limit, offset)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to list assessments by patient")
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var records []*domain.AssessmentRecord
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessment rows: %w", err)
	}

	return records, nil
}

// CountByTier returns assessment counts grouped by condition and risk
// level for population-health rollups
func (r *AssessmentRepository) CountByTier(ctx context.Context) ([]domain.TierCount, error) {
	query := `
		SELECT condition, risk_level, COUNT(*)
		FROM assessments
		GROUP BY condition, risk_level
		ORDER BY condition, risk_level`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithError(err).Error("Failed to count assessments by tier")
		return nil, fmt.Errorf("counting assessments by tier: %w", err)
	}
	defer rows.Close()

	var counts []domain.TierCount
	for rows.Next() {
		var tc domain.TierCount
		var condition, level string
		if err := rows.Scan(&condition, &level, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning tier count row: %w", err)
		}
		tc.Condition = domain.Condition(condition)
		tc.RiskLevel = domain.RiskLevel(level)
		counts = append(counts, tc)
	}

	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AssessmentRepository) scanRecord(row rowScanner) (*domain.AssessmentRecord, error) {
	var record domain.AssessmentRecord
	var condition, level string
	var carePlan []byte

	err := row.Scan(
		&record.ID,
		&record.PatientID,
		&condition,
		&record.Score,
		&level,
		&record.Percentile,
		&carePlan,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Condition = domain.Condition(condition)
	record.RiskLevel = domain.RiskLevel(level)

	if len(carePlan) > 0 {
		var plan domain.CarePlan
		if err := json.Unmarshal(carePlan, &plan); err != nil {
			return nil, fmt.Errorf("unmarshaling care plan: %w", err)
		}
		record.CarePlan = &plan
	}

	return &record, nil
}

// PatientRepository handles patient persistence and region resolution
type PatientRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *pgxpool.Pool, logger *logrus.Logger) *PatientRepository {
	return &PatientRepository{db: db, log: logger}
}

// Create inserts a new patient
func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	query := `
		INSERT INTO patients (id, name, phone, region, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query, p.ID, p.Name, p.Phone, p.Region, p.PasswordHash, p.CreatedAt)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": p.ID,
			"error":      err,
		}).Error("Failed to create patient")
		return fmt.Errorf("creating patient: %w", err)
	}

	r.log.WithField("patient_id", p.ID).Info("Patient created")
	return nil
}

// GetByPhone retrieves a patient by phone number
func (r *PatientRepository) GetByPhone(ctx context.Context, phone string) (*domain.Patient, error) {
	query := `
		SELECT id, name, phone, region, password_hash, created_at
		FROM patients
		WHERE phone = $1`

	var p domain.Patient
	err := r.db.QueryRow(ctx, query, phone).Scan(
		&p.ID, &p.Name, &p.Phone, &p.Region, &p.PasswordHash, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("patient not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting patient by phone: %w", err)
	}

	return &p, nil
}

// ResolveRegion returns the patient's region, title-cased for display.
func (r *PatientRepository) ResolveRegion(ctx context.Context, patientID string) (string, error) {
	query := `SELECT region FROM patients WHERE id = $1`

	var region string
	err := r.db.QueryRow(ctx, query, patientID).Scan(&region)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("patient not found: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("resolving region: %w", err)
	}

	region = strings.TrimSpace(region)
	if region == "" {
		return "", fmt.Errorf("patient %s has no region: %w", patientID, domain.ErrNotFound)
	}

	return titleCase(region), nil
}

// SpecialistsByRegion retrieves referral contacts for a region
func (r *PatientRepository) SpecialistsByRegion(ctx context.Context, region string) ([]domain.Specialist, error) {
	query := `
		SELECT name, specialty, region, phone, facility
		FROM specialists
		WHERE LOWER(region) = LOWER($1)
		ORDER BY name`

	rows, err := r.db.Query(ctx, query, region)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"region": region,
			"error":  err,
		}).Error("Failed to list specialists by region")
		return nil, fmt.Errorf("listing specialists: %w", err)
	}
	defer rows.Close()

	var specialists []domain.Specialist
	for rows.Next() {
		var s domain.Specialist
		if err := rows.Scan(&s.Name, &s.Specialty, &s.Region, &s.Phone, &s.Facility); err != nil {
			return nil, fmt.Errorf("scanning specialist row: %w", err)
		}
		specialists = append(specialists, s)
	}

	return specialists, rows.Err()
}

// titleCase uppercases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
