package domain

import "context"

// ConfigManager provides typed access to application configuration.
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	Validate() error
}

// ModelService is the statistical classifier collaborator used by the
// legacy recommendation flows.
type ModelService interface {
	// Predict returns the model's recommendation label for encoded features.
	Predict(ctx context.Context, condition Condition, features []int) (string, error)

	// PredictProba returns the class probability vector for encoded features.
	PredictProba(ctx context.Context, condition Condition, features []int) ([]float64, error)

	// PopulationScores returns the population risk-score vector used for
	// percentile ranking.
	PopulationScores(ctx context.Context, condition Condition) ([]float64, error)
}

// AssessmentStore persists completed assessments.
type AssessmentStore interface {
	Create(ctx context.Context, record *AssessmentRecord) error
	GetByID(ctx context.Context, id string) (*AssessmentRecord, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*AssessmentRecord, error)
	CountByTier(ctx context.Context) ([]TierCount, error)
}

// RegionResolver resolves a patient's region for specialist referral.
type RegionResolver interface {
	ResolveRegion(ctx context.Context, patientID string) (string, error)
	SpecialistsByRegion(ctx context.Context, region string) ([]Specialist, error)
}

// SMSSender delivers reminder messages.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}
