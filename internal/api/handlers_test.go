package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/afyacheck/screening-server/internal/domain"
	"github.com/afyacheck/screening-server/internal/followup"
	"github.com/afyacheck/screening-server/internal/middleware"
	"github.com/afyacheck/screening-server/internal/service"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type stubConfig struct {
	cfg *domain.Config
}

func (s *stubConfig) GetConfig() *domain.Config                 { return s.cfg }
func (s *stubConfig) GetServerConfig() *domain.ServerConfig     { return &s.cfg.Server }
func (s *stubConfig) GetDatabaseConfig() *domain.DatabaseConfig { return &s.cfg.Database }
func (s *stubConfig) Validate() error                           { return nil }

type memAssessments struct {
	records []*domain.AssessmentRecord
}

func (m *memAssessments) Create(ctx context.Context, r *domain.AssessmentRecord) error {
	m.records = append(m.records, r)
	return nil
}

func (m *memAssessments) GetByID(ctx context.Context, id string) (*domain.AssessmentRecord, error) {
	for _, r := range m.records {
		if r.ID.String() == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memAssessments) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*domain.AssessmentRecord, error) {
	var out []*domain.AssessmentRecord
	for _, r := range m.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAssessments) CountByTier(ctx context.Context) ([]domain.TierCount, error) {
	return []domain.TierCount{
		{Condition: domain.ConditionCervicalDetailed, RiskLevel: domain.RiskHigh, Count: 3},
		{Condition: domain.ConditionCervicalDetailed, RiskLevel: domain.RiskLow, Count: 7},
	}, nil
}

type memPatients struct {
	byPhone map[string]*domain.Patient
}

func (m *memPatients) Create(ctx context.Context, p *domain.Patient) error {
	if m.byPhone == nil {
		m.byPhone = map[string]*domain.Patient{}
	}
	m.byPhone[p.Phone] = p
	return nil
}

func (m *memPatients) GetByPhone(ctx context.Context, phone string) (*domain.Patient, error) {
	if p, ok := m.byPhone[phone]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("patient not found: %w", domain.ErrNotFound)
}

func (m *memPatients) ResolveRegion(ctx context.Context, patientID string) (string, error) {
	for _, p := range m.byPhone {
		if p.ID == patientID {
			return p.Region, nil
		}
	}
	return "", fmt.Errorf("patient not found: %w", domain.ErrNotFound)
}

func (m *memPatients) SpecialistsByRegion(ctx context.Context, region string) ([]domain.Specialist, error) {
	return []domain.Specialist{
		{Name: "Dr. Achieng Odhiambo", Specialty: "Gynecology", Region: region},
	}, nil
}

type memFollowUps struct {
	items []*followup.FollowUp
}

func (m *memFollowUps) Save(ctx context.Context, fu *followup.FollowUp) error {
	fu.ID = int64(len(m.items) + 1)
	m.items = append(m.items, fu)
	return nil
}

func (m *memFollowUps) Get(ctx context.Context, patientID string, dueDate time.Time) (*followup.FollowUp, error) {
	return nil, nil
}

func (m *memFollowUps) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*followup.FollowUp, error) {
	return nil, nil
}

func (m *memFollowUps) ListDue(ctx context.Context, asOf time.Time) ([]*followup.FollowUp, error) {
	var due []*followup.FollowUp
	for _, fu := range m.items {
		if !fu.Sent && !fu.DueDate.After(asOf) {
			due = append(due, fu)
		}
	}
	return due, nil
}

func (m *memFollowUps) MarkSent(ctx context.Context, id int64, sentAt time.Time) error { return nil }
func (m *memFollowUps) Count(ctx context.Context) (int64, error)                       { return int64(len(m.items)), nil }
func (m *memFollowUps) Delete(ctx context.Context, id int64) error                     { return nil }
func (m *memFollowUps) ExportJSON(ctx context.Context, w io.Writer) error              { return nil }
func (m *memFollowUps) ImportJSON(ctx context.Context, r io.Reader) (int, int, error)  { return 0, 0, nil }
func (m *memFollowUps) Close() error                                                   { return nil }

type stubModel struct{}

func (stubModel) Predict(ctx context.Context, c domain.Condition, f []int) (string, error) {
	return "Annual Follow Up And Pap Smear In 3 Years", nil
}

func (stubModel) PredictProba(ctx context.Context, c domain.Condition, f []int) ([]float64, error) {
	return []float64{0.3, 0.7}, nil
}

func (stubModel) PopulationScores(ctx context.Context, c domain.Condition) ([]float64, error) {
	return []float64{20, 40, 60, 80}, nil
}

type testEnv struct {
	server    *Server
	tokens    *middleware.TokenManager
	patients  *memPatients
	followups *memFollowUps
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	log := testLogger()
	cfg := &domain.Config{
		Server:  domain.ServerConfig{Host: "127.0.0.1", Port: 0},
		Logging: domain.LoggingConfig{Level: "error"},
	}
	tokens := middleware.NewTokenManager(domain.AuthConfig{
		JWTSecret: "test-secret-do-not-use",
		TokenTTL:  time.Hour,
		Issuer:    "afyacheck",
	})

	assessments := &memAssessments{}
	patients := &memPatients{}
	followups := &memFollowUps{}

	deps := Dependencies{
		Assessor:    service.NewAssessor(log, assessments),
		Recommender: service.NewRecommender(log, stubModel{}),
		Timeline:    service.NewTimelineBuilder(log, assessments),
		Assessments: assessments,
		Patients:    patients,
		FollowUps:   followups,
		Tokens:      tokens,
	}

	return &testEnv{
		server:    NewServer(&stubConfig{cfg: cfg}, log, deps),
		tokens:    tokens,
		patients:  patients,
		followups: followups,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func (e *testEnv) authToken(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Issue("p-test", "+254712345678")
	require.NoError(t, err)
	return token
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Name:     "Amina Wanjiku",
		Phone:    "+254712345678",
		Region:   "nairobi",
		Password: "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var reg authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.NotEmpty(t, reg.Token)
	assert.NotEmpty(t, reg.PatientID)

	// Stored hash must verify against the original password.
	stored := env.patients.byPhone["+254712345678"]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Phone:    "+254712345678",
		Password: "s3cret-pass",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Phone:    "+254712345678",
		Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Name:     "Amina Wanjiku",
		Phone:    "+254712345678",
		Password: "short",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/population/summary", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func cervicalBody() service.CervicalAssessmentRequest {
	return service.CervicalAssessmentRequest{
		Age:                    30,
		SexualPartners:         2,
		AgeFirstIntercourse:    19,
		Smoking:                "no",
		FamilyCancerHistory:    "no",
		PreviousSTDs:           "no",
		HIVPositive:            "no",
		ImmunosuppressiveDrugs: "no",
		HPVVaccination:         "yes",
		Symptoms: map[string]string{
			"abnormal_bleeding": "no",
			"pelvic_pain":       "no",
		},
	}
}

func TestCervicalAssessmentEndpoint(t *testing.T) {
	env := setupTestServer(t)
	token := env.authToken(t)

	w := env.do(t, http.MethodPost, "/api/v1/assessments/cervical", token, cervicalBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.AssessmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ConditionCervicalDetailed, resp.Condition)
	assert.True(t, resp.RiskLevel.IsValid())
	require.NotNil(t, resp.CarePlan)
	require.NotNil(t, resp.Percentile)
}

func TestCervicalAssessmentRejectsBadEnum(t *testing.T) {
	env := setupTestServer(t)
	token := env.authToken(t)

	req := cervicalBody()
	req.Smoking = "sometimes"

	w := env.do(t, http.MethodPost, "/api/v1/assessments/cervical", token, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "NORMALIZATION")
}

func TestCervicalAssessmentRejectsMissingRequiredAnswer(t *testing.T) {
	env := setupTestServer(t)
	token := env.authToken(t)

	req := cervicalBody()
	req.FamilyCancerHistory = ""

	w := env.do(t, http.MethodPost, "/api/v1/assessments/cervical", token, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INPUT")
	assert.Contains(t, w.Body.String(), "family_cancer_history")
}

func TestOvarianCystAssessmentEndpoint(t *testing.T) {
	env := setupTestServer(t)
	token := env.authToken(t)

	req := service.OvarianAssessmentRequest{
		Age:                   28,
		CycleLength:           30,
		MenstrualIrregularity: "no",
		PregnancyHistory:      "no",
		FamilyHistoryOvarian:  "no",
		PCOSDiagnosis:         "yes",
		Endometriosis:         "no",
		PreviousOvarianCysts:  "no",
		HormoneTherapy:        "no",
		FertilityTreatments:   "no",
		Smoking:               "no",
		Symptoms: map[string]string{
			"pelvic_pain": "yes",
		},
	}

	w := env.do(t, http.MethodPost, "/api/v1/assessments/ovarian-cyst", token, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.AssessmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ConditionOvarianCystDetailed, resp.Condition)
}

func TestRecommendationEndpoint(t *testing.T) {
	env := setupTestServer(t)
	token := env.authToken(t)

	req := service.RecommendationRequest{
		Age:           30,
		ScreeningType: "hpv",
		HPVResult:     "positive",
		PapResult:     "negative",
	}

	w := env.do(t, http.MethodPost, "/api/v1/recommendations/cervical", token, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.RecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Recommendation)
	require.NotNil(t, resp.Guideline)
	assert.True(t, resp.Guideline.IsCompliant)
}

func TestPopulationSummaryEndpoint(t *testing.T) {
	env := setupTestServer(t)
	token := env.authToken(t)

	w := env.do(t, http.MethodGet, "/api/v1/population/summary", token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cervical-detailed")
}

func TestSpecialistsEndpoint(t *testing.T) {
	env := setupTestServer(t)
	token := env.authToken(t)

	w := env.do(t, http.MethodGet, "/api/v1/specialists?region=Nairobi", token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nairobi")
	assert.Contains(t, w.Body.String(), "Dr. Achieng Odhiambo")
}

func TestFollowUpEndpoints(t *testing.T) {
	env := setupTestServer(t)
	token := env.authToken(t)

	due := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	w := env.do(t, http.MethodPost, "/api/v1/followups", token, followUpRequest{
		Phone:   "+254712345678",
		DueDate: due,
		Message: "Screening follow-up due",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Created without an explicit patient falls back to the token's subject.
	require.Len(t, env.followups.items, 1)
	assert.Equal(t, "p-test", env.followups.items[0].PatientID)

	w = env.do(t, http.MethodGet, "/api/v1/followups/due", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Screening follow-up due")
}

func TestPatientHistoryEndpoint(t *testing.T) {
	env := setupTestServer(t)
	token := env.authToken(t)

	// Seed one assessment through the real pipeline.
	req := cervicalBody()
	req.PatientID = "p-test"
	w := env.do(t, http.MethodPost, "/api/v1/assessments/cervical", token, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/patients/p-test/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "baseline")
}
