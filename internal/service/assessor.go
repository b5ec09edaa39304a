package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// CervicalAssessmentRequest is the raw cervical questionnaire as submitted.
// Answer fields are free text until the normalizer has seen them.
type CervicalAssessmentRequest struct {
	PatientID              string            `json:"patient_id"`
	Age                    int               `json:"age"`
	SexualPartners         int               `json:"sexual_partners"`
	AgeFirstIntercourse    int               `json:"age_first_intercourse"`
	Smoking                string            `json:"smoking"`
	FamilyCancerHistory    string            `json:"family_cancer_history"`
	PreviousSTDs           string            `json:"previous_stds"`
	HIVPositive            string            `json:"hiv_positive"`
	ImmunosuppressiveDrugs string            `json:"immunosuppressive_drugs"`
	HPVVaccination         string            `json:"hpv_vaccination"`
	Exercise               string            `json:"exercise"`
	Diet                   string            `json:"diet"`
	Alcohol                string            `json:"alcohol"`
	Stress                 string            `json:"stress"`
	Sleep                  string            `json:"sleep"`
	ContraceptiveMethod    string            `json:"contraceptive_method"`
	LastScreening          string            `json:"last_screening"`
	Symptoms               map[string]string `json:"symptoms"`
}

// OvarianAssessmentRequest is the raw ovarian-cyst questionnaire.
type OvarianAssessmentRequest struct {
	PatientID             string            `json:"patient_id"`
	Age                   int               `json:"age"`
	CycleLength           int               `json:"cycle_length"`
	MenstrualIrregularity string            `json:"menstrual_irregularity"`
	PregnancyHistory      string            `json:"pregnancy_history"`
	FamilyHistoryOvarian  string            `json:"family_history_ovarian"`
	PCOSDiagnosis         string            `json:"pcos_diagnosis"`
	Endometriosis         string            `json:"endometriosis"`
	PreviousOvarianCysts  string            `json:"previous_ovarian_cysts"`
	HormoneTherapy        string            `json:"hormone_therapy"`
	FertilityTreatments   string            `json:"fertility_treatments"`
	Smoking               string            `json:"smoking"`
	Weight                string            `json:"weight"`
	Exercise              string            `json:"exercise"`
	Diet                  string            `json:"diet"`
	Stress                string            `json:"stress"`
	ContraceptiveMethod   string            `json:"contraceptive_method"`
	LastPelvicExam        string            `json:"last_pelvic_exam"`
	CystSizeCM            float64           `json:"cyst_size_cm,omitempty"`
	CA125                 float64           `json:"ca125,omitempty"`
	Symptoms              map[string]string `json:"symptoms"`
}

// AssessmentResponse is the full decision-support bundle for one
// completed assessment.
type AssessmentResponse struct {
	AssessmentID uuid.UUID                  `json:"assessment_id"`
	Condition    domain.Condition           `json:"condition"`
	Score        int                        `json:"score"`
	Factors      []domain.FactorContribution `json:"factors"`
	RiskLevel    domain.RiskLevel           `json:"risk_level"`
	Percentile   *domain.PercentileResult   `json:"percentile"`
	Coverage     *domain.InsuranceCoverage  `json:"insurance_coverage"`
	CarePlan     *domain.CarePlan           `json:"care_plan"`
	Education    *domain.EducationContent   `json:"education"`
	Alerts       []domain.ClinicalAlert     `json:"alerts,omitempty"`
}

// Assessor orchestrates the detailed assessment pipeline: validate,
// normalize, score, classify, rank, plan, persist.
type Assessor struct {
	log        *logrus.Logger
	cervical   *CervicalScorer
	ovarian    *OvarianCystScorer
	percentile *PercentileEngine
	carePlans  *CarePlanGenerator
	education  *EducationGenerator
	alerts     *AlertEngine
	store      domain.AssessmentStore
}

// NewAssessor creates the assessment orchestrator. The store may be nil
// for stateless evaluation.
func NewAssessor(logger *logrus.Logger, store domain.AssessmentStore) *Assessor {
	return &Assessor{
		log:        logger,
		cervical:   NewCervicalScorer(logger),
		ovarian:    NewOvarianCystScorer(logger),
		percentile: NewPercentileEngine(logger),
		carePlans:  NewCarePlanGenerator(logger),
		education:  NewEducationGenerator(logger),
		alerts:     NewAlertEngine(logger),
		store:      store,
	}
}

// AssessCervical runs the full cervical pipeline.
func (s *Assessor) AssessCervical(ctx context.Context, req *CervicalAssessmentRequest) (*AssessmentResponse, error) {
	if err := validateAge(req.Age); err != nil {
		return nil, err
	}

	a, err := s.normalizeCervical(req)
	if err != nil {
		return nil, err
	}

	result := s.cervical.Score(a)
	level, err := ClassifyRisk(domain.ConditionCervicalDetailed, result.Score)
	if err != nil {
		return nil, err
	}

	resp := &AssessmentResponse{
		AssessmentID: uuid.New(),
		Condition:    domain.ConditionCervicalDetailed,
		Score:        result.Score,
		Factors:      result.Factors,
		RiskLevel:    level,
		Percentile:   s.percentile.CervicalPercentile(a, result.Score),
		Coverage:     s.cervical.CervicalCoverage(a, level),
		CarePlan:     s.carePlans.CervicalCarePlan(a, level),
		Education:    s.education.CervicalEducation(a, level),
	}

	s.persist(ctx, req.PatientID, resp)
	return resp, nil
}

// AssessOvarianCyst runs the full ovarian-cyst pipeline.
func (s *Assessor) AssessOvarianCyst(ctx context.Context, req *OvarianAssessmentRequest) (*AssessmentResponse, error) {
	if err := validateAge(req.Age); err != nil {
		return nil, err
	}

	a, err := s.normalizeOvarian(req)
	if err != nil {
		return nil, err
	}

	result := s.ovarian.Score(a)
	level, err := ClassifyRisk(domain.ConditionOvarianCystDetailed, result.Score)
	if err != nil {
		return nil, err
	}

	resp := &AssessmentResponse{
		AssessmentID: uuid.New(),
		Condition:    domain.ConditionOvarianCystDetailed,
		Score:        result.Score,
		Factors:      result.Factors,
		RiskLevel:    level,
		Percentile:   s.percentile.OvarianCystPercentile(a, result.Score),
		Coverage:     s.ovarian.OvarianCoverage(a, level),
		CarePlan:     s.carePlans.OvarianCarePlan(a, level),
		Education:    s.education.OvarianEducation(a, level),
		Alerts:       s.alerts.OvarianAlerts(req.CystSizeCM, req.CA125),
	}

	s.persist(ctx, req.PatientID, resp)
	return resp, nil
}

// persist stores the assessment record. Storage failure degrades the
// request instead of aborting it: the clinical answer is already
// computed, so losing the audit row is logged and surfaced in metrics,
// not returned to the patient.
func (s *Assessor) persist(ctx context.Context, patientID string, resp *AssessmentResponse) {
	if s.store == nil || patientID == "" {
		return
	}

	record := &domain.AssessmentRecord{
		ID:         resp.AssessmentID,
		PatientID:  patientID,
		Condition:  resp.Condition,
		Score:      resp.Score,
		RiskLevel:  resp.RiskLevel,
		Percentile: resp.Percentile.Percentile,
		CarePlan:   resp.CarePlan,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.Create(ctx, record); err != nil {
		s.log.WithFields(logrus.Fields{
			"patient_id":    patientID,
			"assessment_id": resp.AssessmentID,
			"error":         err,
		}).Error("Failed to persist assessment record")
	}
}

func (s *Assessor) normalizeCervical(req *CervicalAssessmentRequest) (*domain.CervicalAssessment, error) {
	if req.AgeFirstIntercourse <= 0 {
		return nil, domain.NewValidationError("age_first_intercourse", "is required", req.AgeFirstIntercourse)
	}

	a := &domain.CervicalAssessment{
		Age:                 req.Age,
		SexualPartners:      req.SexualPartners,
		AgeFirstIntercourse: req.AgeFirstIntercourse,
		Exercise:            canonicalize(req.Exercise),
		Diet:                canonicalize(req.Diet),
		Alcohol:             canonicalize(req.Alcohol),
		Stress:              canonicalize(req.Stress),
		Sleep:               canonicalize(req.Sleep),
		ContraceptiveMethod: strings.TrimSpace(req.ContraceptiveMethod),
		LastScreening:       strings.TrimSpace(req.LastScreening),
	}

	for _, f := range []struct {
		field string
		raw   string
		dst   *domain.YesNo
	}{
		{"smoking", req.Smoking, &a.Smoking},
		{"family_cancer_history", req.FamilyCancerHistory, &a.FamilyCancerHistory},
		{"previous_stds", req.PreviousSTDs, &a.PreviousSTDs},
		{"hiv_positive", req.HIVPositive, &a.HIVPositive},
		{"immunosuppressive_drugs", req.ImmunosuppressiveDrugs, &a.ImmunosuppressiveDrugs},
		{"hpv_vaccination", req.HPVVaccination, &a.HPVVaccination},
	} {
		v, err := requireYesNo(f.field, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	symptoms, err := NormalizeSymptoms(req.Symptoms, CervicalSymptomKeys)
	if err != nil {
		return nil, err
	}
	a.Symptoms = symptoms

	return a, nil
}

func (s *Assessor) normalizeOvarian(req *OvarianAssessmentRequest) (*domain.OvarianCystAssessment, error) {
	if req.CycleLength <= 0 {
		return nil, domain.NewValidationError("cycle_length", "is required", req.CycleLength)
	}

	a := &domain.OvarianCystAssessment{
		Age:                 req.Age,
		CycleLength:         req.CycleLength,
		Weight:              canonicalize(req.Weight),
		Exercise:            canonicalize(req.Exercise),
		Diet:                canonicalize(req.Diet),
		Stress:              canonicalize(req.Stress),
		ContraceptiveMethod: strings.TrimSpace(req.ContraceptiveMethod),
		LastPelvicExam:      strings.TrimSpace(req.LastPelvicExam),
	}

	for _, f := range []struct {
		field string
		raw   string
		dst   *domain.YesNo
	}{
		{"menstrual_irregularity", req.MenstrualIrregularity, &a.MenstrualIrregularity},
		{"pregnancy_history", req.PregnancyHistory, &a.PregnancyHistory},
		{"family_history_ovarian", req.FamilyHistoryOvarian, &a.FamilyHistoryOvarian},
		{"pcos_diagnosis", req.PCOSDiagnosis, &a.PCOSDiagnosis},
		{"endometriosis", req.Endometriosis, &a.Endometriosis},
		{"previous_ovarian_cysts", req.PreviousOvarianCysts, &a.PreviousOvarianCysts},
		{"hormone_therapy", req.HormoneTherapy, &a.HormoneTherapy},
		{"fertility_treatments", req.FertilityTreatments, &a.FertilityTreatments},
		{"smoking", req.Smoking, &a.Smoking},
	} {
		v, err := requireYesNo(f.field, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	symptoms, err := NormalizeSymptoms(req.Symptoms, OvarianSymptomKeys)
	if err != nil {
		return nil, err
	}
	a.Symptoms = symptoms

	return a, nil
}

// requireYesNo rejects a blank answer outright; a skipped question must
// never score as No. Only the symptom maps may default missing entries.
func requireYesNo(field, raw string) (domain.YesNo, error) {
	if strings.TrimSpace(raw) == "" {
		return "", domain.NewValidationError(field, "is required", raw)
	}
	return NormalizeYesNo(field, raw)
}

func validateAge(age int) error {
	if age <= 0 || age > 120 {
		return domain.NewValidationError("age", "must be between 1 and 120", age)
	}
	return nil
}
