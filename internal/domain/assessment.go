package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cervical symptom keys. Keys match the questionnaire field names so the
// weight tables and the HTTP payload stay aligned.
const (
	SymBleedingBetweenPeriods = "bleeding_between_periods"
	SymBleedingAfterSex       = "bleeding_after_sex"
	SymBleedingAfterMenopause = "bleeding_after_menopause"
	SymPeriodsHeavier         = "periods_heavier"
	SymPeriodsLonger          = "periods_longer"
	SymUnusualDischarge       = "unusual_discharge"
	SymDischargeSmellsBad     = "discharge_smells_bad"
	SymDischargeColorChange   = "discharge_color_change"
	SymPainDuringSex          = "pain_during_sex"
	SymPelvicPain             = "pelvic_pain"
	SymPainfulUrination       = "painful_urination"
	SymBloodInUrine           = "blood_in_urine"
	SymFrequentUrination      = "frequent_urination"
	SymRectalBleeding         = "rectal_bleeding"
	SymPainfulBowelMovements  = "painful_bowel_movements"
	SymUnexplainedWeightLoss  = "unexplained_weight_loss"
	SymConstantTiredness      = "constant_tiredness"
	SymLegSwelling            = "leg_swelling"
	SymBackPain               = "back_pain"
)

// Ovarian-cyst symptom keys.
const (
	SymAbdominalBloating        = "abdominal_bloating"
	SymFeelingFullQuickly       = "feeling_full_quickly"
	SymDifficultyEmptyingBladder = "difficulty_emptying_bladder"
	SymIrregularPeriods         = "irregular_periods"
	SymHeavyPeriods             = "heavy_periods"
	SymPainfulPeriods           = "painful_periods"
	SymSpottingBetweenPeriods   = "spotting_between_periods"
	SymMissedPeriods            = "missed_periods"
	SymBreastTenderness         = "breast_tenderness"
	SymMoodChanges              = "mood_changes"
	SymWeightGain               = "weight_gain"
	SymAcneChanges              = "acne_changes"
	SymHairGrowthChanges        = "hair_growth_changes"
	SymNauseaVomiting           = "nausea_vomiting"
	SymLegPain                  = "leg_pain"
	SymFatigue                  = "fatigue"
)

// Symptoms maps symptom keys to normalized answers. Missing keys are
// treated as No by the scorers.
type Symptoms map[string]YesNo

// Has reports whether the symptom is present.
func (s Symptoms) Has(key string) bool {
	return s[key] == Yes
}

// CountOf returns how many of the given symptoms are present.
func (s Symptoms) CountOf(keys ...string) int {
	n := 0
	for _, k := range keys {
		if s.Has(k) {
			n++
		}
	}
	return n
}

// AnyOf reports whether any of the given symptoms is present.
func (s Symptoms) AnyOf(keys ...string) bool {
	for _, k := range keys {
		if s.Has(k) {
			return true
		}
	}
	return false
}

// CervicalAssessment is a fully normalized cervical screening questionnaire.
// All YesNo fields must come from the normalizer; the lifestyle fields hold
// lowercased free-text categories (for example "rarely", "poor", "heavy").
type CervicalAssessment struct {
	Age                    int    `json:"age"`
	SexualPartners         int    `json:"sexual_partners"`
	AgeFirstIntercourse    int    `json:"age_first_intercourse"`
	Smoking                YesNo  `json:"smoking"`
	FamilyCancerHistory    YesNo  `json:"family_cancer_history"`
	PreviousSTDs           YesNo  `json:"previous_stds"`
	HIVPositive            YesNo  `json:"hiv_positive"`
	ImmunosuppressiveDrugs YesNo  `json:"immunosuppressive_drugs"`
	HPVVaccination         YesNo  `json:"hpv_vaccination"`
	Exercise               string `json:"exercise"`
	Diet                   string `json:"diet"`
	Alcohol                string `json:"alcohol"`
	Stress                 string `json:"stress"`
	Sleep                  string `json:"sleep"`
	ContraceptiveMethod    string `json:"contraceptive_method"`
	LastScreening          string `json:"last_screening"`

	Symptoms Symptoms `json:"symptoms"`
}

// OvarianCystAssessment is a fully normalized ovarian-cyst questionnaire.
type OvarianCystAssessment struct {
	Age                   int    `json:"age"`
	CycleLength           int    `json:"cycle_length"`
	MenstrualIrregularity YesNo  `json:"menstrual_irregularity"`
	PregnancyHistory      YesNo  `json:"pregnancy_history"`
	FamilyHistoryOvarian  YesNo  `json:"family_history_ovarian"`
	PCOSDiagnosis         YesNo  `json:"pcos_diagnosis"`
	Endometriosis         YesNo  `json:"endometriosis"`
	PreviousOvarianCysts  YesNo  `json:"previous_ovarian_cysts"`
	HormoneTherapy        YesNo  `json:"hormone_therapy"`
	FertilityTreatments   YesNo  `json:"fertility_treatments"`
	Smoking               YesNo  `json:"smoking"`
	Weight                string `json:"weight"`
	Exercise              string `json:"exercise"`
	Diet                  string `json:"diet"`
	Stress                string `json:"stress"`
	ContraceptiveMethod   string `json:"contraceptive_method"`
	LastPelvicExam        string `json:"last_pelvic_exam"`

	Symptoms Symptoms `json:"symptoms"`
}

// FactorContribution records one scored factor for the breakdown that
// accompanies every risk score.
type FactorContribution struct {
	Factor string `json:"factor"`
	Points int    `json:"points"`
}

// ScoreResult is the outcome of a risk scorer: the clamped score plus the
// per-factor contributions before clamping.
type ScoreResult struct {
	Score   int                  `json:"score"`
	Factors []FactorContribution `json:"factors"`
}

// PercentileResult places an assessment against age-group population
// baselines.
type PercentileResult struct {
	Percentile        int    `json:"percentile"`
	AgeGroup          string `json:"age_group"`
	RiskFactorsCount  int    `json:"risk_factors_count"`
	Interpretation    string `json:"interpretation"`
	PopulationContext string `json:"population_context"`
}

// GuidelineMatch is the result of validating a proposed recommendation
// against the WHO/ASCCP rule table.
type GuidelineMatch struct {
	MatchedRule             string    `json:"matched_rule"`
	ValidatedRecommendation string    `json:"validated_recommendation"`
	RiskLevel               RiskLevel `json:"risk_level"`
	Guideline               string    `json:"guideline"`
	Rationale               string    `json:"rationale"`
	MinimumAge              int       `json:"minimum_age"`
	MeetsMinimumAge         bool      `json:"meets_minimum_age"`
	IsCompliant             bool      `json:"is_compliant"`
}

// CarePlan is a generated follow-up plan for an assessment.
type CarePlan struct {
	Summary          string   `json:"summary"`
	Timeline         string   `json:"timeline"`
	NextSteps        string   `json:"next_steps"`
	Resources        []string `json:"resources"`
	MonitoringPlan   string   `json:"monitoring_plan"`
	LifestyleActions []string `json:"lifestyle_actions"`
}

// EducationContent is patient-facing explanatory material for an
// assessment result.
type EducationContent struct {
	WhatThisMeans            string   `json:"what_this_means"`
	WhyItMatters             string   `json:"why_it_matters"`
	LifestyleRecommendations []string `json:"lifestyle_recommendations"`
	PreventionTips           []string `json:"prevention_tips"`
}

// ClinicalAlert flags findings that need escalation outside the normal
// care-plan timeline.
type ClinicalAlert struct {
	Level    RiskLevel `json:"level"`
	Message  string    `json:"message"`
	Action   string    `json:"action"`
	Deadline string    `json:"deadline"`
}

// InsuranceCoverage estimates screening coverage eligibility.
type InsuranceCoverage struct {
	Score  int    `json:"score"`
	Likely string `json:"likely"` // "Yes" or "Possibly"
}

// AssessmentRecord is the persisted form of a completed assessment.
type AssessmentRecord struct {
	ID         uuid.UUID `json:"id"`
	PatientID  string    `json:"patient_id"`
	Condition  Condition `json:"condition"`
	Score      int       `json:"score"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Percentile int       `json:"percentile"`
	CarePlan   *CarePlan `json:"care_plan,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TimelineEntry is one assessment in a patient's longitudinal history.
type TimelineEntry struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
	Condition    Condition `json:"condition"`
	Score        int       `json:"score"`
	RiskLevel    RiskLevel `json:"risk_level"`
	ScoreDelta   int       `json:"score_delta"`
	Trend        string    `json:"trend"` // "improving", "worsening", "stable"
	CreatedAt    time.Time `json:"created_at"`
}

// TierCount is a population-health rollup row.
type TierCount struct {
	Condition Condition `json:"condition"`
	RiskLevel RiskLevel `json:"risk_level"`
	Count     int64     `json:"count"`
}

// Specialist is a regional referral contact.
type Specialist struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Region    string `json:"region"`
	Phone     string `json:"phone"`
	Facility  string `json:"facility"`
}

// Patient is a registered screening program participant.
type Patient struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Region       string    `json:"region"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
