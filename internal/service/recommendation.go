package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
)

// RecommendationRequest is the raw input to the legacy model-backed flow.
type RecommendationRequest struct {
	PatientID     string `json:"patient_id"`
	Age           int    `json:"age"`
	ScreeningType string `json:"screening_type"`
	HPVResult     string `json:"hpv_result"`
	PapResult     string `json:"pap_result"`
}

// RecommendationResponse is the legacy flow's decision bundle.
type RecommendationResponse struct {
	Recommendation   string                 `json:"recommendation"`
	Source           string                 `json:"source"` // "clinical-override" or "model"
	ModelUsed        bool                   `json:"model_used"`
	Guideline        *domain.GuidelineMatch `json:"guideline"`
	Percentile       *PopulationRank        `json:"percentile,omitempty"`
	FollowUpInterval string                 `json:"follow_up_interval"`
	Resources        []string               `json:"resources"`
	FAQs             []string               `json:"faqs"`
	Alerts           []domain.ClinicalAlert `json:"alerts,omitempty"`
}

// PopulationRank places a patient's model risk score in the screened
// population.
type PopulationRank struct {
	Score      float64 `json:"score"`
	Percentile int     `json:"percentile"`
	Category   string  `json:"category"`
}

// Recommender runs the legacy model-backed recommendation flow with
// rule-based clinical overrides.
type Recommender struct {
	log       *logrus.Logger
	model     domain.ModelService
	encoders  *Encoders
	validator *GuidelineValidator
	alerts    *AlertEngine
}

// NewRecommender creates a legacy-flow recommender.
func NewRecommender(logger *logrus.Logger, model domain.ModelService) *Recommender {
	return &Recommender{
		log:       logger,
		model:     model,
		encoders:  NewEncoders(),
		validator: NewGuidelineValidator(logger),
		alerts:    NewAlertEngine(logger),
	}
}

// Recommend normalizes the inputs, applies clinical overrides, consults
// the classifier when no override fires, and validates the outcome
// against the guideline table.
func (r *Recommender) Recommend(ctx context.Context, condition domain.Condition, req *RecommendationRequest) (*RecommendationResponse, error) {
	if err := validateAge(req.Age); err != nil {
		return nil, err
	}

	screening, err := NormalizeScreeningType(req.ScreeningType)
	if err != nil {
		return nil, err
	}
	hpv, err := NormalizeHPVResult(req.HPVResult)
	if err != nil {
		return nil, err
	}
	pap, err := NormalizePapResult(req.PapResult)
	if err != nil {
		return nil, err
	}

	resp := &RecommendationResponse{}

	// Clinical overrides take precedence over the model. The model only
	// decides the cases the override table leaves open.
	if rec, ok := clinicalOverride(hpv, pap, req.Age); ok {
		resp.Recommendation = rec
		resp.Source = "clinical-override"
	} else {
		rec, err := r.predictRecommendation(ctx, condition, req.Age, screening, hpv, pap)
		if err != nil {
			// Degrade to the guideline table's own recommendation rather
			// than failing the request.
			r.log.WithFields(logrus.Fields{
				"condition": condition,
				"error":     err,
			}).Warn("Classifier unavailable, using guideline recommendation")
			match := r.validator.Validate(hpv, pap, req.Age, "")
			resp.Recommendation = match.ValidatedRecommendation
			resp.Source = "clinical-override"
		} else {
			resp.Recommendation = rec
			resp.Source = "model"
			resp.ModelUsed = true
		}
	}

	resp.Guideline = r.validator.Validate(hpv, pap, req.Age, resp.Recommendation)
	resp.FollowUpInterval = LegacyFollowUpInterval(resp.Recommendation)
	resp.Resources = LegacyPlanResources(resp.Recommendation)
	resp.FAQs = LegacyFAQs(resp.Recommendation)
	resp.Alerts = r.alerts.CervicalAlerts(hpv, pap, req.Age)

	if rank, err := r.populationRank(ctx, condition, req.Age, screening, hpv, pap); err != nil {
		r.log.WithError(err).Warn("Population ranking unavailable")
	} else {
		resp.Percentile = rank
	}

	r.log.WithFields(logrus.Fields{
		"condition":      condition,
		"age":            req.Age,
		"recommendation": resp.Recommendation,
		"source":         resp.Source,
		"is_compliant":   resp.Guideline.IsCompliant,
	}).Info("Recommendation produced")

	return resp, nil
}

// clinicalOverride is the fixed rule table consulted before the model.
func clinicalOverride(hpv, pap domain.TestResult, age int) (string, bool) {
	switch {
	case hpv == domain.ResultNegative && pap == domain.ResultNegative:
		return "Repeat Pap Smear In 3 Years", true
	case hpv == domain.ResultPositive && pap == domain.ResultPositive:
		return "Colposcopy, Biopsy, Cytology", true
	case age < 25 && hpv == domain.ResultPositive:
		return "Hpv Vaccine And Sexual Education", true
	default:
		return "", false
	}
}

func (r *Recommender) predictRecommendation(ctx context.Context, condition domain.Condition, age int, screening domain.ScreeningType, hpv, pap domain.TestResult) (string, error) {
	if r.model == nil {
		return "", domain.NewCollaboratorError("model-api", "predict", domain.ErrNotFound)
	}
	features, err := r.encoders.EncodeCervicalFeatures(age, screening, hpv, pap)
	if err != nil {
		return "", err
	}
	return r.model.Predict(ctx, condition, features)
}

// populationRank ranks the patient's top class probability against the
// screened population's score vector.
func (r *Recommender) populationRank(ctx context.Context, condition domain.Condition, age int, screening domain.ScreeningType, hpv, pap domain.TestResult) (*PopulationRank, error) {
	if r.model == nil {
		return nil, domain.NewCollaboratorError("model-api", "predict_proba", domain.ErrNotFound)
	}

	features, err := r.encoders.EncodeCervicalFeatures(age, screening, hpv, pap)
	if err != nil {
		return nil, err
	}

	probs, err := r.model.PredictProba(ctx, condition, features)
	if err != nil {
		return nil, err
	}
	population, err := r.model.PopulationScores(ctx, condition)
	if err != nil {
		return nil, err
	}

	return RankAgainstPopulation(maxProb(probs)*100, population), nil
}

// RankAgainstPopulation computes the percentile of a score within a
// population score vector and buckets it into reporting categories.
func RankAgainstPopulation(score float64, population []float64) *PopulationRank {
	below := 0
	for _, s := range population {
		if s < score {
			below++
		}
	}

	percentile := 0
	if len(population) > 0 {
		percentile = below * 100 / len(population)
	}

	category := "Bottom 50%"
	switch {
	case percentile >= 90:
		category = "Top 10%"
	case percentile >= 75:
		category = "Top 25%"
	case percentile >= 50:
		category = "Top 50%"
	}

	return &PopulationRank{Score: score, Percentile: percentile, Category: category}
}

func maxProb(probs []float64) float64 {
	max := 0.0
	for _, p := range probs {
		if p > max {
			max = p
		}
	}
	return max
}
