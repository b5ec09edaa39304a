package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/afyacheck/screening-server/internal/domain"
	"github.com/afyacheck/screening-server/internal/followup"
	"github.com/afyacheck/screening-server/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Region   string `json:"region"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token     string `json:"token"`
	PatientID string `json:"patient_id"`
}

// handleRegister creates a patient account and returns a bearer token.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, domain.ErrCodeInvalidInput, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(c, err)
		return
	}

	patient := &domain.Patient{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Phone:        req.Phone,
		Region:       req.Region,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.deps.Patients.Create(c.Request.Context(), patient); err != nil {
		s.writeError(c, err)
		return
	}

	token, err := s.deps.Tokens.Issue(patient.ID, patient.Phone)
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token, PatientID: patient.ID})
}

// handleLogin verifies credentials and returns a bearer token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, domain.ErrCodeInvalidInput, err.Error())
		return
	}

	patient, err := s.deps.Patients.GetByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.unauthorized(c)
			return
		}
		s.writeError(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(patient.PasswordHash), []byte(req.Password)) != nil {
		s.unauthorized(c)
		return
	}

	token, err := s.deps.Tokens.Issue(patient.ID, patient.Phone)
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, PatientID: patient.ID})
}

// handleCervicalAssessment runs the detailed cervical pipeline.
func (s *Server) handleCervicalAssessment(c *gin.Context) {
	var req service.CervicalAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, domain.ErrCodeInvalidInput, err.Error())
		return
	}
	if req.PatientID == "" {
		req.PatientID = c.GetString("patient_id")
	}

	resp, err := s.deps.Assessor.AssessCervical(c.Request.Context(), &req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleOvarianCystAssessment runs the detailed ovarian-cyst pipeline.
func (s *Server) handleOvarianCystAssessment(c *gin.Context) {
	var req service.OvarianAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, domain.ErrCodeInvalidInput, err.Error())
		return
	}
	if req.PatientID == "" {
		req.PatientID = c.GetString("patient_id")
	}

	resp, err := s.deps.Assessor.AssessOvarianCyst(c.Request.Context(), &req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleCervicalRecommendation runs the legacy model-backed flow.
func (s *Server) handleCervicalRecommendation(c *gin.Context) {
	s.handleRecommendation(c, domain.ConditionCervicalLegacy)
}

// handleOvarianRecommendation runs the legacy flow for ovarian screening.
func (s *Server) handleOvarianRecommendation(c *gin.Context) {
	s.handleRecommendation(c, domain.ConditionOvarianLegacy)
}

func (s *Server) handleRecommendation(c *gin.Context, condition domain.Condition) {
	var req service.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, domain.ErrCodeInvalidInput, err.Error())
		return
	}

	resp, err := s.deps.Recommender.Recommend(c.Request.Context(), condition, &req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handlePatientHistory returns the assessment timeline for a patient.
func (s *Server) handlePatientHistory(c *gin.Context) {
	patientID := c.Param("id")

	entries, err := s.deps.Timeline.Build(c.Request.Context(), patientID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id": patientID,
		"entries":    entries,
	})
}

// handlePopulationSummary returns anonymized tier counts per condition.
func (s *Server) handlePopulationSummary(c *gin.Context) {
	counts, err := s.deps.Assessments.CountByTier(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tiers": counts})
}

// handleSpecialists returns referral contacts for a region. Without an
// explicit region the caller's own region is resolved.
func (s *Server) handleSpecialists(c *gin.Context) {
	region := c.Query("region")
	if region == "" {
		resolved, err := s.deps.Patients.ResolveRegion(c.Request.Context(), c.GetString("patient_id"))
		if err != nil {
			s.writeError(c, err)
			return
		}
		region = resolved
	}

	specialists, err := s.deps.Patients.SpecialistsByRegion(c.Request.Context(), region)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"region":      region,
		"specialists": specialists,
	})
}

type followUpRequest struct {
	PatientID string    `json:"patient_id"`
	Phone     string    `json:"phone" binding:"required"`
	Condition string    `json:"condition"`
	DueDate   time.Time `json:"due_date" binding:"required"`
	Message   string    `json:"message"`
}

// handleCreateFollowUp schedules (or reschedules) a reminder.
func (s *Server) handleCreateFollowUp(c *gin.Context) {
	var req followUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, domain.ErrCodeInvalidInput, err.Error())
		return
	}
	if req.PatientID == "" {
		req.PatientID = c.GetString("patient_id")
	}

	fu := &followup.FollowUp{
		PatientID: req.PatientID,
		Phone:     req.Phone,
		Condition: req.Condition,
		DueDate:   req.DueDate,
		Message:   req.Message,
	}

	if err := s.deps.FollowUps.Save(c.Request.Context(), fu); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fu)
}

// handleDueFollowUps lists unsent reminders due as of now (or the
// provided as_of unix timestamp).
func (s *Server) handleDueFollowUps(c *gin.Context) {
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.badRequest(c, domain.ErrCodeInvalidInput, "as_of must be a unix timestamp")
			return
		}
		asOf = time.Unix(secs, 0)
	}

	due, err := s.deps.FollowUps.ListDue(c.Request.Context(), asOf)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"as_of":      asOf,
		"follow_ups": due,
	})
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	correlationID := c.GetString("correlation_id")

	var verr *domain.ValidationError
	var nerr *domain.NormalizationError
	var uerr *domain.UnknownEnumError
	var cerr *domain.CollaboratorError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.NewAPIError(domain.ErrCodeInvalidInput, verr.Message, verr.Field, correlationID),
		})
	case errors.As(err, &nerr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.NewAPIError(domain.ErrCodeNormalization, nerr.Error(), nerr.Field, correlationID),
		})
	case errors.As(err, &uerr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.NewAPIError(domain.ErrCodeUnknownEnum, uerr.Error(), uerr.Feature, correlationID),
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": domain.NewAPIError(domain.ErrCodeNotFound, "Resource not found", "", correlationID),
		})
	case errors.As(err, &cerr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": domain.NewAPIError(domain.ErrCodeCollaborator, cerr.Error(), cerr.Service, correlationID),
		})
	default:
		s.internalError(c, err)
	}
}

func (s *Server) badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": domain.NewAPIError(code, message, "", c.GetString("correlation_id")),
	})
}

func (s *Server) unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": domain.NewAPIError(domain.ErrCodeAuthentication, "Invalid phone or password", "", c.GetString("correlation_id")),
	})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.WithFields(logrus.Fields{
		"correlation_id": c.GetString("correlation_id"),
		"path":           c.Request.URL.Path,
		"error":          err,
	}).Error("Request failed")

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": domain.NewAPIError(domain.ErrCodeInternalServer, "Internal server error", "", c.GetString("correlation_id")),
	})
}
