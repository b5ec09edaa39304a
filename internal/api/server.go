package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/domain"
	"github.com/afyacheck/screening-server/internal/followup"
	"github.com/afyacheck/screening-server/internal/middleware"
	"github.com/afyacheck/screening-server/internal/service"
)

// PatientDirectory is the patient-facing persistence surface the HTTP
// layer needs: accounts plus region-based referral lookups.
type PatientDirectory interface {
	Create(ctx context.Context, p *domain.Patient) error
	GetByPhone(ctx context.Context, phone string) (*domain.Patient, error)
	domain.RegionResolver
}

// Dependencies carries the collaborators the HTTP layer exposes.
type Dependencies struct {
	Assessor    *service.Assessor
	Recommender *service.Recommender
	Timeline    *service.TimelineBuilder
	Assessments domain.AssessmentStore
	Patients    PatientDirectory
	FollowUps   followup.Store
	Tokens      *middleware.TokenManager
	Health      func(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	log           *logrus.Logger
	deps          Dependencies
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, logger *logrus.Logger, deps Dependencies) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AuditLogger())

	server := &Server{
		configManager: configManager,
		log:           logger,
		deps:          deps,
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Router exposes the gin engine, mainly for handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/auth/register", s.handleRegister)
		v1.POST("/auth/login", s.handleLogin)

		protected := v1.Group("")
		protected.Use(middleware.RequireAuth(s.deps.Tokens))
		{
			protected.POST("/assessments/cervical", s.handleCervicalAssessment)
			protected.POST("/assessments/ovarian-cyst", s.handleOvarianCystAssessment)
			protected.POST("/recommendations/cervical", s.handleCervicalRecommendation)
			protected.POST("/recommendations/ovarian", s.handleOvarianRecommendation)
			protected.GET("/patients/:id/history", s.handlePatientHistory)
			protected.GET("/population/summary", s.handlePopulationSummary)
			protected.GET("/specialists", s.handleSpecialists)
			protected.POST("/followups", s.handleCreateFollowUp)
			protected.GET("/followups/due", s.handleDueFollowUps)
		}
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
