package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/afyacheck/screening-server/internal/api"
	"github.com/afyacheck/screening-server/internal/config"
	"github.com/afyacheck/screening-server/internal/database"
	"github.com/afyacheck/screening-server/internal/domain"
	"github.com/afyacheck/screening-server/internal/followup"
	"github.com/afyacheck/screening-server/internal/middleware"
	"github.com/afyacheck/screening-server/internal/reminder"
	"github.com/afyacheck/screening-server/internal/repository"
	"github.com/afyacheck/screening-server/internal/service"
	"github.com/afyacheck/screening-server/pkg/external"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting AfyaCheck screening server")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database and migrations
	db, err := database.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	runner, err := database.NewMigrationRunner(database.URL(cfg.Database), cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	if err := runner.Up(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}
	runner.Close()

	// Stores
	assessments := repository.NewAssessmentRepository(db.Pool, logger)
	patients := repository.NewPatientRepository(db.Pool, logger)

	followUps, err := newFollowUpStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open follow-up store")
	}
	defer followUps.Close()

	// External collaborators
	var cache *external.PredictionCache
	if c, err := external.NewPredictionCache(cfg.Cache); err != nil {
		logger.WithError(err).Warn("Prediction cache unavailable, continuing without it")
	} else {
		cache = c
		defer cache.Close()
	}

	model := external.NewResilientModelClient(external.NewModelClient(cfg.ModelAPI), cache, logger)
	sms := external.NewResilientSMSSender(external.NewSMSClient(cfg.SMS), logger)

	// Services
	deps := api.Dependencies{
		Assessor:    service.NewAssessor(logger, assessments),
		Recommender: service.NewRecommender(logger, model),
		Timeline:    service.NewTimelineBuilder(logger, assessments),
		Assessments: assessments,
		Patients:    patients,
		FollowUps:   followUps,
		Tokens:      middleware.NewTokenManager(cfg.Auth),
		Health:      db.Health,
	}

	server := api.NewServer(configManager, logger, deps)

	// Reminder scheduler
	scheduler := reminder.NewScheduler(logger, followUps, sms, cfg.Reminder)
	go scheduler.Run(ctx)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newFollowUpStore opens the configured follow-up backend.
func newFollowUpStore(cfg *domain.Config, logger *logrus.Logger) (followup.Store, error) {
	switch cfg.Followup.Backend {
	case "postgres":
		logger.Info("Using PostgreSQL follow-up store")
		return followup.NewPostgresStoreFromURL(database.URL(cfg.Database))
	default:
		logger.WithField("path", cfg.Followup.SQLitePath).Info("Using SQLite follow-up store")
		return followup.NewSQLiteStore(cfg.Followup.SQLitePath)
	}
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger.SetOutput(os.Stdout)
	return logger
}
