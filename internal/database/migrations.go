package database

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationRunner applies the screening schema (patients, assessments,
// specialists, followups) from the SQL files under migrations/.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

// NewMigrationRunner builds a runner for the given database URL and
// migrations directory.
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		databaseURL,
	)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}

	return &MigrationRunner{
		migrate: m,
		log:     logger,
	}, nil
}

// Up applies every pending migration. Called on startup before any
// repository touches the schema.
func (r *MigrationRunner) Up(ctx context.Context) error {
	r.log.Info("Applying screening schema migrations")

	if err := r.migrate.Up(); err != nil {
		if err == migrate.ErrNoChange {
			r.log.Info("Screening schema already up to date")
			return nil
		}
		return fmt.Errorf("applying migrations: %w", err)
	}

	version, dirty, err := r.migrate.Version()
	if err != nil {
		r.log.WithError(err).Warn("Could not read schema version after migrating")
	} else {
		r.log.WithFields(logrus.Fields{
			"schema_version": version,
			"dirty":          dirty,
		}).Info("Screening schema migrated")
	}

	return nil
}

// Down rolls back the most recent migration.
func (r *MigrationRunner) Down(ctx context.Context) error {
	r.log.Info("Rolling back one schema migration")

	if err := r.migrate.Steps(-1); err != nil {
		if err == migrate.ErrNoChange {
			r.log.Info("Nothing to roll back")
			return nil
		}
		return fmt.Errorf("rolling back migration: %w", err)
	}

	version, dirty, err := r.migrate.Version()
	if err != nil {
		r.log.WithError(err).Warn("Could not read schema version after rollback")
	} else {
		r.log.WithFields(logrus.Fields{
			"schema_version": version,
			"dirty":          dirty,
		}).Info("Schema migration rolled back")
	}

	return nil
}

// Version reports the current schema version and dirty flag.
func (r *MigrationRunner) Version() (uint, bool, error) {
	return r.migrate.Version()
}

// Close releases the migration source and database handles.
func (r *MigrationRunner) Close() error {
	sourceErr, dbErr := r.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("closing migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database: %w", dbErr)
	}
	return nil
}
