package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

// RunMigrations applies every pending migration from sourceURL
// (for example "file://migrations").
func RunMigrations(ctx context.Context, databaseURL, sourceURL string) error {
	m, err := newMigrate(databaseURL, sourceURL)
	if err != nil {
		return err
	}
	defer closeMigrate(ctx, m)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			zerolog.Ctx(ctx).Info().Msg("database migrations: no change")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	zerolog.Ctx(ctx).Info().Msg("database migrations: applied successfully")
	return nil
}

// RunMigrationsDown rolls back the last steps migrations.
func RunMigrationsDown(ctx context.Context, databaseURL, sourceURL string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	m, err := newMigrate(databaseURL, sourceURL)
	if err != nil {
		return err
	}
	defer closeMigrate(ctx, m)

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	zerolog.Ctx(ctx).Info().Int("steps", steps).Msg("database migrations: rolled back successfully")
	return nil
}

// MigrationVersion reports the applied schema version.
func MigrationVersion(databaseURL, sourceURL string) (version uint, dirty bool, err error) {
	m, err := newMigrate(databaseURL, sourceURL)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrate(context.Background(), m)

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrate(databaseURL, sourceURL string) (*migrate.Migrate, error) {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func closeMigrate(ctx context.Context, m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("closing migrate instance")
	}
}
