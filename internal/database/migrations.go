package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func newMigrator(db *sql.DB, dir string) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations from %s: %w", dir, err)
	}
	return provider, nil
}

// RunMigrations applies every pending migration in dir
func RunMigrations(ctx context.Context, db *sql.DB, dir string, logger *zap.Logger) error {
	migrator, err := newMigrator(db, dir)
	if err != nil {
		return err
	}

	results, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, res := range results {
		logger.Info("Applied migration",
			zap.Int64("version", res.Source.Version),
			zap.String("path", res.Source.Path),
			zap.Duration("duration", res.Duration),
		)
	}
	logger.Info("Migrations up to date", zap.Int("applied", len(results)))
	return nil
}

// LogMigrationStatus logs the state of each known migration
func LogMigrationStatus(ctx context.Context, db *sql.DB, dir string, logger *zap.Logger) error {
	migrator, err := newMigrator(db, dir)
	if err != nil {
		return err
	}

	statuses, err := migrator.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	for _, st := range statuses {
		fields := []zap.Field{
			zap.Int64("version", st.Source.Version),
			zap.String("path", st.Source.Path),
			zap.String("state", string(st.State)),
		}
		if st.State == goose.StateApplied {
			fields = append(fields, zap.Time("applied_at", st.AppliedAt))
		}
		logger.Debug("Migration", fields...)
	}
	return nil
}
