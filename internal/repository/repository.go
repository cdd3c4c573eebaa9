// Package repository provides persistence for the measurement store and import history
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/abelzeko/water-quality-bot/internal/config"
	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/logging"
)

// MeasurementRepository defines the persistence operations of the measurement store
type MeasurementRepository interface {
	// ReplaceMeasurements atomically swaps the stored snapshot for ms
	ReplaceMeasurements(ctx context.Context, ms []entities.Measurement) error
	// SaveMeasurement inserts or overwrites the measurement at m.Time
	SaveMeasurement(ctx context.Context, m entities.Measurement) error
	ListMeasurements(ctx context.Context) ([]entities.Measurement, error)
	GetLastUpdateTime(ctx context.Context) (time.Time, error)
	SaveImport(ctx context.Context, rec entities.ImportRecord) error
	ListImports(ctx context.Context, limit int) ([]entities.ImportRecord, error)
	Close() error
}

// Open creates the repository selected by cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (MeasurementRepository, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteMeasurementRepository(cfg.Path, logger)
	case "postgres":
		return NewPostgresMeasurementRepository(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
