package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/logging"
)

// PostgresMeasurementRepository implements MeasurementRepository on a pgx pool
type PostgresMeasurementRepository struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

const createPostgresSchemaSQL = `
	CREATE TABLE IF NOT EXISTS measurements (
		time DOUBLE PRECISION PRIMARY KEY,
		do_level DOUBLE PRECISION NOT NULL,
		turbidity DOUBLE PRECISION,
		ph DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS imports (
		id UUID PRIMARY KEY,
		source TEXT NOT NULL,
		accepted INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		imported_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at);
`

// NewPostgresMeasurementRepository connects to databaseURL and ensures the schema exists
func NewPostgresMeasurementRepository(ctx context.Context, databaseURL string, logger *logging.Logger) (*PostgresMeasurementRepository, error) {
	if logger == nil {
		logger = logging.Global()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if _, err := pool.Exec(ctx, createPostgresSchemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresMeasurementRepository{
		pool:   pool,
		logger: logger.With("component", "postgres_repository"),
	}, nil
}

// Close releases the pool resources
func (r *PostgresMeasurementRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// ReplaceMeasurements clears the table and bulk-copies ms in one transaction
func (r *PostgresMeasurementRepository) ReplaceMeasurements(ctx context.Context, ms []entities.Measurement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM measurements`); err != nil {
		return fmt.Errorf("failed to clear measurements: %w", err)
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []any{m.Time, m.DissolvedOxygen, m.Turbidity, m.PH, now})
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"measurements"},
		[]string{"time", "do_level", "turbidity", "ph", "updated_at"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("failed to copy measurements: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Replaced stored measurements", "count", len(ms))
	return nil
}

// SaveMeasurement upserts a single measurement keyed by its time
func (r *PostgresMeasurementRepository) SaveMeasurement(ctx context.Context, m entities.Measurement) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO measurements(time, do_level, turbidity, ph, updated_at)
		VALUES($1, $2, $3, $4, now())
		ON CONFLICT(time) DO UPDATE SET
		do_level=excluded.do_level,
		turbidity=excluded.turbidity,
		ph=excluded.ph,
		updated_at=excluded.updated_at`,
		m.Time, m.DissolvedOxygen, m.Turbidity, m.PH)
	if err != nil {
		return fmt.Errorf("failed to save measurement at %v: %w", m.Time, err)
	}
	return nil
}

// ListMeasurements returns the stored measurements ordered by time
func (r *PostgresMeasurementRepository) ListMeasurements(ctx context.Context) ([]entities.Measurement, error) {
	rows, err := r.pool.Query(ctx, `SELECT time, do_level, turbidity, ph FROM measurements ORDER BY time`)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Measurement, 0)
	for rows.Next() {
		var m entities.Measurement
		if err := rows.Scan(&m.Time, &m.DissolvedOxygen, &m.Turbidity, &m.PH); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// GetLastUpdateTime returns the most recent write time, or the zero time for an empty table
func (r *PostgresMeasurementRepository) GetLastUpdateTime(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := r.pool.QueryRow(ctx, `SELECT updated_at FROM measurements ORDER BY updated_at DESC LIMIT 1`).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last update time: %w", err)
	}
	return ts, nil
}

// SaveImport records a completed import
func (r *PostgresMeasurementRepository) SaveImport(ctx context.Context, rec entities.ImportRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO imports(id, source, accepted, skipped, imported_at) VALUES($1, $2, $3, $4, $5)`,
		rec.ID, rec.Source, rec.Accepted, rec.Skipped, rec.ImportedAt)
	if err != nil {
		return fmt.Errorf("failed to save import %s: %w", rec.ID, err)
	}
	return nil
}

// ListImports returns the most recent imports first
func (r *PostgresMeasurementRepository) ListImports(ctx context.Context, limit int) ([]entities.ImportRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, source, accepted, skipped, imported_at FROM imports ORDER BY imported_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	result := make([]entities.ImportRecord, 0)
	for rows.Next() {
		var rec entities.ImportRecord
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Accepted, &rec.Skipped, &rec.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
