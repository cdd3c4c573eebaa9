package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/logging"
)

// SQLiteMeasurementRepository implements MeasurementRepository using SQLite
type SQLiteMeasurementRepository struct {
	db     *sql.DB
	DBPath string
	logger *logging.Logger
}

// NewSQLiteMeasurementRepository opens (and creates if needed) the database at dbPath
func NewSQLiteMeasurementRepository(dbPath string, logger *logging.Logger) (*SQLiteMeasurementRepository, error) {
	if logger == nil {
		logger = logging.Global()
	}
	if dbPath == "" {
		dbPath = filepath.Join("data", "measurements.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Info("Opening database", "path", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS measurements (
		time REAL PRIMARY KEY,
		do_level REAL NOT NULL,
		turbidity REAL,
		ph REAL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS imports (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		accepted INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		imported_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteMeasurementRepository{
		db:     db,
		DBPath: dbPath,
		logger: logger.With("component", "sqlite_repository"),
	}, nil
}

// Close closes the database connection
func (r *SQLiteMeasurementRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const upsertMeasurementSQL = `
	INSERT INTO measurements(time, do_level, turbidity, ph, updated_at)
	VALUES(?, ?, ?, ?, ?)
	ON CONFLICT(time) DO UPDATE SET
	do_level=excluded.do_level,
	turbidity=excluded.turbidity,
	ph=excluded.ph,
	updated_at=excluded.updated_at`

// ReplaceMeasurements deletes the stored snapshot and writes ms in one transaction
func (r *SQLiteMeasurementRepository) ReplaceMeasurements(ctx context.Context, ms []entities.Measurement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear measurements: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertMeasurementSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx, m.Time, m.DissolvedOxygen, nullable(m.Turbidity), nullable(m.PH), now); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert measurement at %v: %w", m.Time, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Replaced stored measurements", "count", len(ms))
	return nil
}

// SaveMeasurement upserts a single measurement keyed by its time
func (r *SQLiteMeasurementRepository) SaveMeasurement(ctx context.Context, m entities.Measurement) error {
	_, err := r.db.ExecContext(ctx, upsertMeasurementSQL,
		m.Time, m.DissolvedOxygen, nullable(m.Turbidity), nullable(m.PH), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save measurement at %v: %w", m.Time, err)
	}
	return nil
}

// ListMeasurements returns the stored measurements ordered by time
func (r *SQLiteMeasurementRepository) ListMeasurements(ctx context.Context) ([]entities.Measurement, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT time, do_level, turbidity, ph FROM measurements ORDER BY time`)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	var result []entities.Measurement
	for rows.Next() {
		var (
			m         entities.Measurement
			turbidity sql.NullFloat64
			ph        sql.NullFloat64
		)
		if err := rows.Scan(&m.Time, &m.DissolvedOxygen, &turbidity, &ph); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if turbidity.Valid {
			m.Turbidity = entities.Float(turbidity.Float64)
		}
		if ph.Valid {
			m.PH = entities.Float(ph.Float64)
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return result, nil
}

// GetLastUpdateTime returns the most recent write time, or the zero time for an empty table
func (r *SQLiteMeasurementRepository) GetLastUpdateTime(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM measurements ORDER BY updated_at DESC LIMIT 1`).Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last update time: %w", err)
	}
	return ts, nil
}

// SaveImport records a completed import
func (r *SQLiteMeasurementRepository) SaveImport(ctx context.Context, rec entities.ImportRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO imports(id, source, accepted, skipped, imported_at) VALUES(?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Accepted, rec.Skipped, rec.ImportedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save import %s: %w", rec.ID, err)
	}
	return nil
}

// ListImports returns the most recent imports first
func (r *SQLiteMeasurementRepository) ListImports(ctx context.Context, limit int) ([]entities.ImportRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, accepted, skipped, imported_at FROM imports ORDER BY imported_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	var result []entities.ImportRecord
	for rows.Next() {
		var rec entities.ImportRecord
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Accepted, &rec.Skipped, &rec.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return result, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
