// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abelzeko/water-quality-bot/internal/analysis"
	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/integration"
	"github.com/abelzeko/water-quality-bot/internal/integration/openai"
	"github.com/abelzeko/water-quality-bot/internal/logging"
	"github.com/abelzeko/water-quality-bot/internal/repository"
	"github.com/abelzeko/water-quality-bot/internal/units"
)

// Settings selects the series variant served by the use case
type Settings struct {
	Variant  analysis.Variant
	TimeUnit units.Unit
	CSVPath  string // file re-imported by RefreshFromSources, optional
}

// Forecast is a prediction together with the horizon the user asked for
type Forecast struct {
	analysis.Prediction
	Horizon float64    `json:"horizon"`
	Unit    units.Unit `json:"unit"`
}

// QualityUseCase owns the measurement store. Every access to the store goes
// through mu since the bot, the HTTP handlers and cron jobs run concurrently.
type QualityUseCase struct {
	mu        sync.RWMutex
	store     *analysis.Store
	predictor *analysis.Predictor
	settings  Settings

	repo        repository.MeasurementRepository
	csv         *integration.CSVImporter
	html        *integration.HTMLTableImporter
	interpreter openai.QueryInterpreter
	logger      *logging.Logger
}

// NewQualityUseCase creates a use case with an empty store. html and interpreter may be nil.
func NewQualityUseCase(
	repo repository.MeasurementRepository,
	csv *integration.CSVImporter,
	html *integration.HTMLTableImporter,
	interpreter openai.QueryInterpreter,
	settings Settings,
	logger *logging.Logger,
) *QualityUseCase {
	if logger == nil {
		logger = logging.Global()
	}
	if csv == nil {
		csv = integration.NewCSVImporter(',', logger)
	}
	return &QualityUseCase{
		store:       analysis.NewStore(),
		predictor:   analysis.NewPredictor(settings.Variant),
		settings:    settings,
		repo:        repo,
		csv:         csv,
		html:        html,
		interpreter: interpreter,
		logger:      logger.With("component", "usecase"),
	}
}

// Settings returns the configured variant and unit
func (uc *QualityUseCase) Settings() Settings {
	return uc.settings
}

// Load replaces the in-memory store with the repository snapshot
func (uc *QualityUseCase) Load(ctx context.Context) error {
	ms, err := uc.repo.ListMeasurements(ctx)
	if err != nil {
		return fmt.Errorf("failed to load measurements: %w", err)
	}

	uc.mu.Lock()
	uc.store.ReplaceAll(ms)
	n := uc.store.Len()
	uc.mu.Unlock()

	uc.logger.Debug("Loaded measurements from repository", "count", n)
	return nil
}

// AddMeasurement validates a manual entry and merges it into the store.
// The whole submission is rejected if any field is invalid.
func (uc *QualityUseCase) AddMeasurement(ctx context.Context, c entities.Candidate) (entities.Measurement, error) {
	m, err := analysis.ValidateCandidate(c, uc.settings.Variant)
	if err != nil {
		return entities.Measurement{}, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	next := analysis.NewStoreFrom(uc.store.All())
	next.Add(m)

	var merged entities.Measurement
	for _, candidate := range next.All() {
		if candidate.Time == m.Time {
			merged = candidate
			break
		}
	}

	if err := uc.repo.SaveMeasurement(ctx, merged); err != nil {
		return entities.Measurement{}, fmt.Errorf("failed to persist measurement: %w", err)
	}
	uc.store = next

	uc.logger.Info("Added measurement", "time", merged.Time, "do_level", merged.DissolvedOxygen, "count", next.Len())
	return merged, nil
}

// ImportCandidates validates candidates, skipping invalid rows, and replaces the
// whole store with the survivors. With no valid row the store is left untouched
// and ErrEmptyImport is returned.
func (uc *QualityUseCase) ImportCandidates(ctx context.Context, source string, cs []entities.Candidate) (entities.ImportRecord, error) {
	valid, skipped := analysis.ValidateCandidates(cs, uc.settings.Variant)
	if len(valid) == 0 {
		uc.logger.Warn("Import produced no valid rows", "source", source, "skipped", skipped)
		return entities.ImportRecord{}, fmt.Errorf("%w from %s (%d rows skipped)", analysis.ErrEmptyImport, source, skipped)
	}

	consolidated := analysis.Consolidate(valid)

	uc.mu.Lock()
	if err := uc.repo.ReplaceMeasurements(ctx, consolidated); err != nil {
		uc.mu.Unlock()
		return entities.ImportRecord{}, fmt.Errorf("failed to persist import: %w", err)
	}
	uc.store.ReplaceAll(consolidated)
	uc.mu.Unlock()

	rec := entities.ImportRecord{
		ID:         uuid.NewString(),
		Source:     source,
		Accepted:   len(valid),
		Skipped:    skipped,
		ImportedAt: time.Now().UTC(),
	}
	if err := uc.repo.SaveImport(ctx, rec); err != nil {
		uc.logger.Warn("Failed to record import", "id", rec.ID, "error", err)
	}

	uc.logger.Info("Imported measurements",
		"id", rec.ID, "source", source, "accepted", rec.Accepted, "skipped", rec.Skipped, "distinct_times", len(consolidated))
	return rec, nil
}

// ImportCSV parses r as CSV and imports it. A header without a time or
// dissolved-oxygen column is an empty import.
func (uc *QualityUseCase) ImportCSV(ctx context.Context, source string, r io.Reader) (entities.ImportRecord, error) {
	cs, err := uc.csv.Parse(r)
	if errors.Is(err, integration.ErrMissingColumn) {
		uc.logger.Warn("Import has no usable columns", "source", source, "error", err)
		return entities.ImportRecord{}, fmt.Errorf("%w from %s: %w", analysis.ErrEmptyImport, source, err)
	}
	if err != nil {
		return entities.ImportRecord{}, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	return uc.ImportCandidates(ctx, source, cs)
}

// RefreshFromSources imports from the configured CSV file and HTML page. Rows
// of every source that could be read are combined into a single import.
func (uc *QualityUseCase) RefreshFromSources(ctx context.Context) (entities.ImportRecord, error) {
	uc.logger.Info("Starting measurement refresh")

	var (
		cs      []entities.Candidate
		sources []string
		errs    []error
	)

	if uc.settings.CSVPath != "" {
		rows, err := uc.csv.ParseFile(uc.settings.CSVPath)
		if err != nil {
			uc.logger.Warn("Failed to read CSV source", "path", uc.settings.CSVPath, "error", err)
			errs = append(errs, err)
		} else {
			cs = append(cs, rows...)
			sources = append(sources, uc.settings.CSVPath)
		}
	}

	if uc.html != nil {
		rows, err := uc.html.Fetch(ctx)
		if err != nil {
			uc.logger.Warn("Failed to fetch HTML source", "url", uc.html.SourceURL(), "error", err)
			errs = append(errs, err)
		} else {
			cs = append(cs, rows...)
			sources = append(sources, uc.html.SourceURL())
		}
	}

	if len(sources) == 0 {
		if len(errs) == 0 {
			return entities.ImportRecord{}, errors.New("no import source configured")
		}
		return entities.ImportRecord{}, fmt.Errorf("all import sources failed: %w", errors.Join(errs...))
	}

	return uc.ImportCandidates(ctx, strings.Join(sources, ", "), cs)
}

// Measurements returns the ordered store contents
func (uc *QualityUseCase) Measurements() []entities.Measurement {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.store.All()
}

// Series returns the time and value sequences of one field for chart rendering
func (uc *QualityUseCase) Series(field entities.Field) (times, values []float64) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.store.Values(field)
}

// Trend fits the current store
func (uc *QualityUseCase) Trend() (analysis.TrendLine, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return analysis.Trend(uc.store)
}

// Seasonal returns the hour-of-day table of the current store
func (uc *QualityUseCase) Seasonal() analysis.SeasonalTable {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return analysis.EstimateSeasonal(uc.store.All())
}

// Predict forecasts dissolved oxygen at value (in unit) on the store's time axis.
// value must be a positive number.
func (uc *QualityUseCase) Predict(value float64, unit string) (Forecast, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return Forecast{}, fmt.Errorf("%w: time value must be a positive number", analysis.ErrInvalidInput)
	}
	u, err := units.Parse(unit)
	if err != nil {
		return Forecast{}, fmt.Errorf("%w: %w", analysis.ErrInvalidInput, err)
	}
	target, err := units.Convert(value, u, uc.settings.TimeUnit)
	if err != nil {
		return Forecast{}, fmt.Errorf("%w: %w", analysis.ErrInvalidInput, err)
	}

	uc.mu.RLock()
	p, err := uc.predictor.Predict(uc.store, target)
	uc.mu.RUnlock()
	if err != nil {
		return Forecast{}, err
	}

	return Forecast{Prediction: p, Horizon: value, Unit: u}, nil
}

// Imports returns the most recent import records
func (uc *QualityUseCase) Imports(ctx context.Context, limit int) ([]entities.ImportRecord, error) {
	return uc.repo.ListImports(ctx, limit)
}

// GetLastUpdateTime returns when the stored measurements last changed
func (uc *QualityUseCase) GetLastUpdateTime(ctx context.Context) (time.Time, error) {
	return uc.repo.GetLastUpdateTime(ctx)
}
