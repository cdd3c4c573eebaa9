// Package app wires configuration, storage, import sources and the use case
// shared by the executables.
package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/abelzeko/water-quality-bot/internal/analysis"
	"github.com/abelzeko/water-quality-bot/internal/config"
	"github.com/abelzeko/water-quality-bot/internal/integration"
	"github.com/abelzeko/water-quality-bot/internal/integration/openai"
	"github.com/abelzeko/water-quality-bot/internal/logging"
	"github.com/abelzeko/water-quality-bot/internal/repository"
	"github.com/abelzeko/water-quality-bot/internal/units"
	"github.com/abelzeko/water-quality-bot/internal/usecases"
)

// App holds the wired components of one process
type App struct {
	Config  *config.Config
	Logger  *logging.Logger
	Repo    repository.MeasurementRepository
	UseCase *usecases.QualityUseCase
}

// Settings derives the use case settings from the series and import configuration
func Settings(cfg *config.Config) (usecases.Settings, error) {
	unit, err := units.Parse(cfg.Series.TimeUnit)
	if err != nil {
		return usecases.Settings{}, fmt.Errorf("series.time_unit: %w", err)
	}
	return usecases.Settings{
		Variant: analysis.Variant{
			TrackTurbidity: cfg.Series.TrackTurbidity,
			TrackPH:        cfg.Series.TrackPH,
			Seasonal:       cfg.Series.Seasonal,
		},
		TimeUnit: unit,
		CSVPath:  cfg.Import.CSVPath,
	}, nil
}

// New opens storage, builds the importers and the optional interpreter, and
// loads the stored measurements into the use case.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*App, error) {
	settings, err := Settings(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := repository.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	csvImporter := integration.NewCSVImporter(cfg.Import.DelimiterRune(), logger)

	var htmlImporter *integration.HTMLTableImporter
	if cfg.Import.HTMLURL != "" {
		htmlImporter = integration.NewHTMLTableImporter(cfg.Import.HTMLURL, cfg.Import.FetchTimeout, logger)
	}

	var interpreter openai.QueryInterpreter
	if cfg.OpenAI.APIKey != "" {
		interpreter, err = openai.NewQueryInterpreter(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to initialize query interpreter: %w", err)
		}
	} else {
		logger.Warn("OpenAI API key not set, natural language queries are disabled")
	}

	useCase := usecases.NewQualityUseCase(repo, csvImporter, htmlImporter, interpreter, settings, logger)
	if err := useCase.Load(ctx); err != nil {
		repo.Close()
		return nil, err
	}

	logger.Info("Application initialized",
		"storage", cfg.Storage.Driver,
		"time_unit", settings.TimeUnit,
		"track_turbidity", settings.Variant.TrackTurbidity,
		"track_ph", settings.Variant.TrackPH,
		"seasonal", settings.Variant.Seasonal,
		"measurements", len(useCase.Measurements()))

	return &App{Config: cfg, Logger: logger, Repo: repo, UseCase: useCase}, nil
}

// ScheduleReload registers a job reloading the store from storage, picking up
// imports made by other processes.
func (a *App) ScheduleReload(c *cron.Cron) error {
	if a.Config.Import.ReloadEvery == "" {
		return nil
	}
	_, err := c.AddFunc(a.Config.Import.ReloadEvery, func() {
		if err := a.UseCase.Load(context.Background()); err != nil {
			a.Logger.Error("Scheduled reload failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reload %q: %w", a.Config.Import.ReloadEvery, err)
	}
	return nil
}

// ScheduleRefresh registers a job re-importing from the configured sources
func (a *App) ScheduleRefresh(c *cron.Cron) error {
	_, err := c.AddFunc(a.Config.Import.Schedule, func() {
		a.Refresh(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule import %q: %w", a.Config.Import.Schedule, err)
	}
	return nil
}

// Refresh runs one import from the configured sources and logs the outcome
func (a *App) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*a.Config.Import.FetchTimeout)
	defer cancel()

	rec, err := a.UseCase.RefreshFromSources(ctx)
	if err != nil {
		a.Logger.Error("Measurement refresh failed", "error", err)
		return
	}
	a.Logger.Info("Measurement refresh completed", "id", rec.ID, "accepted", rec.Accepted, "skipped", rec.Skipped)
}

// Close releases the storage connection
func (a *App) Close() error {
	return a.Repo.Close()
}
