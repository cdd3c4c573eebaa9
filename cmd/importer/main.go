package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/abelzeko/water-quality-bot/internal/app"
	"github.com/abelzeko/water-quality-bot/internal/config"
	"github.com/abelzeko/water-quality-bot/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single import and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Starting measurement importer...")

	if cfg.Import.CSVPath == "" && cfg.Import.HTMLURL == "" {
		logger.Fatal("No import source configured, set import.csv_path or import.html_url")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}
	defer application.Close()

	// Run immediately on startup
	application.Refresh(ctx)
	if *once {
		return
	}

	c := cron.New()
	if err := application.ScheduleRefresh(c); err != nil {
		logger.Fatal("Failed to set up cron job", "error", err)
	}

	logger.Info("Importer has been scheduled", "schedule", cfg.Import.Schedule)
	c.Start()

	<-ctx.Done()
	logger.Info("Shutting down importer...")
	<-c.Stop().Done()
}
