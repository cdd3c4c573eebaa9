package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/abelzeko/water-quality-bot/internal/api"
	"github.com/abelzeko/water-quality-bot/internal/app"
	"github.com/abelzeko/water-quality-bot/internal/config"
	"github.com/abelzeko/water-quality-bot/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
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
	logger.Info("Starting Water Quality Bot...")

	if cfg.Telegram.Token == "" {
		logger.Fatal("WQ_TELEGRAM_TOKEN environment variable is not set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}
	defer application.Close()

	c := cron.New()
	if err := application.ScheduleReload(c); err != nil {
		logger.Fatal("Failed to set up cron job", "error", err)
	}
	c.Start()
	defer c.Stop()

	telegramBot, err := api.NewTelegramBot(cfg.Telegram.Token, application.UseCase, cfg.Import.MaxUploadSize, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram bot", "error", err)
	}

	telegramBot.Start(ctx)
}
