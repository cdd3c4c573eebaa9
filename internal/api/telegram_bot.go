// Package api provides handlers for external APIs and interfaces
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/logging"
	"github.com/abelzeko/water-quality-bot/internal/usecases"
)

var errUploadTooLarge = errors.New("upload too large")

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot           *tgbotapi.BotAPI
	useCase       *usecases.QualityUseCase
	httpClient    *http.Client
	maxUploadSize int64
	logger        *logging.Logger
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, useCase *usecases.QualityUseCase, maxUploadSize int64, logger *logging.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return newTelegramBot(bot, useCase, maxUploadSize, logger), nil
}

func newTelegramBot(bot *tgbotapi.BotAPI, useCase *usecases.QualityUseCase, maxUploadSize int64, logger *logging.Logger) *TelegramBot {
	if logger == nil {
		logger = logging.Global()
	}
	return &TelegramBot{
		bot:           bot,
		useCase:       useCase,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		maxUploadSize: maxUploadSize,
		logger:        logger.With("component", "telegram"),
	}
}

// Start begins listening for and handling Telegram messages until ctx is done
func (t *TelegramBot) Start(ctx context.Context) {
	t.logger.Info("Authorized on Telegram account", "username", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	t.logger.Info("Bot is now listening for messages...")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.logger.Info("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			t.logger.Debug("Received message",
				"username", update.Message.From.UserName,
				"user_id", update.Message.From.ID,
				"text", update.Message.Text)

			t.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage processes a Telegram message and sends the reply
func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	var text string
	switch {
	case message.IsCommand():
		text = t.handleCommand(ctx, message)
	case message.Document != nil:
		text = t.handleDocument(ctx, message.Document)
	default:
		text = t.handleNonCommand(ctx, message)
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error("Error sending message", "chat_id", message.Chat.ID, "error", err)
	}
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(ctx context.Context, message *tgbotapi.Message) string {
	t.logger.Info("Handling command", "command", message.Command(), "username", userName(message))

	switch message.Command() {
	case "start":
		return "Welcome to the Water Quality Bot! Add measurements with /add, upload a CSV file " +
			"or ask me about the dissolved oxygen trend. Use /help for more information."

	case "help":
		return t.helpText()

	case "add":
		return t.handleAddCommand(ctx, message.CommandArguments())

	case "data":
		lastUpdate, _ := t.useCase.GetLastUpdateTime(ctx)
		return t.useCase.FormatMeasurements(t.useCase.Measurements(), lastUpdate)

	case "trend":
		trend, err := t.useCase.Trend()
		if err != nil {
			return usecases.UserMessage(err)
		}
		return t.useCase.FormatTrend(trend)

	case "predict":
		return t.handlePredictCommand(message.CommandArguments())

	default:
		return "Unknown command. Use /help to see available commands."
	}
}

func (t *TelegramBot) helpText() string {
	settings := t.useCase.Settings()

	var fields strings.Builder
	fields.WriteString("<time> <do>")
	if settings.Variant.TrackTurbidity {
		fields.WriteString(" <turbidity>")
	}
	if settings.Variant.TrackPH {
		fields.WriteString(" <ph>")
	}

	return "Available commands:\n" +
		"/start - Start the bot\n" +
		fmt.Sprintf("/add %s - Add a measurement (time in %s)\n", fields.String(), settings.TimeUnit) +
		"/data - Show all measurements\n" +
		"/trend - Show the dissolved oxygen trend\n" +
		"/predict <value> <unit> - Predict dissolved oxygen, e.g. /predict 3 hours\n" +
		"/help - Show this help message\n\n" +
		"Send a CSV file with time and DO columns to replace all measurements."
}

// parseAddArgs reads /add arguments in field order. Unparseable required
// values become NaN and unparseable optional values non-finite, so the
// whole submission fails validation.
func parseAddArgs(args string) entities.Candidate {
	fields := strings.Fields(args)
	value := func(i int) (float64, bool) {
		if i >= len(fields) {
			return entities.Missing(), false
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(fields[i], ",", "."), 64)
		if err != nil {
			return entities.Missing(), true
		}
		return v, true
	}

	c := entities.Candidate{}
	c.Time, _ = value(0)
	c.DissolvedOxygen, _ = value(1)
	if v, ok := value(2); ok {
		c.Turbidity = entities.Float(v)
	}
	if v, ok := value(3); ok {
		c.PH = entities.Float(v)
	}
	return c
}

func (t *TelegramBot) handleAddCommand(ctx context.Context, args string) string {
	if strings.TrimSpace(args) == "" {
		return "Please provide the measurement values. Example: /add 10 7.5 1.2 7.1"
	}

	m, err := t.useCase.AddMeasurement(ctx, parseAddArgs(args))
	if err != nil {
		t.logger.Warn("Rejected measurement", "args", args, "error", err)
		return usecases.UserMessage(err)
	}

	return fmt.Sprintf("✅ Measurement at %s added. DO level: %.2f mg/L",
		strconv.FormatFloat(m.Time, 'f', -1, 64), m.DissolvedOxygen)
}

func (t *TelegramBot) handlePredictCommand(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "Please specify how far ahead to predict. Example: /predict 3 hours"
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64)
	if err != nil {
		return "Please enter a positive number, e.g. /predict 3 hours"
	}
	unit := string(t.useCase.Settings().TimeUnit)
	if len(fields) > 1 {
		unit = fields[1]
	}

	forecast, err := t.useCase.Predict(value, unit)
	if err != nil {
		return usecases.UserMessage(err)
	}
	return t.useCase.FormatForecast(forecast)
}

// handleDocument imports an uploaded CSV file
func (t *TelegramBot) handleDocument(ctx context.Context, doc *tgbotapi.Document) string {
	if !strings.EqualFold(path.Ext(doc.FileName), ".csv") && doc.MimeType != "text/csv" {
		return "Please upload a CSV file."
	}
	if int64(doc.FileSize) > t.maxUploadSize {
		return fmt.Sprintf("The file is too large. The limit is %d KB.", t.maxUploadSize/1024)
	}

	url, err := t.bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		t.logger.Error("Failed to resolve document URL", "file_id", doc.FileID, "error", err)
		return usecases.UserMessage(err)
	}

	rec, err := t.importFromURL(ctx, doc.FileName, url)
	if errors.Is(err, errUploadTooLarge) {
		return fmt.Sprintf("The file is too large. The limit is %d KB.", t.maxUploadSize/1024)
	}
	if err != nil {
		t.logger.Warn("Document import failed", "file", doc.FileName, "error", err)
		return usecases.UserMessage(err)
	}
	return usecases.FormatImport(rec)
}

// importFromURL downloads a CSV file and imports it as source
func (t *TelegramBot) importFromURL(ctx context.Context, source, url string) (entities.ImportRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entities.ImportRecord{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return entities.ImportRecord{}, fmt.Errorf("failed to download %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.ImportRecord{}, fmt.Errorf("failed to download %s: status %d", source, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxUploadSize+1))
	if err != nil {
		return entities.ImportRecord{}, fmt.Errorf("failed to download %s: %w", source, err)
	}
	if int64(len(data)) > t.maxUploadSize {
		return entities.ImportRecord{}, fmt.Errorf("%w: %s exceeds %d bytes", errUploadTooLarge, source, t.maxUploadSize)
	}

	return t.useCase.ImportCSV(ctx, source, bytes.NewReader(data))
}

// handleNonCommand processes regular messages
func (t *TelegramBot) handleNonCommand(ctx context.Context, message *tgbotapi.Message) string {
	if strings.TrimSpace(message.Text) == "" {
		return "I don't understand. Use /help to see available commands."
	}

	response, err := t.useCase.HandleNaturalLanguageQuery(ctx, message.Text)
	if errors.Is(err, usecases.ErrInterpreterDisabled) {
		return "I don't understand. Use /help to see available commands."
	}
	if err != nil {
		t.logger.Error("Error handling natural language query", "error", err)
		return usecases.UserMessage(err)
	}
	return response
}

func userName(message *tgbotapi.Message) string {
	if message.From == nil {
		return ""
	}
	return message.From.UserName
}
