package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abelzeko/water-quality-bot/internal/analysis"
	"github.com/abelzeko/water-quality-bot/internal/logging"
)

func command(text string) *tgbotapi.Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{UserName: "tester"},
		Chat:     &tgbotapi.Chat{ID: 1},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func newTestBot(t *testing.T) *TelegramBot {
	t.Helper()
	return newTelegramBot(nil, newTestUseCase(t, analysis.FullVariant()), 1024, logging.Nop())
}

func TestParseAddArgs(t *testing.T) {
	c := parseAddArgs("10 7,5 1.2 7.1")
	if c.Time != 10 || c.DissolvedOxygen != 7.5 {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if c.Turbidity == nil || *c.Turbidity != 1.2 || c.PH == nil || *c.PH != 7.1 {
		t.Errorf("unexpected optional fields: %+v", c)
	}

	c = parseAddArgs("10 abc")
	if !math.IsNaN(c.DissolvedOxygen) {
		t.Errorf("expected NaN dissolved oxygen, got %v", c.DissolvedOxygen)
	}
	if c.Turbidity != nil || c.PH != nil {
		t.Errorf("expected missing optional fields, got %+v", c)
	}

	c = parseAddArgs("10 7 x")
	if c.Turbidity == nil || !math.IsNaN(*c.Turbidity) {
		t.Errorf("expected non-finite turbidity, got %v", c.Turbidity)
	}
}

func TestHandleCommand(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		text     string
		contains string
	}{
		{"start", "/start", "Welcome"},
		{"help lists fields", "/help", "/add <time> <do> <turbidity> <ph>"},
		{"empty data", "/data", "No measurements yet"},
		{"trend without data", "/trend", "at least 2 measurements"},
		{"add without args", "/add", "Example"},
		{"add invalid", "/add 0 5 1", "valid numbers"},
		{"add first", "/add 0 5 1 7", "Measurement at 0 added"},
		{"add second", "/add 10 7 1 7", "DO level: 7.00"},
		{"data", "/data", "10 | 7.00 | 1.00 | 7.00"},
		{"trend", "/trend", "rising"},
		{"predict", "/predict 20 minutes", "9.00 mg/L"},
		{"predict default unit", "/predict 20", "9.00 mg/L"},
		{"predict non positive", "/predict -3 hours", "valid numbers"},
		{"predict bad number", "/predict soon", "positive number"},
		{"predict unknown unit", "/predict 3 fortnights", "Unknown time unit"},
		{"unknown", "/rivers", "Unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bot.handleCommand(ctx, command(tt.text))
			if !strings.Contains(got, tt.contains) {
				t.Errorf("handleCommand(%q) = %q, want substring %q", tt.text, got, tt.contains)
			}
		})
	}
}

func TestHandleNonCommand_NoInterpreter(t *testing.T) {
	bot := newTestBot(t)
	got := bot.handleNonCommand(context.Background(), &tgbotapi.Message{Text: "how is the river?"})
	if !strings.Contains(got, "/help") {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestImportFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.csv" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("time,do_level,turbidity,ph\n0,5,1,7\n10,7,1,7\nbad,1,1,1\n"))
	}))
	defer server.Close()

	bot := newTestBot(t)
	ctx := context.Background()

	rec, err := bot.importFromURL(ctx, "upload.csv", server.URL+"/upload.csv")
	if err != nil {
		t.Fatalf("importFromURL failed: %v", err)
	}
	if rec.Accepted != 2 || rec.Skipped != 1 {
		t.Errorf("expected 2 accepted and 1 skipped, got %+v", rec)
	}
	if got := len(bot.useCase.Measurements()); got != 2 {
		t.Errorf("expected 2 measurements, got %d", got)
	}

	if _, err := bot.importFromURL(ctx, "missing.csv", server.URL+"/missing.csv"); err == nil {
		t.Error("expected error for missing file")
	}
	if got := len(bot.useCase.Measurements()); got != 2 {
		t.Errorf("failed download must keep measurements, got %d", got)
	}
}

func TestImportFromURL_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("time,do_level,turbidity,ph\n" + strings.Repeat("1,7.15,1,7\n", 200)))
	}))
	defer server.Close()

	bot := newTestBot(t)
	_, err := bot.importFromURL(context.Background(), "big.csv", server.URL+"/big.csv")
	if !errors.Is(err, errUploadTooLarge) {
		t.Fatalf("Expected errUploadTooLarge, got %v", err)
	}
	if got := len(bot.useCase.Measurements()); got != 0 {
		t.Errorf("Oversized upload must not import anything, got %d measurements", got)
	}
}

func TestHandleDocument_Rejects(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()

	got := bot.handleDocument(ctx, &tgbotapi.Document{FileName: "photo.png", MimeType: "image/png"})
	if !strings.Contains(got, "CSV") {
		t.Errorf("unexpected reply %q", got)
	}

	got = bot.handleDocument(ctx, &tgbotapi.Document{FileName: "data.csv", FileSize: 4096})
	if !strings.Contains(got, "too large") {
		t.Errorf("unexpected reply %q", got)
	}
}
