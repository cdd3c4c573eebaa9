package usecases

import (
	"context"
	"errors"

	"github.com/abelzeko/water-quality-bot/internal/integration/openai"
	"github.com/abelzeko/water-quality-bot/internal/units"
)

// ErrInterpreterDisabled is returned when no natural-language interpreter is configured
var ErrInterpreterDisabled = errors.New("natural language queries are disabled")

// HandleNaturalLanguageQuery interprets a user's free-text query and returns
// the response text for the chosen command.
func (uc *QualityUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string) (string, error) {
	if uc.interpreter == nil {
		return "", ErrInterpreterDisabled
	}

	uc.logger.Info("Interpreting natural language query", "query", query)

	supported := units.Supported()
	names := make([]string, len(supported))
	for i, u := range supported {
		names[i] = string(u)
	}

	resp, err := uc.interpreter.Interpret(ctx, query, names)
	if err != nil {
		uc.logger.Error("Error interpreting user query", "error", err)
		return "Sorry, I'm having trouble understanding right now. Please try again later or use /help.", nil
	}

	uc.logger.Info("Interpreter response", "command", resp.CommandName, "value", resp.Value, "unit", resp.Unit)

	prefix := ""
	if resp.UserMessage != "" {
		prefix = resp.UserMessage + "\n\n"
	}

	switch resp.CommandName {
	case openai.CommandPredict:
		f, err := uc.Predict(resp.Value, resp.Unit)
		if err != nil {
			return prefix + UserMessage(err), nil
		}
		return prefix + uc.FormatForecast(f), nil
	case openai.CommandTrend:
		t, err := uc.Trend()
		if err != nil {
			return prefix + UserMessage(err), nil
		}
		return prefix + uc.FormatTrend(t), nil
	case openai.CommandListMeasurements:
		lastUpdate, _ := uc.GetLastUpdateTime(ctx)
		return prefix + uc.FormatMeasurements(uc.Measurements(), lastUpdate), nil
	default:
		if resp.UserMessage != "" {
			return resp.UserMessage, nil
		}
		return "I'm not sure how to respond to that. You can use /help for commands.", nil
	}
}
