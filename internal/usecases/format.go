package usecases

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abelzeko/water-quality-bot/internal/analysis"
	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/integration"
	"github.com/abelzeko/water-quality-bot/internal/units"
)

// UserMessage translates an error into text suitable for end users
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, analysis.ErrInsufficientData):
		return "Please add at least 2 measurements first."
	case errors.Is(err, analysis.ErrDegenerateRegression):
		return "All measurements share the same time, so no trend can be computed."
	case errors.Is(err, integration.ErrMissingColumn):
		return "The file needs at least a time and a dissolved oxygen column."
	case errors.Is(err, analysis.ErrEmptyImport):
		return "No valid data found in the file. Existing measurements were kept."
	case errors.Is(err, units.ErrUnknownUnit):
		return "Unknown time unit. Use minutes, hours, days, weeks, months or years."
	case errors.Is(err, analysis.ErrInvalidInput):
		return "Please fill in all fields with valid numbers."
	default:
		return "Something went wrong. Please try again later."
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatMeasurements renders the store contents as a table
func (uc *QualityUseCase) FormatMeasurements(ms []entities.Measurement, lastUpdate time.Time) string {
	if len(ms) == 0 {
		return "No measurements yet. Use /add or upload a CSV file."
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Measurements (time in %s):\n\n", uc.settings.TimeUnit))
	result.WriteString("time | DO mg/L")
	if uc.settings.Variant.TrackTurbidity {
		result.WriteString(" | turbidity")
	}
	if uc.settings.Variant.TrackPH {
		result.WriteString(" | pH")
	}
	result.WriteString("\n")

	for _, m := range ms {
		result.WriteString(fmt.Sprintf("%s | %.2f", formatFloat(m.Time), m.DissolvedOxygen))
		if uc.settings.Variant.TrackTurbidity {
			result.WriteString(" | " + formatOptional(m.Turbidity))
		}
		if uc.settings.Variant.TrackPH {
			result.WriteString(" | " + formatOptional(m.PH))
		}
		result.WriteString("\n")
	}

	if !lastUpdate.IsZero() {
		result.WriteString(fmt.Sprintf("\n🕒 Last update: %s", lastUpdate.Format("2006-01-02 15:04:05 MST")))
	}
	return result.String()
}

// FormatTrend renders a trend line
func (uc *QualityUseCase) FormatTrend(t analysis.TrendLine) string {
	direction := "stable"
	switch {
	case t.Regression.Slope > 0:
		direction = "rising"
	case t.Regression.Slope < 0:
		direction = "falling"
	}

	unit := strings.TrimSuffix(string(uc.settings.TimeUnit), "s")
	return fmt.Sprintf("📈 Dissolved oxygen is %s by %.4f mg/L per %s.\n"+
		"Trend line: %.2f mg/L at %s → %.2f mg/L at %s\n"+
		"Based on %d measurements.",
		direction, t.Regression.Slope, unit,
		t.Segment.From.Y, formatFloat(t.Segment.From.X),
		t.Segment.To.Y, formatFloat(t.Segment.To.X),
		t.Samples)
}

// FormatForecast renders a prediction
func (uc *QualityUseCase) FormatForecast(f Forecast) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("💧 Predicted DO level in %s %s: %.2f mg/L\n", formatFloat(f.Horizon), f.Unit, f.Value))
	if f.Offset != 0 {
		result.WriteString(fmt.Sprintf("Trend %.2f mg/L plus hour-of-day offset %.2f mg/L\n", f.Base, f.Offset))
	}
	result.WriteString(fmt.Sprintf("Based on %d historical measurements", f.Samples))
	return result.String()
}

// FormatImport renders an import summary
func FormatImport(rec entities.ImportRecord) string {
	msg := fmt.Sprintf("✅ Data loaded successfully: %d rows imported", rec.Accepted)
	if rec.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", rec.Skipped)
	}
	return msg + "."
}
