package analysis

import (
	"fmt"

	"github.com/abelzeko/water-quality-bot/internal/entities"
)

// Prediction is a dissolved-oxygen forecast at a target time
type Prediction struct {
	Target     float64          `json:"target"`
	Value      float64          `json:"value"`
	Base       float64          `json:"base"`
	Offset     float64          `json:"offset"`
	Regression Regression       `json:"regression"`
	Segment    entities.Segment `json:"segment"`
	Samples    int              `json:"samples"`
}

// TrendLine is the regression over the whole store with its display segment
// running from the earliest to the latest observed time.
type TrendLine struct {
	Regression Regression       `json:"regression"`
	Segment    entities.Segment `json:"segment"`
	Samples    int              `json:"samples"`
}

// Predictor extrapolates dissolved oxygen along the store's linear trend
type Predictor struct {
	seasonal bool
}

// NewPredictor creates a predictor for the given variant
func NewPredictor(v Variant) *Predictor {
	return &Predictor{seasonal: v.Seasonal}
}

// Predict forecasts the dissolved oxygen at target, expressed in the store's time unit.
// The store is only read.
func (p *Predictor) Predict(s *Store, target float64) (Prediction, error) {
	if s.Len() < 2 {
		return Prediction{}, fmt.Errorf("%w: need at least 2 measurements, have %d", ErrInsufficientData, s.Len())
	}

	times, values := s.Series()
	reg, err := Regress(times, values)
	if err != nil {
		return Prediction{}, err
	}

	base := reg.At(target)
	offset := 0.0
	if p.seasonal {
		offset = EstimateSeasonal(s.measurements).Offset(HourBucket(target))
	}
	value := base + offset

	last, _ := s.Last()
	return Prediction{
		Target:     target,
		Value:      value,
		Base:       base,
		Offset:     offset,
		Regression: reg,
		Segment: entities.Segment{
			From: entities.Point{X: last.Time, Y: reg.At(last.Time)},
			To:   entities.Point{X: target, Y: value},
		},
		Samples: s.Len(),
	}, nil
}

// Trend fits the store and returns the line between its first and last time
func Trend(s *Store) (TrendLine, error) {
	if s.Len() < 2 {
		return TrendLine{}, fmt.Errorf("%w: need at least 2 measurements, have %d", ErrInsufficientData, s.Len())
	}

	times, values := s.Series()
	reg, err := Regress(times, values)
	if err != nil {
		return TrendLine{}, err
	}

	first, last := times[0], times[len(times)-1]
	return TrendLine{
		Regression: reg,
		Segment: entities.Segment{
			From: entities.Point{X: first, Y: reg.At(first)},
			To:   entities.Point{X: last, Y: reg.At(last)},
		},
		Samples: s.Len(),
	}, nil
}
