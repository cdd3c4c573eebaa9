package analysis

import (
	"fmt"
	"math"

	"github.com/abelzeko/water-quality-bot/internal/entities"
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidateCandidate turns a candidate into a measurement for the given variant.
// Time and dissolved oxygen must be finite, as must every tracked optional field.
// Untracked optional fields are dropped.
func ValidateCandidate(c entities.Candidate, v Variant) (entities.Measurement, error) {
	if !finite(c.Time) {
		return entities.Measurement{}, fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, entities.FieldTime)
	}
	if !finite(c.DissolvedOxygen) {
		return entities.Measurement{}, fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, entities.FieldDissolvedOxygen)
	}

	m := entities.Measurement{Time: c.Time, DissolvedOxygen: c.DissolvedOxygen}

	if v.TrackTurbidity {
		if c.Turbidity == nil || !finite(*c.Turbidity) {
			return entities.Measurement{}, fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, entities.FieldTurbidity)
		}
		m.Turbidity = entities.Float(*c.Turbidity)
	}
	if v.TrackPH {
		if c.PH == nil || !finite(*c.PH) {
			return entities.Measurement{}, fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, entities.FieldPH)
		}
		m.PH = entities.Float(*c.PH)
	}

	return m, nil
}

// ValidateCandidates keeps every candidate that validates and counts the rest
func ValidateCandidates(cs []entities.Candidate, v Variant) ([]entities.Measurement, int) {
	valid := make([]entities.Measurement, 0, len(cs))
	skipped := 0
	for _, c := range cs {
		m, err := ValidateCandidate(c, v)
		if err != nil {
			skipped++
			continue
		}
		valid = append(valid, m)
	}
	return valid, skipped
}
