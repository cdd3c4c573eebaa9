// Package entities contains the core domain objects for the water-quality application
package entities

import (
	"math"
	"time"
)

// Field identifies one numeric column of a measurement
type Field string

const (
	FieldTime            Field = "time"
	FieldDissolvedOxygen Field = "do_level"
	FieldTurbidity       Field = "turbidity"
	FieldPH              Field = "ph"
)

// Measurement is a single consolidated water-quality observation.
// Time is a numeric axis in the configured unit (minutes or hours), not a timestamp.
type Measurement struct {
	Time            float64  `json:"time"`
	DissolvedOxygen float64  `json:"do_level"`
	Turbidity       *float64 `json:"turbidity,omitempty"`
	PH              *float64 `json:"ph,omitempty"`
}

// Candidate is an unvalidated entry as handed over by an import or manual-entry collaborator.
// Missing or unparseable required values are NaN, missing optional values are nil.
type Candidate struct {
	Time            float64  `json:"time"`
	DissolvedOxygen float64  `json:"do_level"`
	Turbidity       *float64 `json:"turbidity,omitempty"`
	PH              *float64 `json:"ph,omitempty"`
}

// NewCandidate builds a candidate with every field present
func NewCandidate(t, do, turbidity, ph float64) Candidate {
	return Candidate{
		Time:            t,
		DissolvedOxygen: do,
		Turbidity:       Float(turbidity),
		PH:              Float(ph),
	}
}

// Missing is the placeholder for a required value that could not be read
func Missing() float64 {
	return math.NaN()
}

// Float returns a pointer to a copy of v
func Float(v float64) *float64 {
	return &v
}

// Point is one (x, y) vertex of a line handed to rendering collaborators
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a two-point trend or prediction line
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// ImportRecord describes one completed bulk import
type ImportRecord struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Accepted   int       `json:"accepted"`
	Skipped    int       `json:"skipped"`
	ImportedAt time.Time `json:"imported_at"`
}
