package analysis

import (
	"github.com/abelzeko/water-quality-bot/internal/entities"
)

// Store holds the consolidated measurements, unique by time and sorted ascending.
// It is not safe for concurrent use; its owner serializes access.
type Store struct {
	measurements []entities.Measurement
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// NewStoreFrom creates a store holding the consolidation of ms
func NewStoreFrom(ms []entities.Measurement) *Store {
	s := NewStore()
	s.ReplaceAll(ms)
	return s
}

// Add appends one measurement and re-consolidates
func (s *Store) Add(m entities.Measurement) {
	s.measurements = Consolidate(append(s.measurements, m))
}

// ReplaceAll discards the current contents and stores the consolidation of ms.
// An empty ms clears the store.
func (s *Store) ReplaceAll(ms []entities.Measurement) {
	if len(ms) == 0 {
		s.measurements = nil
		return
	}
	s.measurements = Consolidate(ms)
}

// All returns a copy of the ordered measurements
func (s *Store) All() []entities.Measurement {
	out := make([]entities.Measurement, len(s.measurements))
	copy(out, s.measurements)
	return out
}

// Len returns the number of distinct time points
func (s *Store) Len() int {
	return len(s.measurements)
}

// Last returns the measurement with the greatest time
func (s *Store) Last() (entities.Measurement, bool) {
	if len(s.measurements) == 0 {
		return entities.Measurement{}, false
	}
	return s.measurements[len(s.measurements)-1], true
}

// Series returns the parallel time and dissolved-oxygen sequences
func (s *Store) Series() (times, values []float64) {
	return s.Values(entities.FieldDissolvedOxygen)
}

// Values returns the parallel time and value sequences of field, skipping
// measurements where an optional field is absent.
func (s *Store) Values(field entities.Field) (times, values []float64) {
	times = make([]float64, 0, len(s.measurements))
	values = make([]float64, 0, len(s.measurements))
	for _, m := range s.measurements {
		var v *float64
		switch field {
		case entities.FieldTime:
			v = &m.Time
		case entities.FieldDissolvedOxygen:
			v = &m.DissolvedOxygen
		case entities.FieldTurbidity:
			v = m.Turbidity
		case entities.FieldPH:
			v = m.PH
		}
		if v == nil {
			continue
		}
		times = append(times, m.Time)
		values = append(values, *v)
	}
	return times, values
}
