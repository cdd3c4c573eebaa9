// Package analysis implements the statistical core of the water-quality service.
//
// The package is pure: it never logs and never performs I/O. The only mutable
// value is the Store, which is owned by a single caller.
//
// # Pipeline
//
// Raw candidates are validated against a Variant, consolidated by exact time key
// and kept sorted in a Store:
//
//	store := analysis.NewStore()
//	m, err := analysis.ValidateCandidate(candidate, variant)
//	if err == nil {
//	    store.Add(m)
//	}
//
// # Trend and prediction
//
// The regression is a closed-form ordinary least squares fit over the store:
//
//	trend, err := analysis.Trend(store)
//	p, err := analysis.NewPredictor(variant).Predict(store, 2880)
//
// When Variant.Seasonal is set and the store holds at least 24 measurements, the
// average dissolved oxygen observed in the target's hour-of-day bucket is added to
// the linear prediction.
//
// # Errors
//
// Failures are reported with the sentinel errors ErrInvalidInput,
// ErrInsufficientData, ErrDegenerateRegression and ErrEmptyImport; use errors.Is
// to tell them apart.
package analysis
