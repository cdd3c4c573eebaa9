package analysis

import "errors"

var (
	// ErrInvalidInput is returned when a required field is missing or not a finite number
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData is returned when fewer than two measurements are available
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerateRegression is returned when every time value is identical
	ErrDegenerateRegression = errors.New("degenerate regression: time axis has zero variance")
	// ErrEmptyImport is returned when an import source yields no valid rows
	ErrEmptyImport = errors.New("no valid rows to import")
)
