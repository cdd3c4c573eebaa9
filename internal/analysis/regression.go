package analysis

import (
	"fmt"
)

// Regression is the result of an ordinary least squares fit y = Slope*x + Intercept
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the fitted line at x
func (r Regression) At(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// Regress fits a line through the (x[i], y[i]) pairs. Sums are accumulated in
// input order so identical inputs give bit-identical results.
func Regress(x, y []float64) (Regression, error) {
	if len(x) != len(y) {
		return Regression{}, fmt.Errorf("%w: %d x values but %d y values", ErrInvalidInput, len(x), len(y))
	}
	if len(x) < 2 {
		return Regression{}, ErrDegenerateRegression
	}

	n := float64(len(x))
	var sumX, sumY, sumXY, sumXX float64
	constant := true
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
		if x[i] != x[0] {
			constant = false
		}
	}

	denominator := n*sumXX - sumX*sumX
	if constant || denominator == 0 {
		return Regression{}, ErrDegenerateRegression
	}

	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / n

	return Regression{Slope: slope, Intercept: intercept}, nil
}
