// Package units converts user-supplied horizons into the store's native time unit.
// Months and years are approximations (30 and 365 days), not calendar-aware.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// Unit is a time unit understood by Convert
type Unit string

const (
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
	Days    Unit = "days"
	Weeks   Unit = "weeks"
	Months  Unit = "months"
	Years   Unit = "years"
)

// ErrUnknownUnit is returned for a unit name Parse cannot resolve
var ErrUnknownUnit = errors.New("unknown time unit")

var minutesPer = map[Unit]float64{
	Minutes: 1,
	Hours:   60,
	Days:    24 * 60,
	Weeks:   7 * 24 * 60,
	Months:  30 * 24 * 60,
	Years:   365 * 24 * 60,
}

var aliases = map[string]Unit{
	"m": Minutes, "min": Minutes, "mins": Minutes, "minute": Minutes, "minutes": Minutes,
	"h": Hours, "hr": Hours, "hrs": Hours, "hour": Hours, "hours": Hours,
	"d": Days, "day": Days, "days": Days,
	"w": Weeks, "wk": Weeks, "week": Weeks, "weeks": Weeks,
	"mo": Months, "month": Months, "months": Months,
	"y": Years, "yr": Years, "year": Years, "years": Years,
}

// Parse resolves a unit name such as "days", "Day" or "d"
func Parse(name string) (Unit, error) {
	u, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	return u, nil
}

// Supported lists the units in ascending order of length
func Supported() []Unit {
	return []Unit{Minutes, Hours, Days, Weeks, Months, Years}
}

// Convert expresses value (in unit from) in the native unit
func Convert(value float64, from, native Unit) (float64, error) {
	f, ok := minutesPer[from]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, from)
	}
	n, ok := minutesPer[native]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, native)
	}
	return value * f / n, nil
}
