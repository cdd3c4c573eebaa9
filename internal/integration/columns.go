// Package integration handles the bulk import sources of measurements
package integration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abelzeko/water-quality-bot/internal/entities"
)

// ErrMissingColumn is returned when a source has no time or dissolved-oxygen column
var ErrMissingColumn = errors.New("required column not found")

// columnAliases lists, per field, the accepted header names in lookup order
var columnAliases = []struct {
	field   entities.Field
	aliases []string
}{
	{entities.FieldTime, []string{"time", "Time", "TIME"}},
	{entities.FieldDissolvedOxygen, []string{"do_level", "DO", "Dissolved Oxygen", "do"}},
	{entities.FieldTurbidity, []string{"turbidity", "Turbidity", "TURBIDITY"}},
	{entities.FieldPH, []string{"ph", "pH", "PH"}},
}

// columnIndex maps each resolved field to its position in a row
type columnIndex map[entities.Field]int

func cleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(h), "\""))
}

// resolveColumns finds the column of every known field. The first alias that
// matches exactly wins; failing that, the first alias matching case-insensitively.
func resolveColumns(headers []string) (columnIndex, error) {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = cleanHeader(h)
	}

	cols := columnIndex{}
	for _, c := range columnAliases {
		if idx, ok := findAlias(cleaned, c.aliases, false); ok {
			cols[c.field] = idx
		} else if idx, ok := findAlias(cleaned, c.aliases, true); ok {
			cols[c.field] = idx
		}
	}

	for _, required := range []entities.Field{entities.FieldTime, entities.FieldDissolvedOxygen} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	return cols, nil
}

func findAlias(headers, aliases []string, fold bool) (int, bool) {
	for _, alias := range aliases {
		for i, h := range headers {
			if h == alias || (fold && strings.EqualFold(h, alias)) {
				return i, true
			}
		}
	}
	return -1, false
}

// parseCell coerces a raw cell into a number. Blank and NA-style cells are not numbers.
func parseCell(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "\""))
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "null", "-":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// candidate builds a candidate from the cells of one row
func (cols columnIndex) candidate(cells []string) entities.Candidate {
	cell := func(f entities.Field) (float64, bool) {
		idx, ok := cols[f]
		if !ok || idx >= len(cells) {
			return 0, false
		}
		return parseCell(cells[idx])
	}

	c := entities.Candidate{Time: entities.Missing(), DissolvedOxygen: entities.Missing()}
	if v, ok := cell(entities.FieldTime); ok {
		c.Time = v
	}
	if v, ok := cell(entities.FieldDissolvedOxygen); ok {
		c.DissolvedOxygen = v
	}
	if v, ok := cell(entities.FieldTurbidity); ok {
		c.Turbidity = entities.Float(v)
	}
	if v, ok := cell(entities.FieldPH); ok {
		c.PH = entities.Float(v)
	}
	return c
}
