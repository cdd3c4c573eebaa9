package integration

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abelzeko/water-quality-bot/internal/logging"
)

func TestCSVImporter_Parse(t *testing.T) {
	csvData := `time,do_level,turbidity,ph
0,8.1,1.2,7.1
10,7.9,1.4,7.0
10,8.3,1.0,7.2`

	candidates, err := NewCSVImporter(',', logging.Nop()).Parse(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(candidates))
	}

	c := candidates[1]
	if c.Time != 10 || c.DissolvedOxygen != 7.9 {
		t.Errorf("Unexpected required values: %+v", c)
	}
	if c.Turbidity == nil || *c.Turbidity != 1.4 {
		t.Errorf("Expected turbidity 1.4, got %v", c.Turbidity)
	}
	if c.PH == nil || *c.PH != 7.0 {
		t.Errorf("Expected ph 7.0, got %v", c.PH)
	}
}

func TestCSVImporter_Aliases(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "capitalized", header: "Time,DO,Turbidity,pH"},
		{name: "upper", header: "TIME,Dissolved Oxygen,TURBIDITY,PH"},
		{name: "short do", header: "time,do,turbidity,ph"},
		{name: "quoted and padded", header: `"Time", "Dissolved Oxygen", turbidity ,ph`},
		{name: "case folded", header: "tImE,dissolved oxygen,TurBidity,Ph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.header + "\n5,6.5,2,7.3\n"
			candidates, err := NewCSVImporter(',', logging.Nop()).Parse(strings.NewReader(data))
			if err != nil {
				t.Fatalf("Failed to parse CSV: %v", err)
			}
			if len(candidates) != 1 {
				t.Fatalf("Expected 1 candidate, got %d", len(candidates))
			}
			c := candidates[0]
			if c.Time != 5 || c.DissolvedOxygen != 6.5 || c.Turbidity == nil || c.PH == nil || *c.PH != 7.3 {
				t.Errorf("Unexpected candidate: %+v", c)
			}
		})
	}
}

func TestCSVImporter_FirstAliasWins(t *testing.T) {
	// do_level precedes DO in the alias list, regardless of column order
	data := "time,DO,do_level\n1,5,9\n"
	candidates, err := NewCSVImporter(',', logging.Nop()).Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if candidates[0].DissolvedOxygen != 9 {
		t.Errorf("Expected do_level column to win, got %v", candidates[0].DissolvedOxygen)
	}
}

func TestCSVImporter_InvalidCells(t *testing.T) {
	data := `time,do_level,turbidity,ph
1,NA,1,7
abc,8,1,7
2,8,,7
3,8,1,7`

	candidates, err := NewCSVImporter(',', logging.Nop()).Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(candidates) != 4 {
		t.Fatalf("Expected 4 candidates, got %d", len(candidates))
	}
	if !math.IsNaN(candidates[0].DissolvedOxygen) {
		t.Errorf("Expected NaN dissolved oxygen for NA cell, got %v", candidates[0].DissolvedOxygen)
	}
	if !math.IsNaN(candidates[1].Time) {
		t.Errorf("Expected NaN time for unparseable cell, got %v", candidates[1].Time)
	}
	if candidates[2].Turbidity != nil {
		t.Errorf("Expected missing turbidity, got %v", *candidates[2].Turbidity)
	}
}

func TestCSVImporter_MissingRequiredColumn(t *testing.T) {
	data := "time,turbidity\n1,2\n"
	_, err := NewCSVImporter(',', logging.Nop()).Parse(strings.NewReader(data))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Expected ErrMissingColumn, got %v", err)
	}
}

func TestCSVImporter_Empty(t *testing.T) {
	candidates, err := NewCSVImporter(',', logging.Nop()).Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Expected no error for empty input, got %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates, got %d", len(candidates))
	}
}

func TestCSVImporter_SemicolonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte("\ufefftime;DO\n0;8\n60;7.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	candidates, err := NewCSVImporter(';', logging.Nop()).ParseFile(path)
	if err != nil {
		t.Fatalf("Failed to parse file: %v", err)
	}
	if len(candidates) != 2 || candidates[1].Time != 60 {
		t.Errorf("Unexpected candidates: %+v", candidates)
	}
	if candidates[0].Turbidity != nil || candidates[0].PH != nil {
		t.Errorf("Expected optional fields to be absent")
	}
}

func TestCSVImporter_MalformedRowKeepsOthers(t *testing.T) {
	data := "time,do_level,turbidity,ph\n0,5,1,7\n1,6\"x,1,7\n2,7,1,7\n"

	candidates, err := NewCSVImporter(',', logging.Nop()).Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Expected malformed row to be skipped, got error: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(candidates))
	}
	if candidates[0].Time != 0 || candidates[0].DissolvedOxygen != 5 {
		t.Errorf("Unexpected first row: %+v", candidates[0])
	}
	if !math.IsNaN(candidates[1].DissolvedOxygen) {
		t.Errorf("Expected malformed dissolved oxygen to be missing, got %v", candidates[1].DissolvedOxygen)
	}
	if candidates[2].Time != 2 || candidates[2].DissolvedOxygen != 7 {
		t.Errorf("Unexpected last row: %+v", candidates[2])
	}
}
