package integration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/logging"
)

// CSVImporter reads measurement candidates from delimited text with a header row
type CSVImporter struct {
	delimiter rune
	logger    *logging.Logger
}

// NewCSVImporter creates a CSV importer. A zero delimiter means ','.
func NewCSVImporter(delimiter rune, logger *logging.Logger) *CSVImporter {
	if delimiter == 0 {
		delimiter = ','
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &CSVImporter{delimiter: delimiter, logger: logger.With("component", "csv_importer")}
}

// ParseFile opens path and parses it
func (ci *CSVImporter) ParseFile(path string) ([]entities.Candidate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return ci.Parse(file)
}

// Parse returns one candidate per data row. A row that cannot be parsed becomes a
// candidate with missing values, so validation skips it. An input without any
// rows yields no candidates and no error.
func (ci *CSVImporter) Parse(r io.Reader) ([]entities.Candidate, error) {
	reader := csv.NewReader(r)
	reader.Comma = ci.delimiter
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		ci.logger.Warn("CSV input is empty")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve CSV columns %v: %w", header, err)
	}
	ci.logger.Debug("Resolved CSV columns", "columns", cols)

	var candidates []entities.Candidate
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// the reader resumes at the next record; count this one as an invalid row
			ci.logger.Warn("Skipping malformed CSV row", "line", parseErr.Line, "error", err)
			candidates = append(candidates, entities.Candidate{
				Time:            entities.Missing(),
				DissolvedOxygen: entities.Missing(),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(candidates)+2, err)
		}
		candidates = append(candidates, cols.candidate(record))
	}

	ci.logger.Info("Parsed CSV input", "rows", len(candidates))
	return candidates, nil
}
