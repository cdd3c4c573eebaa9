package integration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/logging"
)

// HTMLTableImporter scrapes measurement candidates from an HTML table published by a monitoring site
type HTMLTableImporter struct {
	sourceURL string
	client    *http.Client
	logger    *logging.Logger
}

// NewHTMLTableImporter creates an importer for the page at url
func NewHTMLTableImporter(url string, timeout time.Duration, logger *logging.Logger) *HTMLTableImporter {
	if logger == nil {
		logger = logging.Global()
	}
	return &HTMLTableImporter{
		sourceURL: url,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With("component", "html_importer"),
	}
}

// SourceURL returns the page the importer reads
func (hi *HTMLTableImporter) SourceURL() string {
	return hi.sourceURL
}

// Fetch downloads the page and parses its measurement table
func (hi *HTMLTableImporter) Fetch(ctx context.Context) ([]entities.Candidate, error) {
	hi.logger.Info("Sending HTTP request to monitoring page", "url", hi.sourceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hi.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	res, err := hi.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the webpage: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}

	return hi.Parse(res.Body)
}

// Parse reads the first table whose header row names a time and a dissolved-oxygen column
func (hi *HTMLTableImporter) Parse(r io.Reader) ([]entities.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the webpage: %w", err)
	}

	var (
		candidates []entities.Candidate
		found      bool
		rowCount   int
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return true
		}

		cols, err := resolveColumns(cellTexts(rows.First()))
		if err != nil {
			return true
		}
		found = true

		rows.Each(func(index int, row *goquery.Selection) {
			if index == 0 {
				return
			}
			cells := cellTexts(row)
			if len(cells) == 0 {
				return
			}
			rowCount++
			candidates = append(candidates, cols.candidate(cells))
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no measurement table on page: %w", ErrMissingColumn)
	}

	hi.logger.Info("Parsed measurement table", "rows", rowCount)
	return candidates, nil
}

func cellTexts(row *goquery.Selection) []string {
	var cells []string
	row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}
