package watchlist

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	nameColumn  = "item_name"
	priceColumn = "max_price"
)

// CSVSource reads a two-column sheet (item_name, max_price) from a local file
// or from an HTTP(S) URL such as a published spreadsheet CSV export.
type CSVSource struct {
	Path   string
	URL    string
	Client *http.Client
}

// NewCSVSource builds a CSV-backed source. Exactly one of path or url is used;
// path wins when both are set.
func NewCSVSource(path, url string, timeout time.Duration) *CSVSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CSVSource{Path: path, URL: url, Client: &http.Client{Timeout: timeout}}
}

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) ([]Entry, error) {
	if s.Path != "" {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("open watchlist csv: %w", err)
		}
		defer f.Close()
		return ParseCSV(f)
	}
	if s.URL == "" {
		return nil, errors.New("watchlist csv source has neither path nor url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create watchlist request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch watchlist csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch watchlist csv: unexpected status %d", resp.StatusCode)
	}
	return ParseCSV(resp.Body)
}

// ParseCSV reads entries from CSV with a header row. Columns are located by
// header name; without a recognisable header the first two columns are used
// and the first row is treated as data.
func ParseCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse watchlist csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	nameIdx, priceIdx := 0, 1
	start := 0
	if n, p, ok := headerIndexes(records[0]); ok {
		nameIdx, priceIdx, start = n, p, 1
	}

	entries := make([]Entry, 0, len(records)-start)
	for _, rec := range records[start:] {
		name := field(rec, nameIdx)
		price := ""
		if priceIdx >= 0 {
			price = field(rec, priceIdx)
		}
		if e, ok := newEntry(name, price); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func headerIndexes(header []string) (int, int, bool) {
	nameIdx, priceIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))) {
		case nameColumn:
			nameIdx = i
		case priceColumn:
			priceIdx = i
		}
	}
	return nameIdx, priceIdx, nameIdx >= 0
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}
