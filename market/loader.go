package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// CSVSource reads a closing-price history from a CSV file with a header row.
type CSVSource struct {
	Path        string
	Symbol      string
	DateColumn  string
	CloseColumn string
}

func (s *CSVSource) Load(ctx context.Context) (*Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer file.Close()

	series, err := ReadCSV(file, s.Symbol, s.DateColumn, s.CloseColumn)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return series, nil
}

// ReadCSV parses the date and close columns into a validated series.
// Other columns are ignored.
func ReadCSV(r io.Reader, symbol, dateColumn, closeColumn string) (*Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptySeries
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	headerMap := make(map[string]int)
	for i, name := range header {
		headerMap[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	dateIdx, hasDate := headerMap[dateColumn]
	closeIdx, hasClose := headerMap[closeColumn]
	if !hasDate || !hasClose {
		return nil, fmt.Errorf("missing required columns: %s or %s", dateColumn, closeColumn)
	}

	series := &Series{Symbol: symbol}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading csv record: %w", err)
		}

		date, err := parseDate(record[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, record[dateIdx], err)
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(record[closeIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid close %q: %w", line, record[closeIdx], err)
		}
		series.Points = append(series.Points, PricePoint{Date: date, Close: closePrice})
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}
	return series, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return Day(t), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
