package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// dateLayouts are tried in order when parsing a row's date cell.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
}

// CSVProvider loads one file per ticker from a directory. Files are named
// <TICKER>.csv and need a header carrying a date column and a close column;
// plain date,close exports and full OHLCV dumps both work. Rows that fail
// to parse are skipped with a warning, not fatal.
type CSVProvider struct {
	dir string
}

// NewCSVProvider returns a provider rooted at the given directory.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// Load implements Provider.
func (p *CSVProvider) Load(ctx context.Context, req Request) (*types.PriceTable, error) {
	if len(req.Tickers) == 0 {
		return nil, fmt.Errorf("csv load: no tickers requested")
	}
	series := make([]closes, len(req.Tickers))
	for i, ticker := range req.Tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := p.loadTicker(ticker)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", ticker, err)
		}
		series[i] = s
	}
	return alignAndLog(req.Tickers, series, req.Period, req.Limit)
}

func (p *CSVProvider) loadTicker(ticker string) (closes, error) {
	path := filepath.Join(p.dir, ticker+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	dateCol, closeCol, err := locateColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := make(closes)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		date, ok := parseDate(record[dateCol])
		if !ok {
			log.Warn().Str("file", path).Int("line", line).Str("value", record[dateCol]).Msg("unparseable date, skipping row")
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[closeCol]), 64)
		if err != nil {
			log.Warn().Str("file", path).Int("line", line).Str("value", record[closeCol]).Msg("unparseable close, skipping row")
			continue
		}
		if price <= 0 {
			log.Warn().Str("file", path).Int("line", line).Float64("close", price).Msg("non-positive close, skipping row")
			continue
		}
		out[day(date)] = price
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

// locateColumns finds the date and close columns by header name, so both
// minimal date,close exports and exchange OHLCV dumps load without a
// format flag.
func locateColumns(header []string) (dateCol, closeCol int, err error) {
	dateCol, closeCol = -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "timestamp", "time":
			if dateCol < 0 {
				dateCol = i
			}
		case "close", "adj close", "adj_close":
			if closeCol < 0 {
				closeCol = i
			}
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return 0, 0, fmt.Errorf("header %v has no recognizable date/close columns", header)
	}
	return dateCol, closeCol, nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Exchange dumps often stamp rows with epoch milliseconds.
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 1e10 {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

// WriteTickerCSV writes raw daily closes as <dir>/<ticker>.csv in the
// date,close format loadTicker reads back. It returns the written path.
func WriteTickerCSV(dir, ticker string, rows []Close) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("write %s: %w", ticker, ErrNoRows)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ticker+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"date", "close"}); err != nil {
		return "", err
	}
	for _, row := range rows {
		record := []string{
			row.Date.UTC().Format("2006-01-02"),
			strconv.FormatFloat(row.Price, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}
