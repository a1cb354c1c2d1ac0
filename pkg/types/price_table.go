package types

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrTooShort is returned when a table has fewer than 2 rows.
	ErrTooShort = errors.New("price table needs at least 2 rows")
	// ErrNoTickers is returned when a table has no columns.
	ErrNoTickers = errors.New("price table needs at least 1 ticker")
	// ErrWidthMismatch is returned when column lengths disagree with the date index.
	ErrWidthMismatch = errors.New("column length does not match date index")
	// ErrNonMonotonic is returned when the date index is not strictly increasing.
	ErrNonMonotonic = errors.New("date index is not strictly increasing")
	// ErrBadValue is returned when a cell holds NaN or Inf.
	ErrBadValue = errors.New("price table contains NaN or Inf")
	// ErrUnknownTicker is returned when a ticker is not present in the table.
	ErrUnknownTicker = errors.New("unknown ticker")
	// ErrBadRange is returned for an out-of-bounds or inverted slice range.
	ErrBadRange = errors.New("invalid slice range")
)

// PriceTable is an immutable, date-aligned matrix of log close prices:
// one row per trading day, one column per ticker. Loaders are responsible
// for alignment, cleaning and the log transform; the constructor only
// verifies the contract so malformed input fails fast instead of surfacing
// as NaN statistics downstream.
type PriceTable struct {
	dates   []time.Time
	tickers []string
	cols    [][]float64
	period  string
}

// NewPriceTable validates and wraps the given columns. cols is column-major:
// cols[i] holds the series for tickers[i]. The slices are retained, not
// copied; callers must not mutate them afterwards.
func NewPriceTable(dates []time.Time, tickers []string, cols [][]float64, period string) (*PriceTable, error) {
	if len(dates) < 2 {
		return nil, ErrTooShort
	}
	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}
	if len(cols) != len(tickers) {
		return nil, fmt.Errorf("%w: %d columns for %d tickers", ErrWidthMismatch, len(cols), len(tickers))
	}
	for i, col := range cols {
		if len(col) != len(dates) {
			return nil, fmt.Errorf("%w: ticker %s has %d rows, index has %d", ErrWidthMismatch, tickers[i], len(col), len(dates))
		}
		for j, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: ticker %s at %s", ErrBadValue, tickers[i], dates[j].Format("2006-01-02"))
			}
		}
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: %s then %s", ErrNonMonotonic,
				dates[i-1].Format("2006-01-02"), dates[i].Format("2006-01-02"))
		}
	}
	return &PriceTable{dates: dates, tickers: tickers, cols: cols, period: period}, nil
}

// Len returns the number of rows (trading days).
func (t *PriceTable) Len() int { return len(t.dates) }

// NumTickers returns the number of columns.
func (t *PriceTable) NumTickers() int { return len(t.tickers) }

// Tickers returns the column labels in column order.
func (t *PriceTable) Tickers() []string { return t.tickers }

// Period returns the display-only period label ("6mo", "1y", ...).
func (t *PriceTable) Period() string { return t.period }

// Dates returns the full date index.
func (t *PriceTable) Dates() []time.Time { return t.dates }

// Date returns the date of row i.
func (t *PriceTable) Date(i int) time.Time { return t.dates[i] }

// ColumnAt returns the series for column i.
func (t *PriceTable) ColumnAt(i int) []float64 { return t.cols[i] }

// Columns returns all series in column order.
func (t *PriceTable) Columns() [][]float64 { return t.cols }

// Column returns the series for the named ticker.
func (t *PriceTable) Column(ticker string) ([]float64, error) {
	for i, s := range t.tickers {
		if s == ticker {
			return t.cols[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
}

// Slice returns the half-open row range [start, end) as a new table sharing
// the backing arrays. The result keeps the period label of the parent.
func (t *PriceTable) Slice(start, end int) (*PriceTable, error) {
	if start < 0 || end > len(t.dates) || end-start < 2 {
		return nil, fmt.Errorf("%w: [%d, %d) of %d rows", ErrBadRange, start, end, len(t.dates))
	}
	cols := make([][]float64, len(t.cols))
	for i, col := range t.cols {
		cols[i] = col[start:end]
	}
	return &PriceTable{dates: t.dates[start:end], tickers: t.tickers, cols: cols, period: t.period}, nil
}

// Window identifies a contiguous half-open row range [Start, End) of a
// PriceTable by its bounds and end date.
type Window struct {
	Start   int
	End     int
	EndDate time.Time
}

// Len returns the number of rows covered by the window.
func (w Window) Len() int { return w.End - w.Start }
