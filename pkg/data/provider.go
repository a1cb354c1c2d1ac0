// Package data builds validated price tables from external sources: CSV
// files on disk, Bybit daily klines, and a seeded synthetic generator.
// Every provider returns the same artifact, a date-aligned, log-transformed
// close-price table ready for the analysis engines.
package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

var (
	// ErrNoRows is returned when a source yields no usable rows for a ticker.
	ErrNoRows = errors.New("no usable rows")
	// ErrNoOverlap is returned when tickers share too few dates to align.
	ErrNoOverlap = errors.New("tickers share too few dates")
)

// Request names the tickers and the sample size a provider should load.
type Request struct {
	Tickers []string
	// Period is a display label ("6mo", "1y"); engines only consume the
	// row count, so providers pass it through to the table untouched.
	Period string
	// Limit caps the aligned table at its most recent Limit rows.
	// Zero means provider default.
	Limit int
}

// Provider loads close prices for a set of tickers into one aligned table.
type Provider interface {
	Load(ctx context.Context, req Request) (*types.PriceTable, error)
}

// closes maps a calendar day to a raw close price for one ticker.
type closes map[time.Time]float64

// day normalizes a timestamp to midnight UTC so sources with differing
// intraday stamps still join.
func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// alignAndLog inner-joins the per-ticker close series on date, applies the
// log transform, and builds a validated table. Only dates present for every
// ticker survive, so the table never carries a missing value.
func alignAndLog(tickers []string, series []closes, period string, limit int) (*types.PriceTable, error) {
	common := make([]time.Time, 0, len(series[0]))
	for date := range series[0] {
		shared := true
		for _, s := range series[1:] {
			if _, ok := s[date]; !ok {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, date)
		}
	}
	if len(common) < 2 {
		return nil, fmt.Errorf("%w: %d common dates across %v", ErrNoOverlap, len(common), tickers)
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })
	if limit > 0 && len(common) > limit {
		common = common[len(common)-limit:]
	}

	cols := make([][]float64, len(tickers))
	for c := range cols {
		col := make([]float64, len(common))
		for i, date := range common {
			col[i] = math.Log(series[c][date])
		}
		cols[c] = col
	}
	return types.NewPriceTable(common, tickers, cols, period)
}
