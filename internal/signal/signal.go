// Package signal derives trading signals from a cointegrating relationship:
// the spread series itself plus causal rolling z-score and percentile-rank
// transforms. Every statistic at date t uses only samples at or before t,
// so the series can feed a backtest without look-ahead.
package signal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// ErrWeightMismatch is returned when the weight vector length does not
// match the table's ticker count.
var ErrWeightMismatch = errors.New("weight count does not match ticker count")

// Sample is one date's worth of signal values. ZScore and Percentile are
// NaN until their rolling window has filled.
type Sample struct {
	Date       time.Time
	Spread     float64
	ZScore     float64
	Percentile float64
}

// Spread computes the weighted sum of log prices per date. Weights may come
// from a single static estimate or be supplied per fold by a backtester.
func Spread(table *types.PriceTable, weights []float64) ([]float64, error) {
	if len(weights) != table.NumTickers() {
		return nil, fmt.Errorf("%w: %d weights for %d tickers", ErrWeightMismatch, len(weights), table.NumTickers())
	}
	out := make([]float64, table.Len())
	for i, col := range table.Columns() {
		w := weights[i]
		for j, v := range col {
			out[j] += w * v
		}
	}
	return out, nil
}

// RollingZScore returns the causal z-score of the spread: at index t it
// uses only the trailing window [t-window+1, t], with the sample standard
// deviation (n-1 divisor). The first window-1 entries are NaN, as is any
// entry whose window has zero variance.
func RollingZScore(spread []float64, window int) []float64 {
	out := nanSlice(len(spread))
	if window < 2 || len(spread) < window {
		return out
	}
	for i := window - 1; i < len(spread); i++ {
		m, sd := meanStd(spread[i-window+1 : i+1])
		if sd == 0 {
			continue
		}
		out[i] = (spread[i] - m) / sd
	}
	return out
}

// RollingPercentileRank returns, per index t, the fraction of the trailing
// window values (inclusive of t) strictly below spread[t]. Same causality
// and NaN-prefix rules as RollingZScore.
func RollingPercentileRank(spread []float64, window int) []float64 {
	out := nanSlice(len(spread))
	if window < 1 || len(spread) < window {
		return out
	}
	for i := window - 1; i < len(spread); i++ {
		below := 0
		for _, v := range spread[i-window+1 : i+1] {
			if v < spread[i] {
				below++
			}
		}
		out[i] = float64(below) / float64(window)
	}
	return out
}

// Series combines spread, z-score and percentile rank into one sample per
// date of the table.
func Series(table *types.PriceTable, weights []float64, window int) ([]Sample, error) {
	spread, err := Spread(table, weights)
	if err != nil {
		return nil, err
	}
	zs := RollingZScore(spread, window)
	pr := RollingPercentileRank(spread, window)
	samples := make([]Sample, len(spread))
	for i := range samples {
		samples[i] = Sample{
			Date:       table.Date(i),
			Spread:     spread[i],
			ZScore:     zs[i],
			Percentile: pr[i],
		}
	}
	return samples, nil
}

// TrailingVol returns the sample standard deviation of the last window
// spread values ending at index i, or NaN when not enough history exists.
// Backtesters size positions with it.
func TrailingVol(spread []float64, window, i int) float64 {
	if window < 2 || i+1 < window || i >= len(spread) {
		return math.NaN()
	}
	_, sd := meanStd(spread[i-window+1 : i+1])
	return sd
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func meanStd(xs []float64) (mean, std float64) {
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))
	var ss float64
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(len(xs)-1))
	return mean, std
}
