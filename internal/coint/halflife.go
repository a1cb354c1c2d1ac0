package coint

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// HalfLife estimates the mean-reversion half-life of a spread in bars via
// the AR(1) regression ds_t = a + lambda*s_{t-1}. A non-negative lambda
// means no reversion evidence and yields +Inf; a lambda at or below -1
// reverts within a single bar.
func HalfLife(spread []float64) float64 {
	n := len(spread)
	if n < 3 {
		return math.Inf(1)
	}
	lag := spread[:n-1]
	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = spread[i] - spread[i-1]
	}
	_, lambda := stat.LinearRegression(lag, diff, nil, false)
	if math.IsNaN(lambda) || lambda >= 0 {
		return math.Inf(1)
	}
	if lambda <= -1 {
		return 1
	}
	return -math.Ln2 / math.Log(1+lambda)
}
