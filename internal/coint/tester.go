// Package coint implements the cointegration test primitives behind the
// Tester interface: Engle-Granger for pairs, Johansen for baskets, plus the
// OLS hedge ratio and AR(1) half-life estimators the engines share. The
// heavy linear algebra (least squares, Cholesky, symmetric eigenproblem)
// is delegated to gonum.
package coint

import "errors"

var (
	// ErrTooFewObs is returned when a series is too short for the test.
	ErrTooFewObs = errors.New("not enough observations")
	// ErrLengthMismatch is returned when paired series differ in length.
	ErrLengthMismatch = errors.New("series length mismatch")
	// ErrSingular is returned when a moment matrix is singular or an
	// eigenvector degenerates; callers treat it as a failed window.
	ErrSingular = errors.New("singular system")
	// ErrBasketSize is returned for baskets outside the supported 2..12 range.
	ErrBasketSize = errors.New("basket size outside supported range")
)

// Method names the hypothesis test that produced a Result.
type Method string

const (
	MethodEngleGranger Method = "engle_granger"
	MethodJohansen     Method = "johansen"
)

// Result is the outcome of one cointegration test on one window of data.
// Immutable once produced.
type Result struct {
	Method        Method
	TestStatistic float64 // EG: ADF tau on residuals; Johansen: trace stat at r=0
	PValue        float64
	// Rank is the number of independent cointegrating relations found.
	// Johansen derives it from the trace statistics; Engle-Granger reports
	// 1 when the residuals test stationary at the configured significance,
	// else 0.
	Rank int
	// Weights is the cointegrating vector, one entry per input series,
	// normalized so the first series' coefficient is 1.
	Weights []float64
	// HedgeRatio is the OLS slope of the first series on the second
	// (pairs only; spread = a - HedgeRatio*b).
	HedgeRatio float64
	Intercept  float64
	// CriticalValues holds the 90/95/99% critical values for TestStatistic.
	CriticalValues [3]float64
	Eigenvalues    []float64 // Johansen, descending
	TraceStats     []float64 // Johansen, one per hypothesized rank r=0..n-1
	// HalfLife is the AR(1) mean-reversion half-life of the implied spread,
	// in bars. +Inf when the spread shows no reversion.
	HalfLife float64
}

// Cointegrated reports whether the test found at least one relation at the
// given significance level.
func (r Result) Cointegrated(significance float64) bool {
	return r.PValue < significance && r.Rank >= 1
}

// Tester is the black-box contract the monitor and backtesters consume.
// Implementations must be deterministic: identical input yields an
// identical Result.
type Tester interface {
	// TestPair runs the two-series Engle-Granger test of a against b.
	TestPair(a, b []float64) (Result, error)
	// TestBasket runs the Johansen trace test over the given columns with
	// kARDiff lagged differences.
	TestBasket(cols [][]float64, kARDiff int) (Result, error)
}

// GonumTester is the production Tester backed by gonum numerics.
type GonumTester struct {
	// Significance is the p-value cutoff used to derive the Engle-Granger
	// rank field. Defaults to 0.05.
	Significance float64
}

// NewTester returns a GonumTester with the given significance cutoff;
// non-positive values fall back to 0.05.
func NewTester(significance float64) *GonumTester {
	if significance <= 0 {
		significance = 0.05
	}
	return &GonumTester{Significance: significance}
}
