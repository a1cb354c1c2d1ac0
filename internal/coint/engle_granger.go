package coint

import (
	"fmt"
)

// minPairObs is the floor below which the residual ADF regression has no
// degrees of freedom worth trusting.
const minPairObs = 20

// TestPair runs the Engle-Granger two-step test of a against b: OLS of a on
// b with an intercept, then an augmented Dickey-Fuller test on the
// residuals. The returned weights are [1, -hedgeRatio], so the spread is
// the weighted sum of the two series.
func (g *GonumTester) TestPair(a, b []float64) (Result, error) {
	if len(a) != len(b) {
		return Result{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) < minPairObs {
		return Result{}, fmt.Errorf("%w: pair test needs %d+ rows, got %d", ErrTooFewObs, minPairObs, len(a))
	}

	slope, intercept, err := HedgeRatio(a, b)
	if err != nil {
		return Result{}, fmt.Errorf("engle-granger step 1: %w", err)
	}

	resid := make([]float64, len(a))
	for i := range a {
		resid[i] = a[i] - intercept - slope*b[i]
	}

	tau, _, err := adfTau(resid)
	if err != nil {
		return Result{}, fmt.Errorf("engle-granger step 2: %w", err)
	}
	p := egPValue(tau)

	rank := 0
	if p < g.significance() {
		rank = 1
	}
	return Result{
		Method:         MethodEngleGranger,
		TestStatistic:  tau,
		PValue:         p,
		Rank:           rank,
		Weights:        []float64{1, -slope},
		HedgeRatio:     slope,
		Intercept:      intercept,
		CriticalValues: egCriticalValues,
		HalfLife:       HalfLife(resid),
	}, nil
}

func (g *GonumTester) significance() float64 {
	if g == nil || g.Significance <= 0 {
		return 0.05
	}
	return g.Significance
}
