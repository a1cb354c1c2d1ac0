package coint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// egPTable maps the residual ADF tau statistic to an approximate p-value
// for the two-variable Engle-Granger test with an intercept in the
// cointegrating regression. The 1/5/10% rows are the standard asymptotic
// critical values; intermediate anchors are interpolation support points,
// so p-values away from the conventional levels are approximate. That is
// the same ladder approximation the Johansen path uses.
var egPTable = []struct{ tau, p float64 }{
	{-6.00, 0.0001},
	{-4.65, 0.001},
	{-4.10, 0.005},
	{-3.90, 0.01},
	{-3.59, 0.025},
	{-3.34, 0.05},
	{-3.04, 0.10},
	{-2.76, 0.20},
	{-2.45, 0.35},
	{-2.10, 0.50},
	{-1.70, 0.70},
	{-1.20, 0.85},
	{-0.50, 0.95},
	{0.50, 0.99},
}

// egPValue interpolates the tau-to-p ladder, clamped to [0.0001, 0.9999].
func egPValue(tau float64) float64 {
	if math.IsNaN(tau) {
		return 1.0
	}
	if tau <= egPTable[0].tau {
		return egPTable[0].p
	}
	last := egPTable[len(egPTable)-1]
	if tau >= last.tau {
		return 0.9999
	}
	for i := 1; i < len(egPTable); i++ {
		lo, hi := egPTable[i-1], egPTable[i]
		if tau <= hi.tau {
			frac := (tau - lo.tau) / (hi.tau - lo.tau)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return 0.9999
}

// egCriticalValues holds the 90/95/99% two-variable Engle-Granger critical
// values reported alongside the statistic.
var egCriticalValues = [3]float64{-3.04, -3.34, -3.90}

// adfTau runs an augmented Dickey-Fuller regression without deterministic
// terms on a residual series and returns the tau statistic of the lagged
// level. The lag order is chosen by AIC over 0..maxADFLag(len(series)).
func adfTau(series []float64) (tau float64, lag int, err error) {
	n := len(series)
	if n < 12 {
		return 0, 0, fmt.Errorf("%w: adf needs 12+ residuals, got %d", ErrTooFewObs, n)
	}
	maxLag := maxADFLag(n)

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = series[i] - series[i-1]
	}

	bestAIC := math.Inf(1)
	bestTau := math.NaN()
	bestLag := 0
	for k := 0; k <= maxLag; k++ {
		t, aic, fitErr := adfFit(series, diff, k)
		if fitErr != nil {
			continue
		}
		if aic < bestAIC {
			bestAIC, bestTau, bestLag = aic, t, k
		}
	}
	if math.IsNaN(bestTau) {
		return 0, 0, fmt.Errorf("adf regression failed at every lag: %w", ErrSingular)
	}
	return bestTau, bestLag, nil
}

// adfFit estimates ddiff[t] = rho*level[t-1] + sum phi_i*diff[t-i] and
// returns the t-statistic of rho plus the AIC of the fit.
func adfFit(level, diff []float64, k int) (tau, aic float64, err error) {
	// Usable responses: diff[j] for j >= k, regressed on level[j] and
	// diff[j-1..j-k]. level[j] is the observation one bar before diff[j]'s
	// end point.
	rows := len(diff) - k
	cols := k + 1
	if rows <= cols+2 {
		return 0, 0, fmt.Errorf("%w: %d rows for lag %d", ErrTooFewObs, rows, k)
	}
	x := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		j := r + k
		y.SetVec(r, diff[j])
		x.Set(r, 0, level[j])
		for i := 1; i <= k; i++ {
			x.Set(r, i, diff[j-i])
		}
	}
	beta, stderr, rss, err := olsFit(y, x)
	if err != nil {
		return 0, 0, err
	}
	if stderr[0] == 0 {
		return 0, 0, fmt.Errorf("zero variance tau: %w", ErrSingular)
	}
	tau = beta.AtVec(0) / stderr[0]
	nf := float64(rows)
	aic = nf*math.Log(rss/nf) + 2*float64(cols)
	return tau, aic, nil
}

// maxADFLag is the Schwert rule 12*(n/100)^0.25, capped so the regression
// keeps enough degrees of freedom.
func maxADFLag(n int) int {
	lag := int(math.Floor(12 * math.Pow(float64(n)/100, 0.25)))
	if limit := (n - 1) / 3; lag > limit {
		lag = limit
	}
	if lag < 0 {
		lag = 0
	}
	return lag
}
