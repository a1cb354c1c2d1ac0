package coint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	minBasket = 2
	maxBasket = 12
	// DefaultKARDiff is the lagged-difference order used when the caller
	// does not specify one.
	DefaultKARDiff = 5
)

// johansenCVT holds the 90/95/99% critical values of the Johansen trace
// statistic for the model with deterministic-trend order 0, indexed by the
// number of remaining dimensions m = n - r (row m-1).
var johansenCVT = [maxBasket][3]float64{
	{2.7055, 3.8415, 6.6349},
	{13.4294, 15.4943, 19.9349},
	{27.0669, 29.7961, 35.4628},
	{44.4929, 47.8545, 54.6815},
	{65.8202, 69.8189, 77.8202},
	{91.1090, 95.7542, 104.9637},
	{120.3673, 125.6185, 135.9825},
	{153.6341, 159.5290, 171.0905},
	{190.8714, 197.3772, 210.0366},
	{232.1030, 239.2468, 253.2526},
	{277.3740, 285.1402, 300.2821},
	{326.5354, 334.9795, 351.2150},
}

// TestBasket runs the Johansen trace test over the given price columns with
// kARDiff lagged differences and deterministic-trend order 0 (constant
// term). The rank counts every hypothesized r whose trace statistic clears
// its 95% critical value; the approximate p-value for the r=0 statistic
// comes from the critical-value ladder (beyond 99% -> 0.005, 95% -> 0.025,
// 90% -> 0.075, else 0.15). Weights are the leading eigenvector normalized
// so the first series' coefficient is 1.
func (g *GonumTester) TestBasket(cols [][]float64, kARDiff int) (Result, error) {
	n := len(cols)
	if n < minBasket || n > maxBasket {
		return Result{}, fmt.Errorf("%w: %d series, supported %d..%d", ErrBasketSize, n, minBasket, maxBasket)
	}
	if kARDiff < 1 {
		kARDiff = DefaultKARDiff
	}
	t := len(cols[0])
	for i := 1; i < n; i++ {
		if len(cols[i]) != t {
			return Result{}, fmt.Errorf("%w: column %d has %d rows, column 0 has %d", ErrLengthMismatch, i, len(cols[i]), t)
		}
	}
	rows := t - 1 - kARDiff
	regressors := kARDiff*n + 1
	if rows < regressors+n+5 {
		return Result{}, fmt.Errorf("%w: %d effective rows for %d regressors", ErrTooFewObs, rows, regressors)
	}

	// First differences; diff[j] spans dates j -> j+1.
	diff := mat.NewDense(t-1, n, nil)
	for j := 0; j < t-1; j++ {
		for i := 0; i < n; i++ {
			diff.Set(j, i, cols[i][j+1]-cols[i][j])
		}
	}

	// Partial out the constant and the lagged differences from both the
	// current differences and the lagged levels.
	y0 := mat.NewDense(rows, n, nil) // current differences
	y1 := mat.NewDense(rows, n, nil) // lagged levels
	z := mat.NewDense(rows, regressors, nil)
	for r := 0; r < rows; r++ {
		j := r + kARDiff
		for i := 0; i < n; i++ {
			y0.Set(r, i, diff.At(j, i))
			y1.Set(r, i, cols[i][j])
		}
		z.Set(r, 0, 1)
		for lag := 1; lag <= kARDiff; lag++ {
			for i := 0; i < n; i++ {
				z.Set(r, 1+(lag-1)*n+i, diff.At(j-lag, i))
			}
		}
	}
	r0, err := olsResiduals(y0, z)
	if err != nil {
		return Result{}, fmt.Errorf("johansen short-run regression: %w", err)
	}
	r1, err := olsResiduals(y1, z)
	if err != nil {
		return Result{}, fmt.Errorf("johansen level regression: %w", err)
	}

	nf := float64(rows)
	s00 := toSym(crossProduct(r0, r0, 1/nf))
	s11 := toSym(crossProduct(r1, r1, 1/nf))
	s01 := crossProduct(r0, r1, 1/nf)

	var cholS00 mat.Cholesky
	if !cholS00.Factorize(s00) {
		return Result{}, fmt.Errorf("short-run moment matrix not positive definite: %w", ErrSingular)
	}
	var s00inv mat.SymDense
	if err := cholS00.InverseTo(&s00inv); err != nil {
		return Result{}, fmt.Errorf("short-run moment matrix inversion: %w", ErrSingular)
	}
	var cholS11 mat.Cholesky
	if !cholS11.Factorize(s11) {
		return Result{}, fmt.Errorf("level moment matrix not positive definite: %w", ErrSingular)
	}
	var l mat.TriDense
	cholS11.LTo(&l)

	// A = S10 * S00^-1 * S01, reduced to the symmetric pencil
	// M = L^-1 * A * L^-T with S11 = L*L^T, so a plain symmetric
	// eigendecomposition applies.
	var tmp, a mat.Dense
	tmp.Mul(s01.T(), &s00inv)
	a.Mul(&tmp, s01)

	var la mat.Dense
	if err := la.Solve(&l, &a); err != nil {
		if _, nearSingular := err.(mat.Condition); !nearSingular {
			return Result{}, fmt.Errorf("whitening solve: %w", ErrSingular)
		}
	}
	var mT mat.Dense
	if err := mT.Solve(&l, la.T()); err != nil {
		if _, nearSingular := err.(mat.Condition); !nearSingular {
			return Result{}, fmt.Errorf("whitening solve: %w", ErrSingular)
		}
	}
	msym := toSym(&mT)

	var eig mat.EigenSym
	if !eig.Factorize(msym, true) {
		return Result{}, fmt.Errorf("eigendecomposition failed: %w", ErrSingular)
	}
	ascending := eig.Values(nil)
	var whiteVecs mat.Dense
	eig.VectorsTo(&whiteVecs)

	// Back-transform eigenvectors to the level space: beta = L^-T * v.
	var beta mat.Dense
	if err := beta.Solve(l.T(), &whiteVecs); err != nil {
		if _, nearSingular := err.(mat.Condition); !nearSingular {
			return Result{}, fmt.Errorf("eigenvector back-transform: %w", ErrSingular)
		}
	}

	// gonum returns ascending eigenvalues; Johansen wants descending.
	eigenvalues := make([]float64, n)
	for i := 0; i < n; i++ {
		lambda := ascending[n-1-i]
		if lambda < -1e-8 || lambda > 1+1e-8 {
			return Result{}, fmt.Errorf("eigenvalue %g outside [0,1): %w", lambda, ErrSingular)
		}
		if lambda < 0 {
			lambda = 0
		}
		if lambda > 1-1e-12 {
			lambda = 1 - 1e-12
		}
		eigenvalues[i] = lambda
	}

	traceStats := make([]float64, n)
	for r := 0; r < n; r++ {
		var sum float64
		for j := r; j < n; j++ {
			sum += math.Log(1 - eigenvalues[j])
		}
		traceStats[r] = -nf * sum
	}

	rank := 0
	for r := 0; r < n; r++ {
		if traceStats[r] > johansenCVT[n-r-1][1] {
			rank++
		}
	}

	cv0 := johansenCVT[n-1]
	var p float64
	switch {
	case traceStats[0] > cv0[2]:
		p = 0.005
	case traceStats[0] > cv0[1]:
		p = 0.025
	case traceStats[0] > cv0[0]:
		p = 0.075
	default:
		p = 0.15
	}

	lead := n - 1 // descending order: leading eigenvector is the last column
	pivot := beta.At(0, lead)
	if math.Abs(pivot) < 1e-12 {
		return Result{}, fmt.Errorf("degenerate leading eigenvector: %w", ErrSingular)
	}
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		weights[i] = beta.At(i, lead) / pivot
	}

	spread := make([]float64, t)
	for j := 0; j < t; j++ {
		var s float64
		for i := 0; i < n; i++ {
			s += weights[i] * cols[i][j]
		}
		spread[j] = s
	}

	return Result{
		Method:         MethodJohansen,
		TestStatistic:  traceStats[0],
		PValue:         p,
		Rank:           rank,
		Weights:        weights,
		CriticalValues: cv0,
		Eigenvalues:    eigenvalues,
		TraceStats:     traceStats,
		HalfLife:       HalfLife(spread),
	}, nil
}

func crossProduct(a, b *mat.Dense, scale float64) *mat.Dense {
	var m mat.Dense
	m.Mul(a.T(), b)
	m.Scale(scale, &m)
	return &m
}

func toSym(d mat.Matrix) *mat.SymDense {
	n, _ := d.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(d.At(i, j)+d.At(j, i)))
		}
	}
	return s
}
