package coint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// HedgeRatio regresses a on b with an intercept and returns the slope and
// intercept. The slope is the pair hedge ratio: spread = a - slope*b.
func HedgeRatio(a, b []float64) (slope, intercept float64, err error) {
	if len(a) != len(b) {
		return 0, 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) < 3 {
		return 0, 0, fmt.Errorf("%w: need 3+ points, got %d", ErrTooFewObs, len(a))
	}
	intercept, slope = stat.LinearRegression(b, a, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, 0, fmt.Errorf("hedge ratio regression degenerate: %w", ErrSingular)
	}
	return slope, intercept, nil
}

// olsResiduals regresses every column of y on the columns of x and returns
// the residual matrix. Near-singular systems are tolerated (gonum reports
// them as a Condition error with a usable solution); truly singular ones
// map to ErrSingular.
func olsResiduals(y, x *mat.Dense) (*mat.Dense, error) {
	var beta mat.Dense
	if err := beta.Solve(x, y); err != nil {
		if _, nearSingular := err.(mat.Condition); !nearSingular {
			return nil, fmt.Errorf("least squares failed: %w", ErrSingular)
		}
	}
	var fitted mat.Dense
	fitted.Mul(x, &beta)
	var resid mat.Dense
	resid.Sub(y, &fitted)
	return &resid, nil
}

// olsFit solves y = x*beta and also returns the coefficient standard
// errors, for t-statistics. y is a column vector.
func olsFit(y *mat.VecDense, x *mat.Dense) (beta *mat.VecDense, stderr []float64, rss float64, err error) {
	rows, cols := x.Dims()
	if rows <= cols {
		return nil, nil, 0, fmt.Errorf("%w: %d rows for %d regressors", ErrTooFewObs, rows, cols)
	}
	var b mat.Dense
	if solveErr := b.Solve(x, y); solveErr != nil {
		if _, nearSingular := solveErr.(mat.Condition); !nearSingular {
			return nil, nil, 0, fmt.Errorf("least squares failed: %w", ErrSingular)
		}
	}
	beta = mat.NewVecDense(cols, nil)
	for i := 0; i < cols; i++ {
		beta.SetVec(i, b.At(i, 0))
	}

	var fitted mat.VecDense
	fitted.MulVec(x, beta)
	for i := 0; i < rows; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		rss += r * r
	}
	sigma2 := rss / float64(rows-cols)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var inv mat.Dense
	if invErr := inv.Inverse(&xtx); invErr != nil {
		if _, nearSingular := invErr.(mat.Condition); !nearSingular {
			return nil, nil, 0, fmt.Errorf("normal equations singular: %w", ErrSingular)
		}
	}
	stderr = make([]float64, cols)
	for i := range stderr {
		v := sigma2 * inv.At(i, i)
		if v < 0 {
			v = 0
		}
		stderr[i] = math.Sqrt(v)
	}
	return beta, stderr, rss, nil
}
