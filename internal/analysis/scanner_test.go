package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// scanTester scripts per-pair outcomes keyed on each column's first sample.
type scanTester struct {
	pvalues map[[2]float64]float64
	fail    map[[2]float64]bool
}

func (s *scanTester) TestPair(a, b []float64) (coint.Result, error) {
	key := [2]float64{a[0], b[0]}
	if s.fail[key] {
		return coint.Result{}, coint.ErrSingular
	}
	p := s.pvalues[key]
	rank := 0
	if p < 0.05 {
		rank = 1
	}
	return coint.Result{
		Method:        coint.MethodEngleGranger,
		TestStatistic: -3.0,
		PValue:        p,
		Rank:          rank,
		Weights:       []float64{1, -0.8},
		HedgeRatio:    0.8,
		HalfLife:      12.5,
	}, nil
}

func (s *scanTester) TestBasket(cols [][]float64, kARDiff int) (coint.Result, error) {
	return s.TestPair(cols[0], cols[1])
}

func scanTable(t *testing.T) *types.PriceTable {
	t.Helper()
	const n = 50
	dates := make([]time.Time, n)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cols := make([][]float64, 3)
	for c := range cols {
		cols[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		dates[i] = day
		day = day.AddDate(0, 0, 1)
		cols[0][i] = 10 + 1e-4*float64(i)
		cols[1][i] = 20 + 1e-4*float64(i)
		cols[2][i] = 30 + 1e-4*float64(i)
	}
	table, err := types.NewPriceTable(dates, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, cols, "1y")
	require.NoError(t, err)
	return table
}

func TestScanPairs_OrdersByPValue(t *testing.T) {
	table := scanTable(t)
	ft := &scanTester{pvalues: map[[2]float64]float64{
		{10, 20}: 0.20,
		{10, 30}: 0.01,
		{20, 30}: 0.50,
	}}

	rows := ScanPairs(table, ft, 0.05)
	require.Len(t, rows, 3)

	assert.Equal(t, "BTCUSDT", rows[0].TickerA)
	assert.Equal(t, "SOLUSDT", rows[0].TickerB)
	assert.Equal(t, 0.01, rows[0].PValue)
	assert.True(t, rows[0].Cointegrated)
	assert.Equal(t, 0.8, rows[0].HedgeRatio)
	assert.Equal(t, 12.5, rows[0].HalfLife)

	assert.Equal(t, "BTCUSDT", rows[1].TickerA)
	assert.Equal(t, "ETHUSDT", rows[1].TickerB)
	assert.False(t, rows[1].Cointegrated)

	assert.Equal(t, "ETHUSDT", rows[2].TickerA)
	assert.Equal(t, "SOLUSDT", rows[2].TickerB)
	assert.Equal(t, 0.50, rows[2].PValue)
}

func TestScanPairs_FailureIsolated(t *testing.T) {
	table := scanTable(t)
	ft := &scanTester{
		pvalues: map[[2]float64]float64{
			{10, 20}: 0.30,
			{10, 30}: 0.02,
		},
		fail: map[[2]float64]bool{{20, 30}: true},
	}

	rows := ScanPairs(table, ft, 0.05)
	require.Len(t, rows, 3)

	assert.False(t, rows[0].Failed)
	assert.False(t, rows[1].Failed)

	last := rows[2]
	assert.Equal(t, "ETHUSDT", last.TickerA)
	assert.Equal(t, "SOLUSDT", last.TickerB)
	assert.True(t, last.Failed)
	assert.False(t, last.Cointegrated)
	assert.Equal(t, 1.0, last.PValue)
}

func TestScanPairs_SinglePair(t *testing.T) {
	const n = 50
	dates := make([]time.Time, n)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = day
		day = day.AddDate(0, 0, 1)
		a[i] = 10 + 1e-4*float64(i)
		b[i] = 20 + 1e-4*float64(i)
	}
	table, err := types.NewPriceTable(dates, []string{"BTCUSDT", "ETHUSDT"}, [][]float64{a, b}, "1y")
	require.NoError(t, err)

	rows := ScanPairs(table, &scanTester{pvalues: map[[2]float64]float64{{10, 20}: 0.04}}, 0.05)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Cointegrated)
}
