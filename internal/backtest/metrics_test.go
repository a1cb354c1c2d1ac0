package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equityOf(values ...float64) []EquityPoint {
	pts := make([]EquityPoint, len(values))
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		pts[i] = EquityPoint{Date: day, Equity: v}
		day = day.AddDate(0, 0, 1)
	}
	return pts
}

func TestStabilityAcross_CVExact(t *testing.T) {
	ps := stabilityAcross([]float64{0.40, 0.42, 0.38, 0.44})
	require.NotNil(t, ps)

	assert.InDelta(t, 0.41, ps.HedgeRatioMean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.002/3), ps.HedgeRatioStd, 1e-12)
	assert.Equal(t, ps.HedgeRatioStd/ps.HedgeRatioMean, ps.HedgeRatioCV, "CV is exactly std over mean")
	assert.InDelta(t, 0.0629753, ps.HedgeRatioCV, 1e-6)
	assert.Equal(t, 0.38, ps.HedgeRatioMin)
	assert.Equal(t, 0.44, ps.HedgeRatioMax)
	assert.Equal(t, 4, ps.Folds)
}

func TestStabilityAcross_NeedsTwoFolds(t *testing.T) {
	assert.Nil(t, stabilityAcross(nil))
	assert.Nil(t, stabilityAcross([]float64{0.4}), "one estimate has no dispersion")
	assert.Nil(t, stabilityAcross([]float64{0.4, math.NaN()}), "failed folds do not count")
}

func TestStabilityAcross_FiltersFailedFolds(t *testing.T) {
	ps := stabilityAcross([]float64{0.40, math.NaN(), 0.44})
	require.NotNil(t, ps)
	assert.Equal(t, 2, ps.Folds)
	assert.InDelta(t, 0.42, ps.HedgeRatioMean, 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	equity := equityOf(100, 110, 99, 104, 121, 115)
	assert.InDelta(t, 11.0/110.0, maxDrawdown(equity), 1e-12)

	assert.Equal(t, 0.0, maxDrawdown(equityOf(100, 101, 102)), "monotone curve never draws down")
	assert.Equal(t, 0.0, maxDrawdown(nil))
}

func TestProfitFactor(t *testing.T) {
	trades := []Trade{{PnL: 10}, {PnL: -5}, {PnL: 20}, {PnL: -10}}
	assert.InDelta(t, 2.0, profitFactor(trades), 1e-12)

	assert.True(t, math.IsInf(profitFactor([]Trade{{PnL: 10}}), 1), "no losses")
	assert.Equal(t, 0.0, profitFactor(nil))
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, sharpeRatio(equityOf(100, 100, 100, 100)), "flat curve has no Sharpe")
	assert.Equal(t, 0.0, sharpeRatio(equityOf(100, 101)), "too short")

	rising := sharpeRatio(equityOf(100, 101, 102.2, 103, 104.5))
	assert.Greater(t, rising, 0.0)
}

func TestComputeMetrics(t *testing.T) {
	equity := equityOf(100000, 100400, 100900, 100700, 101000)
	trades := []Trade{
		{PnL: 500, HoldingDays: 3},
		{PnL: -200, HoldingDays: 1},
		{PnL: 700, HoldingDays: 4},
		{PnL: 0, HoldingDays: 2},
	}

	m := computeMetrics(100000, equity, trades)

	assert.InDelta(t, 0.01, m.TotalReturn, 1e-12)
	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 2, m.LosingTrades, "flat trades count as losses")
	assert.InDelta(t, 0.5, m.WinRate, 1e-12)
	assert.InDelta(t, 2.5, m.AvgHoldingDays, 1e-12)
	assert.Nil(t, m.ParameterStability)
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := computeMetrics(100000, nil, nil)
	assert.Zero(t, m.TotalReturn)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.TotalTrades)
	assert.Zero(t, m.WinRate)
}
