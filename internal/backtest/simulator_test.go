package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simDates(n int) []time.Time {
	dates := make([]time.Time, n)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = day
		day = day.AddDate(0, 0, 1)
	}
	return dates
}

func baseParams() simParams {
	return simParams{
		entry:      2.0,
		exit:       0.5,
		stop:       4.0,
		riskBudget: 1000,
		volWindow:  2,
	}
}

func TestSimulate_ShortEntryAndReversion(t *testing.T) {
	// Two consecutive bars beyond +2 confirm a short; |z| <= 0.5 closes it.
	spread := []float64{10, 10.5, 11, 10.6, 10.0, 10.0}
	zscore := []float64{0, 2.5, 2.6, 1.5, 0.3, 0}

	out := simulate(simDates(6), spread, zscore, 0, 6, baseParams())

	require.Len(t, out.trades, 1)
	tr := out.trades[0]
	assert.Equal(t, DirectionShortSpread, tr.Direction)
	assert.Equal(t, simDates(6)[2], tr.EntryDate)
	assert.Equal(t, simDates(6)[4], tr.ExitDate)
	assert.Equal(t, ExitReversion, tr.ExitReason)
	assert.Equal(t, 2, tr.HoldingDays)
	assert.Equal(t, 2.6, tr.EntryZScore)
	assert.Equal(t, 0.3, tr.ExitZScore)

	// Size = budget / sample std of {10.5, 11}.
	wantSize := 1000.0 / (0.5 / math.Sqrt2)
	assert.InDelta(t, wantSize, tr.Size, 1e-9)
	assert.InDelta(t, wantSize*1.0, tr.PnL, 1e-9, "short gains the full spread decline")

	// Cumulative PnL: flat before entry, marked to market while open,
	// realized after the close.
	assert.Equal(t, 0.0, out.pnl[0])
	assert.Equal(t, 0.0, out.pnl[1])
	assert.InDelta(t, 0.0, out.pnl[2], 1e-9)
	assert.InDelta(t, wantSize*0.4, out.pnl[3], 1e-9)
	assert.InDelta(t, tr.PnL, out.pnl[4], 1e-9)
	assert.InDelta(t, tr.PnL, out.pnl[5], 1e-9)
}

func TestSimulate_SingleBarSpikeDoesNotEnter(t *testing.T) {
	spread := []float64{10, 10.5, 10.1, 10.4, 10.0}
	zscore := []float64{0, 2.5, 1.0, 2.5, 1.0}

	out := simulate(simDates(5), spread, zscore, 0, 5, baseParams())
	assert.Empty(t, out.trades, "one-day excursions are whipsaw, not signal")
}

func TestSimulate_LongEntryAndStopLoss(t *testing.T) {
	spread := []float64{10, 9.5, 9.0, 8.5}
	zscore := []float64{-2.5, -2.6, -3.0, -4.2}

	out := simulate(simDates(4), spread, zscore, 0, 4, baseParams())

	require.Len(t, out.trades, 1)
	tr := out.trades[0]
	assert.Equal(t, DirectionLongSpread, tr.Direction)
	assert.Equal(t, simDates(4)[1], tr.EntryDate)
	assert.Equal(t, ExitStopLoss, tr.ExitReason)
	assert.Less(t, tr.PnL, 0.0, "a stopped long lost money by construction")
}

func TestSimulate_TimeStop(t *testing.T) {
	spread := []float64{10, 10.2, 10.4, 10.6, 10.8, 11.0, 11.2}
	zscore := []float64{2.5, 2.6, 3, 3, 3, 3, 3}

	p := baseParams()
	p.timeStopMultiple = 3
	p.halfLife = 1

	out := simulate(simDates(7), spread, zscore, 0, 7, p)

	require.Len(t, out.trades, 1)
	tr := out.trades[0]
	assert.Equal(t, ExitTimeStop, tr.ExitReason)
	assert.Equal(t, 4, tr.HoldingDays, "closes on the first bar held > 3x half-life")
	assert.Equal(t, simDates(7)[5], tr.ExitDate)
}

func TestSimulate_TimeStopSkippedWithoutHalfLife(t *testing.T) {
	spread := []float64{10, 10.2, 10.4, 10.6, 10.8, 11.0, 11.2}
	zscore := []float64{2.5, 2.6, 3, 3, 3, 3, 3}

	p := baseParams()
	p.timeStopMultiple = 3
	p.halfLife = math.Inf(1)

	out := simulate(simDates(7), spread, zscore, 0, 7, p)

	require.Len(t, out.trades, 1)
	assert.Equal(t, ExitEndOfData, out.trades[0].ExitReason, "no half-life estimate means no time stop")
}

func TestSimulate_BrokenTakesPriority(t *testing.T) {
	spread := []float64{10, 10.5, 11, 10.1, 10.0}
	// Bar 3 would be a reversion exit on its own; the broken signal must win.
	zscore := []float64{2.5, 2.6, 3, 0.2, 0}

	p := baseParams()
	p.brokenAt = func(i int) bool { return i == 3 }

	out := simulate(simDates(5), spread, zscore, 0, 5, p)

	require.Len(t, out.trades, 1)
	assert.Equal(t, ExitRelationshipBroken, out.trades[0].ExitReason)
	assert.Equal(t, simDates(5)[3], out.trades[0].ExitDate)
}

func TestSimulate_NoReentrySameBar(t *testing.T) {
	spread := []float64{10, 10.5, 11, 10.4, 10.8, 11.2}
	// The broken exit lands on a bar whose z-score is beyond the entry
	// threshold; re-entry needs a fresh two-bar confirmation afterwards.
	zscore := []float64{2.5, 2.6, 3, 2.8, 2.8, 2.8}

	p := baseParams()
	p.brokenAt = func(i int) bool { return i == 3 }

	out := simulate(simDates(6), spread, zscore, 0, 6, p)

	require.Len(t, out.trades, 2)
	assert.Equal(t, ExitRelationshipBroken, out.trades[0].ExitReason)
	assert.Equal(t, simDates(6)[5], out.trades[1].EntryDate, "confirmation restarts after the exit bar")
	assert.Equal(t, ExitEndOfData, out.trades[1].ExitReason)
}

func TestSimulate_EndOfDataClosesOpenPosition(t *testing.T) {
	spread := []float64{10, 10.5, 11, 11.2}
	zscore := []float64{0, 2.5, 2.6, 3.0}

	out := simulate(simDates(4), spread, zscore, 0, 4, baseParams())

	require.Len(t, out.trades, 1)
	tr := out.trades[0]
	assert.Equal(t, ExitEndOfData, tr.ExitReason)
	assert.Equal(t, 1, tr.HoldingDays)
	assert.InDelta(t, out.pnl[3], tr.PnL, 1e-9, "final equity equals the realized trade")
}

func TestSimulate_NaNResetsConfirmation(t *testing.T) {
	spread := []float64{10, 10.5, 10.6, 10.7, 10.2}
	zscore := []float64{2.5, math.NaN(), 2.6, 1.0, 0}

	out := simulate(simDates(5), spread, zscore, 0, 5, baseParams())
	assert.Empty(t, out.trades, "a gap in the signal breaks consecutiveness")
}

func TestSimulate_NaNNeverExits(t *testing.T) {
	spread := []float64{10, 10.5, 11, 10.9, 10.8, 10.8}
	zscore := []float64{2.5, 2.6, 3, math.NaN(), math.NaN(), 3}

	out := simulate(simDates(6), spread, zscore, 0, 6, baseParams())

	require.Len(t, out.trades, 1)
	assert.Equal(t, ExitEndOfData, out.trades[0].ExitReason, "NaN bars hold the position")
}

func TestSimulate_TransactionCost(t *testing.T) {
	spread := []float64{10, 10.5, 11, 10.6, 10.0, 10.0}
	zscore := []float64{0, 2.5, 2.6, 1.5, 0.3, 0}

	p := baseParams()
	p.cost = 0.01

	out := simulate(simDates(6), spread, zscore, 0, 6, p)

	require.Len(t, out.trades, 1)
	size := 1000.0 / (0.5 / math.Sqrt2)
	assert.InDelta(t, size*1.0-0.01*size, out.trades[0].PnL, 1e-9)
	// The round trip is charged from the entry bar onward.
	assert.InDelta(t, -0.01*size, out.pnl[2], 1e-9)
}

func TestSimulate_ZeroVolSkipsEntry(t *testing.T) {
	// Flat spread at the would-be entry bar: size would be infinite, so the
	// entry is skipped until volatility is measurable.
	spread := []float64{10, 10, 10, 10, 10}
	zscore := []float64{0, 2.5, 2.6, 2.7, 2.8}

	out := simulate(simDates(5), spread, zscore, 0, 5, baseParams())
	assert.Empty(t, out.trades)
}

func TestSimulate_RangeRespected(t *testing.T) {
	// Signals before the trading range must not leak in: the confirmation
	// pair sits entirely at indexes 1-2, before start.
	spread := []float64{10, 10.5, 11, 10.6, 10.3, 10.2}
	zscore := []float64{0, 2.5, 2.6, 1.0, 1.0, 1.0}

	out := simulate(simDates(6), spread, zscore, 3, 6, baseParams())
	assert.Empty(t, out.trades)
	assert.Len(t, out.pnl, 3)
}
