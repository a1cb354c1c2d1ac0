package reporting

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/backtest"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitor"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/validate"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

func day0(offset int) time.Time {
	return time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// sampleOutcome carries every awkward value the writers must survive:
// NaN exit z-scores, a NaN fold hedge ratio, infinite half-lives, and an
// infinite profit factor.
func sampleOutcome() *analysis.Outcome {
	cfg := config.Default()
	cfg.Method = config.MethodWalkForward

	baseline := coint.Result{
		Method:        coint.MethodEngleGranger,
		TestStatistic: -3.52,
		PValue:        0.01,
		Rank:          1,
		Weights:       []float64{1, -0.9},
		HedgeRatio:    0.9,
		Intercept:     0.1,
		HalfLife:      12.5,
	}
	broken := coint.Result{Method: coint.MethodEngleGranger, PValue: 1, HalfLife: math.Inf(1)}

	trades := []backtest.Trade{
		{
			EntryDate:   day0(30),
			ExitDate:    day0(35),
			Direction:   backtest.DirectionShortSpread,
			EntryZScore: 2.4,
			ExitZScore:  0.3,
			Size:        800,
			PnL:         412.5,
			ExitReason:  backtest.ExitReversion,
			HoldingDays: 5,
		},
		{
			EntryDate:   day0(60),
			ExitDate:    day0(64),
			Direction:   backtest.DirectionLongSpread,
			EntryZScore: -2.1,
			ExitZScore:  math.NaN(),
			Size:        750,
			PnL:         -130.25,
			ExitReason:  backtest.ExitRelationshipBroken,
			HoldingDays: 4,
		},
	}
	folds := []backtest.Fold{
		{
			Index:      0,
			Train:      types.Window{Start: 0, End: 120, EndDate: day0(119)},
			Test:       types.Window{Start: 120, End: 160, EndDate: day0(159)},
			HedgeRatio: 0.9,
			Weights:    []float64{1, -0.9},
			HalfLife:   12.5,
			Trades:     trades[:1],
		},
		{
			Index:      1,
			Train:      types.Window{Start: 40, End: 160, EndDate: day0(159)},
			Test:       types.Window{Start: 160, End: 200, EndDate: day0(199)},
			HedgeRatio: math.NaN(),
			HalfLife:   math.Inf(1),
			Failed:     true,
		},
	}
	bt := &backtest.Report{
		Method: string(config.MethodWalkForward),
		EquityCurve: []backtest.EquityPoint{
			{Date: day0(120), Equity: 100000},
			{Date: day0(121), Equity: 100412.5},
			{Date: day0(122), Equity: 100282.25},
		},
		Trades: trades,
		Folds:  folds,
		Metrics: backtest.Metrics{
			TotalReturn:    0.0028,
			SharpeRatio:    1.34,
			MaxDrawdown:    0.0013,
			WinRate:        0.5,
			ProfitFactor:   math.Inf(1),
			TotalTrades:    2,
			WinningTrades:  1,
			LosingTrades:   1,
			AvgHoldingDays: 4.5,
			ParameterStability: &backtest.ParameterStability{
				HedgeRatioMean: 0.9,
				HedgeRatioStd:  0,
				HedgeRatioCV:   0,
				HedgeRatioMin:  0.9,
				HedgeRatioMax:  0.9,
				Folds:          1,
			},
		},
	}

	return &analysis.Outcome{
		Validation: validate.Result{
			Valid:           true,
			Warnings:        []string{"step size 21 produces overlapping windows"},
			Recommendations: []string{"consider 252 rows for walk-forward"},
		},
		Report: &analysis.Report{
			Config:      cfg,
			GeneratedAt: time.Date(2023, 8, 1, 9, 30, 0, 0, time.UTC),
			Tickers:     []string{"BTCUSDT", "ETHUSDT"},
			Rows:        300,
			Baseline:    baseline,
			Rolling: []monitor.WindowResult{
				{Window: types.Window{Start: 0, End: 126, EndDate: day0(125)}, EndDate: day0(125), Result: baseline},
				{Window: types.Window{Start: 21, End: 147, EndDate: day0(146)}, EndDate: day0(146), Result: broken, Failed: true},
			},
			PercentCointegrated: 0.5,
			Stability: monitor.Assessment{
				Status:         monitor.StatusStable,
				MaxWeightDrift: 0.05,
				Recent:         baseline,
			},
			Backtest: bt,
		},
	}
}

func invalidOutcome() *analysis.Outcome {
	return &analysis.Outcome{
		Validation: validate.Result{
			Valid:  false,
			Errors: []string{"rolling window 300 exceeds data length 100"},
		},
	}
}

func TestWriteAll_FullOutcome(t *testing.T) {
	dir := t.TempDir()

	files, err := WriteAll(sampleOutcome(), dir)
	require.NoError(t, err)

	require.Len(t, files.List(), 6)
	for _, path := range files.List() {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}
	assert.Equal(t, filepath.Join(dir, "report.json"), files.JSON)
	assert.Equal(t, filepath.Join(dir, "folds.csv"), files.Folds)
}

func TestWriteAll_InvalidOutcome(t *testing.T) {
	dir := t.TempDir()

	files, err := WriteAll(invalidOutcome(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "report.json"),
		filepath.Join(dir, "report.xlsx"),
	}, files.List())
	assert.Empty(t, files.Trades)
}

func TestDefaultOutputDir(t *testing.T) {
	assert.Equal(t,
		filepath.Join("results", "BTCUSDT_ETHUSDT_walk_forward"),
		DefaultOutputDir([]string{"btcusdt", "ethusdt"}, "WALK_FORWARD"))
	assert.Equal(t,
		filepath.Join("results", "UNKNOWN"),
		DefaultOutputDir(nil, ""))
}
