package backtest

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/signal"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// WalkForwardEngine rolls a train window forward through the sample,
// re-estimating the hedge ratio per fold and trading only each fold's
// held-out test range. Fold results are stitched in fold order into one
// continuous report, and the spread of per-fold hedge ratios becomes the
// parameter-stability metrics.
type WalkForwardEngine struct {
	cfg      config.AnalysisConfig
	tester   coint.Tester
	brokenAt BrokenFunc
}

// foldOutcome pairs a fold's public record with the per-bar cumulative PnL
// the stitcher needs.
type foldOutcome struct {
	fold Fold
	pnl  []float64
}

// Run implements Engine.
func (e *WalkForwardEngine) Run(table *types.PriceTable) (*Report, error) {
	spans := foldSpans(table.Len(), e.cfg.TrainWindow, e.cfg.TestWindow, e.cfg.StepSize)
	if len(spans) == 0 {
		return nil, ErrNoFolds
	}

	outcomes := e.evaluateFolds(table, spans)

	// Stitch folds in index order: each fold's PnL picks up where the
	// previous fold's realized total left off. Test ranges may overlap in
	// calendar time when the step is shorter than the test window; the
	// curve keeps fold order regardless.
	var (
		trades []Trade
		folds  = make([]Fold, 0, len(outcomes))
		pnl    []float64
		dates  []time.Time
		base   float64
	)
	for _, fo := range outcomes {
		for i, v := range fo.pnl {
			pnl = append(pnl, base+v)
			dates = append(dates, table.Date(fo.fold.Test.Start+i))
		}
		if n := len(fo.pnl); n > 0 {
			base += fo.pnl[n-1]
		}
		trades = append(trades, fo.fold.Trades...)
		folds = append(folds, fo.fold)
	}

	ratios := make([]float64, 0, len(folds))
	for _, f := range folds {
		if !f.Failed {
			ratios = append(ratios, f.HedgeRatio)
		}
	}

	return buildReport(config.MethodWalkForward, e.cfg.InitialCapital, dates, pnl, trades, folds, stabilityAcross(ratios)), nil
}

// evaluateFold estimates one fold on its train range and simulates its test
// range. A degenerate estimation does not abort the run: the fold is marked
// failed, trades nothing and holds flat PnL.
func (e *WalkForwardEngine) evaluateFold(table *types.PriceTable, sp span) foldOutcome {
	fold := Fold{
		Index: sp.Index,
		Train: types.Window{Start: sp.TrainStart, End: sp.TrainEnd, EndDate: table.Date(sp.TrainEnd - 1)},
		Test:  types.Window{Start: sp.TrainEnd, End: sp.TestEnd, EndDate: table.Date(sp.TestEnd - 1)},
	}
	bars := sp.TestEnd - sp.TrainEnd

	res, err := estimate(table, sp.TrainStart, sp.TrainEnd, e.tester, e.cfg.KARDiff)
	if err != nil {
		log.Debug().Err(err).Int("fold", sp.Index).Msg("fold estimation failed, skipping its trading range")
		fold.Failed = true
		fold.HedgeRatio = math.NaN()
		return foldOutcome{fold: fold, pnl: make([]float64, bars)}
	}
	fold.HedgeRatio = hedgeFrom(res)
	fold.Weights = res.Weights
	fold.HalfLife = res.HalfLife

	spread, err := signal.Spread(table, res.Weights)
	if err != nil {
		log.Warn().Err(err).Int("fold", sp.Index).Msg("tester returned unusable weights")
		fold.Failed = true
		return foldOutcome{fold: fold, pnl: make([]float64, bars)}
	}
	zs := signal.RollingZScore(spread, e.cfg.ZScoreWindow)

	out := simulate(table.Dates(), spread, zs, sp.TrainEnd, sp.TestEnd, simParamsFrom(e.cfg, res.HalfLife, e.brokenAt))
	fold.Trades = out.trades
	return foldOutcome{fold: fold, pnl: out.pnl}
}
