package backtest

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/signal"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// TrainTestEngine estimates the relationship on the leading train_pct of
// the sample and simulates trading only on the held-out remainder. The
// z-score may warm-start from train-slice history but never from the
// future.
type TrainTestEngine struct {
	cfg      config.AnalysisConfig
	tester   coint.Tester
	brokenAt BrokenFunc
}

// Run implements Engine.
func (e *TrainTestEngine) Run(table *types.PriceTable) (*Report, error) {
	split := int(math.Floor(e.cfg.TrainPct * float64(table.Len())))
	if split < 2 || split >= table.Len() {
		return nil, fmt.Errorf("%w: split at row %d of %d", ErrBadSplit, split, table.Len())
	}

	res, err := estimate(table, 0, split, e.tester, e.cfg.KARDiff)
	if err != nil {
		return nil, fmt.Errorf("estimate on train slice: %w", err)
	}
	spread, err := signal.Spread(table, res.Weights)
	if err != nil {
		return nil, err
	}
	zs := signal.RollingZScore(spread, e.cfg.ZScoreWindow)

	out := simulate(table.Dates(), spread, zs, split, table.Len(), simParamsFrom(e.cfg, res.HalfLife, e.brokenAt))
	return buildReport(config.MethodTrainTestSplit, e.cfg.InitialCapital, table.Dates()[split:], out.pnl, out.trades, nil, nil), nil
}
