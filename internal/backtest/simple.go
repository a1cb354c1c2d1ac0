package backtest

import (
	"fmt"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/signal"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// SimpleEngine estimates the relationship once over the whole sample and
// simulates trading over that same sample. It is in-sample by construction
// and exists for quick looks at short series; the split and walk-forward
// engines are the honest ones.
type SimpleEngine struct {
	cfg      config.AnalysisConfig
	tester   coint.Tester
	brokenAt BrokenFunc
}

// Run implements Engine.
func (e *SimpleEngine) Run(table *types.PriceTable) (*Report, error) {
	res, err := estimate(table, 0, table.Len(), e.tester, e.cfg.KARDiff)
	if err != nil {
		return nil, fmt.Errorf("estimate relationship: %w", err)
	}
	spread, err := signal.Spread(table, res.Weights)
	if err != nil {
		return nil, err
	}
	zs := signal.RollingZScore(spread, e.cfg.ZScoreWindow)

	out := simulate(table.Dates(), spread, zs, 0, table.Len(), simParamsFrom(e.cfg, res.HalfLife, e.brokenAt))
	return buildReport(config.MethodSimple, e.cfg.InitialCapital, table.Dates(), out.pnl, out.trades, nil, nil), nil
}
