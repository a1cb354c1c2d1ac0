package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

var (
	// ErrNoFolds is returned when the walk-forward window arithmetic leaves
	// no feasible fold. The parameter validator catches this before any
	// engine runs; seeing it here means the caller skipped validation.
	ErrNoFolds = errors.New("no feasible walk-forward folds")
	// ErrBadSplit is returned when a train/test split point leaves either
	// side too short to use.
	ErrBadSplit = errors.New("train/test split leaves an unusable slice")
)

// Engine is the contract shared by the three backtest strategy variants.
type Engine interface {
	// Run simulates the strategy over the table and returns the report.
	// Configuration errors never reach this point; an error here is a
	// contract violation (malformed table, infeasible ranges).
	Run(table *types.PriceTable) (*Report, error)
}

// BrokenFunc reports whether the cointegrating relationship is assessed
// broken at a table row index. Engines force open positions closed on such
// rows. A nil BrokenFunc disables the rule.
type BrokenFunc func(i int) bool

// New selects the engine for the configured backtest method.
func New(cfg config.AnalysisConfig, tester coint.Tester, brokenAt BrokenFunc) (Engine, error) {
	switch cfg.Method {
	case config.MethodSimple:
		return &SimpleEngine{cfg: cfg, tester: tester, brokenAt: brokenAt}, nil
	case config.MethodTrainTestSplit:
		return &TrainTestEngine{cfg: cfg, tester: tester, brokenAt: brokenAt}, nil
	case config.MethodWalkForward:
		return &WalkForwardEngine{cfg: cfg, tester: tester, brokenAt: brokenAt}, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownMethod, cfg.Method)
}

// estimate runs the configured cointegration test on rows [start, end).
// Two tickers get Engle-Granger, more get Johansen.
func estimate(table *types.PriceTable, start, end int, tester coint.Tester, kARDiff int) (coint.Result, error) {
	if table.NumTickers() == 2 {
		return tester.TestPair(table.ColumnAt(0)[start:end], table.ColumnAt(1)[start:end])
	}
	cols := make([][]float64, table.NumTickers())
	for i := range cols {
		cols[i] = table.ColumnAt(i)[start:end]
	}
	return tester.TestBasket(cols, kARDiff)
}

// hedgeFrom extracts the scalar hedge-ratio analog used for cross-fold
// stability tracking: the OLS slope for pairs, the negated second weight
// for baskets (identical to the pair case when the basket has two assets).
func hedgeFrom(res coint.Result) float64 {
	if res.Method == coint.MethodEngleGranger {
		return res.HedgeRatio
	}
	if len(res.Weights) >= 2 {
		return -res.Weights[1]
	}
	return math.NaN()
}

func simParamsFrom(cfg config.AnalysisConfig, halfLife float64, brokenAt BrokenFunc) simParams {
	return simParams{
		entry:            cfg.EntryZScore,
		exit:             cfg.ExitZScore,
		stop:             cfg.StopLossZScore,
		timeStopMultiple: cfg.TimeStopMultiple,
		halfLife:         halfLife,
		riskBudget:       cfg.RiskBudget,
		cost:             cfg.TransactionCost,
		volWindow:        cfg.ZScoreWindow,
		brokenAt:         brokenAt,
	}
}

// buildReport turns per-bar cumulative PnL into an equity curve anchored at
// the initial capital and attaches the computed metrics.
func buildReport(method config.Method, initialCapital float64, dates []time.Time, pnl []float64, trades []Trade, folds []Fold, stability *ParameterStability) *Report {
	equity := make([]EquityPoint, len(pnl))
	for i, v := range pnl {
		equity[i] = EquityPoint{Date: dates[i], Equity: initialCapital + v}
	}
	metrics := computeMetrics(initialCapital, equity, trades)
	metrics.ParameterStability = stability
	return &Report{
		Method:      string(method),
		EquityCurve: equity,
		Trades:      trades,
		Folds:       folds,
		Metrics:     metrics,
	}
}
