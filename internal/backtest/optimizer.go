package backtest

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// ThresholdSet is one candidate entry/exit/stop combination for the
// threshold sweep.
type ThresholdSet struct {
	Entry float64 `json:"entry"`
	Exit  float64 `json:"exit"`
	Stop  float64 `json:"stop"`
}

// Valid reports whether the thresholds are ordered exit < entry < stop,
// which the state machine requires to be free of contradictory exits.
func (ts ThresholdSet) Valid() bool {
	return ts.Exit >= 0 && ts.Exit < ts.Entry && ts.Entry < ts.Stop
}

func (ts ThresholdSet) String() string {
	return fmt.Sprintf("entry=%.2f exit=%.2f stop=%.2f", ts.Entry, ts.Exit, ts.Stop)
}

// OptimizationResult pairs a threshold set with the report it produced.
type OptimizationResult struct {
	Thresholds ThresholdSet `json:"thresholds"`
	Report     *Report      `json:"report"`
}

// DefaultGrid is the threshold sweep used by the optimize command line:
// three candidates per knob around the configured defaults.
func DefaultGrid() []ThresholdSet {
	var grid []ThresholdSet
	for _, entry := range []float64{1.5, 2.0, 2.5} {
		for _, exit := range []float64{0.25, 0.5, 0.75} {
			for _, stop := range []float64{3.5, 4.0, 4.5} {
				grid = append(grid, ThresholdSet{Entry: entry, Exit: exit, Stop: stop})
			}
		}
	}
	return grid
}

// Optimizer sweeps threshold candidates over one table with the configured
// backtest method and ranks them by Sharpe ratio, then total return. It
// tunes thresholds only; windows and method stay fixed so every candidate
// is simulated under identical conditions.
type Optimizer struct {
	cfg    config.AnalysisConfig
	tester coint.Tester
	grid   []ThresholdSet
}

// NewOptimizer builds an optimizer over the given grid; a nil grid means
// DefaultGrid.
func NewOptimizer(cfg config.AnalysisConfig, tester coint.Tester, grid []ThresholdSet) *Optimizer {
	if len(grid) == 0 {
		grid = DefaultGrid()
	}
	return &Optimizer{cfg: cfg, tester: tester, grid: grid}
}

// Run evaluates the grid and returns results sorted best-first. Candidates
// with inconsistent threshold ordering are skipped with a log line; an
// engine error aborts the sweep since it signals a contract problem that
// would fail every remaining candidate the same way.
func (o *Optimizer) Run(table *types.PriceTable) ([]OptimizationResult, error) {
	results := make([]OptimizationResult, 0, len(o.grid))
	for _, ts := range o.grid {
		if !ts.Valid() {
			log.Debug().Stringer("thresholds", ts).Msg("skipping inconsistent threshold candidate")
			continue
		}
		cfg := o.cfg
		cfg.EntryZScore = ts.Entry
		cfg.ExitZScore = ts.Exit
		cfg.StopLossZScore = ts.Stop

		engine, err := New(cfg, o.tester, nil)
		if err != nil {
			return nil, err
		}
		report, err := engine.Run(table)
		if err != nil {
			return nil, fmt.Errorf("candidate %v: %w", ts, err)
		}
		results = append(results, OptimizationResult{Thresholds: ts, Report: report})
	}

	// Best first: Sharpe descending, ties broken on total return. Stable so
	// equal candidates keep grid order.
	sort.SliceStable(results, func(i, j int) bool { return better(results[i], results[j]) })
	return results, nil
}

func better(a, b OptimizationResult) bool {
	am, bm := a.Report.Metrics, b.Report.Metrics
	if am.SharpeRatio != bm.SharpeRatio {
		return am.SharpeRatio > bm.SharpeRatio
	}
	return am.TotalReturn > bm.TotalReturn
}
