// Package monitor re-estimates a cointegrating relationship over sliding
// windows and classifies its stability against a baseline. One bad window
// degrades to a rank-0 result instead of aborting the roll, so a single
// singular covariance cannot invalidate a year of evidence.
package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// Kind selects the test primitive for a table.
type Kind string

const (
	KindPair   Kind = "pair"
	KindBasket Kind = "basket"
)

var (
	// ErrTickerCount is returned when the table width does not fit the kind.
	ErrTickerCount = errors.New("ticker count does not fit test kind")
	// ErrWindowTooLarge is returned when not even one window fits the table.
	ErrWindowTooLarge = errors.New("rolling window exceeds table length")
)

// KindFor picks the natural test kind for a table: Engle-Granger for two
// tickers, Johansen above that.
func KindFor(table *types.PriceTable) Kind {
	if table.NumTickers() == 2 {
		return KindPair
	}
	return KindBasket
}

// WindowResult is one window's test outcome, stamped with the window's end
// date. Failed marks windows whose test degraded to the rank-0 sentinel.
type WindowResult struct {
	Window  types.Window
	EndDate time.Time
	Result  coint.Result
	Failed  bool
}

// Monitor slides a fixed-size window across a price table and tests each
// one. Stateless between runs; identical input yields identical output.
type Monitor struct {
	window       int
	step         int
	kind         Kind
	significance float64
	kARDiff      int
	tester       coint.Tester
}

// New builds a monitor from the analysis configuration.
func New(cfg config.AnalysisConfig, kind Kind, tester coint.Tester) *Monitor {
	return &Monitor{
		window:       cfg.Window,
		step:         cfg.StepSize,
		kind:         kind,
		significance: cfg.Significance,
		kARDiff:      cfg.KARDiff,
		tester:       tester,
	}
}

// Run produces one result per window end-point, end-points spaced StepSize
// apart, from the earliest full window to the last date. Numerical test
// failures are recorded as rank 0 / p-value 1.0; contract violations
// (wrong ticker count, window bigger than the table) return an error.
func (m *Monitor) Run(table *types.PriceTable) ([]WindowResult, error) {
	if err := m.checkKind(table); err != nil {
		return nil, err
	}
	if table.Len() < m.window {
		return nil, fmt.Errorf("%w: window %d, table %d rows", ErrWindowTooLarge, m.window, table.Len())
	}

	var results []WindowResult
	for i := m.window; i <= table.Len(); i += m.step {
		sub, err := table.Slice(i-m.window, i)
		if err != nil {
			return nil, fmt.Errorf("window [%d,%d): %w", i-m.window, i, err)
		}
		endDate := table.Date(i - 1)
		res, testErr := m.test(sub)
		failed := testErr != nil
		if failed {
			log.Debug().
				Time("window_end", endDate).
				Int("window", m.window).
				Err(testErr).
				Msg("cointegration test failed; recording degenerate window")
			res = degenerate(m.kind)
		}
		results = append(results, WindowResult{
			Window:  types.Window{Start: i - m.window, End: i, EndDate: endDate},
			EndDate: endDate,
			Result:  res,
			Failed:  failed,
		})
	}
	return results, nil
}

// Baseline tests the full table once, for use as the stability reference.
func (m *Monitor) Baseline(table *types.PriceTable) (coint.Result, error) {
	if err := m.checkKind(table); err != nil {
		return coint.Result{}, err
	}
	return m.test(table)
}

// recentWindowRows is six months of daily bars.
const recentWindowRows = 126

// Recent tests the most recent six-month sub-window (the whole table when
// shorter), independent of the rolling cadence.
func (m *Monitor) Recent(table *types.PriceTable) (coint.Result, error) {
	if err := m.checkKind(table); err != nil {
		return coint.Result{}, err
	}
	if table.Len() <= recentWindowRows {
		return m.test(table)
	}
	sub, err := table.Slice(table.Len()-recentWindowRows, table.Len())
	if err != nil {
		return coint.Result{}, err
	}
	return m.test(sub)
}

func (m *Monitor) checkKind(table *types.PriceTable) error {
	switch m.kind {
	case KindPair:
		if table.NumTickers() != 2 {
			return fmt.Errorf("%w: pair test needs exactly 2 tickers, table has %d", ErrTickerCount, table.NumTickers())
		}
	case KindBasket:
		if table.NumTickers() < 2 {
			return fmt.Errorf("%w: basket test needs 2+ tickers, table has %d", ErrTickerCount, table.NumTickers())
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrTickerCount, m.kind)
	}
	return nil
}

func (m *Monitor) test(table *types.PriceTable) (coint.Result, error) {
	if m.kind == KindPair {
		return m.tester.TestPair(table.ColumnAt(0), table.ColumnAt(1))
	}
	return m.tester.TestBasket(table.Columns(), m.kARDiff)
}

// degenerate is the sentinel recorded for a failed window.
func degenerate(kind Kind) coint.Result {
	method := coint.MethodEngleGranger
	if kind == KindBasket {
		method = coint.MethodJohansen
	}
	return coint.Result{Method: method, PValue: 1.0, Rank: 0}
}

// PercentCointegrated is the fraction of windows whose p-value clears the
// significance threshold. Degenerate windows carry p 1.0 and so never count
// as positive evidence.
func PercentCointegrated(results []WindowResult, significance float64) float64 {
	if len(results) == 0 {
		return 0
	}
	hits := 0
	for _, r := range results {
		if r.Result.PValue < significance {
			hits++
		}
	}
	return float64(hits) / float64(len(results))
}

// FailedWindows counts the degenerate results in a run.
func FailedWindows(results []WindowResult) int {
	n := 0
	for _, r := range results {
		if r.Failed {
			n++
		}
	}
	return n
}
