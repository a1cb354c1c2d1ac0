// Package analysis sequences the full pipeline for one configuration:
// parameter validation, baseline estimation, the rolling cointegration
// monitor, the stability classifier, and the configured backtest engine,
// assembled into a single report. An invalid configuration short-circuits
// into an explicit Outcome instead of an error, so callers branch on data
// rather than on exceptions.
package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/backtest"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitor"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/validate"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// Report bundles every artifact of one analysis invocation.
type Report struct {
	Config      config.AnalysisConfig `json:"config"`
	GeneratedAt time.Time             `json:"generated_at"`
	Tickers     []string              `json:"tickers"`
	Rows        int                   `json:"rows"`

	Baseline coint.Result `json:"baseline"`
	// BaselineFailed marks a baseline that could not be estimated; the
	// stability verdict then reads BROKEN and per-window brokenness falls
	// back to each window's own rank evidence.
	BaselineFailed bool `json:"baseline_failed,omitempty"`

	Rolling             []monitor.WindowResult `json:"rolling"`
	PercentCointegrated float64                `json:"percent_cointegrated"`
	Stability           monitor.Assessment     `json:"stability"`

	Backtest *backtest.Report `json:"backtest"`
}

// Outcome is the discriminated result of an analysis: either a full report
// or the validation verdict that stopped the run before any statistics ran.
type Outcome struct {
	Validation validate.Result
	Report     *Report
}

// Ok reports whether the run produced a report.
func (o Outcome) Ok() bool { return o.Report != nil }

// Analyzer wires the pipeline components for one configuration.
type Analyzer struct {
	cfg    config.AnalysisConfig
	tester coint.Tester
}

// New builds an analyzer backed by the production gonum tester.
func New(cfg config.AnalysisConfig) *Analyzer {
	return NewWithTester(cfg, coint.NewTester(cfg.Significance))
}

// NewWithTester builds an analyzer around a caller-supplied test primitive.
func NewWithTester(cfg config.AnalysisConfig, tester coint.Tester) *Analyzer {
	return &Analyzer{cfg: cfg, tester: tester}
}

// Run validates the configuration against the table, then sequences the
// monitor, the classifier, and the backtest engine. Configuration problems
// come back inside the Outcome; a non-nil error is reserved for contract
// violations such as a ticker count that does not fit the test kind.
func (a *Analyzer) Run(table *types.PriceTable) (Outcome, error) {
	verdict := validate.Validate(validate.FromConfig(a.cfg, table.Len()))
	if err := a.cfg.Validate(); err != nil {
		verdict.Valid = false
		verdict.Errors = append([]string{err.Error()}, verdict.Errors...)
	}
	if !verdict.Valid {
		log.Warn().Strs("errors", verdict.Errors).Msg("configuration rejected; analysis skipped")
		return Outcome{Validation: verdict}, nil
	}

	kind := monitor.KindFor(table)
	mon := monitor.New(a.cfg, kind, a.tester)

	baseline, baselineFailed, err := a.baselineResult(mon, table, kind)
	if err != nil {
		return Outcome{}, err
	}

	rolling, err := mon.Run(table)
	if err != nil {
		return Outcome{}, err
	}
	pct := monitor.PercentCointegrated(rolling, a.cfg.Significance)

	recent, err := a.recentResult(mon, table, kind)
	if err != nil {
		return Outcome{}, err
	}
	assessment := monitor.Assess(baseline, recent, a.cfg.WeightChangeThreshold)

	engine, err := backtest.New(a.cfg, a.tester, brokenLookup(baseline, rolling, a.cfg.WeightChangeThreshold))
	if err != nil {
		return Outcome{}, err
	}
	bt, err := engine.Run(table)
	if err != nil {
		return Outcome{}, fmt.Errorf("backtest: %w", err)
	}

	log.Info().
		Str("status", string(assessment.Status)).
		Float64("percent_cointegrated", pct).
		Int("windows", len(rolling)).
		Int("failed_windows", monitor.FailedWindows(rolling)).
		Int("trades", bt.Metrics.TotalTrades).
		Msg("analysis complete")

	return Outcome{
		Validation: verdict,
		Report: &Report{
			Config:              a.cfg,
			GeneratedAt:         time.Now().UTC(),
			Tickers:             table.Tickers(),
			Rows:                table.Len(),
			Baseline:            baseline,
			BaselineFailed:      baselineFailed,
			Rolling:             rolling,
			PercentCointegrated: pct,
			Stability:           assessment,
			Backtest:            bt,
		},
	}, nil
}

// baselineResult runs the full-table test. Numerical failure degrades to
// the rank-0 sentinel rather than aborting, matching the per-window policy;
// contract violations still surface.
func (a *Analyzer) baselineResult(mon *monitor.Monitor, table *types.PriceTable, kind monitor.Kind) (coint.Result, bool, error) {
	res, err := mon.Baseline(table)
	if err == nil {
		return res, false, nil
	}
	if errors.Is(err, monitor.ErrTickerCount) {
		return coint.Result{}, false, err
	}
	log.Warn().Err(err).Msg("baseline estimation failed; windows judged on their own rank")
	return degenerate(kind), true, nil
}

// recentResult runs the six-month sub-window test with the same degradation
// policy; a failed recent test classifies as BROKEN downstream.
func (a *Analyzer) recentResult(mon *monitor.Monitor, table *types.PriceTable, kind monitor.Kind) (coint.Result, error) {
	res, err := mon.Recent(table)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, monitor.ErrTickerCount) {
		return coint.Result{}, err
	}
	log.Warn().Err(err).Msg("recent-window estimation failed; stability degrades to BROKEN")
	return degenerate(kind), nil
}

func degenerate(kind monitor.Kind) coint.Result {
	method := coint.MethodEngleGranger
	if kind == monitor.KindBasket {
		method = coint.MethodJohansen
	}
	return coint.Result{Method: method, PValue: 1}
}

// brokenLookup turns the rolling evidence into the per-row hook the trade
// simulator consults: a row is broken when the latest window ending at or
// before it classifies BROKEN against the baseline. Rows before the first
// window end carry no evidence and are never broken. Without a usable
// baseline the comparison falls back to each window's own rank.
func brokenLookup(baseline coint.Result, rolling []monitor.WindowResult, threshold float64) backtest.BrokenFunc {
	if len(rolling) == 0 {
		return nil
	}
	baselineUsable := baseline.Rank >= 1 && len(baseline.Weights) > 0
	ends := make([]int, len(rolling))
	broken := make([]bool, len(rolling))
	for k, w := range rolling {
		ends[k] = w.Window.End - 1
		if baselineUsable {
			status, _ := monitor.Classify(baseline, w.Result, threshold)
			broken[k] = status == monitor.StatusBroken
		} else {
			broken[k] = w.Result.Rank == 0
		}
	}
	return func(i int) bool {
		idx := sort.SearchInts(ends, i+1) - 1
		if idx < 0 {
			return false
		}
		return broken[idx]
	}
}
