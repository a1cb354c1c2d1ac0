// Package backtest simulates a mean-reversion trading strategy over a price
// table. Three engine variants share one trade state machine: an in-sample
// simple pass, a train/test split, and a walk-forward roll with per-fold
// hedge-ratio re-estimation and parameter-stability metrics. All signal
// statistics are causal, so no variant can read future data.
package backtest

import (
	"time"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// Direction says which side of the spread a trade is on. A long spread
// profits when the spread rises back toward its mean, a short spread when
// it falls back.
type Direction string

const (
	DirectionLongSpread  Direction = "LONG_SPREAD"
	DirectionShortSpread Direction = "SHORT_SPREAD"
)

// ExitReason records why the state machine closed a position.
type ExitReason string

const (
	ExitReversion          ExitReason = "REVERSION"
	ExitTimeStop           ExitReason = "TIME_STOP"
	ExitStopLoss           ExitReason = "STOP_LOSS"
	ExitRelationshipBroken ExitReason = "RELATIONSHIP_BROKEN"
	// ExitEndOfData closes whatever is still open on the final bar so every
	// trade in a report is complete.
	ExitEndOfData ExitReason = "END_OF_DATA"
)

// Trade is one completed round trip of the strategy.
type Trade struct {
	EntryDate   time.Time  `json:"entry_date"`
	ExitDate    time.Time  `json:"exit_date"`
	Direction   Direction  `json:"direction"`
	EntryZScore float64    `json:"entry_zscore"`
	ExitZScore  float64    `json:"exit_zscore"`
	Size        float64    `json:"size"`
	PnL         float64    `json:"pnl"`
	ExitReason  ExitReason `json:"exit_reason"`
	HoldingDays int        `json:"holding_days"`
}

// EquityPoint is one date's account value on the stitched equity curve.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Fold is the walk-forward detail for one train/test pair. Failed marks a
// fold whose estimation was degenerate; it trades nothing and is excluded
// from the parameter-stability aggregate.
type Fold struct {
	Index      int          `json:"index"`
	Train      types.Window `json:"train"`
	Test       types.Window `json:"test"`
	HedgeRatio float64      `json:"hedge_ratio"`
	Weights    []float64    `json:"weights,omitempty"`
	HalfLife   float64      `json:"half_life"`
	Failed     bool         `json:"failed,omitempty"`
	Trades     []Trade      `json:"trades,omitempty"`
}

// ParameterStability summarizes how much the hedge ratio moved across
// walk-forward folds. It is the primary instability signal: a relationship
// whose hedge ratio drifts fold to fold is not tradable even if each fold
// tests cointegrated.
type ParameterStability struct {
	HedgeRatioMean float64 `json:"hedge_ratio_mean"`
	HedgeRatioStd  float64 `json:"hedge_ratio_std"`
	HedgeRatioCV   float64 `json:"hedge_ratio_cv"`
	HedgeRatioMin  float64 `json:"hedge_ratio_min"`
	HedgeRatioMax  float64 `json:"hedge_ratio_max"`
	Folds          int     `json:"folds"`
}

// Metrics is the performance summary of one backtest run. WinRate is a
// fraction in [0, 1]. ParameterStability is nil unless the run produced at
// least two successful folds; a single estimate has no dispersion.
type Metrics struct {
	TotalReturn        float64             `json:"total_return"`
	SharpeRatio        float64             `json:"sharpe_ratio"`
	MaxDrawdown        float64             `json:"max_drawdown"`
	WinRate            float64             `json:"win_rate"`
	ProfitFactor       float64             `json:"profit_factor"`
	TotalTrades        int                 `json:"total_trades"`
	WinningTrades      int                 `json:"winning_trades"`
	LosingTrades       int                 `json:"losing_trades"`
	AvgHoldingDays     float64             `json:"avg_holding_days"`
	ParameterStability *ParameterStability `json:"parameter_stability,omitempty"`
}

// Report is the full outcome of one backtest run. Folds is populated only
// by the walk-forward engine. When fold test ranges overlap in calendar
// time the equity curve keeps per-fold order, so dates may repeat.
type Report struct {
	Method      string        `json:"method"`
	EquityCurve []EquityPoint `json:"equity_curve"`
	Trades      []Trade       `json:"trades"`
	Folds       []Fold        `json:"folds,omitempty"`
	Metrics     Metrics       `json:"metrics"`
}
