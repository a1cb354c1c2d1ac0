// Package config carries the explicit, immutable analysis configuration.
// Every entry point receives an AnalysisConfig value; there are no
// process-wide defaults mutated at runtime. Default() documents the
// canonical parameter set; YAML files and CLI flags overlay it.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Method selects the backtest strategy variant.
type Method string

const (
	MethodSimple         Method = "simple"
	MethodTrainTestSplit Method = "train_test_split"
	MethodWalkForward    Method = "walk_forward"
)

// ErrUnknownMethod is returned for unrecognized backtest method names.
var ErrUnknownMethod = errors.New("unknown backtest method")

// ParseMethod maps a config string to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodSimple, MethodTrainTestSplit, MethodWalkForward:
		return Method(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// AnalysisConfig is the full configuration surface of one analysis run.
type AnalysisConfig struct {
	// Period is a display label ("6mo", "1y", ...); engines only consume
	// the actual row count.
	Period string `yaml:"period" json:"period"`

	// Rolling cointegration monitor cadence.
	Window   int `yaml:"window" json:"window"`
	StepSize int `yaml:"step_size" json:"step_size"`
	// WindowAdaptive marks Window as derived rather than user-requested,
	// which relaxes the validator's 30-observation floor to a warning.
	WindowAdaptive bool `yaml:"-" json:"-"`

	// ZScoreWindow is the causal z-score lookback (sensible bounds 10-60).
	ZScoreWindow int `yaml:"zscore_window" json:"zscore_window"`

	Method      Method  `yaml:"backtest_method" json:"backtest_method"`
	TrainWindow int     `yaml:"train_window" json:"train_window"`
	TestWindow  int     `yaml:"test_window" json:"test_window"`
	TrainPct    float64 `yaml:"train_pct" json:"train_pct"`

	EntryZScore    float64 `yaml:"entry_zscore" json:"entry_zscore"`
	ExitZScore     float64 `yaml:"exit_zscore" json:"exit_zscore"`
	StopLossZScore float64 `yaml:"stop_loss_zscore" json:"stop_loss_zscore"`

	WeightChangeThreshold float64 `yaml:"weight_change_threshold" json:"weight_change_threshold"`
	Significance          float64 `yaml:"significance_threshold" json:"significance_threshold"`
	KARDiff               int     `yaml:"k_ar_diff" json:"k_ar_diff"`

	TimeStopMultiple float64 `yaml:"time_stop_multiple" json:"time_stop_multiple"`
	RiskBudget       float64 `yaml:"risk_budget" json:"risk_budget"`
	TransactionCost  float64 `yaml:"transaction_cost" json:"transaction_cost"`
	InitialCapital   float64 `yaml:"initial_capital" json:"initial_capital"`

	ParallelFolds bool `yaml:"parallel_folds" json:"parallel_folds"`
	Workers       int  `yaml:"workers" json:"workers"`
}

// Default returns the documented defaults for a daily-bar analysis.
func Default() AnalysisConfig {
	return AnalysisConfig{
		Period:                "1y",
		Window:                126,
		StepSize:              21,
		ZScoreWindow:          20,
		Method:                MethodWalkForward,
		TrainWindow:           252,
		TestWindow:            63,
		TrainPct:              0.6,
		EntryZScore:           2.0,
		ExitZScore:            0.5,
		StopLossZScore:        4.0,
		WeightChangeThreshold: 0.40,
		Significance:          0.05,
		KARDiff:               5,
		TimeStopMultiple:      3.0,
		RiskBudget:            1000,
		TransactionCost:       0.001,
		InitialCapital:        100000,
		ParallelFolds:         true,
		Workers:               runtime.NumCPU(),
	}
}

// LoadFile overlays a YAML file onto the defaults. Missing keys keep their
// default values.
func LoadFile(path string) (AnalysisConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks internal consistency of the threshold and sizing fields.
// Data-dependent feasibility (window vs sample length) is the parameter
// validator's job, not this one's.
func (c AnalysisConfig) Validate() error {
	if _, err := ParseMethod(string(c.Method)); err != nil {
		return err
	}
	if c.ExitZScore < 0 {
		return fmt.Errorf("exit_zscore must be non-negative, got %g", c.ExitZScore)
	}
	if c.EntryZScore <= c.ExitZScore {
		return fmt.Errorf("entry_zscore (%g) must exceed exit_zscore (%g)", c.EntryZScore, c.ExitZScore)
	}
	if c.StopLossZScore <= c.EntryZScore {
		return fmt.Errorf("stop_loss_zscore (%g) must exceed entry_zscore (%g)", c.StopLossZScore, c.EntryZScore)
	}
	if c.Significance <= 0 || c.Significance >= 1 {
		return fmt.Errorf("significance_threshold must be in (0,1), got %g", c.Significance)
	}
	if c.WeightChangeThreshold <= 0 {
		return fmt.Errorf("weight_change_threshold must be positive, got %g", c.WeightChangeThreshold)
	}
	if c.Method == MethodTrainTestSplit && (c.TrainPct <= 0 || c.TrainPct >= 1) {
		return fmt.Errorf("train_pct must be in (0,1), got %g", c.TrainPct)
	}
	if c.TimeStopMultiple < 0 {
		return fmt.Errorf("time_stop_multiple must be non-negative, got %g", c.TimeStopMultiple)
	}
	if c.RiskBudget <= 0 {
		return fmt.Errorf("risk_budget must be positive, got %g", c.RiskBudget)
	}
	if c.TransactionCost < 0 {
		return fmt.Errorf("transaction_cost must be non-negative, got %g", c.TransactionCost)
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %g", c.InitialCapital)
	}
	return nil
}
