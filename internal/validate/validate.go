// Package validate checks analysis parameters against the available sample
// before any statistics run. Errors mark configurations that are
// mathematically infeasible; warnings mark setups that compute but carry
// little statistical weight. Both are returned as data, never as control
// flow.
package validate

import (
	"fmt"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
)

// minDataLength is the absolute sample floor for any analysis.
const minDataLength = 40

// statisticalFloor is the smallest window a cointegration test should see.
const statisticalFloor = 30

// periodTradingDays maps period labels to their usual trading-day count,
// for plausibility warnings only.
var periodTradingDays = map[string]int{
	"1mo": 21,
	"3mo": 63,
	"6mo": 126,
	"1y":  252,
	"2y":  504,
	"5y":  1260,
}

// Params is the data-dependent slice of an AnalysisConfig: everything whose
// feasibility depends on the sample length.
type Params struct {
	PeriodLabel  string
	DataLength   int
	Window       int
	StepSize     int
	Method       config.Method
	ZScoreWindow int
	TrainWindow  int
	TestWindow   int
	TrainPct     float64
	// WindowAdaptive marks Window as derived by the adviser rather than
	// requested, relaxing the 30-observation floor to a warning.
	WindowAdaptive bool
}

// FromConfig extracts the validated slice of a config for a given sample.
func FromConfig(cfg config.AnalysisConfig, dataLength int) Params {
	return Params{
		PeriodLabel:    cfg.Period,
		DataLength:     dataLength,
		Window:         cfg.Window,
		StepSize:       cfg.StepSize,
		Method:         cfg.Method,
		ZScoreWindow:   cfg.ZScoreWindow,
		TrainWindow:    cfg.TrainWindow,
		TestWindow:     cfg.TestWindow,
		TrainPct:       cfg.TrainPct,
		WindowAdaptive: cfg.WindowAdaptive,
	}
}

// Result is the validator's verdict. Errors make the configuration
// unusable; warnings and recommendations are advisory.
type Result struct {
	Valid           bool
	Errors          []string
	Warnings        []string
	Recommendations []string
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) recommendf(format string, args ...any) {
	r.Recommendations = append(r.Recommendations, fmt.Sprintf(format, args...))
}

// FoldCount returns the number of walk-forward folds producible from a
// sample: fold k trains on [k*step, k*step+train) and tests on the next
// test rows, so folds fit while k*step+train+test <= dataLength.
func FoldCount(dataLength, trainWindow, testWindow, stepSize int) int {
	if stepSize <= 0 || trainWindow <= 0 || testWindow <= 0 {
		return 0
	}
	span := dataLength - trainWindow - testWindow
	if span < 0 {
		return 0
	}
	return span/stepSize + 1
}

// RollingWindowCount returns how many rolling windows the monitor will
// produce for a sample.
func RollingWindowCount(dataLength, window, stepSize int) int {
	if window <= 0 || stepSize <= 0 || dataLength < window {
		return 0
	}
	return (dataLength-window)/stepSize + 1
}

// Validate applies every hard and soft rule to the given parameters.
func Validate(p Params) Result {
	res := Result{Valid: true}

	if p.DataLength < minDataLength {
		res.errorf("insufficient data: %d rows, need at least %d for any analysis", p.DataLength, minDataLength)
	}
	if p.Window >= p.DataLength {
		res.errorf("rolling window (%d) must be smaller than the sample (%d rows)", p.Window, p.DataLength)
	}
	if p.ZScoreWindow >= p.DataLength {
		res.errorf("z-score window (%d) must be smaller than the sample (%d rows)", p.ZScoreWindow, p.DataLength)
	}
	if p.StepSize <= 0 {
		res.errorf("step size must be positive, got %d", p.StepSize)
	}
	if p.Window < statisticalFloor {
		if p.WindowAdaptive {
			res.warnf("adaptive rolling window %d is below the %d-observation statistical floor", p.Window, statisticalFloor)
		} else {
			res.errorf("rolling window %d is below the %d-observation statistical floor", p.Window, statisticalFloor)
		}
	}

	switch p.Method {
	case config.MethodWalkForward:
		validateWalkForward(p, &res)
	case config.MethodTrainTestSplit:
		validateSplit(p, &res)
	case config.MethodSimple:
		if p.DataLength < 5*p.ZScoreWindow {
			res.warnf("sample of %d rows is under 5x the z-score window (%d); the simple backtest will be dominated by warm-up", p.DataLength, p.ZScoreWindow)
		}
	}

	// Advisory checks that apply regardless of method.
	if p.ZScoreWindow < 10 {
		res.warnf("z-score window %d is very small; entry signals will be noisy", p.ZScoreWindow)
	} else if p.ZScoreWindow > 60 {
		res.warnf("z-score window %d is large; entry signals will lag regime changes", p.ZScoreWindow)
	}
	if p.Window >= statisticalFloor && p.Window < 60 {
		res.warnf("rolling window %d is under 60 observations; results may be noisy", p.Window)
	}
	if p.StepSize >= p.Window && p.Window > 0 {
		res.warnf("step size %d >= rolling window %d; windows will not overlap", p.StepSize, p.Window)
	}
	if n := RollingWindowCount(p.DataLength, p.Window, p.StepSize); n > 0 && n < 5 {
		res.warnf("only %d rolling windows; 5 or more are needed for a stable trend read", n)
	}
	if expected, ok := periodTradingDays[p.PeriodLabel]; ok {
		if float64(p.DataLength) < 0.7*float64(expected) {
			res.warnf("period %s usually spans ~%d trading days but the sample has %d; data may have gaps", p.PeriodLabel, expected, p.DataLength)
		}
	}

	if p.DataLength < 100 {
		res.recommendf("under 100 rows: prefer a longer period or the train/test split method")
	} else if p.DataLength < 200 {
		res.recommendf("under 200 rows: walk-forward folds will be few; read stability metrics with care")
	}

	return res
}

func validateWalkForward(p Params, res *Result) {
	if p.TrainWindow <= 0 || p.TestWindow <= 0 {
		res.errorf("walk-forward needs positive train and test windows, got %d/%d", p.TrainWindow, p.TestWindow)
		return
	}
	if p.TrainWindow+p.TestWindow > p.DataLength {
		res.errorf("train window + test window (%d) exceeds the sample (%d rows)", p.TrainWindow+p.TestWindow, p.DataLength)
	}
	folds := FoldCount(p.DataLength, p.TrainWindow, p.TestWindow, p.StepSize)
	if folds < 1 {
		res.errorf("cannot create any walk-forward periods from %d rows (train %d, test %d, step %d)", p.DataLength, p.TrainWindow, p.TestWindow, p.StepSize)
	} else if folds < 5 {
		res.warnf("only %d walk-forward folds; 5 or more are recommended", folds)
	}
	if ratio := float64(p.TrainWindow) / float64(p.TestWindow); ratio < 2 || ratio > 4 {
		res.warnf("train window %d is not 2-4x the test window %d (ratio %.1f)", p.TrainWindow, p.TestWindow, ratio)
	}
	if minTrain := max(60, 3*p.ZScoreWindow); p.TrainWindow < minTrain {
		res.warnf("train window %d is short for this z-score window; %d+ recommended", p.TrainWindow, minTrain)
	}
	if minTest := max(20, p.ZScoreWindow); p.TestWindow < minTest {
		res.warnf("test window %d is short for this z-score window; %d+ recommended", p.TestWindow, minTest)
	}
}

func validateSplit(p Params, res *Result) {
	if p.TrainPct <= 0 || p.TrainPct >= 1 {
		res.errorf("train fraction must be in (0,1), got %g", p.TrainPct)
		return
	}
	train := int(p.TrainPct * float64(p.DataLength))
	test := p.DataLength - train
	if train < 30 {
		res.warnf("training slice of %d rows is thin; expect an unstable hedge ratio", train)
	}
	if test < 20 {
		res.warnf("test slice of %d rows is thin; performance metrics will be anecdotal", test)
	}
	if train < p.ZScoreWindow {
		res.warnf("training slice (%d rows) is shorter than the z-score window (%d); early test signals will be undefined", train, p.ZScoreWindow)
	}
}
