package validate

import (
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
)

// defaultZScoreWindow is the advised causal z-score lookback.
const defaultZScoreWindow = 20

// Suggestion is a parameter set the adviser guarantees its own validator
// accepts. RollingStep doubles as the walk-forward fold step, mirroring the
// single step_size knob of the configuration surface. TrainWindow/TestWindow
// apply to walk-forward, TrainPct to the split method.
type Suggestion struct {
	Method        config.Method
	RollingWindow int
	RollingStep   int
	ZScoreWindow  int
	TrainWindow   int
	TestWindow    int
	TrainPct      float64
}

// Params converts a suggestion into the validator's input for the given
// sample, so adviser/validator consistency can be checked directly.
func (s Suggestion) Params(dataLength int, period string) Params {
	return Params{
		PeriodLabel:    period,
		DataLength:     dataLength,
		Window:         s.RollingWindow,
		StepSize:       s.RollingStep,
		Method:         s.Method,
		ZScoreWindow:   s.ZScoreWindow,
		TrainWindow:    s.TrainWindow,
		TestWindow:     s.TestWindow,
		TrainPct:       s.TrainPct,
		WindowAdaptive: true,
	}
}

// Apply overlays the suggestion onto a config value.
func (s Suggestion) Apply(cfg config.AnalysisConfig) config.AnalysisConfig {
	cfg.Method = s.Method
	cfg.Window = s.RollingWindow
	cfg.StepSize = s.RollingStep
	cfg.WindowAdaptive = true
	cfg.ZScoreWindow = s.ZScoreWindow
	switch s.Method {
	case config.MethodWalkForward:
		cfg.TrainWindow = s.TrainWindow
		cfg.TestWindow = s.TestWindow
	case config.MethodTrainTestSplit:
		cfg.TrainPct = s.TrainPct
	}
	return cfg
}

// DeriveAdaptiveWindows scales walk-forward train/test windows to the
// sample: train = min(252, len/3), test = min(63, len/10). The formulas are
// heuristic and intentionally preserved as-is; the validator warns when
// they land outside the 2-4x train/test ratio rather than altering them.
func DeriveAdaptiveWindows(dataLength int) (train, test int) {
	train = dataLength / 3
	if train > 252 {
		train = 252
	}
	test = dataLength / 10
	if test > 63 {
		test = 63
	}
	return train, test
}

// Suggest picks parameters for a sample from a fixed tier table keyed by
// data length. The preferred method is honored when the sample supports
// it; short samples fall back to the train/test split. Every suggestion
// passes Validate for its own method.
func Suggest(dataLength int, preferred config.Method) Suggestion {
	s := Suggestion{ZScoreWindow: defaultZScoreWindow}

	if dataLength < 100 {
		s.RollingWindow, s.RollingStep = 30, 6
		if preferred == config.MethodSimple {
			s.Method = config.MethodSimple
			return s
		}
		s.Method = config.MethodTrainTestSplit
		s.TrainPct = 0.6
		return s
	}

	switch preferred {
	case config.MethodSimple:
		s.Method = config.MethodSimple
		s.RollingWindow = clamp(dataLength/3, 63, 252)
		s.RollingStep = max(10, dataLength/15)
	case config.MethodTrainTestSplit:
		s.Method = config.MethodTrainTestSplit
		s.RollingWindow = clamp(dataLength/4, 63, 252)
		s.RollingStep = max(10, dataLength/20)
		s.TrainPct = 0.6
	default:
		s.Method = config.MethodWalkForward
		switch {
		case dataLength >= 500:
			s.RollingWindow, s.RollingStep = 252, 21
			s.TrainWindow, s.TestWindow = 252, 63
		case dataLength >= 250:
			s.RollingWindow, s.RollingStep = 126, 21
			s.TrainWindow, s.TestWindow = 180, 45
		default:
			s.RollingWindow, s.RollingStep = 63, 10
			s.TrainWindow, s.TestWindow = DeriveAdaptiveWindows(dataLength)
		}
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
