package validate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
)

func walkForwardParams(dataLength int) Params {
	return Params{
		PeriodLabel:  "2y",
		DataLength:   dataLength,
		Window:       252,
		StepSize:     21,
		Method:       config.MethodWalkForward,
		ZScoreWindow: 20,
		TrainWindow:  252,
		TestWindow:   63,
	}
}

func hasSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestValidate_WindowSoundness(t *testing.T) {
	for _, tc := range []struct{ dataLength, window int }{
		{100, 100}, {100, 150}, {504, 504}, {50, 60},
	} {
		p := walkForwardParams(tc.dataLength)
		p.Window = tc.window
		res := Validate(p)
		assert.False(t, res.Valid, "window %d on %d rows must be invalid", tc.window, tc.dataLength)
		assert.True(t, hasSubstring(res.Errors, "rolling window"), "errors: %v", res.Errors)
	}
}

func TestValidate_DataFloor(t *testing.T) {
	p := walkForwardParams(39)
	res := Validate(p)
	assert.False(t, res.Valid)
	assert.True(t, hasSubstring(res.Errors, "insufficient data"))
}

func TestValidate_ZScoreWindowTooLarge(t *testing.T) {
	p := walkForwardParams(504)
	p.ZScoreWindow = 600
	res := Validate(p)
	assert.False(t, res.Valid)
	assert.True(t, hasSubstring(res.Errors, "z-score window"))
}

func TestValidate_StepSize(t *testing.T) {
	p := walkForwardParams(504)
	p.StepSize = 0
	res := Validate(p)
	assert.False(t, res.Valid)
	assert.True(t, hasSubstring(res.Errors, "step size"))
}

func TestValidate_NoFeasibleFolds(t *testing.T) {
	p := walkForwardParams(300) // 252 + 63 > 300
	res := Validate(p)
	assert.False(t, res.Valid)
	assert.True(t, hasSubstring(res.Errors, "exceeds the sample"))
	assert.True(t, hasSubstring(res.Errors, "cannot create any walk-forward periods"))
}

func TestValidate_WindowFloor(t *testing.T) {
	p := walkForwardParams(504)
	p.Window = 25

	res := Validate(p)
	assert.False(t, res.Valid, "explicitly requested sub-30 window is an error")
	assert.True(t, hasSubstring(res.Errors, "statistical floor"))

	p.WindowAdaptive = true
	res = Validate(p)
	assert.True(t, res.Valid, "adaptively derived sub-30 window only warns")
	assert.True(t, hasSubstring(res.Warnings, "statistical floor"))
}

func TestValidate_Warnings(t *testing.T) {
	t.Run("few folds", func(t *testing.T) {
		p := walkForwardParams(340)
		p.TrainWindow, p.TestWindow, p.StepSize = 200, 60, 30
		p.Window = 126
		res := Validate(p)
		require.True(t, res.Valid, "errors: %v", res.Errors)
		assert.True(t, hasSubstring(res.Warnings, "walk-forward folds"))
	})

	t.Run("train test ratio", func(t *testing.T) {
		p := walkForwardParams(504)
		p.TrainWindow, p.TestWindow = 100, 80
		res := Validate(p)
		require.True(t, res.Valid, "errors: %v", res.Errors)
		assert.True(t, hasSubstring(res.Warnings, "not 2-4x"))
	})

	t.Run("non overlapping windows", func(t *testing.T) {
		p := walkForwardParams(504)
		p.Window, p.StepSize = 60, 90
		res := Validate(p)
		require.True(t, res.Valid, "errors: %v", res.Errors)
		assert.True(t, hasSubstring(res.Warnings, "will not overlap"))
	})

	t.Run("few rolling windows", func(t *testing.T) {
		p := walkForwardParams(504)
		p.Window, p.StepSize = 400, 60
		p.TrainWindow, p.TestWindow = 252, 63
		res := Validate(p)
		require.True(t, res.Valid, "errors: %v", res.Errors)
		assert.True(t, hasSubstring(res.Warnings, "rolling windows"))
	})

	t.Run("period mismatch", func(t *testing.T) {
		p := walkForwardParams(504)
		p.PeriodLabel = "5y" // ~1260 expected, 504 supplied
		res := Validate(p)
		require.True(t, res.Valid)
		assert.True(t, hasSubstring(res.Warnings, "trading days"))
	})

	t.Run("noisy small window", func(t *testing.T) {
		p := walkForwardParams(504)
		p.Window = 45
		res := Validate(p)
		require.True(t, res.Valid)
		assert.True(t, hasSubstring(res.Warnings, "may be noisy"))
	})
}

func TestFoldCount(t *testing.T) {
	assert.Equal(t, 10, FoldCount(504, 252, 63, 21))
	assert.Equal(t, 1, FoldCount(315, 252, 63, 21))
	assert.Equal(t, 0, FoldCount(314, 252, 63, 21))
	assert.Equal(t, 0, FoldCount(504, 252, 63, 0))
	assert.Equal(t, 0, FoldCount(504, 0, 63, 21))
}

func TestRollingWindowCount(t *testing.T) {
	assert.Equal(t, 25, RollingWindowCount(300, 60, 10))
	assert.Equal(t, 1, RollingWindowCount(60, 60, 10))
	assert.Equal(t, 0, RollingWindowCount(59, 60, 10))
}

func TestDeriveAdaptiveWindows(t *testing.T) {
	train, test := DeriveAdaptiveWindows(300)
	assert.Equal(t, 100, train)
	assert.Equal(t, 30, test)

	train, test = DeriveAdaptiveWindows(1000)
	assert.Equal(t, 252, train)
	assert.Equal(t, 63, test)
}

func TestSuggest_Tiers(t *testing.T) {
	s := Suggest(80, config.MethodWalkForward)
	assert.Equal(t, config.MethodTrainTestSplit, s.Method, "short samples fall back to the split")
	assert.Equal(t, 30, s.RollingWindow)
	assert.Equal(t, 6, s.RollingStep)
	assert.Equal(t, 0.6, s.TrainPct)

	s = Suggest(150, config.MethodWalkForward)
	assert.Equal(t, config.MethodWalkForward, s.Method)
	assert.Equal(t, 63, s.RollingWindow)
	assert.Equal(t, 10, s.RollingStep)
	assert.Equal(t, 50, s.TrainWindow)
	assert.Equal(t, 15, s.TestWindow)

	s = Suggest(300, config.MethodWalkForward)
	assert.Equal(t, 126, s.RollingWindow)
	assert.Equal(t, 21, s.RollingStep)
	assert.Equal(t, 180, s.TrainWindow)
	assert.Equal(t, 45, s.TestWindow)

	s = Suggest(600, config.MethodWalkForward)
	assert.Equal(t, 252, s.RollingWindow)
	assert.Equal(t, 21, s.RollingStep)
	assert.Equal(t, 252, s.TrainWindow)
	assert.Equal(t, 63, s.TestWindow)

	s = Suggest(600, config.MethodSimple)
	assert.Equal(t, config.MethodSimple, s.Method)
	assert.Equal(t, 200, s.RollingWindow)

	s = Suggest(600, config.MethodTrainTestSplit)
	assert.Equal(t, config.MethodTrainTestSplit, s.Method)
	assert.Equal(t, 150, s.RollingWindow)
	assert.Equal(t, 30, s.RollingStep)
}

// TestSuggest_NeverRejected is the adviser/validator consistency contract:
// a suggestion must pass its own validation at every sample length.
func TestSuggest_NeverRejected(t *testing.T) {
	methods := []config.Method{config.MethodSimple, config.MethodTrainTestSplit, config.MethodWalkForward}
	for dataLength := 40; dataLength <= 1200; dataLength++ {
		for _, m := range methods {
			s := Suggest(dataLength, m)
			res := Validate(s.Params(dataLength, ""))
			require.True(t, res.Valid,
				"Suggest(%d, %s) -> %+v rejected: %v", dataLength, m, s, res.Errors)
		}
	}
}

func TestSuggestion_Apply(t *testing.T) {
	cfg := config.Default()
	s := Suggest(150, config.MethodWalkForward)
	got := s.Apply(cfg)

	assert.Equal(t, config.MethodWalkForward, got.Method)
	assert.Equal(t, 63, got.Window)
	assert.Equal(t, 10, got.StepSize)
	assert.Equal(t, 50, got.TrainWindow)
	assert.Equal(t, 15, got.TestWindow)
	assert.True(t, got.WindowAdaptive)
	assert.NoError(t, got.Validate())
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Period = "2y"
	p := FromConfig(cfg, 504)

	assert.Equal(t, 504, p.DataLength)
	assert.Equal(t, cfg.Window, p.Window)
	assert.Equal(t, cfg.Method, p.Method)
	assert.Equal(t, "2y", p.PeriodLabel)

	res := Validate(p)
	assert.True(t, res.Valid, fmt.Sprintf("default config on 2y of data: %v", res.Errors))
}
