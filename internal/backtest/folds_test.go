package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/validate"
)

func TestFoldSpans_CanonicalCount(t *testing.T) {
	// Two trading years, one-year train, one-quarter test, monthly step.
	spans := foldSpans(504, 252, 63, 21)
	require.Len(t, spans, 10)

	first := spans[0]
	assert.Equal(t, 0, first.TrainStart)
	assert.Equal(t, 252, first.TrainEnd)
	assert.Equal(t, 315, first.TestEnd)

	last := spans[9]
	assert.Equal(t, 189, last.TrainStart)
	assert.Equal(t, 441, last.TrainEnd)
	assert.Equal(t, 504, last.TestEnd)
}

func TestFoldSpans_MatchesValidatorFormula(t *testing.T) {
	// The validator promises fold counts before the engine runs; the
	// generator must deliver exactly that many.
	for _, length := range []int{315, 316, 335, 336, 400, 504, 505, 630, 1000} {
		for _, step := range []int{5, 21, 63} {
			got := len(foldSpans(length, 252, 63, step))
			want := validate.FoldCount(length, 252, 63, step)
			assert.Equal(t, want, got, "length=%d step=%d", length, step)
		}
	}
}

func TestFoldSpans_Degenerate(t *testing.T) {
	assert.Empty(t, foldSpans(300, 252, 63, 21), "test range never fits")
	assert.Empty(t, foldSpans(504, 0, 63, 21))
	assert.Empty(t, foldSpans(504, 252, 63, 0))

	spans := foldSpans(315, 252, 63, 21)
	require.Len(t, spans, 1, "exact fit yields a single fold")
	assert.Equal(t, 315, spans[0].TestEnd)
}
