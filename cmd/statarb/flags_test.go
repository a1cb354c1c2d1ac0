package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/backtest"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/data"
)

func newDataCmd(t *testing.T) (*dataFlags, *cobra.Command) {
	t.Helper()
	var df dataFlags
	cmd := &cobra.Command{Use: "test"}
	df.register(cmd)
	return &df, cmd
}

func TestResolveTickers_Explicit(t *testing.T) {
	df, cmd := newDataCmd(t)
	require.NoError(t, cmd.Flags().Set("tickers", "btcusdt, ethusdt"))

	tickers, err := df.resolveTickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, tickers)
}

func TestResolveTickers_Basket(t *testing.T) {
	df, cmd := newDataCmd(t)
	require.NoError(t, cmd.Flags().Set("basket", "majors"))

	tickers, err := df.resolveTickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, tickers)
}

func TestResolveTickers_BasketFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baskets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baskets:\n  custom:\n    - AAAUSDT\n    - BBBUSDT\n"), 0644))

	df, cmd := newDataCmd(t)
	require.NoError(t, cmd.Flags().Set("basket", "custom"))
	require.NoError(t, cmd.Flags().Set("baskets-file", path))

	tickers, err := df.resolveTickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAUSDT", "BBBUSDT"}, tickers)
}

func TestResolveTickers_UnknownBasketListsNames(t *testing.T) {
	df, cmd := newDataCmd(t)
	require.NoError(t, cmd.Flags().Set("basket", "smallcaps"))

	_, err := df.resolveTickers()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrUnknownBasket)
	assert.Contains(t, err.Error(), "majors")
}

func TestResolveTickers_MutuallyExclusive(t *testing.T) {
	df, cmd := newDataCmd(t)
	require.NoError(t, cmd.Flags().Set("tickers", "BTCUSDT,ETHUSDT"))
	require.NoError(t, cmd.Flags().Set("basket", "majors"))

	_, err := df.resolveTickers()
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestResolveTickers_TooFew(t *testing.T) {
	df, cmd := newDataCmd(t)
	require.NoError(t, cmd.Flags().Set("tickers", "BTCUSDT"))

	_, err := df.resolveTickers()
	assert.ErrorContains(t, err, "at least two")
}

func TestUniverse_SingleTicker(t *testing.T) {
	// fetch downloads per symbol, so one ticker is enough there.
	df := dataFlags{tickers: []string{"btcusdt"}}
	tickers, err := df.universe()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, tickers)

	_, err = (&dataFlags{}).universe()
	assert.ErrorContains(t, err, "no tickers")
}

func TestProviderSelection(t *testing.T) {
	df, _ := newDataCmd(t)

	df.source = "csv"
	p, err := df.provider()
	require.NoError(t, err)
	assert.IsType(t, &data.CSVProvider{}, p)

	df.source = "synthetic"
	p, err = df.provider()
	require.NoError(t, err)
	assert.IsType(t, &data.Synthetic{}, p)

	df.source = "ftp"
	_, err = df.provider()
	assert.ErrorContains(t, err, `unknown source "ftp"`)
}

func TestLabel(t *testing.T) {
	df, _ := newDataCmd(t)
	df.basket = "majors"
	assert.Equal(t, "majors", df.label())

	df.basket = ""
	df.tickers = []string{"btcusdt", "ethusdt"}
	assert.Equal(t, "BTCUSDT_ETHUSDT", df.label())
}

func newConfigCmd(t *testing.T) (*configFlags, *cobra.Command) {
	t.Helper()
	var cf configFlags
	cmd := &cobra.Command{Use: "test"}
	cf.register(cmd)
	return &cf, cmd
}

func TestConfigBuild_Defaults(t *testing.T) {
	cf, cmd := newConfigCmd(t)

	cfg, err := cf.build(cmd)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestConfigBuild_FlagOverlay(t *testing.T) {
	cf, cmd := newConfigCmd(t)
	require.NoError(t, cmd.Flags().Set("method", "simple"))
	require.NoError(t, cmd.Flags().Set("entry", "2.5"))
	require.NoError(t, cmd.Flags().Set("window", "63"))

	cfg, err := cf.build(cmd)
	require.NoError(t, err)
	assert.Equal(t, config.MethodSimple, cfg.Method)
	assert.Equal(t, 2.5, cfg.EntryZScore)
	assert.Equal(t, 63, cfg.Window)
	assert.Equal(t, config.Default().ExitZScore, cfg.ExitZScore)
}

func TestConfigBuild_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entry_zscore: 1.75\nexit_zscore: 0.25\n"), 0644))

	cf, cmd := newConfigCmd(t)
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("entry", "2.25"))

	cfg, err := cf.build(cmd)
	require.NoError(t, err)
	// The explicit flag wins; untouched file values survive.
	assert.Equal(t, 2.25, cfg.EntryZScore)
	assert.Equal(t, 0.25, cfg.ExitZScore)
}

func TestConfigBuild_BadMethod(t *testing.T) {
	cf, cmd := newConfigCmd(t)
	require.NoError(t, cmd.Flags().Set("method", "montecarlo"))

	_, err := cf.build(cmd)
	assert.ErrorIs(t, err, config.ErrUnknownMethod)
}

func TestSyncPeriod(t *testing.T) {
	df, cmd := newDataCmd(t)
	cfg := config.Default()
	cfg.Period = "2y"

	syncPeriod(cmd, df, &cfg)
	assert.Equal(t, "2y", df.period)

	require.NoError(t, cmd.Flags().Set("period", "6mo"))
	syncPeriod(cmd, df, &cfg)
	assert.Equal(t, "6mo", cfg.Period)
}

func TestBuildGrid(t *testing.T) {
	assert.Nil(t, buildGrid(nil, nil, nil))

	grid := buildGrid([]float64{2.0}, []float64{0.5}, []float64{4.0})
	require.Len(t, grid, 1)
	assert.Equal(t, backtest.ThresholdSet{Entry: 2.0, Exit: 0.5, Stop: 4.0}, grid[0])

	// Missing axes fill in with the default candidates.
	grid = buildGrid([]float64{2.0}, nil, nil)
	assert.Len(t, grid, 9)
}
