package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/data"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// dataFlags selects the price source and the ticker universe for commands
// that load a table. Each command registers its own instance.
type dataFlags struct {
	source      string
	dataDir     string
	tickers     []string
	basket      string
	basketsFile string
	period      string
	limit       int
	seed        int64
	synthMode   string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "csv", "price source: csv, bybit, or synthetic")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "data", "directory with <TICKER>.csv files")
	cmd.Flags().StringSliceVar(&f.tickers, "tickers", nil, "tickers to load (e.g. BTCUSDT,ETHUSDT)")
	cmd.Flags().StringVar(&f.basket, "basket", "", "named basket from the catalog instead of --tickers")
	cmd.Flags().StringVar(&f.basketsFile, "baskets-file", "", "YAML basket catalog (default: built-in)")
	cmd.Flags().StringVar(&f.period, "period", "1y", "sample label recorded on the table")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "keep only the most recent N aligned rows (0 = source default)")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "synthetic source seed")
	cmd.Flags().StringVar(&f.synthMode, "synthetic-mode", "cointegrated", "synthetic series mode: cointegrated or independent")
}

// resolveTickers returns the analysis universe, which always needs at
// least two tickers.
func (f *dataFlags) resolveTickers() ([]string, error) {
	tickers, err := f.universe()
	if err != nil {
		return nil, err
	}
	if len(tickers) < 2 {
		return nil, fmt.Errorf("need at least two tickers (--tickers or --basket)")
	}
	return tickers, nil
}

// universe resolves --tickers (upper-cased) or --basket through the
// catalog, without the two-ticker floor; fetch acts per symbol and
// accepts a single one.
func (f *dataFlags) universe() ([]string, error) {
	if f.basket != "" && len(f.tickers) > 0 {
		return nil, fmt.Errorf("--tickers and --basket are mutually exclusive")
	}
	if f.basket != "" {
		catalog := config.DefaultBaskets()
		if f.basketsFile != "" {
			loaded, err := config.LoadBaskets(f.basketsFile)
			if err != nil {
				return nil, err
			}
			catalog = loaded
		}
		tickers, err := catalog.Resolve(f.basket)
		if err != nil {
			return nil, fmt.Errorf("%w (known baskets: %s)", err, strings.Join(catalog.Names(), ", "))
		}
		return tickers, nil
	}
	if len(f.tickers) == 0 {
		return nil, fmt.Errorf("no tickers given (--tickers or --basket)")
	}
	tickers := make([]string, len(f.tickers))
	for i, t := range f.tickers {
		tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	return tickers, nil
}

// provider builds the configured price source.
func (f *dataFlags) provider() (data.Provider, error) {
	switch f.source {
	case "csv":
		return data.NewCSVProvider(f.dataDir), nil
	case "bybit":
		return data.NewBybitProvider(), nil
	case "synthetic":
		return data.NewSynthetic(f.seed, data.SyntheticMode(f.synthMode)), nil
	}
	return nil, fmt.Errorf("unknown source %q (want csv, bybit, or synthetic)", f.source)
}

// loadTable resolves the universe and loads the aligned log-close table.
func (f *dataFlags) loadTable(ctx context.Context) (*types.PriceTable, error) {
	tickers, err := f.resolveTickers()
	if err != nil {
		return nil, err
	}
	p, err := f.provider()
	if err != nil {
		return nil, err
	}
	return p.Load(ctx, data.Request{Tickers: tickers, Period: f.period, Limit: f.limit})
}

// label names the universe for logs and metric labels: the basket name when
// one was given, otherwise the joined tickers.
func (f *dataFlags) label() string {
	if f.basket != "" {
		return f.basket
	}
	return strings.ToUpper(strings.Join(f.tickers, "_"))
}

// configFlags overlays CLI knobs onto the defaults or a YAML config file.
// Only flags the user actually set override file values.
type configFlags struct {
	file         string
	method       string
	window       int
	step         int
	zscoreWindow int
	entry        float64
	exit         float64
	stop         float64
	trainWindow  int
	testWindow   int
	trainPct     float64
	significance float64
}

func (f *configFlags) register(cmd *cobra.Command) {
	def := config.Default()
	cmd.Flags().StringVar(&f.file, "config", "", "YAML config file overlaying the defaults")
	cmd.Flags().StringVar(&f.method, "method", string(def.Method), "backtest method: simple, train_test_split, or walk_forward")
	cmd.Flags().IntVar(&f.window, "window", def.Window, "rolling cointegration window (bars)")
	cmd.Flags().IntVar(&f.step, "step", def.StepSize, "rolling window step (bars)")
	cmd.Flags().IntVar(&f.zscoreWindow, "zscore-window", def.ZScoreWindow, "z-score lookback (bars)")
	cmd.Flags().Float64Var(&f.entry, "entry", def.EntryZScore, "entry |z| threshold")
	cmd.Flags().Float64Var(&f.exit, "exit", def.ExitZScore, "exit |z| threshold")
	cmd.Flags().Float64Var(&f.stop, "stop", def.StopLossZScore, "stop-loss |z| threshold")
	cmd.Flags().IntVar(&f.trainWindow, "train-window", def.TrainWindow, "walk-forward train window (bars)")
	cmd.Flags().IntVar(&f.testWindow, "test-window", def.TestWindow, "walk-forward test window (bars)")
	cmd.Flags().Float64Var(&f.trainPct, "train-pct", def.TrainPct, "train fraction for train_test_split")
	cmd.Flags().Float64Var(&f.significance, "significance", def.Significance, "cointegration significance threshold")
}

// build loads the config file when one was given, then overlays every flag
// the user set explicitly.
func (f *configFlags) build(cmd *cobra.Command) (config.AnalysisConfig, error) {
	cfg := config.Default()
	if f.file != "" {
		loaded, err := config.LoadFile(f.file)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("method") {
		m, err := config.ParseMethod(f.method)
		if err != nil {
			return cfg, err
		}
		cfg.Method = m
	}
	if flags.Changed("window") {
		cfg.Window = f.window
		cfg.WindowAdaptive = false
	}
	if flags.Changed("step") {
		cfg.StepSize = f.step
	}
	if flags.Changed("zscore-window") {
		cfg.ZScoreWindow = f.zscoreWindow
	}
	if flags.Changed("entry") {
		cfg.EntryZScore = f.entry
	}
	if flags.Changed("exit") {
		cfg.ExitZScore = f.exit
	}
	if flags.Changed("stop") {
		cfg.StopLossZScore = f.stop
	}
	if flags.Changed("train-window") {
		cfg.TrainWindow = f.trainWindow
	}
	if flags.Changed("test-window") {
		cfg.TestWindow = f.testWindow
	}
	if flags.Changed("train-pct") {
		cfg.TrainPct = f.trainPct
	}
	if flags.Changed("significance") {
		cfg.Significance = f.significance
	}
	return cfg, nil
}

// syncPeriod keeps the request label and the config label consistent: an
// explicit --period wins, otherwise the config value drives the request.
func syncPeriod(cmd *cobra.Command, df *dataFlags, cfg *config.AnalysisConfig) {
	if cmd.Flags().Changed("period") {
		cfg.Period = df.period
		return
	}
	df.period = cfg.Period
}
