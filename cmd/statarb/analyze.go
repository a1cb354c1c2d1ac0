package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/validate"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/reporting"
)

// analyzeCmd runs the full pipeline: validation, baseline test, rolling
// monitor, stability verdict, and the configured backtest.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full cointegration analysis and backtest",
	Long: `Analyze loads aligned log closes for the universe, validates the
parameters against the sample, runs the baseline and rolling cointegration
tests, classifies relationship stability, and backtests the spread
mean-reversion strategy with the configured method.

Console tables are printed by default; the artifact set (JSON document,
Excel workbook, CSV extracts) lands in the output directory.

Examples:
  statarb analyze --tickers BTCUSDT,ETHUSDT --source bybit --limit 365
  statarb analyze --basket majors --data-dir ./data
  statarb analyze --tickers AAA,BBB --source synthetic --method train_test_split`,
	RunE: runAnalyze,
}

var (
	analyzeData    dataFlags
	analyzeConfig  configFlags
	analyzeAuto    bool
	analyzeJSON    bool
	analyzeOutput  string
	analyzeNoFiles bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeData.register(analyzeCmd)
	analyzeConfig.register(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeAuto, "auto", false, "replace window parameters with the adviser's pick for the sample")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the JSON document instead of tables")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "artifact directory (default results/<TICKERS>_<method>)")
	analyzeCmd.Flags().BoolVar(&analyzeNoFiles, "no-files", false, "skip writing file artifacts")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := analyzeConfig.build(cmd)
	if err != nil {
		return err
	}
	syncPeriod(cmd, &analyzeData, &cfg)

	table, err := analyzeData.loadTable(cmd.Context())
	if err != nil {
		return err
	}
	if analyzeAuto {
		cfg = validate.Suggest(table.Len(), cfg.Method).Apply(cfg)
	}

	outcome, err := analysis.New(cfg).Run(table)
	if err != nil {
		return err
	}

	if analyzeJSON {
		doc, err := reporting.FormatJSON(&outcome)
		if err != nil {
			return err
		}
		fmt.Println(string(doc))
	} else {
		reporting.NewConsole(nil).Outcome(&outcome)
	}

	if !analyzeNoFiles {
		dir := analyzeOutput
		if dir == "" {
			dir = reporting.DefaultOutputDir(table.Tickers(), string(cfg.Method))
		}
		if _, err := reporting.WriteAll(&outcome, dir); err != nil {
			return err
		}
	}

	if !outcome.Ok() {
		return errors.New("analysis aborted: configuration is invalid for this sample")
	}
	return nil
}
