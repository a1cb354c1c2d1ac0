package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/backtest"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/reporting"
)

// optimizeCmd sweeps entry/exit/stop threshold candidates over one table.
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Sweep entry/exit/stop thresholds and rank by Sharpe",
	Long: `Optimize backtests every combination of the candidate entry, exit,
and stop z-score thresholds under the configured method and ranks the
results by Sharpe ratio, ties broken on total return. Candidates violating
exit < entry < stop are skipped. Windows and method stay fixed so every
candidate is simulated under identical conditions.

Examples:
  statarb optimize --tickers BTCUSDT,ETHUSDT --source bybit --limit 365
  statarb optimize --basket majors --entry-grid 1.5,2,2.5 --exit-grid 0.5 --stop-grid 4`,
	RunE: runOptimize,
}

var (
	optimizeData   dataFlags
	optimizeConfig configFlags
	optimizeEntry  []float64
	optimizeExit   []float64
	optimizeStop   []float64
	optimizeTop    int
	optimizeJSON   bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeData.register(optimizeCmd)
	optimizeConfig.register(optimizeCmd)
	optimizeCmd.Flags().Float64SliceVar(&optimizeEntry, "entry-grid", nil, "entry threshold candidates (default 1.5,2,2.5)")
	optimizeCmd.Flags().Float64SliceVar(&optimizeExit, "exit-grid", nil, "exit threshold candidates (default 0.25,0.5,0.75)")
	optimizeCmd.Flags().Float64SliceVar(&optimizeStop, "stop-grid", nil, "stop threshold candidates (default 3.5,4,4.5)")
	optimizeCmd.Flags().IntVar(&optimizeTop, "top", 10, "show the best N candidates (0 = all)")
	optimizeCmd.Flags().BoolVar(&optimizeJSON, "json", false, "print the JSON array instead of a table")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := optimizeConfig.build(cmd)
	if err != nil {
		return err
	}
	syncPeriod(cmd, &optimizeData, &cfg)

	table, err := optimizeData.loadTable(cmd.Context())
	if err != nil {
		return err
	}

	grid := buildGrid(optimizeEntry, optimizeExit, optimizeStop)
	results, err := backtest.NewOptimizer(cfg, coint.NewTester(cfg.Significance), grid).Run(table)
	if err != nil {
		return err
	}
	if optimizeTop > 0 && len(results) > optimizeTop {
		results = results[:optimizeTop]
	}

	if optimizeJSON {
		doc, err := reporting.FormatOptimizationJSON(results)
		if err != nil {
			return err
		}
		fmt.Println(string(doc))
		return nil
	}
	reporting.NewConsole(nil).Optimization(results, 0)
	return nil
}

// buildGrid crosses the candidate lists. All three empty means the default
// sweep; a partially specified grid fills the missing axes with defaults.
func buildGrid(entries, exits, stops []float64) []backtest.ThresholdSet {
	if len(entries) == 0 && len(exits) == 0 && len(stops) == 0 {
		return nil
	}
	if len(entries) == 0 {
		entries = []float64{1.5, 2.0, 2.5}
	}
	if len(exits) == 0 {
		exits = []float64{0.25, 0.5, 0.75}
	}
	if len(stops) == 0 {
		stops = []float64{3.5, 4.0, 4.5}
	}
	grid := make([]backtest.ThresholdSet, 0, len(entries)*len(exits)*len(stops))
	for _, entry := range entries {
		for _, exit := range exits {
			for _, stop := range stops {
				grid = append(grid, backtest.ThresholdSet{Entry: entry, Exit: exit, Stop: stop})
			}
		}
	}
	return grid
}
