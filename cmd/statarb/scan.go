package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/reporting"
)

// scanCmd ranks every ticker pair in the universe by cointegration strength.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rank every ticker pair by cointegration strength",
	Long: `Scan runs the pair test on every unordered ticker pair in the
universe and ranks the results by p-value, best candidates first. Pairs
whose estimation fails are kept as failed rows so the universe stays fully
accounted for.

Examples:
  statarb scan --basket layer1 --source bybit --limit 365
  statarb scan --tickers BTCUSDT,ETHUSDT,SOLUSDT,BNBUSDT`,
	RunE: runScan,
}

var (
	scanData         dataFlags
	scanSignificance float64
	scanJSON         bool
	scanOutput       string
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanData.register(scanCmd)
	scanCmd.Flags().Float64Var(&scanSignificance, "significance", config.Default().Significance, "cointegration significance threshold")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the JSON array instead of a table")
	scanCmd.Flags().StringVar(&scanOutput, "output", "", "also write the ranking to this JSON file")
}

func runScan(cmd *cobra.Command, args []string) error {
	table, err := scanData.loadTable(cmd.Context())
	if err != nil {
		return err
	}
	rows := analysis.ScanPairs(table, coint.NewTester(scanSignificance), scanSignificance)

	if scanJSON {
		doc, err := reporting.FormatScanJSON(rows)
		if err != nil {
			return err
		}
		fmt.Println(string(doc))
	} else {
		reporting.NewConsole(nil).Scan(rows)
	}
	if scanOutput != "" {
		return reporting.WriteScanJSON(rows, scanOutput)
	}
	return nil
}
