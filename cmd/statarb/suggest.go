package main

import (
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/validate"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/reporting"
)

// suggestCmd prints the parameter adviser's pick for a sample size.
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest analysis parameters for a sample size",
	Long: `Suggest prints the adviser's parameter pick for a sample: rolling
window and step, z-score lookback, and the backtest split. Pass --length
directly, or let the command load the table and size it.

Examples:
  statarb suggest --length 300
  statarb suggest --tickers BTCUSDT,ETHUSDT --method simple`,
	RunE: runSuggest,
}

var (
	suggestData   dataFlags
	suggestLength int
	suggestMethod string
)

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestData.register(suggestCmd)
	suggestCmd.Flags().IntVar(&suggestLength, "length", 0, "sample size in bars (skips loading data)")
	suggestCmd.Flags().StringVar(&suggestMethod, "method", string(config.MethodWalkForward), "preferred backtest method")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	method, err := config.ParseMethod(suggestMethod)
	if err != nil {
		return err
	}
	length := suggestLength
	if length <= 0 {
		table, err := suggestData.loadTable(cmd.Context())
		if err != nil {
			return err
		}
		length = table.Len()
	}
	reporting.NewConsole(nil).Suggestion(length, validate.Suggest(length, method))
	return nil
}
