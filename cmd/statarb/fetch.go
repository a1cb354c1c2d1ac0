package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/data"
)

// fetchCmd downloads Bybit klines into the CSV layout the csv source reads.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download Bybit daily closes into CSV files",
	Long: `Fetch downloads daily kline closes from Bybit and writes one
<TICKER>.csv per symbol into the data directory, in the format the csv
source reads back. Kline data is public; credentials from the env file
are used when present but not required.

Examples:
  statarb fetch --tickers BTCUSDT,ETHUSDT --limit 730
  statarb fetch --basket layer1 --data-dir ./data`,
	RunE: runFetch,
}

var (
	fetchTickers     []string
	fetchBasket      string
	fetchBasketsFile string
	fetchDir         string
	fetchLimit       int
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringSliceVar(&fetchTickers, "tickers", nil, "symbols to download (e.g. BTCUSDT,ETHUSDT)")
	fetchCmd.Flags().StringVar(&fetchBasket, "basket", "", "named basket from the catalog instead of --tickers")
	fetchCmd.Flags().StringVar(&fetchBasketsFile, "baskets-file", "", "YAML basket catalog (default: built-in)")
	fetchCmd.Flags().StringVar(&fetchDir, "data-dir", "data", "directory to write <TICKER>.csv files into")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 365, "number of daily bars per symbol (max 1000)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	df := dataFlags{tickers: fetchTickers, basket: fetchBasket, basketsFile: fetchBasketsFile}
	tickers, err := df.universe()
	if err != nil {
		return err
	}

	provider := data.NewBybitProvider()
	for _, ticker := range tickers {
		rows, err := provider.FetchCloses(cmd.Context(), ticker, fetchLimit)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", ticker, err)
		}
		path, err := data.WriteTickerCSV(fetchDir, ticker, rows)
		if err != nil {
			return err
		}
		log.Info().Str("symbol", ticker).Int("rows", len(rows)).Str("file", path).Msg("wrote daily closes")
	}
	return nil
}
