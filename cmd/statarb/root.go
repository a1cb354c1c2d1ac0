package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	rootVerbose bool
	rootEnvFile string
)

// rootCmd is the base command for the statarb CLI.
var rootCmd = &cobra.Command{
	Use:   "statarb",
	Short: "Cointegration-based statistical arbitrage lab",
	Long: `statarb studies mean-reverting relationships between crypto assets:
Engle-Granger and Johansen cointegration tests, a rolling stability
monitor, and walk-forward backtests of the spread strategy built on them.

Price data comes from local CSV files, Bybit daily klines, or a seeded
synthetic generator, so every command can also run fully offline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if rootVerbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		loadEnvFile(rootEnvFile)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootEnvFile, "env", ".env", "env file with exchange credentials")
}

// loadEnvFile merges the env file into the process environment. A missing
// file is fine; credentials are only needed for the bybit source.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Debug().Str("file", path).Msg("no env file loaded")
	}
}
