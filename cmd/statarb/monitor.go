package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitoring"
)

// monitorCmd runs the periodic re-analysis service with Prometheus metrics.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a universe's cointegration health as a service",
	Long: `Monitor re-runs the full analysis on an interval and exposes the
verdicts as Prometheus gauges on /metrics plus a JSON summary on /health.
Data is reloaded every cycle, so the bybit source tracks the live market.
Production deployments typically run a monthly interval; the default is a
daily check.

Examples:
  statarb monitor --basket majors --source bybit --interval 24h --listen :2112
  statarb monitor --tickers BTCUSDT,ETHUSDT --interval 1h`,
	RunE: runMonitor,
}

var (
	monitorData     dataFlags
	monitorConfig   configFlags
	monitorInterval time.Duration
	monitorListen   string
)

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorData.register(monitorCmd)
	monitorConfig.register(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 24*time.Hour, "time between checks")
	monitorCmd.Flags().StringVar(&monitorListen, "listen", ":2112", "metrics/health listen address")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := monitorConfig.build(cmd)
	if err != nil {
		return err
	}
	syncPeriod(cmd, &monitorData, &cfg)
	// Resolve eagerly so a bad universe fails at startup, not on the first tick.
	if _, err := monitorData.resolveTickers(); err != nil {
		return err
	}

	check := func(ctx context.Context) (*analysis.Outcome, error) {
		table, err := monitorData.loadTable(ctx)
		if err != nil {
			return nil, err
		}
		outcome, err := analysis.New(cfg).Run(table)
		if err != nil {
			return nil, err
		}
		return &outcome, nil
	}

	health := monitoring.NewHealthChecker()
	watcher := monitoring.NewWatcher(monitorData.label(), monitorInterval, check, health)
	server := monitoring.NewServer(monitorListen, health)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", monitorListen).Msg("serving /metrics and /health")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
			stop()
		}
	}()

	runErr := watcher.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown")
	}

	if errors.Is(runErr, context.Canceled) {
		log.Info().Msg("monitor stopped")
		return nil
	}
	return runErr
}
