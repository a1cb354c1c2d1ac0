package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitor"
)

// CheckFunc re-runs an analysis on fresh data and returns its outcome.
type CheckFunc func(ctx context.Context) (*analysis.Outcome, error)

// Watcher re-checks one basket on a fixed cadence and publishes each
// verdict to the collectors and the health checker.
type Watcher struct {
	basket   string
	interval time.Duration
	check    CheckFunc
	health   *HealthChecker
}

// NewWatcher builds a watcher for one basket.
func NewWatcher(basket string, interval time.Duration, check CheckFunc, health *HealthChecker) *Watcher {
	return &Watcher{basket: basket, interval: interval, check: check, health: health}
}

// Run performs an immediate check, then one per interval until the context
// is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	outcome, err := w.check(ctx)
	if err != nil {
		RecordCheckError(w.basket)
		w.health.RecordFailure(w.basket, err)
		log.Error().Err(err).Str("basket", w.basket).Msg("relationship check failed")
		return
	}

	ObserveOutcome(w.basket, outcome)
	if !outcome.Ok() {
		w.health.RecordFailure(w.basket,
			fmt.Errorf("invalid configuration: %s", strings.Join(outcome.Validation.Errors, "; ")))
		log.Error().Str("basket", w.basket).Strs("errors", outcome.Validation.Errors).Msg("relationship check rejected")
		return
	}

	status := outcome.Report.Stability.Status
	w.health.RecordSuccess(w.basket, status)
	evt := log.Info()
	if status == monitor.StatusBroken {
		evt = log.Warn()
	}
	evt.Str("basket", w.basket).
		Str("status", string(status)).
		Float64("percent_cointegrated", outcome.Report.PercentCointegrated).
		Float64("recent_pvalue", outcome.Report.Stability.Recent.PValue).
		Msg("relationship check completed")
}

// NewServer wires /metrics and /health on one address.
func NewServer(addr string, health *HealthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", NewMetricsHandler())
	mux.Handle("/health", health)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
