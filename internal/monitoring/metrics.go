// Package monitoring exposes relationship health over HTTP: Prometheus
// collectors fed by periodic re-analysis, plus a JSON health endpoint.
// It exists for long-running watch deployments; one-shot analysis runs
// never touch it.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitor"
)

var (
	percentCointegrated = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statarb_percent_cointegrated",
			Help: "Share of rolling windows that tested cointegrated in the last check",
		},
		[]string{"basket"},
	)

	recentPValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statarb_recent_pvalue",
			Help: "Cointegration p-value over the recent window",
		},
		[]string{"basket"},
	)

	maxWeightDrift = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statarb_max_weight_drift",
			Help: "Largest relative weight change between baseline and recent vectors",
		},
		[]string{"basket"},
	)

	stabilityStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statarb_stability_status",
			Help: "Relationship status: 0 stable, 1 unstable, 2 broken",
		},
		[]string{"basket"},
	)

	windowsFailed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statarb_windows_failed",
			Help: "Rolling windows whose estimation failed in the last check",
		},
		[]string{"basket"},
	)

	checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statarb_checks_total",
			Help: "Completed relationship checks",
		},
		[]string{"basket"},
	)

	checkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statarb_check_errors_total",
			Help: "Relationship checks that failed to produce a report",
		},
		[]string{"basket"},
	)
)

func init() {
	prometheus.MustRegister(percentCointegrated)
	prometheus.MustRegister(recentPValue)
	prometheus.MustRegister(maxWeightDrift)
	prometheus.MustRegister(stabilityStatus)
	prometheus.MustRegister(windowsFailed)
	prometheus.MustRegister(checksTotal)
	prometheus.MustRegister(checkErrorsTotal)
}

func statusValue(s monitor.Status) float64 {
	switch s {
	case monitor.StatusStable:
		return 0
	case monitor.StatusUnstable:
		return 1
	default:
		return 2
	}
}

// ObserveOutcome publishes one completed check to the collectors.
func ObserveOutcome(basket string, o *analysis.Outcome) {
	checksTotal.WithLabelValues(basket).Inc()
	if !o.Ok() {
		checkErrorsTotal.WithLabelValues(basket).Inc()
		return
	}
	r := o.Report
	percentCointegrated.WithLabelValues(basket).Set(r.PercentCointegrated)
	recentPValue.WithLabelValues(basket).Set(r.Stability.Recent.PValue)
	maxWeightDrift.WithLabelValues(basket).Set(r.Stability.MaxWeightDrift)
	stabilityStatus.WithLabelValues(basket).Set(statusValue(r.Stability.Status))
	windowsFailed.WithLabelValues(basket).Set(float64(monitor.FailedWindows(r.Rolling)))
}

// RecordCheckError counts a check that produced no outcome at all, such as
// a data-load failure.
func RecordCheckError(basket string) {
	checksTotal.WithLabelValues(basket).Inc()
	checkErrorsTotal.WithLabelValues(basket).Inc()
}

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
