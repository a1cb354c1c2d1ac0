package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitor"
)

// HealthChecker tracks the last check of each watched basket and serves a
// JSON health summary. Degraded means a relationship broke or a check
// errored; the process itself is still fine, so only a missing first check
// reports unavailable.
type HealthChecker struct {
	mu      sync.RWMutex
	started time.Time
	baskets map[string]basketHealth
}

type basketHealth struct {
	Status    monitor.Status `json:"status,omitempty"`
	LastCheck time.Time      `json:"last_check"`
	LastError string         `json:"last_error,omitempty"`
	Checks    int            `json:"checks"`
}

// HealthStatus is the endpoint's response body.
type HealthStatus struct {
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Uptime    string                  `json:"uptime"`
	Baskets   map[string]basketHealth `json:"baskets,omitempty"`
}

// NewHealthChecker returns a checker with the uptime clock started.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		started: time.Now(),
		baskets: make(map[string]basketHealth),
	}
}

// RecordSuccess notes a completed check and its stability verdict.
func (h *HealthChecker) RecordSuccess(basket string, status monitor.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.baskets[basket]
	b.Status = status
	b.LastCheck = time.Now()
	b.LastError = ""
	b.Checks++
	h.baskets[basket] = b
}

// RecordFailure notes a check that could not produce a verdict.
func (h *HealthChecker) RecordFailure(basket string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.baskets[basket]
	b.LastCheck = time.Now()
	b.LastError = err.Error()
	b.Checks++
	h.baskets[basket] = b
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if len(h.baskets) == 0 {
		status = "starting"
		code = http.StatusServiceUnavailable
	}
	for _, b := range h.baskets {
		if b.LastError != "" || b.Status == monitor.StatusBroken {
			status = "degraded"
			break
		}
	}

	baskets := make(map[string]basketHealth, len(h.baskets))
	for name, b := range h.baskets {
		baskets[name] = b
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Uptime:    time.Since(h.started).String(),
		Baskets:   baskets,
	})
}
