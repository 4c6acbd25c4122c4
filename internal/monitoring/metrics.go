// Package monitoring tracks client-side ordering activity: how often each
// checkout action runs, how often it fails, and how long the backend takes
// to answer. Collectors are registered on the default Prometheus registry
// and exposed by the metrics server in cmd.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects ordering-flow metrics.
type Metrics struct {
	actionsStarted  *prometheus.CounterVec
	actionsFinished *prometheus.CounterVec
	actionDuration  *prometheus.HistogramVec

	mu        sync.RWMutex
	counts    map[string]int64
	failures  map[string]int64
	startTime time.Time
}

// NewMetrics creates and registers the ordering metrics collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		actionsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bistro_checkout_actions_started_total",
			Help: "Checkout mutator actions started, by action kind.",
		}, []string{"action"}),
		actionsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bistro_checkout_actions_finished_total",
			Help: "Checkout mutator actions finished, by action kind and outcome.",
		}, []string{"action", "outcome"}),
		actionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bistro_checkout_action_duration_seconds",
			Help:    "Round-trip duration of checkout mutator calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		counts:    make(map[string]int64),
		failures:  make(map[string]int64),
		startTime: time.Now(),
	}
}

// ActionStarted records the start of a checkout action.
func (m *Metrics) ActionStarted(action string) {
	m.actionsStarted.WithLabelValues(action).Inc()
	m.mu.Lock()
	m.counts[action]++
	m.mu.Unlock()
}

// ActionFinished records the completion of a checkout action.
func (m *Metrics) ActionFinished(action string, ok bool, elapsed time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
		m.mu.Lock()
		m.failures[action]++
		m.mu.Unlock()
	}
	m.actionsFinished.WithLabelValues(action, outcome).Inc()
	m.actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// Snapshot returns the current counters for the storefront status endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]interface{}, len(m.counts)+2)
	for action, n := range m.counts {
		out[action+"_total"] = n
	}
	for action, n := range m.failures {
		out[action+"_failures"] = n
	}
	out["uptime_seconds"] = time.Since(m.startTime).Seconds()
	return out
}
