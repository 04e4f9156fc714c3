// Package metrics holds the service's prometheus instrumentation on a
// dedicated registry, exposed through the management metrics route.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the relay counters. All record methods are nil-safe so
// components can run uninstrumented in tests.
type Metrics struct {
	registry *prometheus.Registry

	tasksSubmitted    prometheus.Counter
	tasksCompleted    *prometheus.CounterVec
	providerFailovers *prometheus.CounterVec
}

// New creates a registry with the relay counters plus the standard go and
// process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		tasksSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_tasks_submitted_total",
			Help: "Relay tasks accepted for submission.",
		}),
		tasksCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_tasks_completed_total",
			Help: "Relay tasks that reached a terminal state, by status.",
		}, []string{"status"}),
		providerFailovers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_provider_failovers_total",
			Help: "RPC endpoint failures that triggered a fallback.",
		}, []string{"chain_id", "endpoint"}),
	}
}

// Registry returns the backing registry for the metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// TaskSubmitted counts one accepted submission.
func (m *Metrics) TaskSubmitted() {
	if m == nil {
		return
	}
	m.tasksSubmitted.Inc()
}

// TaskCompleted counts one terminal transition with its status label.
func (m *Metrics) TaskCompleted(status string) {
	if m == nil {
		return
	}
	m.tasksCompleted.WithLabelValues(status).Inc()
}

// ProviderFailover counts one skipped endpoint. Shaped to plug directly into
// the pool's failover hook.
func (m *Metrics) ProviderFailover(chainID int64, endpoint string) {
	if m == nil {
		return
	}
	m.providerFailovers.WithLabelValues(strconv.FormatInt(chainID, 10), endpoint).Inc()
}
