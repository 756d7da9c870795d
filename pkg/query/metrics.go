package query

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "billing"

// Metrics exposes query cache activity as Prometheus collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	fetches  *prometheus.CounterVec
	joins    *prometheus.CounterVec
	hits     *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	inflight *prometheus.GaugeVec
	mutation *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "query",
			Name:      "fetches_total",
			Help:      "Producer invocations by query and outcome.",
		}, []string{"query", "outcome"}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "query",
			Name:      "joined_total",
			Help:      "Callers that attached to an in-flight fetch instead of starting one.",
		}, []string{"query"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "query",
			Name:      "cache_hits_total",
			Help:      "Queries answered from fresh cached data.",
		}, []string{"query"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "query",
			Name:      "stale_results_total",
			Help:      "Fetch results discarded because a newer fetch or write superseded them.",
		}, []string{"query"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "query",
			Name:      "inflight",
			Help:      "Fetches currently running.",
		}, []string{"query"}),
		mutation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "mutation",
			Name:      "dispatches_total",
			Help:      "Mutation dispatches by mutation and outcome.",
		}, []string{"mutation", "outcome"}),
	}

	var err error
	if m.fetches, err = register(reg, m.fetches); err != nil {
		return nil, err
	}
	if m.joins, err = register(reg, m.joins); err != nil {
		return nil, err
	}
	if m.hits, err = register(reg, m.hits); err != nil {
		return nil, err
	}
	if m.dropped, err = register(reg, m.dropped); err != nil {
		return nil, err
	}
	if m.inflight, err = register(reg, m.inflight); err != nil {
		return nil, err
	}
	if m.mutation, err = register(reg, m.mutation); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if reg == nil {
		return c, nil
	}
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("query: register metrics: %w", err)
}

func (m *Metrics) fetched(name, outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) joined(name string) {
	if m == nil {
		return
	}
	m.joins.WithLabelValues(name).Inc()
}

func (m *Metrics) hit(name string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(name).Inc()
}

func (m *Metrics) droppedStale(name string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(name).Inc()
}

func (m *Metrics) started(name string) {
	if m == nil {
		return
	}
	m.inflight.WithLabelValues(name).Inc()
}

func (m *Metrics) finished(name string) {
	if m == nil {
		return
	}
	m.inflight.WithLabelValues(name).Dec()
}

func (m *Metrics) mutated(name, outcome string) {
	if m == nil {
		return
	}
	m.mutation.WithLabelValues(name, outcome).Inc()
}
