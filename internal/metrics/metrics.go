// Package metrics exposes attachment activity as prometheus metrics. Metrics
// implements provider.Observer and owns its own prometheus.Registry so that
// several instances (one per App, one per test) never collide.
package metrics

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/behaviourgrid/internal/provider"
)

const namespace = "behaviourgrid"

// Metrics collects attachment counters and live gauges.
type Metrics struct {
	registry *prometheus.Registry

	attached       *prometheus.CounterVec
	detached       *prometheus.CounterVec
	attachFailures *prometheus.CounterVec
}

// New creates a Metrics with its own registry. Go runtime and process
// collectors are registered alongside the attachment counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attached: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "behaviours_attached_total",
				Help:      "Total number of behaviours attached to entities.",
			},
			[]string{"kind"},
		),
		detached: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "behaviours_detached_total",
				Help:      "Total number of behaviours detached from entities.",
			},
			[]string{"kind"},
		),
		attachFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "behaviour_attach_failures_total",
				Help:      "Total number of behaviour constructions that failed.",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(
		m.attached,
		m.detached,
		m.attachFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Attached implements provider.Observer.
func (m *Metrics) Attached(kind provider.Kind, _ uuid.UUID) {
	m.attached.WithLabelValues(kind.String()).Inc()
}

// Detached implements provider.Observer.
func (m *Metrics) Detached(kind provider.Kind, _ uuid.UUID) {
	m.detached.WithLabelValues(kind.String()).Inc()
}

// AttachFailed implements provider.Observer.
func (m *Metrics) AttachFailed(kind provider.Kind, _ uuid.UUID, _ error) {
	m.attachFailures.WithLabelValues(kind.String()).Inc()
}

// BehaviourCounter reports how many behaviours of a kind are attached.
type BehaviourCounter interface {
	Kinds() []provider.Kind
	Count(kind provider.Kind) int
}

// TrackBehaviours registers a live gauge per kind known to c at call time.
func (m *Metrics) TrackBehaviours(c BehaviourCounter) {
	for _, kind := range c.Kinds() {
		kind := kind
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "behaviours",
				Help:        "Number of behaviours currently attached.",
				ConstLabels: prometheus.Labels{"kind": kind.String()},
			},
			func() float64 { return float64(c.Count(kind)) },
		))
	}
}

// TrackEntities registers a live gauge reporting the number of entities.
func (m *Metrics) TrackEntities(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Number of entities currently stored.",
		},
		func() float64 { return float64(count()) },
	))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
