// Package metrics exposes prometheus instruments for the viewer.
package metrics

import (
	"net/http"

	"github.com/aretw0/cmdtree/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cmdtree"

// Metrics groups every instrument on its own registry, so several viewers
// (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	Renders        prometheus.Counter
	Polls          *prometheus.CounterVec
	DecodeErrors   prometheus.Counter
	MalformedNodes prometheus.Counter
	Timers         *prometheus.CounterVec
	Nodes          prometheus.Gauge
	Highlighted    prometheus.Gauge
	Toggles        prometheus.Counter
}

// New creates and registers all instruments.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Number of full tree rebuilds.",
		}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Source polls by outcome (changed, unchanged, error).",
		}, []string{"outcome"}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Payloads rejected as absent or unparsable.",
		}),
		MalformedNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_nodes_total",
			Help:      "Command nodes skipped because of their shape.",
		}),
		Timers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hold_timers_total",
			Help:      "Deactivation hold timers by event (armed, cancelled, expired).",
		}, []string{"event"}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Command nodes in the last render.",
		}),
		Highlighted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "highlighted_nodes",
			Help:      "Nodes displayed as running after the last render.",
		}),
		Toggles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_total",
			Help:      "Expansion changes requested by the user.",
		}),
	}
	m.registry.MustRegister(
		m.Renders, m.Polls, m.DecodeErrors, m.MalformedNodes,
		m.Timers, m.Nodes, m.Highlighted, m.Toggles,
	)
	return m
}

// Registry returns the registry holding every instrument.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ActivityHooks counts hold timer bookkeeping of an activity.Store.
func (m *Metrics) ActivityHooks() activity.Hooks {
	return activity.Hooks{
		OnArm:    func(string) { m.Timers.WithLabelValues("armed").Inc() },
		OnCancel: func(string) { m.Timers.WithLabelValues("cancelled").Inc() },
		OnExpire: func(string) { m.Timers.WithLabelValues("expired").Inc() },
	}
}

// ObserveRender records the outcome of one render pass.
func (m *Metrics) ObserveRender(nodes, highlighted int) {
	m.Renders.Inc()
	m.Nodes.Set(float64(nodes))
	m.Highlighted.Set(float64(highlighted))
}

// ObservePoll records a poll outcome: "changed", "unchanged" or "error".
func (m *Metrics) ObservePoll(outcome string) {
	m.Polls.WithLabelValues(outcome).Inc()
}
