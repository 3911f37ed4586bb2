// Package metrics exposes the shard's operational counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the shard's Prometheus metrics behind a non-global
// registry, so embedding applications (and tests) can run more than one
// without collisions.
type Collector struct {
	registry *prometheus.Registry

	ShardUp        *prometheus.GaugeVec
	EventsReceived *prometheus.CounterVec
	Reconnects     *prometheus.CounterVec
	GatewayCloses  *prometheus.CounterVec
	Sequence       *prometheus.GaugeVec
}

// New creates and registers the shard metric set.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ShardUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gateway_shard_up",
			Help: "Whether the shard currently holds an active session (1) or not (0).",
		}, []string{"shard"}),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_events_received_total",
			Help: "Dispatch events received, by event name.",
		}, []string{"shard", "event"}),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_reconnects_total",
			Help: "Gateway connect attempts that failed.",
		}, []string{"shard"}),
		GatewayCloses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_closes_total",
			Help: "Close frames observed on the wire, by close code.",
		}, []string{"shard", "code"}),
		Sequence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gateway_session_sequence",
			Help: "Last dispatch sequence number recorded for the session.",
		}, []string{"shard"}),
	}

	c.registry.MustRegister(c.ShardUp, c.EventsReceived, c.Reconnects, c.GatewayCloses, c.Sequence)
	return c
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
