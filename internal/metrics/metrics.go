package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the signal service.
type Metrics struct {
	registry *prometheus.Registry

	SignalsTotal        *prometheus.CounterVec   // labels: signal, source
	QueryErrorsTotal    *prometheus.CounterVec   // labels: kind
	UpstreamDuration    prometheus.Histogram     // market data fetch latency
	ActiveConnections   prometheus.Gauge         // live publisher sessions
	DeliveriesTotal     *prometheus.CounterVec   // labels: result=ok|failed|skipped
	HTTPRequestDuration *prometheus.HistogramVec // labels: route, code
}

// New registers all collectors on a fresh registry, together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_signals_total",
			Help: "Signals produced, by direction and producer",
		}, []string{"signal", "source"}),
		QueryErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_query_errors_total",
			Help: "Failed signal queries, by error kind",
		}, []string{"kind"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalbot_upstream_fetch_seconds",
			Help:    "Latency of market data kline fetches",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_publisher_active_connections",
			Help: "WebSocket sessions with a running publish timer",
		}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_publisher_deliveries_total",
			Help: "Publisher tick outcomes",
		}, []string{"result"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signalbot_http_request_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.SignalsTotal,
		m.QueryErrorsTotal,
		m.UpstreamDuration,
		m.ActiveConnections,
		m.DeliveriesTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
