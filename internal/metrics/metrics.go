// Package metrics exposes finwise's Prometheus counters.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finwise/internal/core"
)

const namespace = "finwise"

// Metrics owns a private registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	AmountsParsed *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	CacheLookups  *prometheus.CounterVec
	AMQPMessages  *prometheus.CounterVec
	Snapshots     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AmountsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "amounts_parsed_total",
			Help:      "Amount literals parsed, by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups, by cache and result.",
		}, []string{"cache", "result"}),
		AMQPMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "amqp_messages_total",
			Help:      "Consumed AMQP deliveries, by outcome.",
		}, []string{"outcome"}),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_snapshots_total",
			Help:      "Dashboard snapshots persisted.",
		}),
	}
	m.registry.MustRegister(
		m.AmountsParsed, m.HTTPRequests, m.HTTPDuration, m.CacheLookups, m.AMQPMessages, m.Snapshots,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveParse is a core.WithParseHook callback.
func (m *Metrics) ObserveParse(outcome core.ParseOutcome) {
	m.AmountsParsed.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) CacheHit(name string)  { m.CacheLookups.WithLabelValues(name, "hit").Inc() }
func (m *Metrics) CacheMiss(name string) { m.CacheLookups.WithLabelValues(name, "miss").Inc() }

func (m *Metrics) ObserveAMQP(outcome string) {
	m.AMQPMessages.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, code int, seconds float64) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
