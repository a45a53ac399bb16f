package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	loadFailures *prometheus.CounterVec
	exports      *prometheus.CounterVec
	rateLimited  prometheus.Counter
	suspicious   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaslot_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kaslot_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaslot_mutations_total",
			Help: "Form mutations by entity, action and outcome.",
		}, []string{"entity", "action", "outcome"}),
		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaslot_backend_load_failures_total",
			Help: "Failed collection loads by collection.",
		}, []string{"collection"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaslot_report_exports_total",
			Help: "Supplier report downloads by format.",
		}, []string{"format"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kaslot_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kaslot_suspicious_requests_total",
			Help: "Requests flagged by the security detector.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.mutations, m.loadFailures, m.exports,
		m.rateLimited, m.suspicious,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished request. The route label is the chi
// pattern, so ids in paths do not explode cardinality.
func (m *Metrics) ObserveRequest(r *http.Request, status int, d time.Duration) {
	route := "unmatched"
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			route = p
		}
	}
	m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(r.Method, route).Observe(d.Seconds())
}

func (m *Metrics) mutation(entity, action string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.mutations.WithLabelValues(entity, action, outcome).Inc()
}

func (m *Metrics) loadFailed(collection string) {
	m.loadFailures.WithLabelValues(collection).Inc()
}

func (m *Metrics) exported(format string) {
	m.exports.WithLabelValues(format).Inc()
}

func (m *Metrics) rateLimitHit(*http.Request) {
	m.rateLimited.Inc()
}

func (m *Metrics) suspiciousRequest(*http.Request) {
	m.suspicious.Inc()
}
