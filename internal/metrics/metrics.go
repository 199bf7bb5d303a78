package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing, which keeps the CLI and tests free of registry plumbing.
type Metrics struct {
	reg *prometheus.Registry

	feedRequests    *prometheus.CounterVec
	feedDuration    *prometheus.HistogramVec
	feedLastSuccess *prometheus.GaugeVec
	markers         prometheus.Counter
	skipped         *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// New creates the collectors on a private registry, together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}
	m.feedRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quakemap",
		Name:      "feed_requests_total",
		Help:      "Feed reads by feed and outcome",
	}, []string{"feed", "status"})
	m.feedDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quakemap",
		Name:      "feed_fetch_duration_seconds",
		Help:      "Time spent reading a feed, retries included",
		Buckets:   prometheus.DefBuckets,
	}, []string{"feed"})
	m.feedLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quakemap",
		Name:      "feed_last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful feed read",
	}, []string{"feed"})
	m.markers = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quakemap",
		Name:      "markers_rendered_total",
		Help:      "Earthquake markers produced",
	})
	m.skipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quakemap",
		Name:      "events_skipped_total",
		Help:      "Feed features dropped before rendering, by reason",
	}, []string{"reason"})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quakemap",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.feedRequests, m.feedDuration, m.feedLastSuccess,
		m.markers, m.skipped, m.httpRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveFetch records one feed read.
func (m *Metrics) ObserveFetch(feed string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.feedDuration.WithLabelValues(feed).Observe(took.Seconds())
	if err != nil {
		m.feedRequests.WithLabelValues(feed, "error").Inc()
		return
	}
	m.feedRequests.WithLabelValues(feed, "ok").Inc()
	m.feedLastSuccess.WithLabelValues(feed).Set(float64(time.Now().Unix()))
}

// AddMarkers counts rendered markers.
func (m *Metrics) AddMarkers(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.markers.Add(float64(n))
}

// AddSkipped counts dropped features per reason.
func (m *Metrics) AddSkipped(byReason map[string]int) {
	if m == nil {
		return
	}
	for reason, n := range byReason {
		if n > 0 {
			m.skipped.WithLabelValues(reason).Add(float64(n))
		}
	}
}

// ObserveHTTP counts one served request.
func (m *Metrics) ObserveHTTP(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}
