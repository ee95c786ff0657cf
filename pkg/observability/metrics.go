package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Every method is
// safe to call on a nil *Collector, which records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Query bus metrics
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec

	// Document store metrics
	HelixCalls    *prometheus.CounterVec
	HelixDuration *prometheus.HistogramVec
	DanglingLinks prometheus.Counter

	// Business metrics
	VoiceIntents   *prometheus.CounterVec
	Uploads        *prometheus.CounterVec
	ActiveSessions prometheus.Gauge

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query bus handler duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		QueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Total number of failed queries",
		}, []string{"query"}),
		HelixCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "helix_queries_total",
			Help:      "Total number of document store queries",
		}, []string{"query", "status"}),
		HelixDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "helix_query_duration_seconds",
			Help:      "Document store query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		DanglingLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_dangling_links_total",
			Help:      "Links dropped because an endpoint was not in the snapshot",
		}),
		VoiceIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_intents_total",
			Help:      "Voice function calls dispatched",
		}, []string{"intent", "outcome"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_uploads_total",
			Help:      "Document uploads by result",
		}, []string{"status"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_sessions_active",
			Help:      "Open graph WebSocket sessions",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.QueryDuration,
		c.QueryErrors,
		c.HelixCalls,
		c.HelixDuration,
		c.DanglingLinks,
		c.VoiceIntents,
		c.Uploads,
		c.ActiveSessions,
		c.CacheHits,
		c.CacheMisses,
	)

	return c
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordQuery(query string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.QueryDuration.WithLabelValues(query).Observe(d.Seconds())
	if err != nil {
		c.QueryErrors.WithLabelValues(query).Inc()
	}
}

func (c *Collector) RecordHelixQuery(query string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.HelixCalls.WithLabelValues(query, statusLabel(err)).Inc()
	c.HelixDuration.WithLabelValues(query).Observe(d.Seconds())
}

func (c *Collector) RecordDanglingLinks(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.DanglingLinks.Add(float64(n))
}

func (c *Collector) RecordVoiceIntent(intent, outcome string) {
	if c == nil {
		return
	}
	c.VoiceIntents.WithLabelValues(intent, outcome).Inc()
}

func (c *Collector) RecordUpload(status string) {
	if c == nil {
		return
	}
	c.Uploads.WithLabelValues(status).Inc()
}

func (c *Collector) SessionOpened() {
	if c != nil {
		c.ActiveSessions.Inc()
	}
}

func (c *Collector) SessionClosed() {
	if c != nil {
		c.ActiveSessions.Dec()
	}
}

func (c *Collector) RecordCacheHit() {
	if c != nil {
		c.CacheHits.Inc()
	}
}

func (c *Collector) RecordCacheMiss() {
	if c != nil {
		c.CacheMisses.Inc()
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
