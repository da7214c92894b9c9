package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "siteanalysis"

// Climate source results.
const (
	ResultLive     = "live"
	ResultFallback = "fallback"
)

// Climate cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics holds the Prometheus collectors for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec   // labels: method, route, status
	HTTPDuration *prometheus.HistogramVec // labels: method, route

	OverpassQueries  *prometheus.CounterVec // labels: outcome={success,empty,error}
	OverpassDuration prometheus.Histogram

	FeaturesExtracted prometheus.Counter
	FeaturesSkipped   *prometheus.CounterVec // labels: reason
	FeaturesPersisted prometheus.Counter

	ClimateSources *prometheus.CounterVec // labels: source={current,historical}, result={live,fallback}
	ClimateCache   *prometheus.CounterVec // labels: source={current,historical}, result={hit,miss}

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. Passing nil uses
// the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	m := newCollectors()

	if reg == nil {
		reg = prometheus.DefaultRegisterer
		m.gatherer = prometheus.DefaultGatherer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.OverpassQueries,
		m.OverpassDuration,
		m.FeaturesExtracted,
		m.FeaturesSkipped,
		m.FeaturesPersisted,
		m.ClimateSources,
		m.ClimateCache,
	)
	return m
}

// NewForTesting creates Metrics on a fresh registry so tests can run in
// parallel without "already registered" panics.
func NewForTesting() *Metrics {
	return New(prometheus.NewRegistry())
}

func newCollectors() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"}),
		OverpassQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overpass_queries_total",
			Help:      "Overpass API queries by outcome.",
		}, []string{"outcome"}),
		OverpassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overpass_query_duration_seconds",
			Help:      "Overpass API query duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FeaturesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_extracted_total",
			Help:      "Map features normalized and classified.",
		}),
		FeaturesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_skipped_total",
			Help:      "Map features dropped during extraction or persistence, by reason.",
		}, []string{"reason"}),
		FeaturesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_persisted_total",
			Help:      "Feature rows inserted (conflicts excluded).",
		}),
		ClimateSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "climate_source_results_total",
			Help:      "Climate provider outcomes by source and result.",
		}, []string{"source", "result"}),
		ClimateCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "climate_cache_lookups_total",
			Help:      "Climate cache lookups by source and result.",
		}, []string{"source", "result"}),
	}
}

// Handler serves the registry this Metrics was registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveOverpass records one Overpass query.
func (m *Metrics) ObserveOverpass(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.OverpassQueries.WithLabelValues(outcome).Inc()
	m.OverpassDuration.Observe(d.Seconds())
}

// AddExtracted counts features that survived normalization.
func (m *Metrics) AddExtracted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FeaturesExtracted.Add(float64(n))
}

// AddSkipped counts features dropped for reason.
func (m *Metrics) AddSkipped(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FeaturesSkipped.WithLabelValues(reason).Add(float64(n))
}

// AddPersisted counts inserted feature rows.
func (m *Metrics) AddPersisted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.FeaturesPersisted.Add(float64(n))
}

// ClimateResult records how a climate source was served. It is recorded once
// per request, by the outermost provider.
func (m *Metrics) ClimateResult(source, result string) {
	if m == nil {
		return
	}
	m.ClimateSources.WithLabelValues(source, result).Inc()
}

// CacheLookup records one climate cache lookup.
func (m *Metrics) CacheLookup(source string, hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.ClimateCache.WithLabelValues(source, result).Inc()
}
