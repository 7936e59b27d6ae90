package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stages timed by ObserveStage.
const (
	StageAcquire   = "acquire"
	StageNormalize = "normalize"
	StageExtract   = "extract"
	StageCatalog   = "catalog"
	StageMatch     = "match"
)

// Manager owns the collectors. A nil Manager records nothing, so callers
// that do not care about metrics can pass nil.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	requests           *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	facesDetected      prometheus.Histogram
	galleryRecords     prometheus.Histogram
	matchesReturned    prometheus.Histogram
	comparisonsSkipped prometheus.Counter
}

// NewManager creates collectors on a private registry unless WithRegistry is
// given. Go runtime and process collectors are included.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "selfiematch",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.requests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "match_requests_total",
		Help:      "Match requests by entry point and response status code",
	}, []string{"source", "status"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.facesDetected = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "faces_detected",
		Help:      "Faces detected per submitted image",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
	})

	m.galleryRecords = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "gallery_records",
		Help:      "Catalog records loaded per request",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.matchesReturned = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "matches_returned",
		Help:      "Matched photos per request",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	m.comparisonsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "comparisons_skipped_total",
		Help:      "Face comparisons skipped because an embedding was unusable",
	})
}

func (m *Manager) active() bool {
	return m != nil && m.enabled
}

// RecordRequest counts a finished request.
func (m *Manager) RecordRequest(source string, statusCode int) {
	if !m.active() {
		return
	}
	m.requests.WithLabelValues(source, strconv.Itoa(statusCode)).Inc()
}

// ObserveStage records how long a pipeline stage took.
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	if !m.active() {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordMatch records the sizes involved in one match.
func (m *Manager) RecordMatch(faces, records, matches, skipped int) {
	if !m.active() {
		return
	}
	m.facesDetected.Observe(float64(faces))
	m.galleryRecords.Observe(float64(records))
	m.matchesReturned.Observe(float64(matches))
	m.comparisonsSkipped.Add(float64(skipped))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}
