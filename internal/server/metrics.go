package server

import (
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains Prometheus metrics for tool execution.
type Metrics struct {
	registry *prometheus.Registry

	toolCallsTotal    *prometheus.CounterVec
	toolCallDuration  *prometheus.HistogramVec
	keypointsDetected prometheus.Histogram
	matchesFound      prometheus.Histogram
	featureSets       prometheus.Gauge
}

// NewMetrics creates the tool metrics and registers them on registry.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siftkit_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"}, // status: success, error
	)

	m.toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siftkit_tool_call_duration_seconds",
			Help:    "Time taken to execute MCP tool calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	m.keypointsDetected = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "siftkit_keypoints_detected",
			Help:    "Number of keypoints per detection",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 .. 16384
		},
	)

	m.matchesFound = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "siftkit_matches_found",
			Help:    "Number of accepted matches per match call",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	m.featureSets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "siftkit_feature_sets",
			Help: "Number of feature sets currently stored",
		},
	)
}

func (m *Metrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.toolCallsTotal,
		m.toolCallDuration,
		m.keypointsDetected,
		m.matchesFound,
		m.featureSets,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// RecordToolCall records one tool execution.
func (m *Metrics) RecordToolCall(tool, status string, seconds float64) {
	m.toolCallsTotal.WithLabelValues(tool, status).Inc()
	m.toolCallDuration.WithLabelValues(tool).Observe(seconds)
}

// RecordKeypoints records the size of a detected feature set.
func (m *Metrics) RecordKeypoints(n int) {
	m.keypointsDetected.Observe(float64(n))
}

// RecordMatches records the number of matches returned by one call.
func (m *Metrics) RecordMatches(n int) {
	m.matchesFound.Observe(float64(n))
}

// SetFeatureSets records the current number of stored feature sets.
func (m *Metrics) SetFeatureSets(n int) {
	m.featureSets.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
