// Package metrics provides Prometheus metrics for compsync pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the "result" label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Manager owns every pipeline metric. A disabled manager records nothing.
type Manager struct {
	namespace        string
	enabled          bool
	histogramBuckets []float64
	registry         *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	stageFailures    *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	sinkErrors       *prometheus.CounterVec
	lastSuccessUnix  prometheus.Gauge
	lastAvgPlacement *prometheus.GaugeVec
	lastSampleSize   *prometheus.GaugeVec
}

// NewManager creates a new metrics manager with its own registry by default.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "compsync",
		enabled:          true,
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "pipeline_runs_total",
		Help:      "Pipeline runs by result.",
	}, []string{"result"})

	m.stageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "stage_failures_total",
		Help:      "Pipeline failures by stage and kind.",
	}, []string{"stage", "kind"})

	m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage.",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.sinkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sink_errors_total",
		Help:      "Failed optional record publications by sink.",
	}, []string{"sink"})

	m.lastSuccessUnix = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run.",
	})

	m.lastAvgPlacement = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "comp_avg_placement",
		Help:      "Average placement from the last successful run.",
	}, []string{"comp_id"})

	m.lastSampleSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "comp_sample_size",
		Help:      "Sample size from the last successful run.",
	}, []string{"comp_id"})

	if !m.enabled {
		return
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.stageFailures,
		m.stageDuration,
		m.sinkErrors,
		m.lastSuccessUnix,
		m.lastAvgPlacement,
		m.lastSampleSize,
	)
}

// Enabled reports whether metrics are collected.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// ObserveStage records how long a stage took.
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordFailure counts a failed run.
func (m *Manager) RecordFailure(stage, kind string) {
	if !m.enabled {
		return
	}
	m.runsTotal.WithLabelValues(ResultFailure).Inc()
	m.stageFailures.WithLabelValues(stage, kind).Inc()
}

// RecordSuccess counts a successful run and exports the comp's headline numbers.
func (m *Manager) RecordSuccess(compID string, avgPlacement float64, sampleSize int64) {
	if !m.enabled {
		return
	}
	m.runsTotal.WithLabelValues(ResultSuccess).Inc()
	m.lastSuccessUnix.SetToCurrentTime()
	m.lastAvgPlacement.WithLabelValues(compID).Set(avgPlacement)
	m.lastSampleSize.WithLabelValues(compID).Set(float64(sampleSize))
}

// RecordSinkError counts a failed optional publication.
func (m *Manager) RecordSinkError(sink string) {
	if !m.enabled {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}

// Handler serves the manager's registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
