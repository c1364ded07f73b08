// Package metrics records per-run Prometheus metrics for snapshot builds and
// exports them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the metrics of one process. Each Manager has its own
// registry so nothing leaks into the default Go collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Upstream
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec

	// Pipeline
	factRows      *prometheus.CounterVec
	droppedRows   *prometheus.CounterVec
	rowsWritten   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	lastSuccess   *prometheus.GaugeVec
	runFailures   *prometheus.CounterVec
}

// NewManager creates a metrics manager on a fresh registry unless
// WithRegistry says otherwise.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gplus",
		subsystem:        "snapshot",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

// Nop returns a manager that records nothing.
func Nop() *Manager {
	return NewManager(WithMetricsEnabled(false))
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.requests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_requests_total",
		Help:      "Upstream API requests by endpoint and status code",
	}, []string{"endpoint", "status_code"})

	m.requestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream API request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint"})

	m.retries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_retries_total",
		Help:      "Upstream API retries by endpoint",
	}, []string{"endpoint"})

	m.factRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fact_rows_total",
		Help:      "Flattened fact rows by competition and kind",
	}, []string{"competition", "kind"})

	m.droppedRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dropped_rows_total",
		Help:      "Fact rows dropped for missing ids or minutes",
	}, []string{"competition", "kind"})

	m.rowsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_written_total",
		Help:      "Snapshot rows written by competition and table",
	}, []string{"competition", "table"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_seconds",
		Help:      "Pipeline stage duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"competition", "stage"})

	m.lastSuccess = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run per competition",
	}, []string{"competition"})

	m.runFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_failures_total",
		Help:      "Failed runs per competition",
	}, []string{"competition"})
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one upstream request. A code of 0 means the
// request failed before a response arrived.
func (m *Manager) ObserveRequest(endpoint string, code int, d time.Duration) {
	if !m.enabled {
		return
	}
	m.requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveRetry records a retried upstream request.
func (m *Manager) ObserveRetry(endpoint string) {
	if !m.enabled {
		return
	}
	m.retries.WithLabelValues(endpoint).Inc()
}

// AddFactRows records flattened and dropped fact rows.
func (m *Manager) AddFactRows(competition, kind string, kept, dropped int) {
	if !m.enabled {
		return
	}
	m.factRows.WithLabelValues(competition, kind).Add(float64(kept))
	m.droppedRows.WithLabelValues(competition, kind).Add(float64(dropped))
}

// AddRowsWritten records rows written to a snapshot table.
func (m *Manager) AddRowsWritten(competition, table string, n int) {
	if !m.enabled {
		return
	}
	m.rowsWritten.WithLabelValues(competition, table).Add(float64(n))
}

// ObserveStage records how long a pipeline stage took.
func (m *Manager) ObserveStage(competition, stage string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.stageDuration.WithLabelValues(competition, stage).Observe(d.Seconds())
}

// RunFinished records the outcome of a competition run.
func (m *Manager) RunFinished(competition string, at time.Time, err error) {
	if !m.enabled {
		return
	}
	if err != nil {
		m.runFailures.WithLabelValues(competition).Inc()
		return
	}
	m.lastSuccess.WithLabelValues(competition).Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTextfile, err)
	}
	return nil
}
