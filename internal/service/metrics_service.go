package service

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/turmas-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	ledgerTotal     *prometheus.CounterVec
	ledgerDuration  *prometheus.HistogramVec
	corruptDocs     *prometheus.CounterVec

	requestCount        uint64
	requestDurationSum  uint64
	ledgerCount         uint64
	ledgerFailureCount  uint64
	ledgerDurationTotal uint64

	corruptMu     sync.Mutex
	corruptCounts map[string]uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	ledgerTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Class section mutations by operation and result",
	}, []string{"operation", "result"})

	ledgerDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Time spent queued and running class section mutations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	corruptDocs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_corrupt_documents_total",
		Help: "Stored documents that could not be decoded and were read as empty",
	}, []string{"key"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, ledgerTotal, ledgerDuration, corruptDocs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		ledgerTotal:     ledgerTotal,
		ledgerDuration:  ledgerDuration,
		corruptDocs:     corruptDocs,
		corruptCounts:   map[string]uint64{},
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationSum, uint64(duration.Nanoseconds()))
}

// ObserveLedgerOperation records the outcome of a section mutation.
func (m *MetricsService) ObserveLedgerOperation(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ledgerTotal.WithLabelValues(operation, result).Inc()
	m.ledgerDuration.WithLabelValues(operation).Observe(duration.Seconds())
	atomic.AddUint64(&m.ledgerCount, 1)
	atomic.AddUint64(&m.ledgerDurationTotal, uint64(duration.Nanoseconds()))
	if result != "ok" {
		atomic.AddUint64(&m.ledgerFailureCount, 1)
	}
}

// RecordCorruptDocument counts a stored document that failed to decode.
func (m *MetricsService) RecordCorruptDocument(key string) {
	if m == nil {
		return
	}
	m.corruptDocs.WithLabelValues(documentLabel(key)).Inc()
	m.corruptMu.Lock()
	m.corruptCounts[key]++
	m.corruptMu.Unlock()
}

// documentLabel folds per-user keys so label cardinality stays bounded.
func documentLabel(key string) string {
	prefix, _, _ := strings.Cut(key, ":")
	return prefix
}

// Snapshot returns aggregated metrics suitable for the admin panel.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{CorruptDocuments: map[string]uint64{}}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationSum)
	ledgerOps := atomic.LoadUint64(&m.ledgerCount)
	ledgerDuration := atomic.LoadUint64(&m.ledgerDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgLedgerMs float64
	if ledgerOps > 0 {
		avgLedgerMs = float64(ledgerDuration) / float64(ledgerOps) / float64(time.Millisecond)
	}

	m.corruptMu.Lock()
	corrupt := make(map[string]uint64, len(m.corruptCounts))
	for k, v := range m.corruptCounts {
		corrupt[k] = v
	}
	m.corruptMu.Unlock()

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		LedgerOperations:         ledgerOps,
		LedgerFailures:           atomic.LoadUint64(&m.ledgerFailureCount),
		AverageLedgerDurationMs:  avgLedgerMs,
		CorruptDocuments:         corrupt,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
