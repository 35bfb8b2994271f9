package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the compliance
// pipeline and the HTTP surface.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	evaluationsTotal   *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec
	dispatchFailures   prometheus.Counter
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

	evaluationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sap_evaluation_duration_seconds",
		Help:    "Duration of SAP evaluation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	evaluationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sap_evaluations_total",
		Help: "Total SAP evaluations by result",
	}, []string{"result"})

	transitionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sap_status_transitions_total",
		Help: "Total SAP status transitions by edge",
	}, []string{"from", "to"})

	dispatchFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sap_dispatch_failures_total",
		Help: "Total failed notification or audit dispatch attempts",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, evaluationDuration, evaluationsTotal, transitionsTotal, dispatchFailures, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		evaluationDuration: evaluationDuration,
		evaluationsTotal:   evaluationsTotal,
		transitionsTotal:   transitionsTotal,
		dispatchFailures:   dispatchFailures,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveEvaluation records one evaluation run with its outcome
// (pass, fail or error).
func (m *MetricsService) ObserveEvaluation(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.evaluationDuration.WithLabelValues(result).Observe(duration.Seconds())
	m.evaluationsTotal.WithLabelValues(result).Inc()
}

// RecordTransition counts a status machine edge.
func (m *MetricsService) RecordTransition(from, to models.SAPStatus) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

// RecordDispatchFailure counts a failed best-effort dispatch.
func (m *MetricsService) RecordDispatchFailure() {
	if m == nil {
		return
	}
	m.dispatchFailures.Inc()
}
