package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SystemMetrics is a lightweight aggregate snapshot for the ops endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SignupsTotal             uint64    `json:"signups_total"`
	CancellationsTotal       uint64    `json:"cancellations_total"`
	ReportsSubmittedTotal    uint64    `json:"reports_submitted_total"`
	RemindersDispatchedTotal uint64    `json:"reminders_dispatched_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation plus simple
// aggregates for the snapshot endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	signups         prometheus.Counter
	cancellations   prometheus.Counter
	reports         prometheus.Counter
	reminders       prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	signupCount          uint64
	cancellationCount    uint64
	reportCount          uint64
	reminderCount        uint64
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

	signups := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shift_signups_total",
		Help: "Total successful shift signups",
	})

	cancellations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shift_cancellations_total",
		Help: "Total shift signup cancellations",
	})

	reports := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reports_submitted_total",
		Help: "Total volunteer hour reports submitted",
	})

	reminders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminders_dispatched_total",
		Help: "Total shift reminders dispatched",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, signups, cancellations, reports, reminders, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		signups:         signups,
		cancellations:   cancellations,
		reports:         reports,
		reminders:       reminders,
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
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordSignup counts a successful signup.
func (m *MetricsService) RecordSignup() {
	if m == nil {
		return
	}
	m.signups.Inc()
	atomic.AddUint64(&m.signupCount, 1)
}

// RecordCancellation counts a cancelled signup.
func (m *MetricsService) RecordCancellation() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
	atomic.AddUint64(&m.cancellationCount, 1)
}

// RecordReportSubmitted counts a submitted report.
func (m *MetricsService) RecordReportSubmitted() {
	if m == nil {
		return
	}
	m.reports.Inc()
	atomic.AddUint64(&m.reportCount, 1)
}

// RecordReminderDispatched counts a dispatched reminder.
func (m *MetricsService) RecordReminderDispatched() {
	if m == nil {
		return
	}
	m.reminders.Inc()
	atomic.AddUint64(&m.reminderCount, 1)
}

// Snapshot returns aggregated metrics for the ops endpoint.
func (m *MetricsService) Snapshot() SystemMetrics {
	if m == nil {
		return SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		SignupsTotal:             atomic.LoadUint64(&m.signupCount),
		CancellationsTotal:       atomic.LoadUint64(&m.cancellationCount),
		ReportsSubmittedTotal:    atomic.LoadUint64(&m.reportCount),
		RemindersDispatchedTotal: atomic.LoadUint64(&m.reminderCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
