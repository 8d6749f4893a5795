package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsMarked counts committed sessions by category.
	SessionsMarked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_sessions_marked_total",
		Help: "Attendance sessions committed, by category.",
	}, []string{"category"})

	// MarkFailures counts rejected markings by error kind.
	MarkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_mark_failures_total",
		Help: "Attendance markings that did not commit, by error kind.",
	}, []string{"kind"})

	// RecordsWritten counts per-student records written.
	RecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_records_written_total",
		Help: "Per-student attendance records written.",
	})

	// SwapsLogged counts swap log entries by category.
	SwapsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_swaps_logged_total",
		Help: "Swap log entries written, by session category.",
	}, []string{"category"})

	// ReportDuration observes report computation latency.
	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_report_duration_seconds",
		Help:    "Time spent building attendance reports.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report", "cache"})

	// HTTPRequests observes request latency by route and status.
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// QueueMessages counts worker messages by outcome.
	QueueMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_queue_messages_total",
		Help: "Queue messages handled by the worker, by outcome.",
	}, []string{"type", "outcome"})
)
