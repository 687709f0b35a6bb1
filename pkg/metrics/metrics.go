package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coach_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// 课次生成
	SessionsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_sessions_generated_total",
			Help: "Total number of batch sessions produced by the generator, by mode",
		},
		[]string{"mode"},
	)

	SessionShortfalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_session_shortfalls_total",
			Help: "Generator runs that produced fewer sessions than requested",
		},
	)

	SessionRegenerations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_session_regenerations_total",
			Help: "Total number of destructive session regenerations",
		},
	)

	RescheduleConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_reschedule_conflicts_total",
			Help: "Reschedule requests rejected because of an overlapping session",
		},
	)

	SessionsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_sessions_swept_total",
			Help: "Scheduled sessions moved to completed by the sweeper",
		},
	)

	// 考勤
	AttendanceMarked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_attendance_marked_total",
			Help: "Attendance marks by person type and status",
		},
		[]string{"person_type", "status"},
	)

	AttendanceMaterialized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_attendance_materialized_total",
			Help: "Not-marked attendance rows requested for lazy insertion, by person type",
		},
		[]string{"person_type"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(SessionsGenerated)
	prometheus.MustRegister(SessionShortfalls)
	prometheus.MustRegister(SessionRegenerations)
	prometheus.MustRegister(RescheduleConflicts)
	prometheus.MustRegister(SessionsSwept)
	prometheus.MustRegister(AttendanceMarked)
	prometheus.MustRegister(AttendanceMaterialized)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
