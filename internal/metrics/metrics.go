package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "playcafe"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		},
		[]string{"route", "code"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status changes by target status and cause.",
		},
		[]string{"status", "cause"},
	)

	sweepRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Expiry sweep passes.",
		},
	)

	sweepCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_completed_total",
			Help:      "Bookings force-completed by the expiry sweep.",
		},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_tasks_total",
			Help:      "Sheets sync tasks by outcome.",
		},
		[]string{"outcome"},
	)

	streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected booking stream clients.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, sweepRuns, sweepCompleted, syncTasks, streamClients)
	})
}

// IncHTTP increments the request counter for a route and status code class.
func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

// IncTransition counts a booking moving to status because of cause
// ("owner", "customer", "sweep").
func IncTransition(status, cause string) {
	bookingTransitions.WithLabelValues(status, cause).Inc()
}

// ObserveSweep records one sweep pass and how many bookings it completed.
func ObserveSweep(completed int) {
	sweepRuns.Inc()
	sweepCompleted.Add(float64(completed))
}

// IncSyncTask counts a sync task outcome ("completed", "retry", "failed").
func IncSyncTask(outcome string) {
	syncTasks.WithLabelValues(outcome).Inc()
}

// StreamConnected adjusts the connected stream client gauge.
func StreamConnected(delta int) {
	streamClients.Add(float64(delta))
}
