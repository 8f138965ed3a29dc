package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clubly"

var (
	once sync.Once

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Clubly backend requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of Clubly backend requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking submissions by type and result.",
		},
		[]string{"type", "result"},
	)

	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Chat messages sent by result.",
		},
		[]string{"result"},
	)

	updateProcessing = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "telegram_update_processing_seconds",
			Help:      "Time spent processing Telegram updates.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	updateErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_update_errors_total",
			Help:      "Telegram updates that failed, by reason.",
		},
		[]string{"reason"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Telegram users with an authenticated Clubly session.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(backendRequests, backendDuration, bookings, messagesSent, updateProcessing, updateErrors, activeSessions)
	})
}

// ObserveBackend records one backend call. status is 0 for transport failures.
func ObserveBackend(endpoint string, status int, took time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	backendRequests.WithLabelValues(endpoint, label).Inc()
	backendDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

func IncBooking(bookingType, result string) {
	bookings.WithLabelValues(bookingType, result).Inc()
}

func IncMessageSent(result string) {
	messagesSent.WithLabelValues(result).Inc()
}

func ObserveUpdate(kind string, took time.Duration) {
	updateProcessing.WithLabelValues(kind).Observe(took.Seconds())
}

// IncUpdateError counts an update dropped by a panic or the rate limiter.
func IncUpdateError(reason string) {
	updateErrors.WithLabelValues(reason).Inc()
}

func SessionOpened() { activeSessions.Inc() }

func SessionClosed() { activeSessions.Dec() }
