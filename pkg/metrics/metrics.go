package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ErrorTotal      *prometheus.CounterVec

	// Domain metrics
	BookingsCreated      prometheus.Counter
	BookingStatusUpdates *prometheus.CounterVec
	ReviewsAdded         prometheus.Counter
	ReviewWriteConflicts prometheus.Counter
	PaymentSessions      *prometheus.CounterVec
	NotificationsSent    *prometheus.CounterVec
	AccountsDeleted      *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		ErrorTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP errors",
		}, []string{"method", "path", "type"}),

		BookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Total number of bookings created",
		}),
		BookingStatusUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_updates_total",
			Help:      "Total number of booking status changes by target status",
		}, []string{"status"}),
		ReviewsAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_added_total",
			Help:      "Total number of reviews added",
		}),
		ReviewWriteConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_write_conflicts_total",
			Help:      "Review writes retried after a concurrent update",
		}),
		PaymentSessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_sessions_total",
			Help:      "Checkout sessions by outcome",
		}, []string{"status"}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications by channel and outcome",
		}, []string{"channel", "status"}),
		AccountsDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_deleted_total",
			Help:      "Deleted accounts by role",
		}, []string{"role"}),
	}
}

// NewNop returns metrics registered on a throwaway registry.
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry(), "medibook")
}
