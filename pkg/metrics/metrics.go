package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduler metrics
	RemindersScheduled *prometheus.CounterVec
	RemindersCanceled  prometheus.Counter
	ScheduleFailures   *prometheus.CounterVec
	ActiveHandles      prometheus.Gauge

	// Dispatcher metrics
	RemindersDelivered *prometheus.CounterVec
	DeliveryFailures   *prometheus.CounterVec
	DeliveryLatency    prometheus.Histogram
	DispatchRetries    prometheus.Counter

	// Remote API metrics
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics on reg.
// A nil registerer falls back to the default prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RemindersScheduled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Total number of reminder registrations by frequency",
		}, []string{"frequency"}),
		RemindersCanceled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_canceled_total",
			Help:      "Total number of canceled reminder registrations",
		}),
		ScheduleFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_schedule_failures_total",
			Help:      "Medications that could not be scheduled",
		}, []string{"reason"}),
		ActiveHandles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminder_active_handles",
			Help:      "Current number of registered reminder handles across patients",
		}),

		RemindersDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_delivered_total",
			Help:      "Total number of delivered reminders by channel",
		}, []string{"channel"}),
		DeliveryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_delivery_failures_total",
			Help:      "Total number of failed reminder deliveries by channel",
		}, []string{"channel"}),
		DeliveryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_delivery_lag_seconds",
			Help:      "Time between a reminder's due instant and its delivery",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		DispatchRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_dispatch_retries_total",
			Help:      "Total number of publish retry attempts",
		}),

		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_api_requests_total",
			Help:      "Requests issued to the remote healthcare API",
		}, []string{"endpoint", "status"}),
		APILatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_api_request_duration_seconds",
			Help:      "Duration of remote healthcare API requests",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}

// NewTestMetrics registers metrics on a private registry.
func NewTestMetrics() *Metrics {
	return NewMetrics("test", prometheus.NewRegistry())
}
