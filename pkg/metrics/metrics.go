package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reservations_total",
		Help: "Reservation attempts by outcome",
	}, []string{"result"})

	BookingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_status_transitions_total",
		Help: "Applied booking status transitions",
	}, []string{"to"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_webhook_events_total",
		Help: "Payment provider webhook deliveries by type and outcome",
	}, []string{"type", "result"})

	CompensatingRefundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_compensating_refunds_total",
		Help: "Refunds issued for checkouts paid on closed or already paid bookings",
	}, []string{"reason"})

	TripsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_trips_generated_total",
		Help: "Trips created by the inventory generator",
	})

	SchedulerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_job_runs_total",
		Help: "Scheduler job runs by job name and outcome",
	}, []string{"job", "result"})

	PanicsRecoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "http_panics_recovered_total",
		Help: "Handler panics turned into 500 responses",
	})

	NotificationErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_publish_errors_total",
		Help: "Messages that could not be published to the broker",
	})
)
