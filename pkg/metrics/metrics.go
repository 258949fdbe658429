package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tutors"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	Bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "bookings_total", Help: "Booking attempts by outcome (booked, duplicate, not_found)."},
		[]string{"result"},
	)
	Reviews = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "reviews_total", Help: "Number of review increments applied."},
	)
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "auth_failures_total", Help: "Rejected bearer tokens by reason."},
		[]string{"reason"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route", "status"},
	)
)

// Booking outcomes.
const (
	BookingBooked    = "booked"
	BookingDuplicate = "duplicate"
	BookingNotFound  = "not_found"
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Bookings)
	reg.MustRegister(Reviews)
	reg.MustRegister(AuthFailures)
	reg.MustRegister(RequestDuration)
}
