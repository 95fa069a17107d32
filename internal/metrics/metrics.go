package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Booking outcome labels.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Bookings        *prometheus.CounterVec
	BookingDuration prometheus.Histogram
	RoomsPromoted   prometheus.Counter
	PushSent        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotel_desk",
			Name:      "bookings_total",
			Help:      "Booking submissions by type and outcome.",
		}, []string{"type", "outcome"}),
		BookingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hotel_desk",
			Name:      "booking_duration_seconds",
			Help:      "Time spent creating a booking, including the transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
		RoomsPromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hotel_desk",
			Name:      "rooms_promoted_total",
			Help:      "Reserved rooms marked occupied by the sweeper.",
		}),
		PushSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotel_desk",
			Name:      "push_notifications_total",
			Help:      "Web push deliveries by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Bookings, m.BookingDuration, m.RoomsPromoted, m.PushSent)
	return m
}

// ObserveBooking records one booking attempt.
func (m *Metrics) ObserveBooking(bookingType, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Bookings.WithLabelValues(bookingType, outcome).Inc()
	m.BookingDuration.Observe(took.Seconds())
}

func (m *Metrics) AddPromoted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RoomsPromoted.Add(float64(n))
}

func (m *Metrics) PushResult(result string) {
	if m == nil {
		return
	}
	m.PushSent.WithLabelValues(result).Inc()
}
