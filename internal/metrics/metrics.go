package metrics

import (
	"sync"

	"payandpark/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "payandpark"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		},
	)

	bookingsEnded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_ended_total",
			Help:      "Bookings ended.",
		},
	)

	revenue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Sum of prices charged for ended bookings.",
		},
	)

	parkingSlots = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "parking_slots",
			Help:      "Parking slots by status at the last occupancy snapshot.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingsEnded, revenue, parkingSlots)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string, code int) {
	httpRequests.WithLabelValues(endpoint, formatCode(code)).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

// ObserveBookingEnded counts an ended booking and adds its price to revenue.
func ObserveBookingEnded(price int64) {
	bookingsEnded.Inc()
	if price > 0 {
		revenue.Add(float64(price))
	}
}

// SetSlotCounts overwrites the occupancy gauges. Statuses missing from counts are reset to zero.
func SetSlotCounts(counts map[models.SlotStatus]int) {
	for _, s := range models.SlotStatuses {
		parkingSlots.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

func formatCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
