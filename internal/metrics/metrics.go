// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking outcomes.
const (
	OutcomeBooked        = "booked"
	OutcomeAlreadyBooked = "already_booked"
	OutcomeNotFound      = "not_found"
	OutcomeRejected      = "rejected"
	OutcomeError         = "error"
)

// Notification results.
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the collectors shared by the service and HTTP layers.
type Metrics struct {
	BookingsTotal      *prometheus.CounterVec
	SpotsListedTotal   prometheus.Counter
	ListingsCancelled  prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
	OpenSessions       prometheus.Gauge
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers the collectors on the default registry once per process
// and returns the shared instance.
//
// Metrics:
//   - parking_bookings_total{outcome}
//   - parking_spots_listed_total
//   - parking_listings_cancelled_total
//   - parking_notifications_total{result}
//   - parking_listing_sessions_open
//   - parking_http_requests_total{method,route,status}
//   - parking_http_request_duration_seconds{method,route}
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			BookingsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "parking_bookings_total",
					Help: "Booking attempts by outcome",
				},
				[]string{"outcome"},
			),
			SpotsListedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "parking_spots_listed_total",
				Help: "Spots created through the listing form",
			}),
			ListingsCancelled: promauto.NewCounter(prometheus.CounterOpts{
				Name: "parking_listings_cancelled_total",
				Help: "Listing forms cancelled by the user",
			}),
			NotificationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "parking_notifications_total",
					Help: "Owner notifications by dispatch result",
				},
				[]string{"result"},
			),
			OpenSessions: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "parking_listing_sessions_open",
				Help: "Listing forms currently in progress",
			}),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "parking_http_requests_total",
					Help: "HTTP requests by route and status",
				},
				[]string{"method", "route", "status"},
			),
			HTTPDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "parking_http_request_duration_seconds",
					Help:    "HTTP request latency",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}
	})
	return globalMetrics
}
