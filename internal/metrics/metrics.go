package metrics

import (
    "strconv"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
)

const namespace = "coffee_reservation"

var (
    once sync.Once

    bookingsCreated = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "bookings_created_total",
            Help:      "Count of bookings created by table type.",
        },
        []string{"table_type"},
    )

    bookingsRejected = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "booking_rejected_total",
            Help:      "Count of booking attempts rejected by reason.",
        },
        []string{"reason"},
    )

    bookingsCancelled = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "bookings_cancelled_total",
            Help:      "Count of bookings cancelled, by owner or admin.",
        },
        []string{"by"},
    )

    lockWait = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: namespace,
            Name:      "booking_lock_wait_seconds",
            Help:      "Time spent waiting for the per-table-type booking lock.",
            Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
        },
    )

    httpRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "http_requests_total",
            Help:      "Count of HTTP requests by method, route and status.",
        },
        []string{"method", "route", "status"},
    )
)

// Register registers metrics (idempotent).
func Register() {
    once.Do(func() {
        prometheus.MustRegister(bookingsCreated, bookingsRejected, bookingsCancelled, lockWait, httpRequests)
    })
}

func IncBookingCreated(tableType string) {
    bookingsCreated.WithLabelValues(tableType).Inc()
}

func IncBookingRejected(reason string) {
    bookingsRejected.WithLabelValues(reason).Inc()
}

func IncBookingCancelled(by string) {
    bookingsCancelled.WithLabelValues(by).Inc()
}

func ObserveLockWait(d time.Duration) {
    lockWait.Observe(d.Seconds())
}

func ObserveHTTP(method, route string, status int) {
    httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
