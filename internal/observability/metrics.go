package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	staffRequestsTotal  *prometheus.CounterVec
	staffLatencySeconds *prometheus.HistogramVec
	staffErrorsTotal    *prometheus.CounterVec
	paymentsApproved    *prometheus.CounterVec
	attemptsRecorded    *prometheus.CounterVec
	codesRedeemed       prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		staffRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staff_requests_total",
			Help: "Total number of staff API requests served.",
		}, []string{"method", "route", "status"})

		staffLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staff_latency_seconds",
			Help:    "Latency distribution for staff API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		staffErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staff_errors_total",
			Help: "Total number of error responses returned by staff endpoints.",
		}, []string{"method", "route", "status"})

		paymentsApproved = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_approvals_total",
			Help: "Payment request approvals by content kind.",
		}, []string{"kind"})

		attemptsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_attempts_total",
			Help: "Recorded assessment attempts by assessment kind.",
		}, []string{"kind"})

		codesRedeemed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "access_codes_redeemed_total",
			Help: "Successfully redeemed one-time access codes.",
		})

		prometheus.MustRegister(
			staffRequestsTotal,
			staffLatencySeconds,
			staffErrorsTotal,
			paymentsApproved,
			attemptsRecorded,
			codesRedeemed,
		)
	})
}

// StaffRequests exposes the counter for staff requests.
func StaffRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return staffRequestsTotal
}

// StaffLatency exposes the latency histogram for staff requests.
func StaffLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return staffLatencySeconds
}

// StaffErrors exposes the counter for staff error responses.
func StaffErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return staffErrorsTotal
}

// PaymentApprovals exposes the approval counter.
func PaymentApprovals() *prometheus.CounterVec {
	RegisterMetrics()
	return paymentsApproved
}

// AttemptsRecorded exposes the attempt counter.
func AttemptsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsRecorded
}

// CodesRedeemed exposes the access code redemption counter.
func CodesRedeemed() prometheus.Counter {
	RegisterMetrics()
	return codesRedeemed
}
