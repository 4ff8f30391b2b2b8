// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Stock movements committed, by reason",
	}, []string{"reason"})

	StockAdjustRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjust_rejected_total",
		Help: "Stock adjustments rejected before commit",
	}, []string{"code"})

	StockAdjustLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_adjust_latency_seconds",
		Help:    "Latency of the locked stock read-modify-write",
		Buckets: prometheus.DefBuckets,
	})

	StockDriftCorrectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_drift_corrected_total",
		Help: "Variants whose quantity was repaired from the movement history",
	})

	SlotOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_slot_operations_total",
		Help: "Availability ledger operations, by operation and outcome",
	}, []string{"op", "outcome"})

	AvailabilityReconciledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "availability_reconciled_total",
		Help: "DailyAvailability rows corrected by sync",
	})

	EventsPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_events_publish_failed_total",
		Help: "Ledger events dropped because the broker publish failed",
	}, []string{"type"})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker position: 0 closed, 1 open, 2 half-open",
	}, []string{"name"})

	BreakerTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_transitions_total",
		Help: "Circuit breaker state changes",
	}, []string{"name", "from", "to"})

	JobsDeadLetteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_dead_lettered_total",
		Help: "Background jobs moved to a dead letter queue",
	}, []string{"queue", "type"})

	JobsReplayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_replayed_total",
		Help: "Dead-lettered jobs pushed back onto their queue",
	}, []string{"queue"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
