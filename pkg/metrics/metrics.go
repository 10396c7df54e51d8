// Package metrics exposes Prometheus metrics for the SubGames scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session lifecycle.
	sessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "sessions_issued_total",
		Help:      "Game sessions issued.",
	})
	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "sessions_swept_total",
		Help:      "Expired unused sessions removed by the cleanup job.",
	})

	// Point ledger.
	resultsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "results_committed_total",
		Help:      "Game results that passed validation and committed points.",
	})
	resultsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "results_rejected_total",
		Help:      "Game results rejected during validation, by reason.",
	}, []string{"reason"})
	pointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "points_awarded_total",
		Help:      "Points credited to creators through the ledger.",
	})
	ledgerTxSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "subgames",
		Name:      "ledger_tx_duration_seconds",
		Help:      "Duration of ledger commit transactions.",
		Buckets:   prometheus.DefBuckets,
	})

	// Cycle settlement and pity flow.
	cyclesSettled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "cycles_settled_total",
		Help:      "Cycles settled with a winner record written.",
	})
	pityIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "pity_eligibility_issued_total",
		Help:      "Pity eligibility records written by the issuer.",
	})
	pityRedeemed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "pity_points_redeemed_total",
		Help:      "Pity points redeemed into a live cycle.",
	})

	// Abuse deterrence.
	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter, by action.",
	}, []string{"action"})

	// Winner event queue.
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "subgames",
		Name:      "winner_queue_depth",
		Help:      "Pending winner events awaiting pity fan-out.",
	})
	queueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "winner_queue_dropped_total",
		Help:      "Winner events rejected by a full or closed queue.",
	})

	// HTTP surface.
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subgames",
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "subgames",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

func RecordSessionIssued() { sessionsIssued.Inc() }

func RecordSessionsSwept(n int64) { sessionsSwept.Add(float64(n)) }

func RecordResultCommitted() { resultsCommitted.Inc() }

func RecordResultRejected(r string) { resultsRejected.WithLabelValues(r).Inc() }

func RecordPointsAwarded(n int) { pointsAwarded.Add(float64(n)) }

func RecordLedgerTxSeconds(s float64) { ledgerTxSeconds.Observe(s) }

func RecordCycleSettled() { cyclesSettled.Inc() }

func RecordPityIssued(n int64) { pityIssued.Add(float64(n)) }

func RecordPityRedeemed() { pityRedeemed.Inc() }

func RecordRateLimited(a string) { rateLimited.WithLabelValues(a).Inc() }

func UpdateQueueDepth(n int) { queueDepth.Set(float64(n)) }

func RecordQueueDropped() { queueDropped.Inc() }

func RecordHTTPRequest(endpoint, method, status string, seconds float64) {
	httpRequests.WithLabelValues(endpoint, method, status).Inc()
	httpDuration.WithLabelValues(endpoint).Observe(seconds)
}
