package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/willerob90/SubGames-Working/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func gatherNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestMetricsRegistration(t *testing.T) {
	Convey("Given the scoring metrics", t, func() {
		Convey("When the service records activity", func() {
			metrics.RecordSessionIssued()
			metrics.RecordSessionsSwept(3)
			metrics.RecordResultCommitted()
			metrics.RecordResultRejected("too_fast")
			metrics.RecordPointsAwarded(3)
			metrics.RecordLedgerTxSeconds(0.004)
			metrics.RecordCycleSettled()
			metrics.RecordPityIssued(2)
			metrics.RecordPityRedeemed()
			metrics.RecordRateLimited("session_start")
			metrics.UpdateQueueDepth(1)
			metrics.RecordQueueDropped()
			metrics.RecordHTTPRequest("sessions", "POST", "201", 0.01)

			Convey("Then every family is gatherable under the subgames namespace", func() {
				names := gatherNames(t)
				for _, want := range []string{
					"subgames_sessions_issued_total",
					"subgames_sessions_swept_total",
					"subgames_results_committed_total",
					"subgames_results_rejected_total",
					"subgames_points_awarded_total",
					"subgames_ledger_tx_duration_seconds",
					"subgames_cycles_settled_total",
					"subgames_pity_eligibility_issued_total",
					"subgames_pity_points_redeemed_total",
					"subgames_rate_limited_total",
					"subgames_winner_queue_depth",
					"subgames_winner_queue_dropped_total",
					"subgames_http_requests_total",
					"subgames_http_request_duration_seconds",
				} {
					So(names[want], ShouldBeTrue)
				}
			})
		})
	})
}
