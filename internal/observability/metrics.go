package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activitiesRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estate_crm",
		Subsystem: "activity",
		Name:      "recorded_total",
		Help:      "Number of activities appended to the activity log, by action.",
	}, []string{"action"})

	activityFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estate_crm",
		Subsystem: "activity",
		Name:      "record_failures_total",
		Help:      "Number of activities that were rejected or dropped, by reason.",
	}, []string{"reason"})

	engagementRecomputes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estate_crm",
		Subsystem: "engagement",
		Name:      "recomputes_total",
		Help:      "Number of engagement snapshot recomputations, by outcome.",
	}, []string{"outcome"})

	milestonesAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estate_crm",
		Subsystem: "milestone",
		Name:      "awarded_total",
		Help:      "Number of milestone flags created, by milestone.",
	}, []string{"milestone"})

	milestonePublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "estate_crm",
		Subsystem: "milestone",
		Name:      "publish_failures_total",
		Help:      "Number of milestone notifications that could not be delivered.",
	})

	statsCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estate_crm",
		Subsystem: "stats_cache",
		Name:      "requests_total",
		Help:      "Agent statistics cache lookups, by result (hit, miss, forced, stale_fallback).",
	}, []string{"result"})

	sweepRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estate_crm",
		Subsystem: "sweep",
		Name:      "runs_total",
		Help:      "Engagement sweep runs, by outcome.",
	}, []string{"outcome"})

	sweepLastCompleted = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "estate_crm",
		Subsystem: "sweep",
		Name:      "last_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed engagement sweep.",
	})
)

func init() {
	prometheus.MustRegister(
		activitiesRecorded,
		activityFailures,
		engagementRecomputes,
		milestonesAwarded,
		milestonePublishFailures,
		statsCacheRequests,
		sweepRuns,
		sweepLastCompleted,
	)
}

func RecordActivity(action string) {
	activitiesRecorded.WithLabelValues(action).Inc()
}

// RecordActivityFailure counts a dropped activity. reason is "validation" or "storage".
func RecordActivityFailure(reason string) {
	activityFailures.WithLabelValues(reason).Inc()
}

func RecordRecompute(err error) {
	if err != nil {
		engagementRecomputes.WithLabelValues("error").Inc()
		return
	}
	engagementRecomputes.WithLabelValues("ok").Inc()
}

func RecordMilestoneAwarded(name string) {
	milestonesAwarded.WithLabelValues(name).Inc()
}

func RecordMilestonePublishFailure() {
	milestonePublishFailures.Inc()
}

func RecordStatsCache(result string) {
	statsCacheRequests.WithLabelValues(result).Inc()
}

// RecordSweep counts a sweep run. outcome is "completed", "skipped" or "failed".
func RecordSweep(outcome string, ts time.Time) {
	sweepRuns.WithLabelValues(outcome).Inc()
	if outcome == "completed" && !ts.IsZero() {
		sweepLastCompleted.Set(float64(ts.Unix()))
	}
}
