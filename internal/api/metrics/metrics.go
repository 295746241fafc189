// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry at package init via
// promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Session metrics ───────────────────────────────────────────────────────────

// RegisterSessionGauge exposes the live-session count as a gauge sampled on
// scrape. Call once at startup with the session manager's counter.
func RegisterSessionGauge(count func() int) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of profiles currently holding an open sync session.",
		},
		func() float64 { return float64(count()) },
	)
}

// SessionUpdatesTotal counts engine updates pushed out over the stream endpoint.
// Label:
//   - kind: "profile", "jobs", or "unread"
var SessionUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_updates_total",
		Help:      "Total number of session updates delivered to stream clients.",
	},
	[]string{"kind"},
)

// ── Job metrics ───────────────────────────────────────────────────────────────

// JobsCreatedTotal counts newly posted jobs.
// Label:
//   - category: the job category (e.g. "cleaning", "other")
var JobsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_created_total",
		Help:      "Total number of jobs posted, by category.",
	},
	[]string{"category"},
)

// ApplicationsSubmittedTotal counts worker applications that completed both
// writes (application document plus applicant registration).
var ApplicationsSubmittedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_submitted_total",
		Help:      "Total number of job applications successfully submitted.",
	},
)

// ApplicationErrorsTotal counts applications that were rejected or failed.
// Label:
//   - reason: short description of the failure (e.g. "in_flight", "write_failed")
var ApplicationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "application_errors_total",
		Help:      "Total number of job applications that were rejected or failed.",
	},
	[]string{"reason"},
)

// ── Cascade metrics ───────────────────────────────────────────────────────────

// CascadeDeletesTotal counts cascading job deletions by outcome.
// Label:
//   - result: "completed" or "partial"
var CascadeDeletesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_deletes_total",
		Help:      "Total number of cascading job deletions, by outcome.",
	},
	[]string{"result"},
)

// CascadeDuration measures how long a full cascading delete takes.
var CascadeDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cascade_duration_seconds",
		Help:      "Duration of cascading job deletions from first step to last.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// ── Chat metrics ──────────────────────────────────────────────────────────────

// ConversationsResolvedTotal counts conversation resolutions.
// Label:
//   - result: "existing" (found) or "created" (new document)
var ConversationsResolvedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversations_resolved_total",
		Help:      "Total number of conversation resolutions, labelled by result.",
	},
	[]string{"result"},
)
