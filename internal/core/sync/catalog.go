// Package sync implements the profile & job data synchronization engine: the
// session lifecycle, the role-dependent job projections, the multi-document
// mutation coordinators, and the unread-count tracker. All state the rest of
// the system sees is rebuilt from subscription snapshots; write results never
// patch a cached view directly.
package sync

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
)

// View-local job status for the worker feed. "applied" means a non-withdrawn
// application by this worker exists for the job.
const (
	ViewOpen    = "open"
	ViewApplied = "applied"
)

// JobView is one entry of a role projection: the job document plus the
// view-local annotation a worker's feed carries.
type JobView struct {
	domain.Job
	ViewStatus string `json:"view_status"`
}

// validateJob checks the schema expectations a job document must meet before
// entering a projection. Failures are absorbed per-document by the caller.
func validateJob(j *domain.Job) *domain.ValidationError {
	switch {
	case j.ID == "":
		return &domain.ValidationError{Collection: "jobs", DocID: j.ID, Reason: "missing id"}
	case j.OwnerProfileID == "":
		return &domain.ValidationError{Collection: "jobs", DocID: j.ID, Reason: "missing owner"}
	case j.Category == "":
		return &domain.ValidationError{Collection: "jobs", DocID: j.ID, Reason: "missing category"}
	}
	return nil
}

// sanitizeJobs drops malformed documents from a snapshot, logging each skip.
// One bad record must not break the whole projection.
func sanitizeJobs(docs []domain.Job, log zerolog.Logger) []domain.Job {
	out := make([]domain.Job, 0, len(docs))
	for i := range docs {
		if verr := validateJob(&docs[i]); verr != nil {
			log.Warn().Str("collection", verr.Collection).Str("doc_id", verr.DocID).
				Str("reason", verr.Reason).Msg("document skipped")
			continue
		}
		out = append(out, docs[i])
	}
	return out
}

// BuildWorkerFeed joins the open-job snapshot with the worker's own
// applications: every job with a non-withdrawn application by the worker is
// annotated "applied". The feed is sorted by descending creation time.
func BuildWorkerFeed(jobs []domain.Job, apps []domain.Application) []JobView {
	applied := make(map[string]bool, len(apps))
	for i := range apps {
		if apps[i].Active() {
			applied[apps[i].JobID] = true
		}
	}

	feed := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		status := ViewOpen
		if applied[j.ID] {
			status = ViewApplied
		}
		feed = append(feed, JobView{Job: j, ViewStatus: status})
	}

	sort.SliceStable(feed, func(a, b int) bool {
		return feed[a].CreatedAt.After(feed[b].CreatedAt)
	})
	return feed
}

// BuildEmployerList wraps the employer's own jobs as views. No implicit sort
// is imposed; "next upcoming" selection is a separate computation.
func BuildEmployerList(jobs []domain.Job) []JobView {
	list := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		list = append(list, JobView{Job: j, ViewStatus: string(j.Status)})
	}
	return list
}

// NextUpcoming selects the job with the earliest composed (date, start time)
// timestamp at or after now. Jobs whose schedule does not parse are excluded
// from this computation but stay listed everywhere else.
func NextUpcoming(jobs []domain.Job, now time.Time) (domain.Job, bool) {
	var best domain.Job
	var bestAt time.Time
	found := false

	for _, j := range jobs {
		at, err := j.StartsAt()
		if err != nil || at.Before(now) {
			continue
		}
		if !found || at.Before(bestAt) {
			best, bestAt, found = j, at, true
		}
	}
	return best, found
}
