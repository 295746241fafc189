package domain

import "time"

// ApplicationStatus represents the lifecycle state of a job application.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApplied   ApplicationStatus = "applied"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// Application is a worker's request to be considered for a job.
// Invariant: at most one non-withdrawn application per (JobID, WorkerID) pair.
type Application struct {
	ID          string            `json:"id" bson:"_id"`
	JobID       string            `json:"job_id" bson:"job_id"`
	WorkerID    string            `json:"worker_id" bson:"worker_id"`
	CoverLetter string            `json:"cover_letter,omitempty" bson:"cover_letter,omitempty"`
	Status      ApplicationStatus `json:"status" bson:"status"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
}

// Active reports whether the application still counts toward the
// one-active-application invariant.
func (a *Application) Active() bool {
	return a.Status != ApplicationWithdrawn
}
