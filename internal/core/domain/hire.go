package domain

import "time"

// HireStatus represents the lifecycle state of a hire.
type HireStatus string

const (
	HireProposed  HireStatus = "proposed"
	HireConfirmed HireStatus = "confirmed"
	HireCompleted HireStatus = "completed"
	HireCancelled HireStatus = "cancelled"
)

// Hire is a confirmed engagement derived from an accepted application. It is
// created by the hiring workflow outside this engine; the engine reads hires
// and deletes them when their job is cascaded away. The Job* fields are a
// denormalized snapshot of the job at hiring time.
type Hire struct {
	ID                string     `json:"id" bson:"_id"`
	JobID             string     `json:"job_id" bson:"job_id"`
	WorkerProfileID   string     `json:"worker_profile_id" bson:"worker_profile_id"`
	EmployerProfileID string     `json:"employer_profile_id" bson:"employer_profile_id"`
	Status            HireStatus `json:"status" bson:"status"`
	JobTitle          string     `json:"job_title" bson:"job_title"`
	JobDate           string     `json:"job_date" bson:"job_date"`
	JobTime           string     `json:"job_time" bson:"job_time"`
	LocationText      string     `json:"location_text" bson:"location_text"`
	Pay               float64    `json:"pay" bson:"pay"`
	UpdatedAt         time.Time  `json:"updated_at" bson:"updated_at"`
}
