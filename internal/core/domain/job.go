package domain

import (
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of a job posting.
type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobFilled JobStatus = "filled"
)

// CategoryOther is the sentinel category: jobs posted under it carry their
// real label in CategoryDetail, and every listing surface must render the
// detail text in place of the category.
const CategoryOther = "other"

const (
	jobDateLayout = "2006-01-02"
	jobTimeLayout = "15:04"
)

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Job is a posted engagement: schedule, location, pay, and the set of workers
// who applied. Owned by the employer profile that posted it.
type Job struct {
	ID             string       `json:"id" bson:"_id"`
	OwnerProfileID string       `json:"owner_profile_id" bson:"owner_profile_id"`
	Category       string       `json:"category" bson:"category"`
	CategoryDetail string       `json:"category_detail,omitempty" bson:"category_detail,omitempty"`
	Date           string       `json:"date" bson:"date"`             // 2006-01-02
	StartTime      string       `json:"start_time" bson:"start_time"` // 15:04
	EndTime        string       `json:"end_time" bson:"end_time"`
	Address        string       `json:"address" bson:"address"`
	HourlyRate     float64      `json:"hourly_rate" bson:"hourly_rate"`
	Description    string       `json:"description,omitempty" bson:"description,omitempty"`
	Location       *Coordinates `json:"location,omitempty" bson:"location,omitempty"` // optional
	Applicants     []string     `json:"applicants" bson:"applicants"`
	Status         JobStatus    `json:"status" bson:"status"`
	CreatedAt      time.Time    `json:"created_at" bson:"created_at"`
}

// DisplayCategory returns the label a listing should show: the free-text
// detail for "other" jobs, the category itself for everything else.
func (j *Job) DisplayCategory() string {
	if j.Category == CategoryOther && j.CategoryDetail != "" {
		return j.CategoryDetail
	}
	return j.Category
}

// StartsAt composes Date and StartTime into a single timestamp. Jobs whose
// schedule fields do not parse are excluded from "next upcoming" selection
// but remain listed.
func (j *Job) StartsAt() (time.Time, error) {
	ts, err := time.ParseInLocation(jobDateLayout+" "+jobTimeLayout, j.Date+" "+j.StartTime, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("job %s: unparsable schedule: %w", j.ID, err)
	}
	return ts, nil
}

// HasApplicant reports whether workerID is already in the applicant set.
func (j *Job) HasApplicant(workerID string) bool {
	for _, id := range j.Applicants {
		if id == workerID {
			return true
		}
	}
	return false
}
