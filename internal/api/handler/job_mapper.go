package handler

import (
	"time"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/sync"
)

// --- Engine projection → HTTP response ---

type jobResponse struct {
	ID              string              `json:"id"`
	OwnerProfileID  string              `json:"owner_profile_id"`
	Category        string              `json:"category"`
	CategoryDetail  string              `json:"category_detail,omitempty"`
	DisplayCategory string              `json:"display_category"`
	Date            string              `json:"date"`
	StartTime       string              `json:"start_time"`
	EndTime         string              `json:"end_time"`
	Address         string              `json:"address"`
	HourlyRate      float64             `json:"hourly_rate"`
	Description     string              `json:"description,omitempty"`
	Location        *domain.Coordinates `json:"location,omitempty"`
	Applicants      []string            `json:"applicants,omitempty"`
	Status          string              `json:"status"`
	ViewStatus      string              `json:"view_status,omitempty"`
	CreatedAt       string              `json:"created_at"`
}

func toJobResponse(v sync.JobView) jobResponse {
	return jobResponse{
		ID:              v.ID,
		OwnerProfileID:  v.OwnerProfileID,
		Category:        v.Category,
		CategoryDetail:  v.CategoryDetail,
		DisplayCategory: v.DisplayCategory(),
		Date:            v.Date,
		StartTime:       v.StartTime,
		EndTime:         v.EndTime,
		Address:         v.Address,
		HourlyRate:      v.HourlyRate,
		Description:     v.Description,
		Location:        v.Location,
		Applicants:      v.Applicants,
		Status:          string(v.Status),
		ViewStatus:      v.ViewStatus,
		CreatedAt:       v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toJobsResponse(views []sync.JobView) jobsResponse {
	jobs := make([]jobResponse, 0, len(views))
	for _, v := range views {
		jobs = append(jobs, toJobResponse(v))
	}
	return jobsResponse{Jobs: jobs}
}
