package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/ports"
)

// JobService creates job postings on behalf of employers. The posting is a
// single document write; it reaches every projection through subscriptions,
// never by patching a cached view.
type JobService struct {
	jobs   ports.JobRepository
	logger zerolog.Logger
}

func NewJobService(jobs ports.JobRepository, logger zerolog.Logger) *JobService {
	return &JobService{jobs: jobs, logger: logger}
}

func (s *JobService) CreateJob(ctx context.Context, in ports.JobInput) (*domain.Job, error) {
	job := &domain.Job{
		ID:             uuid.NewString(),
		OwnerProfileID: in.OwnerProfileID,
		Category:       in.Category,
		CategoryDetail: in.CategoryDetail,
		Date:           in.Date,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		Address:        in.Address,
		HourlyRate:     in.HourlyRate,
		Description:    in.Description,
		Location:       in.Location,
		Applicants:     []string{},
		Status:         domain.JobOpen,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("owner", in.OwnerProfileID).Msg("failed to create job")
		return nil, err
	}

	s.logger.Info().Str("job_id", job.ID).Str("owner", in.OwnerProfileID).Str("category", job.Category).Msg("job created")
	return job, nil
}
