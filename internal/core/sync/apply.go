package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/ports"
)

// ApplicationCoordinator executes apply-to-job: two independent document
// writes with no cross-document atomicity. The application document is
// written first — it is the durable record; the applicant-set entry is a
// denormalization that a retry or the next snapshot repairs. Neither write
// is rolled back when the other fails, and no cached projection is mutated
// here: the consistent view converges only through resubscription.
type ApplicationCoordinator struct {
	apps  ports.ApplicationRepository
	jobs  ports.JobRepository
	guard ports.OperationGuard
	log   zerolog.Logger
}

func NewApplicationCoordinator(
	apps ports.ApplicationRepository,
	jobs ports.JobRepository,
	guard ports.OperationGuard,
	log zerolog.Logger,
) *ApplicationCoordinator {
	return &ApplicationCoordinator{apps: apps, jobs: jobs, guard: guard, log: log}
}

// Apply submits worker's application for the job behind view.
//
// Preconditions: worker role, and the view-local status not already
// "applied" — a client-side short-circuit, not a server guarantee. A second
// call on an already-applied view performs no write and returns nil.
// Concurrent duplicate invocations are rejected synchronously through the
// operation guard. Failures surface verbatim; there is no automatic retry.
func (c *ApplicationCoordinator) Apply(ctx context.Context, worker *domain.Profile, view JobView, coverLetter string) error {
	if worker.Role != domain.RoleWorker {
		return domain.ErrPermissionDenied
	}
	if view.ViewStatus == ViewApplied {
		c.log.Debug().Str("job_id", view.ID).Str("worker_id", worker.ID).Msg("already applied, no-op")
		return nil
	}

	key := fmt.Sprintf("apply:%s:%s", view.ID, worker.ID)
	ok, err := c.guard.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("apply guard: %w", err)
	}
	if !ok {
		return domain.ErrOperationInFlight
	}
	defer func() {
		if rerr := c.guard.Release(ctx, key); rerr != nil {
			c.log.Warn().Err(rerr).Str("key", key).Msg("failed to release apply guard")
		}
	}()

	app := &domain.Application{
		ID:          uuid.NewString(),
		JobID:       view.ID,
		WorkerID:    worker.ID,
		CoverLetter: coverLetter,
		Status:      domain.ApplicationApplied,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.apps.Create(ctx, app); err != nil {
		return fmt.Errorf("apply to job: create application: %w", err)
	}

	if err := c.jobs.AddApplicant(ctx, view.ID, worker.ID); err != nil {
		// the application document stands; the applicant set converges on retry
		return fmt.Errorf("apply to job: add applicant: %w", err)
	}

	c.log.Info().Str("job_id", view.ID).Str("worker_id", worker.ID).Msg("application submitted")
	return nil
}
