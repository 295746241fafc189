package sync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/ports"
)

// Step names of the cascading delete saga, in execution order. Children go
// first so no concurrent reader observes an orphaned reference to a job that
// is already gone.
const (
	StepApplications  = "applications"
	StepHires         = "hires"
	StepConversations = "conversations"
	StepJob           = "job"
)

// CascadingDeleteCoordinator deletes a job and every document that references
// it. The aggregate is not transactional: each step is idempotent (deleting
// an absent document is a no-op), a failed step surfaces a
// PartialFailureError naming the remaining steps, and re-invocation with the
// same job id converges to full deletion. Authorization (only the job's
// owner) is checked by the caller before invocation.
type CascadingDeleteCoordinator struct {
	apps  ports.ApplicationRepository
	hires ports.HireRepository
	convs ports.ConversationRepository
	msgs  ports.MessageRepository
	jobs  ports.JobRepository
	guard ports.OperationGuard
	log   zerolog.Logger
}

func NewCascadingDeleteCoordinator(
	apps ports.ApplicationRepository,
	hires ports.HireRepository,
	convs ports.ConversationRepository,
	msgs ports.MessageRepository,
	jobs ports.JobRepository,
	guard ports.OperationGuard,
	log zerolog.Logger,
) *CascadingDeleteCoordinator {
	return &CascadingDeleteCoordinator{
		apps: apps, hires: hires, convs: convs, msgs: msgs, jobs: jobs,
		guard: guard, log: log,
	}
}

// DeleteJobAndRelated runs the four-step saga for jobID. Concurrent
// double-invocation is rejected through the operation guard; the guard
// expires on its own if the process dies mid-saga, keeping retry possible.
// Destructive steps are never retried automatically.
func (c *CascadingDeleteCoordinator) DeleteJobAndRelated(ctx context.Context, jobID string) error {
	key := "cascade:" + jobID
	ok, err := c.guard.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("cascade guard: %w", err)
	}
	if !ok {
		return domain.ErrOperationInFlight
	}
	defer func() {
		if rerr := c.guard.Release(ctx, key); rerr != nil {
			c.log.Warn().Err(rerr).Str("key", key).Msg("failed to release cascade guard")
		}
	}()

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{StepApplications, func(ctx context.Context) error { return c.apps.DeleteByJob(ctx, jobID) }},
		{StepHires, func(ctx context.Context) error { return c.hires.DeleteByJob(ctx, jobID) }},
		{StepConversations, func(ctx context.Context) error { return c.deleteConversations(ctx, jobID) }},
		{StepJob, func(ctx context.Context) error { return c.jobs.Delete(ctx, jobID) }},
	}

	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}

	for i, s := range steps {
		if err := s.run(ctx); err != nil {
			c.log.Error().Err(err).Str("job_id", jobID).Str("step", s.name).Msg("cascade step failed")
			return &domain.PartialFailureError{
				Completed: names[:i],
				Remaining: names[i:],
				Cause:     err,
			}
		}
		c.log.Debug().Str("job_id", jobID).Str("step", s.name).Msg("cascade step completed")
	}

	c.log.Info().Str("job_id", jobID).Msg("job and related documents deleted")
	return nil
}

// deleteConversations removes the job's conversations and, transitively,
// their messages. Messages go before their conversation for the same
// no-orphaned-parent reason the saga itself orders children first.
func (c *CascadingDeleteCoordinator) deleteConversations(ctx context.Context, jobID string) error {
	convs, err := c.convs.ListByJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	for i := range convs {
		if err := c.msgs.DeleteByConversation(ctx, convs[i].ID); err != nil {
			return fmt.Errorf("delete messages of %s: %w", convs[i].ID, err)
		}
	}
	if err := c.convs.DeleteByJob(ctx, jobID); err != nil {
		return fmt.Errorf("delete conversations: %w", err)
	}
	return nil
}
