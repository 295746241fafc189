package ports

import (
	"context"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

// The repositories below are the engine's contract with the remote document
// store. The store offers per-document writes and push subscriptions only:
// no cross-collection transactions. Every Delete* is a no-op when the target
// is already absent, which is what makes multi-step deletion retryable.

// ProfileRepository persists and watches profile documents.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
	// Watch streams snapshots of a single profile document.
	Watch(ctx context.Context, id string) (*stream.Subscription[domain.Profile], error)
}

// JobRepository persists and watches job documents.
type JobRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Job, error)
	Create(ctx context.Context, j *domain.Job) error
	// AddApplicant appends workerID to the job's applicant set (set
	// semantics: re-adding an existing id changes nothing).
	AddApplicant(ctx context.Context, jobID, workerID string) error
	Delete(ctx context.Context, jobID string) error
	// WatchByOwner streams the employer's own jobs.
	WatchByOwner(ctx context.Context, ownerProfileID string) (*stream.Subscription[domain.Job], error)
	// WatchOpen streams the open-job feed for workers.
	WatchOpen(ctx context.Context) (*stream.Subscription[domain.Job], error)
}

// ApplicationRepository persists and watches application documents.
type ApplicationRepository interface {
	Create(ctx context.Context, a *domain.Application) error
	DeleteByJob(ctx context.Context, jobID string) error
	// WatchByWorker streams all applications submitted by one worker.
	WatchByWorker(ctx context.Context, workerID string) (*stream.Subscription[domain.Application], error)
}

// HireRepository reads and deletes hire documents. Hires are created by the
// hiring workflow outside this engine.
type HireRepository interface {
	ListByWorker(ctx context.Context, workerProfileID string) ([]domain.Hire, error)
	DeleteByJob(ctx context.Context, jobID string) error
}

// ConversationRepository persists and watches conversation documents.
type ConversationRepository interface {
	// FindByTriple looks a conversation up by its unique
	// (jobID, employerID, workerID) key.
	FindByTriple(ctx context.Context, jobID, employerID, workerID string) (*domain.Conversation, error)
	// Create inserts a conversation; returns domain.ErrConversationExists
	// when another document already holds the same triple.
	Create(ctx context.Context, c *domain.Conversation) error
	ListByJob(ctx context.Context, jobID string) ([]domain.Conversation, error)
	DeleteByJob(ctx context.Context, jobID string) error
	// WatchByParticipant streams every conversation the profile takes part in.
	WatchByParticipant(ctx context.Context, profileID string) (*stream.Subscription[domain.Conversation], error)
}

// MessageRepository watches and mutates message documents.
type MessageRepository interface {
	// Watch streams the messages of one conversation.
	Watch(ctx context.Context, conversationID string) (*stream.Subscription[domain.Message], error)
	// MarkRead adds profileID to the read-set of every message in the
	// conversation it has not read yet.
	MarkRead(ctx context.Context, conversationID, profileID string) error
	DeleteByConversation(ctx context.Context, conversationID string) error
}

// AccountRepository persists authentication accounts.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) (*domain.Account, error)
}
