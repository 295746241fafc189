package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/ports"
)

// Namespace for deterministic conversation ids. Two concurrent resolvers for
// the same triple derive the same id before either document exists.
var nsConversation = uuid.MustParse("5b7c1c6e-9f64-4d0a-8a2e-3f1d9b6a7c44")

// ConversationID derives the deterministic id of the conversation for a
// (job, employer, worker) triple.
func ConversationID(jobID, employerID, workerID string) string {
	return uuid.NewSHA1(nsConversation, []byte(jobID+"|"+employerID+"|"+workerID)).String()
}

// ChatSessionResolver is the idempotent get-or-create of a conversation. The
// triple is additionally protected by a unique index at the store, so a
// duplicate-create race resolves to "use the other one" — never two
// conversations for the same triple.
type ChatSessionResolver struct {
	convs ports.ConversationRepository
	log   zerolog.Logger
}

func NewChatSessionResolver(convs ports.ConversationRepository, log zerolog.Logger) *ChatSessionResolver {
	return &ChatSessionResolver{convs: convs, log: log}
}

// GetOrCreate returns the id of the single conversation for the triple,
// creating it when absent, and reports whether this call created it. Safe
// under concurrent invocation from both parties.
func (r *ChatSessionResolver) GetOrCreate(ctx context.Context, jobID, employerID, workerID string) (string, bool, error) {
	existing, err := r.convs.FindByTriple(ctx, jobID, employerID, workerID)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, domain.ErrConversationNotFound) {
		return "", false, fmt.Errorf("resolve chat: %w", err)
	}

	conv := &domain.Conversation{
		ID:         ConversationID(jobID, employerID, workerID),
		JobID:      jobID,
		EmployerID: employerID,
		WorkerID:   workerID,
		CreatedAt:  time.Now().UTC(),
	}
	err = r.convs.Create(ctx, conv)
	if err == nil {
		r.log.Info().Str("conversation_id", conv.ID).Str("job_id", jobID).Msg("conversation created")
		return conv.ID, true, nil
	}
	if errors.Is(err, domain.ErrConversationExists) {
		// lost the race: the other party's document wins
		winner, ferr := r.convs.FindByTriple(ctx, jobID, employerID, workerID)
		if ferr != nil {
			return "", false, fmt.Errorf("resolve chat after race: %w", ferr)
		}
		return winner.ID, false, nil
	}
	return "", false, fmt.Errorf("resolve chat: create: %w", err)
}
