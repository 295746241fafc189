package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

const collectionConversations = "conversations"

type ConversationRepository struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewConversationRepository(db *mongo.Database, log zerolog.Logger) *ConversationRepository {
	return &ConversationRepository{col: db.Collection(collectionConversations), log: log}
}

func (r *ConversationRepository) FindByTriple(ctx context.Context, jobID, employerID, workerID string) (*domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"job_id": jobID, "employer_id": employerID, "worker_id": workerID}
	var c domain.Conversation
	err := r.col.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &c, nil
}

// Create inserts a conversation. The unique index on the triple turns a
// duplicate-create race into domain.ErrConversationExists for the loser.
func (r *ConversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConversationExists
		}
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	docs, err := runQuery[domain.Conversation](ctx, r.col, bson.M{"job_id": jobID}, nil, r.log)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return docs, nil
}

func (r *ConversationRepository) DeleteByJob(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"job_id": jobID}); err != nil {
		return fmt.Errorf("delete conversations: %w", err)
	}
	return nil
}

// WatchByParticipant streams every conversation the profile takes part in,
// employer or worker side.
func (r *ConversationRepository) WatchByParticipant(ctx context.Context, profileID string) (*stream.Subscription[domain.Conversation], error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"employer_id": profileID},
		bson.M{"worker_id": profileID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return watchQuery[domain.Conversation](ctx, r.col, filter, opts, r.log)
}

// EnsureIndexes creates the unique triple index the no-duplicate invariant
// rests on.
func (r *ConversationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "job_id", Value: 1},
				{Key: "employer_id", Value: 1},
				{Key: "worker_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "employer_id", Value: 1}}},
		{Keys: bson.D{{Key: "worker_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
