package mongo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

const collectionMessages = "messages"

type MessageRepository struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewMessageRepository(db *mongo.Database, log zerolog.Logger) *MessageRepository {
	return &MessageRepository{col: db.Collection(collectionMessages), log: log}
}

// Watch streams the messages of one conversation in send order.
func (r *MessageRepository) Watch(ctx context.Context, conversationID string) (*stream.Subscription[domain.Message], error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return watchQuery[domain.Message](ctx, r.col, bson.M{"conversation_id": conversationID}, opts, r.log)
}

// MarkRead adds profileID to the read-set of every message in the
// conversation it has not read yet. The unread projection reflects this only
// through the next snapshot.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, profileID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"conversation_id": conversationID,
		"sender_id":       bson.M{"$ne": profileID},
		"read_by":         bson.M{"$ne": profileID},
	}
	update := bson.M{"$addToSet": bson.M{"read_by": profileID}}

	if _, err := r.col.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (r *MessageRepository) DeleteByConversation(ctx context.Context, conversationID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"conversation_id": conversationID}); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
