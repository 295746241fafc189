package mongo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

const collectionApplications = "applications"

type ApplicationRepository struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewApplicationRepository(db *mongo.Database, log zerolog.Logger) *ApplicationRepository {
	return &ApplicationRepository{col: db.Collection(collectionApplications), log: log}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *domain.Application) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// DeleteByJob removes every application referencing jobID. Zero matches is a
// valid terminal state, not an error.
func (r *ApplicationRepository) DeleteByJob(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"job_id": jobID}); err != nil {
		return fmt.Errorf("delete applications: %w", err)
	}
	return nil
}

// WatchByWorker streams all applications submitted by one worker.
func (r *ApplicationRepository) WatchByWorker(ctx context.Context, workerID string) (*stream.Subscription[domain.Application], error) {
	return watchQuery[domain.Application](ctx, r.col, bson.M{"worker_id": workerID}, nil, r.log)
}

func (r *ApplicationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "job_id", Value: 1}}},
		{Keys: bson.D{{Key: "worker_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
