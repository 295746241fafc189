package mongo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
)

const collectionHires = "hires"

// HireRepository reads and deletes hire documents; hires themselves are
// created by the hiring workflow outside this service.
type HireRepository struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewHireRepository(db *mongo.Database, log zerolog.Logger) *HireRepository {
	return &HireRepository{col: db.Collection(collectionHires), log: log}
}

func (r *HireRepository) ListByWorker(ctx context.Context, workerProfileID string) ([]domain.Hire, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	docs, err := runQuery[domain.Hire](ctx, r.col, bson.M{"worker_profile_id": workerProfileID}, nil, r.log)
	if err != nil {
		return nil, fmt.Errorf("list hires: %w", err)
	}
	return docs, nil
}

// DeleteByJob removes every hire referencing jobID; zero matches is fine.
func (r *HireRepository) DeleteByJob(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"job_id": jobID}); err != nil {
		return fmt.Errorf("delete hires: %w", err)
	}
	return nil
}

func (r *HireRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "job_id", Value: 1}}},
		{Keys: bson.D{{Key: "worker_profile_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
