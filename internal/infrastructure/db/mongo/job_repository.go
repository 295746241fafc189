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

const collectionJobs = "jobs"

type JobRepository struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewJobRepository(db *mongo.Database, log zerolog.Logger) *JobRepository {
	return &JobRepository{col: db.Collection(collectionJobs), log: log}
}

func (r *JobRepository) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var j domain.Job
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&j)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("find job: %w", err)
	}
	return &j, nil
}

func (r *JobRepository) Create(ctx context.Context, j *domain.Job) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, j); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// AddApplicant appends workerID to the applicant set ($addToSet: re-adding
// an existing id changes nothing).
func (r *JobRepository) AddApplicant(ctx context.Context, jobID, workerID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": jobID},
		bson.M{"$addToSet": bson.M{"applicants": workerID}},
	)
	if err != nil {
		return fmt.Errorf("add applicant: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Delete removes the job document; deleting an absent job is a no-op.
func (r *JobRepository) Delete(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": jobID}); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// WatchByOwner streams the employer's own jobs.
func (r *JobRepository) WatchByOwner(ctx context.Context, ownerProfileID string) (*stream.Subscription[domain.Job], error) {
	return watchQuery[domain.Job](ctx, r.col, bson.M{"owner_profile_id": ownerProfileID}, nil, r.log)
}

// WatchOpen streams the open-job feed, newest first.
func (r *JobRepository) WatchOpen(ctx context.Context) (*stream.Subscription[domain.Job], error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return watchQuery[domain.Job](ctx, r.col, bson.M{"status": domain.JobOpen}, opts, r.log)
}

// EnsureIndexes creates the indexes the job queries rely on.
func (r *JobRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_profile_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
