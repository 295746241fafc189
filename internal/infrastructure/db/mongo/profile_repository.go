package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

const collectionProfiles = "profiles"

type ProfileRepository struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewProfileRepository(db *mongo.Database, log zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(collectionProfiles), log: log}
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Profile
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Watch streams single-document snapshots of one profile.
func (r *ProfileRepository) Watch(ctx context.Context, id string) (*stream.Subscription[domain.Profile], error) {
	return watchQuery[domain.Profile](ctx, r.col, bson.M{"_id": id}, nil, r.log)
}
