package main

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	mongorepo "github.com/lavoroapp/marketplace-api/internal/infrastructure/db/mongo"
)

// ensureIndexes creates every index the repositories rely on. Index creation
// is idempotent, so running it on every boot is safe.
func ensureIndexes(ctx context.Context, db *mongo.Database, log zerolog.Logger) error {
	type indexed interface {
		EnsureIndexes(ctx context.Context) error
	}

	for _, r := range []indexed{
		mongorepo.NewJobRepository(db, log),
		mongorepo.NewApplicationRepository(db, log),
		mongorepo.NewHireRepository(db, log),
		mongorepo.NewConversationRepository(db, log),
		mongorepo.NewMessageRepository(db, log),
		mongorepo.NewAccountRepository(db),
	} {
		if err := r.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
