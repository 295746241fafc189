package mongo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

// watchQuery turns a collection change stream into the full-snapshot
// subscription contract: an initial query result, then a re-query on every
// change event. Each snapshot therefore reflects a superset of applied
// writes relative to the previous one. Cancelling the subscription tears the
// change stream down; a failed stream delivers a terminal error snapshot and
// stops — no automatic retry.
func watchQuery[T any](ctx context.Context, col *mongo.Collection, filter bson.M, opts *options.FindOptions, log zerolog.Logger) (*stream.Subscription[T], error) {
	wctx, cancel := context.WithCancel(ctx)
	sub := stream.NewSubscription[T](cancel)

	cs, err := col.Watch(wctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", col.Name(), err)
	}

	docs, err := runQuery[T](wctx, col, filter, opts, log)
	if err != nil {
		_ = cs.Close(wctx)
		cancel()
		return nil, fmt.Errorf("watch %s: initial query: %w", col.Name(), err)
	}
	sub.Publish(stream.Snapshot[T]{Docs: docs})

	go func() {
		defer func() { _ = cs.Close(context.Background()) }()
		for cs.Next(wctx) {
			docs, qerr := runQuery[T](wctx, col, filter, opts, log)
			if qerr != nil {
				if wctx.Err() != nil {
					return
				}
				sub.Fail(fmt.Errorf("watch %s: requery: %w", col.Name(), qerr))
				return
			}
			if !sub.Publish(stream.Snapshot[T]{Docs: docs}) {
				return
			}
		}
		if err := cs.Err(); err != nil && wctx.Err() == nil {
			sub.Fail(fmt.Errorf("watch %s: %w", col.Name(), err))
		}
	}()

	return sub, nil
}

// runQuery materializes one snapshot. Documents that fail to decode are
// skipped individually so one malformed record cannot break the projection.
func runQuery[T any](ctx context.Context, col *mongo.Collection, filter bson.M, opts *options.FindOptions, log zerolog.Logger) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	docs := make([]T, 0)
	for cur.Next(ctx) {
		var doc T
		if derr := cur.Decode(&doc); derr != nil {
			log.Warn().Err(derr).Str("collection", col.Name()).Msg("malformed document skipped")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, cur.Err()
}
