package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Held keys expire on their own so a crashed holder never blocks retries
// forever.
const guardTTL = 30 * time.Second

// OperationGuard provides synchronous duplicate-invocation protection backed
// by Redis SET NX. Key format: op:<operation>:<subject ids>.
type OperationGuard struct {
	client *redis.Client
}

// NewOperationGuard creates an OperationGuard wrapping the given Redis client.
func NewOperationGuard(client *redis.Client) *OperationGuard {
	return &OperationGuard{client: client}
}

// Acquire attempts to take the key. Reports false when another invocation
// already holds it.
func (g *OperationGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(key), "1", guardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("guard acquire: %w", err)
	}
	return ok, nil
}

// Release frees the key. Releasing an unheld key is a no-op.
func (g *OperationGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.key(key)).Err()
}

func (g *OperationGuard) key(key string) string {
	return "op:" + key
}
