package ports

import "context"

// OperationGuard provides synchronous duplicate-invocation protection for
// mutations the store itself cannot deduplicate (apply-to-job, cascading
// delete). Acquire reports false when the key is already held; a held key
// expires on its own if the holder crashes before Release.
type OperationGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
