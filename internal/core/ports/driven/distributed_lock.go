package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates work that must run on one instance at a time,
// such as purging finished intents.
type DistributedLock interface {
	// Acquire tries to take the named lock for ttl.
	// Returns false when another instance holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release frees the lock if this instance holds it.
	// Safe to call when the lock has already expired.
	Release(ctx context.Context, name string) error
}
