package postgres

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/catforge/cat-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*LeaseLock)(nil)

// LeaseLock implements DistributedLock with rows in the locks table.
// A lease can be taken over once it has expired, so a crashed holder never
// blocks the others for longer than its TTL.
type LeaseLock struct {
	db    *DB
	owner string
}

// NewLeaseLock creates a lock owned by this process
func NewLeaseLock(db *DB) *LeaseLock {
	hostname, _ := os.Hostname()
	return &LeaseLock{
		db:    db,
		owner: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()),
	}
}

// Acquire takes the named lease when it is free or expired
func (l *LeaseLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	result, err := l.db.ExecContext(ctx, `
		INSERT INTO locks (name, owner, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			owner = EXCLUDED.owner,
			expires_at = EXCLUDED.expires_at
		WHERE locks.expires_at < NOW()
	`, name, l.owner, time.Now().Add(ttl))
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return rows == 1, nil
}

// Release drops the lease if this instance holds it
func (l *LeaseLock) Release(ctx context.Context, name string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM locks WHERE name = $1 AND owner = $2`, name, l.owner)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}
