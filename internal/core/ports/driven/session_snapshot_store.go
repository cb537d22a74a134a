package driven

import (
	"context"

	"github.com/catforge/cat-core/internal/core/domain"
)

// SessionSnapshotStore keeps restorable editor session state (Redis)
type SessionSnapshotStore interface {
	// Save stores a snapshot, replacing any previous one
	Save(ctx context.Context, snapshot *domain.SessionSnapshot) error

	// Get retrieves a snapshot by session ID
	Get(ctx context.Context, id string) (*domain.SessionSnapshot, error)

	// Delete removes a snapshot
	Delete(ctx context.Context, id string) error

	// List returns the IDs of the stored sessions
	List(ctx context.Context) ([]string, error)
}
