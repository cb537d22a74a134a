package driven

import (
	"context"

	"github.com/catforge/cat-core/internal/core/domain"
)

// TermbaseStore handles termbase persistence
type TermbaseStore interface {
	// Upsert inserts an entry or updates the one sharing (client, source)
	Upsert(ctx context.Context, entry *domain.StoredTermbaseEntry) error

	// Get retrieves an entry by ID
	Get(ctx context.Context, id string) (*domain.StoredTermbaseEntry, error)

	// List retrieves entries newest first. An empty clientID lists every entry.
	List(ctx context.Context, clientID string) ([]*domain.StoredTermbaseEntry, error)

	// Delete deletes an entry by ID
	Delete(ctx context.Context, id string) error

	// CountByClient returns how many entries belong to a client
	CountByClient(ctx context.Context, clientID string) (int, error)
}
