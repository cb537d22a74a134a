package driving

import (
	"context"

	"github.com/catforge/cat-core/internal/core/domain"
)

// TermbaseService manages terminology entries
type TermbaseService interface {
	// Add upserts an entry by (client, source)
	Add(ctx context.Context, clientID string, entry domain.TermbaseEntry) (*domain.StoredTermbaseEntry, error)

	// List retrieves entries, optionally for one client
	List(ctx context.Context, clientID string) ([]*domain.StoredTermbaseEntry, error)

	// Entries returns plain entries for QA and term lookup
	Entries(ctx context.Context, clientID string) ([]domain.TermbaseEntry, error)

	// Delete deletes an entry
	Delete(ctx context.Context, id string) error
}
