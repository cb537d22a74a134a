package driven

import (
	"context"

	"github.com/catforge/cat-core/internal/core/domain"
)

// ClientStore handles client persistence
type ClientStore interface {
	// Save creates or updates a client
	Save(ctx context.Context, client *domain.Client) error

	// Get retrieves a client by ID
	Get(ctx context.Context, id string) (*domain.Client, error)

	// List retrieves all clients, newest first
	List(ctx context.Context) ([]*domain.Client, error)

	// Delete deletes a client. Its TMs and termbase entries fall back to the
	// global scope.
	Delete(ctx context.Context, id string) error
}
