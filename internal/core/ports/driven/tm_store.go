package driven

import (
	"context"

	"github.com/catforge/cat-core/internal/core/domain"
)

// TMStore handles translation memory persistence (PostgreSQL)
type TMStore interface {
	// SaveTM creates or updates a TM container
	SaveTM(ctx context.Context, tm *domain.TranslationMemory) error

	// GetTM retrieves a container by ID
	GetTM(ctx context.Context, id string) (*domain.TranslationMemory, error)

	// ListTMs retrieves containers, newest first.
	// An empty clientID lists every container.
	ListTMs(ctx context.Context, clientID string) ([]*domain.TranslationMemory, error)

	// DeleteTM deletes a container and its entries
	DeleteTM(ctx context.Context, id string) error

	// UpsertEntry inserts an entry or updates the one sharing
	// (tm_id, source, target_lang). Reports whether a row was inserted.
	UpsertEntry(ctx context.Context, entry *domain.StoredTMEntry) (bool, error)

	// InsertEntries appends a batch of entries and returns how many were saved
	InsertEntries(ctx context.Context, tmID, targetLang string, entries []domain.TMEntry) (int, error)

	// GetEntry retrieves an entry by ID
	GetEntry(ctx context.Context, id string) (*domain.StoredTMEntry, error)

	// ListEntries retrieves the entries of a container, newest first
	ListEntries(ctx context.Context, tmID string) ([]*domain.StoredTMEntry, error)

	// DeleteEntry deletes an entry by ID
	DeleteEntry(ctx context.Context, id string) error

	// LoadEntries returns the entries of several containers for matching
	LoadEntries(ctx context.Context, tmIDs []string) ([]domain.TMEntry, error)

	// CountByClient returns how many containers belong to a client
	CountByClient(ctx context.Context, clientID string) (int, error)
}
