package driving

import (
	"context"

	"github.com/catforge/cat-core/internal/core/domain"
)

// CreateTMRequest represents a request to create a TM container
type CreateTMRequest struct {
	Name        string   `json:"name"`
	SourceLang  string   `json:"source_lang"`
	TargetLangs []string `json:"target_langs"`
	Note        string   `json:"note,omitempty"`
	ClientID    string   `json:"client_id,omitempty"`
}

// TMService manages translation memory containers and their entries
type TMService interface {
	// Create creates a container
	Create(ctx context.Context, req CreateTMRequest) (*domain.TranslationMemory, error)

	// Get retrieves a container
	Get(ctx context.Context, id string) (*domain.TranslationMemory, error)

	// List retrieves containers, optionally for one client
	List(ctx context.Context, clientID string) ([]*domain.TranslationMemory, error)

	// Update changes container fields
	Update(ctx context.Context, id string, update domain.TMUpdate) (*domain.TranslationMemory, error)

	// Delete deletes a container and its entries
	Delete(ctx context.Context, id string) error

	// ListEntries retrieves the entries of a container
	ListEntries(ctx context.Context, tmID string) ([]*domain.StoredTMEntry, error)

	// AddEntry upserts an entry by (container, source, target language)
	AddEntry(ctx context.Context, tmID, targetLang string, entry domain.TMEntry) (*domain.StoredTMEntry, error)

	// DeleteEntry removes an entry
	DeleteEntry(ctx context.Context, tmID, entryID string) error

	// ImportEntries appends entries and returns how many were saved
	ImportEntries(ctx context.Context, tmID, targetLang string, entries []domain.TMEntry) (int, error)

	// MatchingEntries loads the entries of several containers for matching
	MatchingEntries(ctx context.Context, tmIDs []string) ([]domain.TMEntry, error)
}
