package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
	"github.com/catforge/cat-core/internal/core/ports/driving"
)

// Ensure termbaseService implements TermbaseService
var _ driving.TermbaseService = (*termbaseService)(nil)

type termbaseService struct {
	store driven.TermbaseStore
}

// NewTermbaseService creates a new TermbaseService
func NewTermbaseService(store driven.TermbaseStore) driving.TermbaseService {
	return &termbaseService{store: store}
}

// Add upserts an entry by (client, source)
func (s *termbaseService) Add(ctx context.Context, clientID string, entry domain.TermbaseEntry) (*domain.StoredTermbaseEntry, error) {
	entry.Source = strings.TrimSpace(entry.Source)
	entry.Target = strings.TrimSpace(entry.Target)
	if entry.Source == "" || entry.Target == "" {
		return nil, fmt.Errorf("%w: source and target are required", domain.ErrInvalidInput)
	}

	now := time.Now()
	stored := &domain.StoredTermbaseEntry{
		ID:            domain.GenerateID(),
		ClientID:      clientID,
		CreatedAt:     now,
		UpdatedAt:     now,
		TermbaseEntry: entry,
	}
	if err := s.store.Upsert(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// List retrieves entries, optionally for one client
func (s *termbaseService) List(ctx context.Context, clientID string) ([]*domain.StoredTermbaseEntry, error) {
	return s.store.List(ctx, clientID)
}

// Entries returns plain entries for QA and term lookup
func (s *termbaseService) Entries(ctx context.Context, clientID string) ([]domain.TermbaseEntry, error) {
	stored, err := s.store.List(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return plainTerms(stored), nil
}

// Delete deletes an entry
func (s *termbaseService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
