package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
	"github.com/catforge/cat-core/internal/core/ports/driving"
)

// Ensure tmService implements TMService
var _ driving.TMService = (*tmService)(nil)

// tmService implements the TMService interface
type tmService struct {
	store  driven.TMStore
	sink   driven.IntentSink
	logger *slog.Logger
}

// NewTMService creates a new TMService. sink may be nil, in which case
// no intents are emitted and deletions are applied directly.
func NewTMService(store driven.TMStore, sink driven.IntentSink, logger *slog.Logger) driving.TMService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tmService{
		store:  store,
		sink:   sink,
		logger: logger,
	}
}

// Create creates a container
func (s *tmService) Create(ctx context.Context, req driving.CreateTMRequest) (*domain.TranslationMemory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	tm := &domain.TranslationMemory{
		ID:          domain.GenerateID(),
		ClientID:    req.ClientID,
		Name:        name,
		SourceLang:  req.SourceLang,
		TargetLangs: req.TargetLangs,
		Note:        req.Note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if tm.TargetLangs == nil {
		tm.TargetLangs = []string{}
	}

	if err := s.store.SaveTM(ctx, tm); err != nil {
		return nil, err
	}
	return tm, nil
}

// Get retrieves a container
func (s *tmService) Get(ctx context.Context, id string) (*domain.TranslationMemory, error) {
	return s.store.GetTM(ctx, id)
}

// List retrieves containers, optionally for one client
func (s *tmService) List(ctx context.Context, clientID string) ([]*domain.TranslationMemory, error) {
	return s.store.ListTMs(ctx, clientID)
}

// Update changes container fields
func (s *tmService) Update(ctx context.Context, id string, update domain.TMUpdate) (*domain.TranslationMemory, error) {
	tm, err := s.store.GetTM(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
	}

	update.Apply(tm)
	tm.Name = strings.TrimSpace(tm.Name)
	tm.UpdatedAt = time.Now()

	if err := s.store.SaveTM(ctx, tm); err != nil {
		return nil, err
	}
	return tm, nil
}

// Delete deletes a container and its entries
func (s *tmService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTM(ctx, id)
}

// ListEntries retrieves the entries of a container
func (s *tmService) ListEntries(ctx context.Context, tmID string) ([]*domain.StoredTMEntry, error) {
	if _, err := s.store.GetTM(ctx, tmID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, tmID)
}

// AddEntry upserts an entry by (container, source, target language)
func (s *tmService) AddEntry(ctx context.Context, tmID, targetLang string, entry domain.TMEntry) (*domain.StoredTMEntry, error) {
	if entry.Source == "" || entry.Target == "" {
		return nil, fmt.Errorf("%w: source and target are required", domain.ErrInvalidInput)
	}
	if _, err := s.store.GetTM(ctx, tmID); err != nil {
		return nil, err
	}

	now := time.Now()
	stored := &domain.StoredTMEntry{
		ID:         domain.GenerateID(),
		TMID:       tmID,
		TargetLang: targetLang,
		CreatedAt:  now,
		UpdatedAt:  now,
		TMEntry:    entry,
	}
	inserted, err := s.store.UpsertEntry(ctx, stored)
	if err != nil {
		return nil, err
	}
	if !inserted {
		s.logger.Debug("tm entry updated", "tm_id", tmID, "target_lang", targetLang)
	}
	return stored, nil
}

// DeleteEntry removes an entry. With a sink attached the deletion is
// queued and applied by the worker.
func (s *tmService) DeleteEntry(ctx context.Context, tmID, entryID string) error {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.TMID != tmID {
		return domain.ErrNotFound
	}

	if s.sink != nil {
		task := domain.NewEntryDeletedTask(tmID, entryID)
		if err := s.sink.Emit(task); err == nil {
			return nil
		} else if !errors.Is(err, domain.ErrQueueFull) {
			return err
		}
		s.logger.Warn("intent queue full, deleting entry inline", "tm_id", tmID, "entry_id", entryID)
	}
	return s.store.DeleteEntry(ctx, entryID)
}

// ImportEntries appends entries and returns how many were saved
func (s *tmService) ImportEntries(ctx context.Context, tmID, targetLang string, entries []domain.TMEntry) (int, error) {
	if _, err := s.store.GetTM(ctx, tmID); err != nil {
		return 0, err
	}

	valid := make([]domain.TMEntry, 0, len(entries))
	for _, e := range entries {
		if e.Source != "" && e.Target != "" {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	saved, err := s.store.InsertEntries(ctx, tmID, targetLang, valid)
	if err != nil {
		return 0, err
	}
	s.logger.Info("tm entries imported", "tm_id", tmID, "count", saved, "skipped", len(entries)-len(valid))
	return saved, nil
}

// MatchingEntries loads the entries of several containers for matching
func (s *tmService) MatchingEntries(ctx context.Context, tmIDs []string) ([]domain.TMEntry, error) {
	if len(tmIDs) == 0 {
		return nil, nil
	}
	return s.store.LoadEntries(ctx, tmIDs)
}
