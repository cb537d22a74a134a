package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

// PersistenceHandler applies persistence intents to the TM store.
// Every intent is safe to apply more than once.
type PersistenceHandler struct {
	store  driven.TMStore
	logger *slog.Logger
}

// NewPersistenceHandler creates a new PersistenceHandler
func NewPersistenceHandler(store driven.TMStore, logger *slog.Logger) *PersistenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistenceHandler{
		store:  store,
		logger: logger,
	}
}

// Handle applies a single intent
func (h *PersistenceHandler) Handle(ctx context.Context, task *domain.Task) error {
	switch task.Type {
	case domain.TaskTypeEntryAdded, domain.TaskTypeEntriesImported:
		return h.handleEntries(ctx, task)
	case domain.TaskTypeEntryDeleted:
		return h.handleEntryDeleted(ctx, task)
	default:
		return fmt.Errorf("%w: unknown task type %q", domain.ErrInvalidInput, task.Type)
	}
}

// handleEntries upserts so a redelivered batch does not duplicate rows
func (h *PersistenceHandler) handleEntries(ctx context.Context, task *domain.Task) error {
	if task.TMID == "" {
		return fmt.Errorf("%w: task %s has no tm id", domain.ErrInvalidInput, task.ID)
	}

	inserted := 0
	for _, entry := range task.Entries {
		if entry.Source == "" || entry.Target == "" {
			continue
		}
		now := time.Now()
		ok, err := h.store.UpsertEntry(ctx, &domain.StoredTMEntry{
			ID:         domain.GenerateID(),
			TMID:       task.TMID,
			TargetLang: task.TargetLang,
			CreatedAt:  now,
			UpdatedAt:  now,
			TMEntry:    entry,
		})
		if err != nil {
			return fmt.Errorf("upsert entry: %w", err)
		}
		if ok {
			inserted++
		}
	}

	h.logger.Info("tm entries persisted",
		"task_id", task.ID,
		"task_type", task.Type,
		"tm_id", task.TMID,
		"entries", len(task.Entries),
		"inserted", inserted)
	return nil
}

func (h *PersistenceHandler) handleEntryDeleted(ctx context.Context, task *domain.Task) error {
	err := h.store.DeleteEntry(ctx, task.EntryID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete entry %s: %w", task.EntryID, err)
	}
	h.logger.Info("tm entry deleted", "task_id", task.ID, "tm_id", task.TMID, "entry_id", task.EntryID)
	return nil
}
