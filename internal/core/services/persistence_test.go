package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven/mocks"
)

func TestPersistenceHandler_EntryAddedIsIdempotent(t *testing.T) {
	store := mocks.NewMockTMStore()
	h := NewPersistenceHandler(store, nil)
	ctx := context.Background()

	task := domain.NewEntryAddedTask("tm-1", "ko", domain.TMEntry{Source: "Hi", Target: "안녕"})
	require.NoError(t, h.Handle(ctx, task))
	require.NoError(t, h.Handle(ctx, task))

	assert.Equal(t, 1, store.EntryCount("tm-1"))
}

func TestPersistenceHandler_EntriesImported(t *testing.T) {
	store := mocks.NewMockTMStore()
	h := NewPersistenceHandler(store, nil)

	task := domain.NewEntriesImportedTask("tm-1", "ko", []domain.TMEntry{
		{Source: "One", Target: "하나"},
		{Source: "Two", Target: "둘"},
		{Source: "Three"},
	})
	require.NoError(t, h.Handle(context.Background(), task))

	assert.Equal(t, 2, store.EntryCount("tm-1"))
}

func TestPersistenceHandler_EntryDeleted(t *testing.T) {
	store := mocks.NewMockTMStore()
	h := NewPersistenceHandler(store, nil)
	ctx := context.Background()

	entry := &domain.StoredTMEntry{ID: "e-1", TMID: "tm-1", TargetLang: "ko", TMEntry: domain.TMEntry{Source: "a", Target: "b"}}
	_, err := store.UpsertEntry(ctx, entry)
	require.NoError(t, err)

	task := domain.NewEntryDeletedTask("tm-1", "e-1")
	require.NoError(t, h.Handle(ctx, task))
	assert.Equal(t, 0, store.EntryCount("tm-1"))

	// redelivery of an already applied deletion succeeds
	require.NoError(t, h.Handle(ctx, task))
}

func TestPersistenceHandler_UnknownType(t *testing.T) {
	h := NewPersistenceHandler(mocks.NewMockTMStore(), nil)

	err := h.Handle(context.Background(), domain.NewTask("bogus", "tm-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
