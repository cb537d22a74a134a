package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catforge/cat-core/internal/core/domain"
)

// setupTestDB connects to CAT_TEST_DATABASE_URL and skips when it is unset.
// Every test works on freshly generated ids, so runs do not interfere.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("CAT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CAT_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, DefaultConfig(url))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.InitSchema(ctx))
	return db
}

func newTestTM(t *testing.T, store *TMStore) *domain.TranslationMemory {
	t.Helper()
	now := time.Now()
	tm := &domain.TranslationMemory{
		ID:          domain.GenerateID(),
		Name:        "integration",
		SourceLang:  "en",
		TargetLangs: []string{"de"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.SaveTM(context.Background(), tm))
	t.Cleanup(func() { _ = store.DeleteTM(context.Background(), tm.ID) })
	return tm
}

func TestTMStore_Entries(t *testing.T) {
	db := setupTestDB(t)
	store := NewTMStore(db)
	ctx := context.Background()
	tm := newTestTM(t, store)

	now := time.Now()
	entry := &domain.StoredTMEntry{
		ID:         domain.GenerateID(),
		TMID:       tm.ID,
		TargetLang: "de",
		CreatedAt:  now,
		UpdatedAt:  now,
		TMEntry:    domain.TMEntry{Source: "Hello", Target: "Hallo"},
	}
	inserted, err := store.UpsertEntry(ctx, entry)
	require.NoError(t, err)
	assert.True(t, inserted)
	firstID := entry.ID

	again := &domain.StoredTMEntry{
		ID:         domain.GenerateID(),
		TMID:       tm.ID,
		TargetLang: "de",
		CreatedAt:  now,
		UpdatedAt:  now,
		TMEntry:    domain.TMEntry{Source: "Hello", Target: "Servus"},
	}
	inserted, err = store.UpsertEntry(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, firstID, again.ID)

	saved, err := store.InsertEntries(ctx, tm.ID, "de", []domain.TMEntry{
		{Source: "Bye", Target: "Tschüss"},
		{Source: "Yes", Target: "Ja", PrevSource: "Bye"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	got, err := store.GetTM(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.EntryCount)
	assert.Equal(t, []string{"de"}, got.TargetLangs)

	stored, err := store.GetEntry(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, "Servus", stored.Target)

	loaded, err := store.LoadEntries(ctx, []string{tm.ID})
	require.NoError(t, err)
	assert.Len(t, loaded, 3)

	require.NoError(t, store.DeleteEntry(ctx, firstID))
	_, err = store.GetEntry(ctx, firstID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTMStore_UpsertUnknownTM(t *testing.T) {
	db := setupTestDB(t)
	store := NewTMStore(db)

	_, err := store.UpsertEntry(context.Background(), &domain.StoredTMEntry{
		ID:      domain.GenerateID(),
		TMID:    domain.GenerateID(),
		TMEntry: domain.TMEntry{Source: "a", Target: "b"},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTMStore_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	store := NewTMStore(db)
	ctx := context.Background()
	tm := newTestTM(t, store)

	_, err := store.InsertEntries(ctx, tm.ID, "de", []domain.TMEntry{{Source: "One", Target: "Eins"}})
	require.NoError(t, err)

	require.NoError(t, store.DeleteTM(ctx, tm.ID))
	entries, err := store.ListEntries(ctx, tm.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, store.DeleteTM(ctx, tm.ID), domain.ErrNotFound)
}

func TestTermbaseStore_UpsertByClientAndSource(t *testing.T) {
	db := setupTestDB(t)
	store := NewTermbaseStore(db)
	ctx := context.Background()
	clientID := domain.GenerateID()

	now := time.Now()
	first := &domain.StoredTermbaseEntry{
		ID: domain.GenerateID(), ClientID: clientID, CreatedAt: now, UpdatedAt: now,
		TermbaseEntry: domain.TermbaseEntry{Source: "invoice", Target: "Rechnung"},
	}
	require.NoError(t, store.Upsert(ctx, first))

	second := &domain.StoredTermbaseEntry{
		ID: domain.GenerateID(), ClientID: clientID, CreatedAt: now, UpdatedAt: now,
		TermbaseEntry: domain.TermbaseEntry{Source: "invoice", Target: "Faktura"},
	}
	require.NoError(t, store.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	count, err := store.CountByClient(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Faktura", got.Target)

	require.NoError(t, store.Delete(ctx, first.ID))
	assert.ErrorIs(t, store.Delete(ctx, first.ID), domain.ErrNotFound)
}

func TestLeaseLock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	name := "test-" + domain.GenerateID()

	first := NewLeaseLock(db)
	second := NewLeaseLock(db)

	ok, err := first.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// only the holder can release
	require.NoError(t, second.Release(ctx, name))
	ok, err = second.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx, name))
	ok, err = second.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release(ctx, name))
}
