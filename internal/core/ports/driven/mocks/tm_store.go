package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/catforge/cat-core/internal/core/domain"
)

// MockTMStore is a mock implementation of TMStore for testing.
// Entries keep insertion order so matching input is deterministic.
type MockTMStore struct {
	mu      sync.RWMutex
	tms     map[string]*domain.TranslationMemory
	entries []*domain.StoredTMEntry

	// Err, when set, is returned by every call
	Err error
}

// NewMockTMStore creates a new MockTMStore
func NewMockTMStore() *MockTMStore {
	return &MockTMStore{
		tms: make(map[string]*domain.TranslationMemory),
	}
}

func (m *MockTMStore) SaveTM(ctx context.Context, tm *domain.TranslationMemory) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tms[tm.ID] = tm
	return nil
}

func (m *MockTMStore) GetTM(ctx context.Context, id string) (*domain.TranslationMemory, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	tm, ok := m.tms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *tm
	copied.EntryCount = m.countLocked(id)
	return &copied, nil
}

func (m *MockTMStore) ListTMs(ctx context.Context, clientID string) ([]*domain.TranslationMemory, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.TranslationMemory
	for _, tm := range m.tms {
		if clientID == "" || tm.ClientID == clientID {
			copied := *tm
			copied.EntryCount = m.countLocked(tm.ID)
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockTMStore) DeleteTM(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tms[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tms, id)
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.TMID != id {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *MockTMStore) UpsertEntry(ctx context.Context, entry *domain.StoredTMEntry) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.TMID == entry.TMID && e.Source == entry.Source && e.TargetLang == entry.TargetLang {
			e.Target = entry.Target
			e.PrevSource = entry.PrevSource
			e.NextSource = entry.NextSource
			e.UpdatedAt = time.Now()
			entry.ID = e.ID
			return false, nil
		}
	}
	copied := *entry
	m.entries = append(m.entries, &copied)
	return true, nil
}

func (m *MockTMStore) InsertEntries(ctx context.Context, tmID, targetLang string, entries []domain.TMEntry) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, e := range entries {
		m.entries = append(m.entries, &domain.StoredTMEntry{
			ID:         domain.GenerateID(),
			TMID:       tmID,
			TargetLang: targetLang,
			CreatedAt:  now,
			UpdatedAt:  now,
			TMEntry:    e,
		})
	}
	return len(entries), nil
}

func (m *MockTMStore) GetEntry(ctx context.Context, id string) (*domain.StoredTMEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTMStore) ListEntries(ctx context.Context, tmID string) ([]*domain.StoredTMEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.StoredTMEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].TMID == tmID {
			copied := *m.entries[i]
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockTMStore) DeleteEntry(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockTMStore) LoadEntries(ctx context.Context, tmIDs []string) ([]domain.TMEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[string]bool, len(tmIDs))
	for _, id := range tmIDs {
		wanted[id] = true
	}
	var result []domain.TMEntry
	for _, e := range m.entries {
		if wanted[e.TMID] {
			result = append(result, e.TMEntry)
		}
	}
	return result, nil
}

func (m *MockTMStore) CountByClient(ctx context.Context, clientID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, tm := range m.tms {
		if tm.ClientID == clientID {
			count++
		}
	}
	return count, nil
}

// EntryCount returns the number of stored entries of a container
func (m *MockTMStore) EntryCount(tmID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countLocked(tmID)
}

func (m *MockTMStore) countLocked(tmID string) int {
	count := 0
	for _, e := range m.entries {
		if e.TMID == tmID {
			count++
		}
	}
	return count
}
