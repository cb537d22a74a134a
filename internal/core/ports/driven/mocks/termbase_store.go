package mocks

import (
	"context"
	"sync"

	"github.com/catforge/cat-core/internal/core/domain"
)

// MockTermbaseStore is a mock implementation of TermbaseStore for testing
type MockTermbaseStore struct {
	mu      sync.RWMutex
	entries []*domain.StoredTermbaseEntry
}

// NewMockTermbaseStore creates a new MockTermbaseStore
func NewMockTermbaseStore() *MockTermbaseStore {
	return &MockTermbaseStore{}
}

func (m *MockTermbaseStore) Upsert(ctx context.Context, entry *domain.StoredTermbaseEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ClientID == entry.ClientID && e.Source == entry.Source {
			e.Target = entry.Target
			e.Note = entry.Note
			e.UpdatedAt = entry.UpdatedAt
			entry.ID = e.ID
			return nil
		}
	}
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *MockTermbaseStore) Get(ctx context.Context, id string) (*domain.StoredTermbaseEntry, error) {
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

func (m *MockTermbaseStore) List(ctx context.Context, clientID string) ([]*domain.StoredTermbaseEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.StoredTermbaseEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if clientID == "" || e.ClientID == clientID {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockTermbaseStore) Delete(ctx context.Context, id string) error {
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

func (m *MockTermbaseStore) CountByClient(ctx context.Context, clientID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.entries {
		if e.ClientID == clientID {
			count++
		}
	}
	return count, nil
}
