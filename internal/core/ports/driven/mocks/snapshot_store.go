package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/catforge/cat-core/internal/core/domain"
)

// MockSnapshotStore is a mock implementation of SessionSnapshotStore for
// testing. Snapshots are stored serialised so callers cannot alias them.
type MockSnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	saves     int
}

// NewMockSnapshotStore creates a new MockSnapshotStore
func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{
		snapshots: make(map[string][]byte),
	}
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot *domain.SessionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.ID] = data
	m.saves++
	return nil
}

func (m *MockSnapshotStore) Get(ctx context.Context, id string) (*domain.SessionSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.snapshots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (m *MockSnapshotStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, id)
	return nil
}

func (m *MockSnapshotStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

// Saves returns how many times Save was called
func (m *MockSnapshotStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
