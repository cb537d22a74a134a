package mocks

import (
	"context"
	"sync"

	"github.com/catforge/cat-core/internal/core/domain"
)

// MockClientStore is a mock implementation of ClientStore for testing
type MockClientStore struct {
	mu      sync.RWMutex
	clients map[string]*domain.Client
}

// NewMockClientStore creates a new MockClientStore
func NewMockClientStore() *MockClientStore {
	return &MockClientStore{
		clients: make(map[string]*domain.Client),
	}
}

func (m *MockClientStore) Save(ctx context.Context, client *domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.ID] = client
	return nil
}

func (m *MockClientStore) Get(ctx context.Context, id string) (*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, ok := m.clients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return client, nil
}

func (m *MockClientStore) List(ctx context.Context) ([]*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Client
	for _, client := range m.clients {
		result = append(result, client)
	}
	return result, nil
}

func (m *MockClientStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}
