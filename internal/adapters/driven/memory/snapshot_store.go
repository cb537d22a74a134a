// Package memory holds process-local adapters used when Redis is not
// configured.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

// DefaultSnapshotCapacity bounds how many sessions are kept
const DefaultSnapshotCapacity = 1024

var _ driven.SessionSnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps session snapshots in a bounded LRU. The least
// recently saved or read session is evicted first. Snapshots are stored
// serialised so callers never share segment slices with the store.
type SnapshotStore struct {
	cache *lru.Cache
}

// NewSnapshotStore creates a store holding at most capacity sessions.
func NewSnapshotStore(capacity int) (*SnapshotStore, error) {
	if capacity <= 0 {
		capacity = DefaultSnapshotCapacity
	}
	cache, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}
	return &SnapshotStore{cache: cache}, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snapshot *domain.SessionSnapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return fmt.Errorf("%w: snapshot id is required", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	s.cache.Add(snapshot.ID, data)
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, id string) (*domain.SessionSnapshot, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(v.([]byte), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	if !s.cache.Remove(id) {
		return domain.ErrNotFound
	}
	return nil
}

// List returns the stored session IDs in sorted order.
func (s *SnapshotStore) List(ctx context.Context) ([]string, error) {
	keys := s.cache.Keys()
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k.(string))
	}
	sort.Strings(ids)
	return ids, nil
}
