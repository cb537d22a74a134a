package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionSnapshotStore = (*SnapshotStore)(nil)

const (
	snapshotPrefix = "cat:session:"
	snapshotIndex  = "cat:sessions"

	// DefaultSnapshotTTL is how long an untouched session survives
	DefaultSnapshotTTL = 7 * 24 * time.Hour
)

// SnapshotStore keeps editor session snapshots as JSON strings with a
// sliding TTL. A set indexes the live session IDs.
type SnapshotStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSnapshotStore creates a SnapshotStore. ttl <= 0 uses DefaultSnapshotTTL.
func NewSnapshotStore(client redis.UniversalClient, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotStore{client: client, ttl: ttl}
}

// Save stores a snapshot and refreshes its TTL
func (s *SnapshotStore) Save(ctx context.Context, snapshot *domain.SessionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, snapshotPrefix+snapshot.ID, data, s.ttl)
	pipe.SAdd(ctx, snapshotIndex, snapshot.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Get retrieves a snapshot by session ID
func (s *SnapshotStore) Get(ctx context.Context, id string) (*domain.SessionSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// Delete removes a snapshot
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, snapshotPrefix+id)
	pipe.SRem(ctx, snapshotIndex, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns the IDs of live sessions, pruning expired ones from the index
func (s *SnapshotStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, snapshotIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	live := make([]string, 0, len(ids))
	var expired []any
	for _, id := range ids {
		n, err := s.client.Exists(ctx, snapshotPrefix+id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check snapshot: %w", err)
		}
		if n == 0 {
			expired = append(expired, id)
			continue
		}
		live = append(live, id)
	}
	if len(expired) > 0 {
		s.client.SRem(ctx, snapshotIndex, expired...)
	}

	sort.Strings(live)
	return live, nil
}
