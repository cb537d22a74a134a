package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/catforge/cat-core/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock keeps named locks in memory with their expiry and
// counts lock traffic for assertions.
type MockDistributedLock struct {
	mu       sync.Mutex
	locks    map[string]time.Time
	acquired int
	released int

	// AcquireFn overrides Acquire when set
	AcquireFn func(name string, ttl time.Duration) (bool, error)
}

// NewMockDistributedLock creates an empty lock table
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{locks: make(map[string]time.Time)}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if expiry, ok := m.locks[name]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[name] = time.Now().Add(ttl)
	m.acquired++
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, name)
	m.released++
	return nil
}

// SetLockHeld pretends another instance holds name for ttl
func (m *MockDistributedLock) SetLockHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[name] = time.Now().Add(ttl)
}

// IsHeld reports whether name is currently held
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.locks[name]
	return ok && time.Now().Before(expiry)
}

// Counts returns how many times the lock was acquired and released
func (m *MockDistributedLock) Counts() (acquired, released int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired, m.released
}
