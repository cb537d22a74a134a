package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

// MockTaskQueue is an in-memory FIFO TaskQueue for testing.
// The hook functions, when set, replace the default behaviour.
type MockTaskQueue struct {
	mu       sync.Mutex
	pending  []*domain.Task
	tasks    map[string]*domain.Task
	acked    []string
	nacked   []string
	enqueued int

	DequeueDelay time.Duration
	EnqueueFn    func(*domain.Task) error
	DequeueFn    func() (*domain.Task, error)
	AckFn        func(string) error
	NackFn       func(string, string) error
	PingFn       func() error
}

// NewMockTaskQueue creates a new MockTaskQueue
func NewMockTaskQueue() *MockTaskQueue {
	return &MockTaskQueue{
		tasks: make(map[string]*domain.Task),
	}
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	if m.EnqueueFn != nil {
		if err := m.EnqueueFn(task); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, task)
	m.tasks[task.ID] = task
	m.enqueued++
	return nil
}

func (m *MockTaskQueue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	for _, t := range tasks {
		if err := m.Enqueue(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockTaskQueue) Dequeue(ctx context.Context) (*domain.Task, error) {
	if m.DequeueFn != nil {
		return m.DequeueFn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil, nil
	}
	task := m.pending[0]
	m.pending = m.pending[1:]
	task.MarkProcessing()
	return task, nil
}

func (m *MockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	if m.DequeueDelay > 0 {
		select {
		case <-time.After(m.DequeueDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Dequeue(ctx)
}

func (m *MockTaskQueue) Ack(ctx context.Context, taskID string) error {
	if m.AckFn != nil {
		return m.AckFn(taskID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, taskID)
	if t, ok := m.tasks[taskID]; ok {
		t.MarkCompleted()
	}
	return nil
}

func (m *MockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	if m.NackFn != nil {
		return m.NackFn(taskID, reason)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nacked = append(m.nacked, taskID)
	if t, ok := m.tasks[taskID]; ok {
		t.MarkFailed(reason)
	}
	return nil
}

func (m *MockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[taskID], nil
}

func (m *MockTaskQueue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Task
	for _, t := range m.tasks {
		if filter.TMID != "" && t.TMID != filter.TMID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (m *MockTaskQueue) PurgeTasks(ctx context.Context, olderThan int) (int, error) {
	return 0, nil
}

func (m *MockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &driven.QueueStats{
		PendingCount:   int64(len(m.pending)),
		CompletedCount: int64(len(m.acked)),
		FailedCount:    int64(len(m.nacked)),
	}, nil
}

func (m *MockTaskQueue) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

func (m *MockTaskQueue) Close() error {
	return nil
}

// Enqueued returns how many tasks were accepted
func (m *MockTaskQueue) Enqueued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enqueued
}

// Acked returns the IDs of acknowledged tasks
func (m *MockTaskQueue) Acked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

// Nacked returns the IDs of failed tasks
func (m *MockTaskQueue) Nacked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.nacked...)
}

// Verify interface compliance
var (
	_ driven.TMStore              = (*MockTMStore)(nil)
	_ driven.TermbaseStore        = (*MockTermbaseStore)(nil)
	_ driven.ClientStore          = (*MockClientStore)(nil)
	_ driven.SessionSnapshotStore = (*MockSnapshotStore)(nil)
	_ driven.IntentSink           = (*MockIntentSink)(nil)
	_ driven.TaskQueue            = (*MockTaskQueue)(nil)
)
