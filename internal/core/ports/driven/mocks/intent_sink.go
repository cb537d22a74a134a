package mocks

import (
	"sync"

	"github.com/catforge/cat-core/internal/core/domain"
)

// MockIntentSink records emitted intents for testing
type MockIntentSink struct {
	mu    sync.Mutex
	tasks []*domain.Task

	// Err, when set, is returned by Emit and the intent is dropped
	Err error
}

// NewMockIntentSink creates a new MockIntentSink
func NewMockIntentSink() *MockIntentSink {
	return &MockIntentSink{}
}

func (m *MockIntentSink) Emit(task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

// Tasks returns the recorded intents in emission order
func (m *MockIntentSink) Tasks() []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}
