package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven/mocks"
)

func TestIntentDispatcher_DeliversToQueue(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	d := NewIntentDispatcher(IntentDispatcherConfig{Queue: queue})
	d.Start()

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Emit(domain.NewEntryDeletedTask("tm-1", "entry-1")))
	}

	assert.Eventually(t, func() bool {
		return queue.Enqueued() == 5
	}, time.Second, 5*time.Millisecond)

	d.Stop()
}

func TestIntentDispatcher_FullBufferDrops(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	// not started, so nothing drains the buffer
	d := NewIntentDispatcher(IntentDispatcherConfig{Queue: queue, BufferSize: 2})

	require.NoError(t, d.Emit(domain.NewEntryDeletedTask("tm-1", "entry-1")))
	require.NoError(t, d.Emit(domain.NewEntryDeletedTask("tm-1", "entry-1")))

	err := d.Emit(domain.NewEntryDeletedTask("tm-1", "entry-1"))
	assert.ErrorIs(t, err, domain.ErrQueueFull)
	assert.Equal(t, int64(1), d.Dropped())
	assert.Equal(t, 2, d.Pending())
}

func TestIntentDispatcher_StopFlushes(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	d := NewIntentDispatcher(IntentDispatcherConfig{Queue: queue, BufferSize: 10})

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Emit(domain.NewEntryDeletedTask("tm-1", "entry-1")))
	}
	d.Start()
	d.Stop()

	assert.Equal(t, 3, queue.Enqueued())
	assert.ErrorIs(t, d.Emit(domain.NewEntryDeletedTask("tm-1", "entry-1")), domain.ErrServiceUnavailable)
}

func TestIntentDispatcher_EnqueueFailureIsLogged(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	queue.EnqueueFn = func(*domain.Task) error { return errors.New("redis down") }
	d := NewIntentDispatcher(IntentDispatcherConfig{Queue: queue})
	d.Start()

	require.NoError(t, d.Emit(domain.NewEntryDeletedTask("tm-1", "entry-1")))
	d.Stop()

	assert.Equal(t, 0, queue.Enqueued())
}

func TestIntentDispatcher_AcceptedIntentsSurviveStop(t *testing.T) {
	for round := 0; round < 20; round++ {
		queue := mocks.NewMockTaskQueue()
		d := NewIntentDispatcher(IntentDispatcherConfig{Queue: queue, BufferSize: 64})
		d.Start()

		var accepted atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					if d.Emit(domain.NewEntryDeletedTask("tm-1", "entry-1")) == nil {
						accepted.Add(1)
					}
				}
			}()
		}
		d.Stop()
		wg.Wait()

		// every Emit that returned nil reached the queue
		require.Equal(t, int(accepted.Load()), queue.Enqueued(), "round %d", round)
	}
}
