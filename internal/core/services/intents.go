package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

// Ensure IntentDispatcher implements IntentSink
var _ driven.IntentSink = (*IntentDispatcher)(nil)

// DefaultIntentBuffer is the dispatcher buffer size when none is configured
const DefaultIntentBuffer = 1024

// IntentDispatcher is the non-blocking IntentSink used by the core.
// Emitted intents are buffered and a single goroutine moves them onto the
// task queue. A full buffer drops the intent.
type IntentDispatcher struct {
	queue          driven.TaskQueue
	logger         *slog.Logger
	enqueueTimeout time.Duration

	ch   chan *domain.Task
	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopped bool
	dropped int64
}

// IntentDispatcherConfig holds dispatcher configuration
type IntentDispatcherConfig struct {
	Queue          driven.TaskQueue
	Logger         *slog.Logger
	BufferSize     int
	EnqueueTimeout time.Duration
}

// NewIntentDispatcher creates a dispatcher. Call Start before emitting.
func NewIntentDispatcher(cfg IntentDispatcherConfig) *IntentDispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultIntentBuffer
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 5 * time.Second
	}

	return &IntentDispatcher{
		queue:          cfg.Queue,
		logger:         cfg.Logger,
		enqueueTimeout: cfg.EnqueueTimeout,
		ch:             make(chan *domain.Task, cfg.BufferSize),
		done:           make(chan struct{}),
	}
}

// Start launches the drain goroutine
func (d *IntentDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running || d.stopped {
		return
	}
	d.running = true

	d.wg.Add(1)
	go d.drain()
}

// Emit buffers an intent without blocking. The send happens under d.mu so
// an accepted intent is always in the buffer before Stop closes done.
func (d *IntentDispatcher) Emit(task *domain.Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return domain.ErrServiceUnavailable
	}

	select {
	case d.ch <- task:
		return nil
	default:
		d.dropped++
		d.logger.Warn("intent buffer full, dropping intent",
			"task_id", task.ID,
			"task_type", task.Type,
			"tm_id", task.TMID,
			"error", domain.ErrQueueFull)
		return domain.ErrQueueFull
	}
}

// Stop stops accepting intents and flushes the buffered ones
func (d *IntentDispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	running := d.running
	d.mu.Unlock()

	close(d.done)
	if running {
		d.wg.Wait()
	}
}

// Pending returns how many intents are waiting in the buffer
func (d *IntentDispatcher) Pending() int {
	return len(d.ch)
}

// Dropped returns how many intents were rejected because the buffer was full
func (d *IntentDispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *IntentDispatcher) drain() {
	defer d.wg.Done()

	for {
		select {
		case task := <-d.ch:
			d.enqueue(task)
		case <-d.done:
			// flush what is already buffered
			for {
				select {
				case task := <-d.ch:
					d.enqueue(task)
				default:
					return
				}
			}
		}
	}
}

func (d *IntentDispatcher) enqueue(task *domain.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.enqueueTimeout)
	defer cancel()

	if err := d.queue.Enqueue(ctx, task); err != nil {
		d.logger.Error("failed to enqueue intent",
			"task_id", task.ID,
			"task_type", task.Type,
			"tm_id", task.TMID,
			"error", err)
		return
	}
	d.logger.Debug("intent enqueued", "task_id", task.ID, "task_type", task.Type)
}
