package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
	"github.com/catforge/cat-core/internal/metrics"
)

// TaskHandler applies a dequeued persistence intent.
// services.PersistenceHandler is the production implementation.
type TaskHandler interface {
	Handle(ctx context.Context, task *domain.Task) error
}

// Worker drains persistence intents from the task queue.
type Worker struct {
	taskQueue driven.TaskQueue
	handler   TaskHandler
	lock      driven.DistributedLock
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds
	purgeInterval  time.Duration
	retention      time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Handler        TaskHandler
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent task processors
	DequeueTimeout int // Seconds to wait for a task before checking again

	// PurgeInterval is how often finished tasks are purged. Zero disables purging.
	PurgeInterval time.Duration
	// Retention is how long finished tasks are kept before purging
	Retention time.Duration
	// Lock, when set, keeps concurrent instances from purging at the same time
	Lock driven.DistributedLock
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		handler:        cfg.Handler,
		lock:           cfg.Lock,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
		purgeInterval:  cfg.PurgeInterval,
		retention:      retention,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	if w.purgeInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.purgeLoop(ctx)
		}()
	}

	go func() {
		wg.Wait()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker, letting in-flight tasks finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running || w.stopCh == nil {
		w.mu.Unlock()
		return
	}
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh
	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	w.mu.RLock()
	doneCh := w.doneCh
	w.mu.RUnlock()
	if doneCh != nil {
		<-doneCh
	}
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Debug("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			w.backoff(ctx)
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

func (w *Worker) backoff(ctx context.Context) {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	case <-w.stopCh:
	}
}

// processTask applies a single task and acks or nacks it.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "tm_id", task.TMID)
	logger.Debug("processing task", "attempt", task.Attempts)

	startTime := time.Now()
	err := w.handler.Handle(ctx, task)
	duration := time.Since(startTime)

	metrics.RecordTask(string(task.Type), err == nil, duration)

	if err != nil {
		logger.Error("task failed",
			"duration", duration,
			"error", err,
		)

		// Nack the task so it can be retried
		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)

	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// purgeLoop removes finished tasks older than the retention period.
func (w *Worker) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(w.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.purge(ctx)
		}
	}
}

const purgeLockName = "intent-purge"

// purge runs one purge pass, skipping it if another instance holds the lock.
func (w *Worker) purge(ctx context.Context) {
	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx, purgeLockName, w.purgeInterval)
		if err != nil {
			w.logger.Warn("failed to acquire purge lock", "error", err)
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := w.lock.Release(context.WithoutCancel(ctx), purgeLockName); err != nil {
				w.logger.Warn("failed to release purge lock", "error", err)
			}
		}()
	}

	purged, err := w.taskQueue.PurgeTasks(ctx, int(w.retention.Seconds()))
	if err != nil {
		w.logger.Warn("failed to purge tasks", "error", err)
		return
	}
	if purged > 0 {
		w.logger.Info("purged finished tasks", "count", purged)
	}
}

// Health returns health status of the worker.
type Health struct {
	Running     bool               `json:"running"`
	QueueHealth bool               `json:"queue_health"`
	Queue       *driven.QueueStats `json:"queue,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
		return health
	}
	health.QueueHealth = true

	if stats, err := w.taskQueue.Stats(ctx); err == nil {
		health.Queue = stats
	}

	return health
}
