package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

const (
	intentStream   = "cat:intents"
	intentGroup    = "cat:intent-workers"
	scheduledSet   = "cat:intents:scheduled"
	indexSet       = "cat:intents:all"
	taskKeyPrefix  = "cat:intent:"
	msgKeyPrefix   = "cat:intent-msg:"
	consumerPrefix = "worker-"

	// taskTTL bounds how long a finished task record survives without a purge
	taskTTL = 24 * time.Hour

	// claimTimeout is how long a delivered message may stay unacked before
	// another consumer takes it over
	claimTimeout = 5 * time.Minute
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// Queue implements TaskQueue on a Redis Stream with a consumer group.
// Task records live in plain keys; the stream only carries task IDs.
// Retries wait in a sorted set scored by due time.
type Queue struct {
	client       redis.UniversalClient
	consumerName string
}

// NewQueue creates the queue and its consumer group.
// consumerName should be unique per worker process.
func NewQueue(ctx context.Context, client redis.UniversalClient, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = consumerPrefix + strconv.FormatInt(time.Now().UnixNano(), 36)
	}

	err := client.XGroupCreateMkStream(ctx, intentStream, intentGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &Queue{client: client, consumerName: consumerName}, nil
}

func taskKey(id string) string { return taskKeyPrefix + id }
func msgKey(id string) string  { return msgKeyPrefix + id }

// stage writes the task record and routes it to the stream or the
// scheduled set depending on its due time
func stage(ctx context.Context, pipe redis.Pipeliner, task *domain.Task, now time.Time) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task %s: %w", task.ID, err)
	}

	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
	pipe.SAdd(ctx, indexSet, task.ID)

	if task.ScheduledFor.After(now) {
		pipe.ZAdd(ctx, scheduledSet, redis.Z{
			Score:  float64(task.ScheduledFor.UnixMilli()),
			Member: task.ID,
		})
		return nil
	}
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: intentStream,
		Values: map[string]any{"task_id": task.ID, "type": string(task.Type)},
	})
	return nil
}

// Enqueue adds a task to the queue.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	return q.EnqueueBatch(ctx, []*domain.Task{task})
}

// EnqueueBatch adds tasks in one round trip.
func (q *Queue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	pipe := q.client.TxPipeline()
	now := time.Now()
	staged := 0
	for _, task := range tasks {
		if task == nil {
			continue
		}
		if err := stage(ctx, pipe, task, now); err != nil {
			return err
		}
		staged++
	}
	if staged == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks until a task is available or ctx is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Task, error) {
	return q.DequeueWithTimeout(ctx, 0)
}

// DequeueWithTimeout waits up to timeout seconds for a task; zero waits
// indefinitely.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	// best effort; a failed promotion is retried on the next call
	_ = q.promoteDue(ctx)

	if task, err := q.claimAbandoned(ctx); err == nil && task != nil {
		return task, nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    intentGroup,
		Consumer: q.consumerName,
		Streams:  []string{intentStream, ">"},
		Count:    1,
		Block:    time.Duration(timeout) * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	return q.start(ctx, streams[0].Messages[0])
}

// start loads the task behind a delivered message and marks it processing.
// Messages without a live task record are dropped.
func (q *Queue) start(ctx context.Context, msg redis.XMessage) (*domain.Task, error) {
	taskID, _ := msg.Values["task_id"].(string)

	var task *domain.Task
	if taskID != "" {
		var err error
		task, err = q.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
	}
	if task == nil {
		q.client.XAck(ctx, intentStream, intentGroup, msg.ID)
		q.client.XDel(ctx, intentStream, msg.ID)
		return nil, nil
	}

	task.MarkProcessing()
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
	pipe.Set(ctx, msgKey(task.ID), msg.ID, taskTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to mark task processing: %w", err)
	}
	return task, nil
}

// finish acknowledges the delivered message of a task and stores the
// updated record. A retried task is re-scheduled.
func (q *Queue) finish(ctx context.Context, task *domain.Task) error {
	msgID, err := q.client.Get(ctx, msgKey(task.ID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get message ID: %w", err)
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, intentStream, intentGroup, msgID)
		pipe.XDel(ctx, intentStream, msgID)
	}
	pipe.Del(ctx, msgKey(task.ID))
	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
	if task.Status == domain.TaskStatusPending {
		pipe.ZAdd(ctx, scheduledSet, redis.Z{
			Score:  float64(task.ScheduledFor.UnixMilli()),
			Member: task.ID,
		})
	}

	_, err = pipe.Exec(ctx)
	return err
}

// Ack marks a task completed.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.ErrNotFound
	}

	task.MarkCompleted()
	if err := q.finish(ctx, task); err != nil {
		return fmt.Errorf("failed to ack task: %w", err)
	}
	return nil
}

// Nack schedules a retry with backoff, or fails the task once its
// attempts are exhausted.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.ErrNotFound
	}

	if task.CanRetry() {
		task.Retry(reason)
	} else {
		task.MarkFailed(reason)
	}
	if err := q.finish(ctx, task); err != nil {
		return fmt.Errorf("failed to nack task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns nil, nil when unknown.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKey(taskID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// loadAll returns every indexed task record. IDs whose record expired are
// removed from the index.
func (q *Queue) loadAll(ctx context.Context) ([]*domain.Task, error) {
	ids, err := q.client.SMembers(ctx, indexSet).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}
	values, err := q.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	var tasks []*domain.Task
	var expired []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var task domain.Task
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			continue
		}
		tasks = append(tasks, &task)
	}
	if len(expired) > 0 {
		q.client.SRem(ctx, indexSet, expired...)
	}
	return tasks, nil
}

// ListTasks retrieves tasks matching the filter, newest first.
func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	all, err := q.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(all))
	for _, task := range all {
		if filter.TMID != "" && task.TMID != filter.TMID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Type != "" && task.Type != filter.Type {
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(tasks) {
			return []*domain.Task{}, nil
		}
		tasks = tasks[filter.Offset:]
	}
	if filter.Limit > 0 && len(tasks) > filter.Limit {
		tasks = tasks[:filter.Limit]
	}
	return tasks, nil
}

// PurgeTasks removes completed/failed tasks older than olderThanSeconds.
func (q *Queue) PurgeTasks(ctx context.Context, olderThanSeconds int) (int, error) {
	all, err := q.loadAll(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)
	pipe := q.client.Pipeline()
	purged := 0
	for _, task := range all {
		finished := task.Status == domain.TaskStatusCompleted || task.Status == domain.TaskStatusFailed
		if finished && task.UpdatedAt.Before(cutoff) {
			pipe.Del(ctx, taskKey(task.ID))
			pipe.SRem(ctx, indexSet, task.ID)
			purged++
		}
	}
	if purged == 0 {
		return 0, nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to purge tasks: %w", err)
	}
	return purged, nil
}

// Stats counts task records by status.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	all, err := q.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &driven.QueueStats{}
	for _, task := range all {
		switch task.Status {
		case domain.TaskStatusPending:
			stats.PendingCount++
		case domain.TaskStatusProcessing:
			stats.ProcessingCount++
		case domain.TaskStatusCompleted:
			stats.CompletedCount++
		case domain.TaskStatusFailed:
			stats.FailedCount++
		}
	}
	return stats, nil
}

// Ping checks if Redis is reachable.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close is a no-op; the client is shared.
func (q *Queue) Close() error {
	return nil
}

// promoteDue moves scheduled tasks whose due time has passed onto the stream.
func (q *Queue) promoteDue(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, scheduledSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(time.Now().UnixMilli(), 10),
	}).Result()
	if err != nil || len(due) == 0 {
		return err
	}

	pipe := q.client.TxPipeline()
	for _, id := range due {
		// ZRem first so concurrent promoters do not double-add
		removed, err := q.client.ZRem(ctx, scheduledSet, id).Result()
		if err != nil || removed == 0 {
			continue
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: intentStream,
			Values: map[string]any{"task_id": id},
		})
	}
	_, err = pipe.Exec(ctx)
	return err
}

// claimAbandoned takes over a message another consumer left unacked for
// longer than claimTimeout.
func (q *Queue) claimAbandoned(ctx context.Context) (*domain.Task, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: intentStream,
		Group:  intentGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   intentStream,
			Group:    intentGroup,
			Consumer: q.consumerName,
			MinIdle:  claimTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}

		task, err := q.start(ctx, claimed[0])
		if err != nil || task == nil {
			continue
		}
		return task, nil
	}
	return nil, nil
}
