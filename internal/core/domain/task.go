package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	return uuid.NewString()
}

// TaskType identifies the persistence intent carried by a task
type TaskType string

const (
	// TaskTypeEntryAdded upserts a single entry confirmed in an editor session
	TaskTypeEntryAdded TaskType = "entry_added"
	// TaskTypeEntryDeleted removes an entry by ID
	TaskTypeEntryDeleted TaskType = "entry_deleted"
	// TaskTypeEntriesImported appends a batch of imported entries
	TaskTypeEntriesImported TaskType = "entries_imported"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task is a persistence intent emitted by the core and applied by workers.
// Applying the same task twice must leave the store unchanged.
type Task struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// Type identifies what kind of intent this is
	Type TaskType `json:"type"`

	// TMID is the container the intent targets
	TMID string `json:"tm_id"`

	// TargetLang is the target language of the entries
	TargetLang string `json:"target_lang,omitempty"`

	// EntryID identifies the entry for entry_deleted
	EntryID string `json:"entry_id,omitempty"`

	// Entries carries the entry data for entry_added and entries_imported
	Entries []TMEntry `json:"entries,omitempty"`
	// Status is the current state of the task
	Status TaskStatus `json:"status"`

	// Attempts is how many times this task has been attempted
	Attempts int `json:"attempts"`

	// MaxAttempts is the maximum retry count before giving up
	MaxAttempts int `json:"max_attempts"`

	// Error contains the last error message if failed
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ScheduledFor is when the task should be processed (for retries)
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewTask creates a new task with default values
func NewTask(taskType TaskType, tmID string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         taskType,
		TMID:         tmID,
		Status:       TaskStatusPending,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewEntryAddedTask creates an intent to upsert one entry
func NewEntryAddedTask(tmID, targetLang string, entry TMEntry) *Task {
	t := NewTask(TaskTypeEntryAdded, tmID)
	t.TargetLang = targetLang
	t.Entries = []TMEntry{entry}
	return t
}

// NewEntriesImportedTask creates an intent to append a batch of entries
func NewEntriesImportedTask(tmID, targetLang string, entries []TMEntry) *Task {
	t := NewTask(TaskTypeEntriesImported, tmID)
	t.TargetLang = targetLang
	t.Entries = entries
	return t
}

// NewEntryDeletedTask creates an intent to delete an entry
func NewEntryDeletedTask(tmID, entryID string) *Task {
	t := NewTask(TaskTypeEntryDeleted, tmID)
	t.EntryID = entryID
	return t
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// IsReady returns true if the task is ready to be processed
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && !time.Now().Before(t.ScheduledFor)
}

// MarkProcessing updates the task to processing state
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted updates the task to completed state
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed updates the task to failed state
func (t *Task) MarkFailed(err string) {
	t.Status = TaskStatusFailed
	t.UpdatedAt = time.Now()
	t.Error = err
}

// Retry resets the task for retry with exponential backoff
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err

	// 1s, 2s, 4s, ... capped at 5 minutes
	backoff := time.Duration(1<<t.Attempts) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	t.ScheduledFor = now.Add(backoff)
}
