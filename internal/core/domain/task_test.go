package domain

import (
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	id1 := GenerateID()
	id2 := GenerateID()

	if id1 == "" || id2 == "" {
		t.Error("expected non-empty ID")
	}
	if id1 == id2 {
		t.Error("expected unique IDs")
	}
	// Canonical UUID string form
	if len(id1) != 36 {
		t.Errorf("expected ID length 36, got %d", len(id1))
	}
}

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypeEntryAdded, "tm-123")

	if task.ID == "" {
		t.Error("expected non-empty ID")
	}
	if task.Type != TaskTypeEntryAdded {
		t.Errorf("expected type %s, got %s", TaskTypeEntryAdded, task.Type)
	}
	if task.TMID != "tm-123" {
		t.Errorf("expected tm ID tm-123, got %s", task.TMID)
	}
	if task.Status != TaskStatusPending {
		t.Errorf("expected status %s, got %s", TaskStatusPending, task.Status)
	}
	if task.Attempts != 0 {
		t.Errorf("expected attempts 0, got %d", task.Attempts)
	}
	if task.MaxAttempts != 3 {
		t.Errorf("expected max attempts 3, got %d", task.MaxAttempts)
	}
	if task.CreatedAt.IsZero() || task.ScheduledFor.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestNewEntryAddedTask(t *testing.T) {
	entry := TMEntry{Source: "Save", Target: "저장", PrevSource: "Cancel"}

	task := NewEntryAddedTask("tm-1", "ko", entry)

	if task.Type != TaskTypeEntryAdded {
		t.Errorf("expected type %s, got %s", TaskTypeEntryAdded, task.Type)
	}
	if task.TargetLang != "ko" {
		t.Errorf("expected target lang ko, got %s", task.TargetLang)
	}
	if len(task.Entries) != 1 || task.Entries[0] != entry {
		t.Errorf("expected entry to be carried, got %+v", task.Entries)
	}
}

func TestNewEntriesImportedTask(t *testing.T) {
	entries := []TMEntry{{Source: "a", Target: "b"}, {Source: "c", Target: "d"}}

	task := NewEntriesImportedTask("tm-1", "de", entries)

	if task.Type != TaskTypeEntriesImported {
		t.Errorf("expected type %s, got %s", TaskTypeEntriesImported, task.Type)
	}
	if len(task.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(task.Entries))
	}
}

func TestNewEntryDeletedTask(t *testing.T) {
	task := NewEntryDeletedTask("tm-1", "entry-9")

	if task.Type != TaskTypeEntryDeleted {
		t.Errorf("expected type %s, got %s", TaskTypeEntryDeleted, task.Type)
	}
	if task.EntryID != "entry-9" {
		t.Errorf("expected entry ID entry-9, got %s", task.EntryID)
	}
}

func TestTask_CanRetry(t *testing.T) {
	tests := []struct {
		name        string
		attempts    int
		maxAttempts int
		expected    bool
	}{
		{"no attempts yet", 0, 3, true},
		{"two attempts", 2, 3, true},
		{"max attempts reached", 3, 3, false},
		{"over max attempts", 4, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Attempts: tt.attempts, MaxAttempts: tt.maxAttempts}
			if got := task.CanRetry(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTask_IsReady(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name         string
		status       TaskStatus
		scheduledFor time.Time
		expected     bool
	}{
		{"pending and past scheduled", TaskStatusPending, past, true},
		{"pending and future scheduled", TaskStatusPending, future, false},
		{"processing", TaskStatusProcessing, past, false},
		{"completed", TaskStatusCompleted, past, false},
		{"failed", TaskStatusFailed, past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Status: tt.status, ScheduledFor: tt.scheduledFor}
			if got := task.IsReady(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTask_Lifecycle(t *testing.T) {
	task := NewTask(TaskTypeEntryAdded, "tm-1")

	task.MarkProcessing()
	if task.Status != TaskStatusProcessing || task.StartedAt == nil || task.Attempts != 1 {
		t.Errorf("unexpected processing state: %+v", task)
	}

	task.Error = "previous"
	task.MarkCompleted()
	if task.Status != TaskStatusCompleted || task.CompletedAt == nil || task.Error != "" {
		t.Errorf("unexpected completed state: %+v", task)
	}

	task.MarkFailed("boom")
	if task.Status != TaskStatusFailed || task.Error != "boom" {
		t.Errorf("unexpected failed state: %+v", task)
	}
}

func TestTask_Retry_ExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempts        int
		expectedBackoff time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			task := NewTask(TaskTypeEntryAdded, "tm-1")
			task.Attempts = tt.attempts
			before := time.Now()

			task.Retry("error")

			expectedMin := before.Add(tt.expectedBackoff)
			expectedMax := before.Add(tt.expectedBackoff + time.Second)

			if task.Status != TaskStatusPending {
				t.Errorf("expected status pending, got %s", task.Status)
			}
			if task.ScheduledFor.Before(expectedMin) || task.ScheduledFor.After(expectedMax) {
				t.Errorf("attempts=%d: expected ScheduledFor between %v and %v, got %v",
					tt.attempts, expectedMin, expectedMax, task.ScheduledFor)
			}
		})
	}
}
