package driven

import "github.com/catforge/cat-core/internal/core/domain"

// IntentSink receives persistence intents emitted by the core.
// Emit must not block; an intent that cannot be accepted is reported
// with domain.ErrQueueFull and dropped.
type IntentSink interface {
	Emit(task *domain.Task) error
}
