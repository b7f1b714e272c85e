package task

import (
	"context"

	"github.com/helixml/scmtrack/domain/repository"
)

// TaskStore defines the interface for Task persistence operations.
type TaskStore interface {
	// Get retrieves a task by ID.
	Get(ctx context.Context, id int64) (Task, error)

	// Find retrieves tasks ordered by priority, highest first.
	Find(ctx context.Context, options ...repository.Option) ([]Task, error)

	// Save creates a new task. If a task with the same dedup key is
	// already queued, that task is returned instead.
	Save(ctx context.Context, task Task) (Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, task Task) error

	// Count returns the number of queued tasks.
	Count(ctx context.Context, options ...repository.Option) (int64, error)

	// Dequeue retrieves and removes the highest priority task.
	// Returns the task and true if one was found, or zero-value and false if queue is empty.
	Dequeue(ctx context.Context) (Task, bool, error)
}

// WithOperation filters by task operation.
func WithOperation(op Operation) repository.Option {
	return repository.WithCondition("type", string(op))
}
