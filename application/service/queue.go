package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/task"
)

// TaskListParams configures task listing.
type TaskListParams struct {
	Operation *task.Operation
	Limit     int
	Offset    int
}

// Queue provides the main interface for enqueuing and managing tasks.
type Queue struct {
	store  task.TaskStore
	logger *slog.Logger
}

// NewQueue creates a new queue service.
func NewQueue(store task.TaskStore, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		store:  store,
		logger: logger,
	}
}

// Enqueue adds a task to the queue.
// If a task with the same dedup_key exists, it updates the priority instead.
func (s *Queue) Enqueue(ctx context.Context, t task.Task) (task.Task, error) {
	saved, err := s.store.Save(ctx, t)
	if err != nil {
		return task.Task{}, fmt.Errorf("enqueue %s: %w", t.Operation(), err)
	}

	s.logger.Debug("task enqueued",
		slog.String("dedup_key", t.DedupKey()),
		slog.String("operation", t.Operation().String()),
	)
	return saved, nil
}

// EnqueueRepository queues op for a repository. extra is merged into the
// payload.
func (s *Queue) EnqueueRepository(
	ctx context.Context,
	op task.Operation,
	repositoryID int64,
	priority task.Priority,
	extra map[string]any,
) (task.Task, error) {
	payload := map[string]any{"repository_id": repositoryID}
	for k, v := range extra {
		payload[k] = v
	}
	return s.Enqueue(ctx, task.NewTask(op, int(priority), payload))
}

// List returns tasks matching the given params, highest priority first.
func (s *Queue) List(ctx context.Context, params *TaskListParams) ([]task.Task, error) {
	var options []repository.Option
	if params != nil && params.Operation != nil {
		options = append(options, task.WithOperation(*params.Operation))
	}
	if params != nil && params.Limit > 0 {
		options = append(options, repository.WithPagination(params.Limit, params.Offset)...)
	}
	return s.store.Find(ctx, options...)
}

// Count returns the total number of pending tasks.
func (s *Queue) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// Get retrieves a task by ID.
func (s *Queue) Get(ctx context.Context, id int64) (task.Task, error) {
	return s.store.Get(ctx, id)
}

// DrainForRepository removes all pending tasks whose payload contains
// the given repository_id, so nothing runs against a deleted repository.
func (s *Queue) DrainForRepository(ctx context.Context, repoID int64) (int, error) {
	tasks, err := s.store.Find(ctx)
	if err != nil {
		return 0, fmt.Errorf("find pending tasks: %w", err)
	}

	removed := 0
	for _, t := range tasks {
		if payloadRepoID(t.Payload()) != repoID {
			continue
		}
		if err := s.store.Delete(ctx, t); err != nil {
			return removed, fmt.Errorf("delete task %d: %w", t.ID(), err)
		}
		removed++
	}
	return removed, nil
}

func payloadRepoID(payload map[string]any) int64 {
	val, ok := payload["repository_id"]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
