package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/helixml/scmtrack/domain/task"
	"github.com/helixml/scmtrack/internal/log"
)

// Handler executes a specific task operation.
type Handler interface {
	Execute(ctx context.Context, payload map[string]any) error
}

// Registry manages task handlers for different operations.
type Registry struct {
	handlers map[task.Operation]Handler
	mu       sync.RWMutex
}

// NewRegistry creates a new handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[task.Operation]Handler),
	}
}

// Register registers a handler for an operation.
func (r *Registry) Register(operation task.Operation, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[operation] = handler
}

// Handler returns the handler for an operation.
func (r *Registry) Handler(operation task.Operation) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[operation]
	return handler, ok
}

// Validate reports an error naming the first operation without a handler.
func (r *Registry) Validate(operations []task.Operation) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, op := range operations {
		if _, ok := r.handlers[op]; !ok {
			return fmt.Errorf("no handler registered for %s", op)
		}
	}
	return nil
}

// Operations returns all registered operations, sorted.
func (r *Registry) Operations() []task.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]task.Operation, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}

// Worker processes tasks from the queue. Dequeuing removes a task, so a
// failed task is not retried; the next periodic sync queues it again.
type Worker struct {
	store      task.TaskStore
	registry   *Registry
	logger     *slog.Logger
	pollPeriod time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorker creates a new queue worker.
func NewWorker(store task.TaskStore, registry *Registry, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:      store,
		registry:   registry,
		logger:     logger,
		pollPeriod: time.Second,
	}
}

// WithPollPeriod sets the poll period for checking new tasks.
func (w *Worker) WithPollPeriod(d time.Duration) *Worker {
	w.pollPeriod = d
	return w
}

// Start begins processing tasks from the queue.
// The worker runs in a goroutine and can be stopped with Stop().
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Go(func() {
		w.run(ctx)
	})

	w.logger.Info("queue worker started")
}

// Stop gracefully shuts down the worker.
// It waits for the current task to complete before returning.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.logger.Info("queue worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain everything that is queued before sleeping again.
			for {
				found, err := w.ProcessOne(ctx)
				if ctx.Err() != nil {
					return
				}
				if err != nil {
					w.logger.Error("error processing task", slog.String("error", err.Error()))
				}
				if !found {
					break
				}
			}
		}
	}
}

// ProcessOne dequeues and runs a single task. It reports whether a task
// was found.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	t, found, err := w.store.Dequeue(ctx)
	if err != nil {
		return false, fmt.Errorf("dequeue: %w", err)
	}
	if !found {
		return false, nil
	}
	return true, w.processTask(ctx, t)
}

func (w *Worker) processTask(ctx context.Context, t task.Task) error {
	start := time.Now()
	attrs := []any{
		slog.Int64("task_id", t.ID()),
		slog.String("operation", t.Operation().String()),
	}

	h, ok := w.registry.Handler(t.Operation())
	if !ok {
		return fmt.Errorf("task %d: no handler for %s", t.ID(), t.Operation())
	}

	if id := payloadRepoID(t.Payload()); id > 0 {
		ctx = log.WithRepositoryID(ctx, id)
	}

	w.logger.InfoContext(ctx, "processing task", attrs...)
	if err := w.executeWithRecovery(ctx, h, t); err != nil {
		return fmt.Errorf("task %d %s: %w", t.ID(), t.Operation(), err)
	}

	w.logger.InfoContext(ctx, "task completed", append(attrs, slog.Duration("duration", time.Since(start)))...)
	return nil
}

func (w *Worker) executeWithRecovery(ctx context.Context, h Handler, t task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Execute(ctx, t.Payload())
}
