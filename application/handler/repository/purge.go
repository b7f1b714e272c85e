package repository

import (
	"context"
	"log/slog"

	"github.com/helixml/scmtrack/application/handler"
	"github.com/helixml/scmtrack/application/service"
)

// Purge handles the scmtrack.repository.purge task operation.
// It removes a repository's cached history and, when the payload sets
// "delete", the repository itself.
type Purge struct {
	synchronizer *service.Synchronizer
	queue        *service.Queue
	logger       *slog.Logger
}

// NewPurge creates a new Purge handler.
func NewPurge(synchronizer *service.Synchronizer, queue *service.Queue, logger *slog.Logger) *Purge {
	return &Purge{
		synchronizer: synchronizer,
		queue:        queue,
		logger:       logger,
	}
}

// Execute processes the purge task.
func (h *Purge) Execute(ctx context.Context, payload map[string]any) error {
	repoID, err := handler.ExtractInt64(payload, "repository_id")
	if err != nil {
		return err
	}
	remove, err := handler.ExtractBool(payload, "delete")
	if err != nil {
		return err
	}

	if !remove {
		return h.synchronizer.Purge(ctx, repoID)
	}

	// Queued fetches would otherwise run against a deleted repository.
	drained, err := h.queue.DrainForRepository(ctx, repoID)
	if err != nil {
		h.logger.Warn("failed to drain pending tasks", slog.String("error", err.Error()))
	}
	if drained > 0 {
		h.logger.Info("drained pending tasks for repository",
			slog.Int64("repository_id", repoID),
			slog.Int("drained", drained),
		)
	}

	return h.synchronizer.Delete(ctx, repoID)
}
