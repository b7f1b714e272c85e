// Package repository provides the task handlers for repository operations.
package repository

import (
	"context"
	"log/slog"

	"github.com/helixml/scmtrack/application/handler"
	"github.com/helixml/scmtrack/application/service"
)

// Fetch handles the scmtrack.repository.fetch task operation.
// It mirrors new changesets of one repository and scans them.
type Fetch struct {
	synchronizer *service.Synchronizer
	logger       *slog.Logger
}

// NewFetch creates a new Fetch handler.
func NewFetch(synchronizer *service.Synchronizer, logger *slog.Logger) *Fetch {
	return &Fetch{
		synchronizer: synchronizer,
		logger:       logger,
	}
}

// Execute processes the fetch task.
func (h *Fetch) Execute(ctx context.Context, payload map[string]any) error {
	repoID, err := handler.ExtractInt64(payload, "repository_id")
	if err != nil {
		return err
	}

	n, err := h.synchronizer.FetchChangesets(ctx, repoID)
	if err != nil {
		return err
	}

	h.logger.Debug("fetch task finished",
		slog.Int64("repository_id", repoID),
		slog.Int("changesets", n),
	)
	return nil
}
