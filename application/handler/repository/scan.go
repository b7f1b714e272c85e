package repository

import (
	"context"
	"log/slog"

	"github.com/helixml/scmtrack/application/handler"
	"github.com/helixml/scmtrack/application/service"
)

// Scan handles the scmtrack.repository.scan task operation.
// The optional "force" payload flag rescans changesets already scanned.
type Scan struct {
	scanner *service.Scanner
	logger  *slog.Logger
}

// NewScan creates a new Scan handler.
func NewScan(scanner *service.Scanner, logger *slog.Logger) *Scan {
	return &Scan{
		scanner: scanner,
		logger:  logger,
	}
}

// Execute processes the scan task.
func (h *Scan) Execute(ctx context.Context, payload map[string]any) error {
	repoID, err := handler.ExtractInt64(payload, "repository_id")
	if err != nil {
		return err
	}
	force, err := handler.ExtractBool(payload, "force")
	if err != nil {
		return err
	}

	_, err = h.scanner.ScanRepository(ctx, repoID, force)
	return err
}
