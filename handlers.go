package scmtrack

import (
	repohandler "github.com/helixml/scmtrack/application/handler/repository"
	"github.com/helixml/scmtrack/domain/task"
)

// registerHandlers registers all task handlers with the worker registry.
func (c *Client) registerHandlers() {
	c.registry.Register(task.OperationFetchRepository, repohandler.NewFetch(c.Synchronizer, c.logger))
	c.registry.Register(task.OperationScanRepository, repohandler.NewScan(c.Scanner, c.logger))
	c.registry.Register(task.OperationPurgeRepository, repohandler.NewPurge(c.Synchronizer, c.Tasks, c.logger))
}
