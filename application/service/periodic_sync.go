package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/task"
	"github.com/helixml/scmtrack/internal/config"
)

// PeriodicSync enqueues a fetch for every repository once per interval.
// It wakes every check interval to see whether a cycle is due.
type PeriodicSync struct {
	repositories  repository.RepositoryStore
	queue         *Queue
	logger        *slog.Logger
	interval      time.Duration
	checkInterval time.Duration
	retries       int
	enabled       bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodicSync creates a new PeriodicSync from config and dependencies.
func NewPeriodicSync(
	cfg config.PeriodicSyncConfig,
	repositories repository.RepositoryStore,
	queue *Queue,
	logger *slog.Logger,
) *PeriodicSync {
	if logger == nil {
		logger = slog.Default()
	}
	check := cfg.CheckInterval()
	if check <= 0 || check > cfg.Interval() {
		check = cfg.Interval()
	}
	return &PeriodicSync{
		repositories:  repositories,
		queue:         queue,
		logger:        logger,
		interval:      cfg.Interval(),
		checkInterval: check,
		retries:       max(cfg.RetryAttempts(), 0),
		enabled:       cfg.Enabled() && cfg.Interval() > 0,
	}
}

// Start begins periodic sync in a background goroutine.
// If disabled, this is a no-op.
func (p *PeriodicSync) Start(ctx context.Context) {
	if !p.enabled {
		p.logger.Info("periodic sync disabled")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Go(func() {
		p.run(ctx)
	})

	p.logger.Info("periodic sync started", slog.Duration("interval", p.interval))
}

// Stop cancels the background goroutine and waits for it to finish.
func (p *PeriodicSync) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	p.logger.Info("periodic sync stopped")
}

func (p *PeriodicSync) run(ctx context.Context) {
	// Sync immediately on startup
	p.sync(ctx)
	last := time.Now()

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Sub(last) < p.interval {
				continue
			}
			p.sync(ctx)
			last = now
		}
	}
}

func (p *PeriodicSync) sync(ctx context.Context) {
	repos, err := p.repositories.Find(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("periodic sync failed to find repositories",
			slog.String("error", err.Error()),
		)
		return
	}

	for _, repo := range repos {
		if err := p.enqueue(ctx, repo.ID()); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("periodic sync failed to enqueue",
				slog.Int64("repository_id", repo.ID()),
				slog.String("error", err.Error()),
			)
		}
	}

	p.logger.Debug("periodic sync enqueued", slog.Int("count", len(repos)))
}

func (p *PeriodicSync) enqueue(ctx context.Context, repoID int64) error {
	var err error
	for range p.retries + 1 {
		_, err = p.queue.EnqueueRepository(ctx, task.OperationFetchRepository, repoID, task.PriorityBackground, nil)
		if err == nil || ctx.Err() != nil {
			return err
		}
	}
	return err
}
