// Package scmtrack mirrors the history of source-control repositories into
// a local database and links commits to the issues their messages mention.
//
// Basic usage:
//
//	client, err := scmtrack.New(
//	    scmtrack.WithSQLite(".scmtrack/scmtrack.db"),
//	    scmtrack.WithGitHub(config.NewGitHubConfig(os.Getenv("GITHUB_TOKEN"), "")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	repo, err := client.Repositories.Create(ctx, service.RepositoryCreateParams{
//	    ProjectID: 1,
//	    Kind:      "git",
//	    URL:       "https://github.com/go-git/go-git.git",
//	})
//
//	// Pull new commits and link them to issues
//	n, err := client.Synchronizer.FetchChangesets(ctx, repo.ID())
//
//	// Query the cached history
//	facade, err := client.Repositories.Facade(ctx, repo.ID())
//	latest, err := facade.LatestChangesets(ctx, "/README.md", "", 10)
package scmtrack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/helixml/scmtrack/application/service"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/domain/task"
	"github.com/helixml/scmtrack/infrastructure/git"
	"github.com/helixml/scmtrack/infrastructure/github"
	"github.com/helixml/scmtrack/infrastructure/persistence"
	"github.com/helixml/scmtrack/internal/config"
	"github.com/helixml/scmtrack/internal/database"
)

// Client is the main entry point for the scmtrack library.
// Unless WithoutBackground is given, the task worker and periodic sync
// start on creation.
//
// Access resources via struct fields:
//
//	client.Repositories.List(ctx)
//	client.Synchronizer.FetchAll(ctx)
//	client.Tasks.EnqueueRepository(ctx, task.OperationFetchRepository, id, task.PriorityUserInitiated, nil)
type Client struct {
	Repositories *service.Repositories
	Synchronizer *service.Synchronizer
	Scanner      *service.Scanner
	Identities   *service.IdentityResolver
	Tasks        *service.Queue

	db           database.Database
	scms         *scm.Registry
	settings     config.Settings
	worker       *service.Worker
	periodicSync *service.PeriodicSync
	registry     *service.Registry
	closers      []io.Closer

	logger     *slog.Logger
	dataDir    string
	apiKeys    []string
	background bool
	closed     atomic.Bool
	mu         sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dbURL == "" {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}
	mirrorDir := cfg.mirrorDir
	if mirrorDir == "" {
		mirrorDir = filepath.Join(dataDir, "mirrors")
	}

	scms := scm.NewRegistry()
	git.Register(scms, git.NewMirror(mirrorDir, logger), logger)
	github.Register(scms, cfg.github, logger, cfg.githubOptions...)
	for kind, constructor := range cfg.scms {
		scms.Register(kind, constructor)
	}
	if err := scms.Validate(cfg.settings.EnabledSCM()); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, cfg.dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	repoStore := persistence.NewRepositoryStore(db)
	changesetStore := persistence.NewChangesetStore(db)
	taskStore := persistence.NewTaskStore(db)

	repositories := service.NewRepositories(repoStore, changesetStore, scms, cfg.settings, logger)
	scanner := service.NewScanner(
		repoStore,
		changesetStore,
		persistence.NewIssueStore(db),
		persistence.NewStatusStore(db),
		persistence.NewProjectStore(db),
		persistence.NewRelationStore(db),
		cfg.settings,
		logger,
	)
	identities := service.NewIdentityResolver(changesetStore, persistence.NewUserStore(db), logger)
	queue := service.NewQueue(taskStore, logger)

	registry := service.NewRegistry()
	worker := service.NewWorker(taskStore, registry, logger)
	if cfg.workerPollPeriod > 0 {
		worker.WithPollPeriod(cfg.workerPollPeriod)
	}

	client := &Client{
		Repositories: repositories,
		Synchronizer: service.NewSynchronizer(repositories, changesetStore, identities, scanner, cfg.workerCount, logger),
		Scanner:      scanner,
		Identities:   identities,
		Tasks:        queue,
		db:           db,
		scms:         scms,
		settings:     cfg.settings,
		worker:       worker,
		periodicSync: service.NewPeriodicSync(cfg.periodicSync, repoStore, queue, logger),
		registry:     registry,
		closers:      cfg.closers,
		logger:       logger,
		dataDir:      dataDir,
		apiKeys:      cfg.apiKeys,
		background:   cfg.background,
	}

	client.registerHandlers()
	if err := registry.Validate(task.All()); err != nil {
		_ = db.Close()
		return nil, err
	}

	if client.background {
		worker.Start(ctx)
		client.periodicSync.Start(ctx)
	}

	logger.Info("scmtrack client ready",
		slog.String("data_dir", dataDir),
		slog.Any("scm", repositories.AvailableKinds()),
	)
	return client, nil
}

// Close releases all resources and stops the background worker.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.background {
		c.periodicSync.Stop()
		c.worker.Stop()
	}

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("scmtrack client closed")
	return nil
}

// ProcessPendingTasks runs queued tasks in the calling goroutine until the
// queue is empty, returning how many ran. Task failures are logged.
func (c *Client) ProcessPendingTasks(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}
	ran := 0
	for {
		found, err := c.worker.ProcessOne(ctx)
		if !found {
			return ran, err
		}
		ran++
		if err != nil {
			c.logger.Error("task failed", slog.String("error", err.Error()))
		}
	}
}

// Settings returns the settings the client was built with.
func (c *Client) Settings() config.Settings {
	return c.settings
}

// APIKeys returns the keys that authorize mutating API requests.
func (c *Client) APIKeys() []string {
	return append([]string(nil), c.apiKeys...)
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}
