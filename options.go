package scmtrack

import (
	"io"
	"log/slog"
	"time"

	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/infrastructure/github"
	"github.com/helixml/scmtrack/internal/config"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dbURL            string
	dataDir          string
	mirrorDir        string
	logger           *slog.Logger
	apiKeys          []string
	workerCount      int
	workerPollPeriod time.Duration
	settings         config.Settings
	github           config.GitHubConfig
	githubOptions    []github.Option
	scms             map[scm.Kind]scm.Constructor
	periodicSync     config.PeriodicSyncConfig
	background       bool
	closers          []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:      config.DefaultDataDir(),
		workerCount:  config.DefaultWorkerCount,
		settings:     config.NewSettings(),
		scms:         make(map[scm.Kind]scm.Constructor),
		periodicSync: config.NewPeriodicSyncConfig(),
		background:   true,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores data in the SQLite file at path.
// Use ":memory:" for a throwaway database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = "sqlite:///" + path
	}
}

// WithPostgres stores data in the PostgreSQL database at dsn.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.dbURL = dsn
	}
}

// WithDatabaseURL sets the database from a sqlite:/// or postgres:// URL.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithDataDir sets the data directory for mirrors and database storage.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithMirrorDir sets where remote git repositories are mirrored.
// If not specified, defaults to {dataDir}/mirrors.
func WithMirrorDir(dir string) Option {
	return func(c *clientConfig) {
		c.mirrorDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the API keys for HTTP API authentication.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithWorkerCount sets how many repositories FetchAll fetches at once.
// Values <= 0 are ignored.
func WithWorkerCount(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithWorkerPollPeriod sets how often the background worker checks for new tasks.
// Defaults to 1 second.
func WithWorkerPollPeriod(d time.Duration) Option {
	return func(c *clientConfig) {
		c.workerPollPeriod = d
	}
}

// WithSettings sets the enabled SCM kinds and the commit message keywords.
func WithSettings(s config.Settings) Option {
	return func(c *clientConfig) {
		c.settings = s
	}
}

// WithGitHub configures the github adapter.
func WithGitHub(cfg config.GitHubConfig, opts ...github.Option) Option {
	return func(c *clientConfig) {
		c.github = cfg
		c.githubOptions = opts
	}
}

// WithSCM registers an adapter constructor for kind, replacing the
// built-in one if there is one.
func WithSCM(kind scm.Kind, constructor scm.Constructor) Option {
	return func(c *clientConfig) {
		c.scms[kind] = constructor
	}
}

// WithPeriodicSyncConfig sets the periodic sync configuration.
func WithPeriodicSyncConfig(cfg config.PeriodicSyncConfig) Option {
	return func(c *clientConfig) {
		c.periodicSync = cfg
	}
}

// WithoutBackground keeps the worker and periodic sync stopped. One-shot
// commands use this and call the services directly.
func WithoutBackground() Option {
	return func(c *clientConfig) {
		c.background = false
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(c io.Closer) Option {
	return func(cfg *clientConfig) {
		cfg.closers = append(cfg.closers, c)
	}
}
