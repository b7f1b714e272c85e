package main

import (
	"fmt"
	"log/slog"

	"github.com/helixml/scmtrack"
	"github.com/helixml/scmtrack/internal/config"
	"github.com/helixml/scmtrack/internal/log"
)

// clientOptions returns the scmtrack.Option slice derived from AppConfig.
// Callers append entrypoint-specific options (WithoutBackground, etc.)
// before passing the full slice to scmtrack.New.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) ([]scmtrack.Option, error) {
	settings, err := config.LoadSettings(cfg.SettingsFile())
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	opts := []scmtrack.Option{
		scmtrack.WithDataDir(cfg.DataDir()),
		scmtrack.WithDatabaseURL(cfg.DBURL()),
		scmtrack.WithLogger(logger),
		scmtrack.WithSettings(settings),
		scmtrack.WithGitHub(cfg.GitHub()),
		scmtrack.WithWorkerCount(cfg.WorkerCount()),
		scmtrack.WithPeriodicSyncConfig(cfg.PeriodicSync()),
	}

	if keys := cfg.APIKeys(); len(keys) > 0 {
		opts = append(opts, scmtrack.WithAPIKeys(keys...))
	}

	return opts, nil
}

// openClient loads configuration and builds a client. extra options are
// applied after the configured ones.
func openClient(envFile string, extra ...scmtrack.Option) (*scmtrack.Client, config.AppConfig, *slog.Logger, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return nil, config.AppConfig{}, nil, err
	}

	logger := log.Configure(cfg)
	opts, err := clientOptions(cfg, logger)
	if err != nil {
		return nil, config.AppConfig{}, nil, err
	}

	client, err := scmtrack.New(append(opts, extra...)...)
	if err != nil {
		return nil, config.AppConfig{}, nil, fmt.Errorf("create scmtrack client: %w", err)
	}
	return client, cfg, logger, nil
}
