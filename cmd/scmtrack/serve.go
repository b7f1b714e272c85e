package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixml/scmtrack/infrastructure/api"
	"github.com/helixml/scmtrack/internal/config"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func serveCmd(envFile *string) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server together with the task worker and periodic sync.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  SCMTRACK_HOST                          Server host to bind to (default: 0.0.0.0)
  SCMTRACK_PORT                          Server port to listen on (default: 8080)
  SCMTRACK_DATA_DIR                      Data directory (default: ~/.scmtrack)
  SCMTRACK_DB_URL                        Database URL (default: sqlite:///{data_dir}/scmtrack.db)
  SCMTRACK_LOG_LEVEL                     DEBUG, INFO, WARN, ERROR (default: INFO)
  SCMTRACK_LOG_FORMAT                    pretty, json (default: pretty)
  SCMTRACK_SETTINGS_FILE                 YAML settings (default: {data_dir}/settings.yaml)
  SCMTRACK_API_KEYS                      Comma-separated keys for mutating requests
  SCMTRACK_WORKER_COUNT                  Repositories fetched in parallel (default: 4)

  SCMTRACK_PERIODIC_SYNC_*               Background fetch scheduler
    ENABLED                              Enable periodic sync (default: true)
    INTERVAL_SECONDS                     Sync interval (default: 1800)
    CHECK_INTERVAL_SECONDS               Scheduler tick (default: 10)
    RETRY_ATTEMPTS                       Enqueue attempts per repository (default: 3)

  SCMTRACK_GITHUB_*                      GitHub adapter
    TOKEN                                Personal access token
    BASE_URL                             GitHub Enterprise API URL`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(ctx context.Context, envFile, host string, port int) error {
	client, cfg, logger, err := openClient(envFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close scmtrack client", slog.String("error", err.Error()))
		}
	}()

	cfg = applyServeOverrides(cfg, host, port)
	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting scmtrack", attrs...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewAPIServer(client)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	select {
	case err := <-errCh:
		return err
	case <-shutdownCtx.Done():
		return nil
	}
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
