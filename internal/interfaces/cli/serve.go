package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reubenai/dealsense/internal/bootstrap"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
)

// newServeCmd launches the REST API server in the foreground.
func newServeCmd(opts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dealsense API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			bootstrap.Version = Version
			logger.Info("starting api server",
				logging.String("version", Version),
				logging.Int("port", cfg.Server.Port))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return bootstrap.RunAPIServer(ctx, cfg, logger)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	return cmd
}

// newWorkerCmd launches the background enrichment worker in the foreground.
func newWorkerCmd(opts *RootOptions) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background enrichment worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Enrichment.Concurrency = concurrency
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			bootstrap.Version = Version
			logger.Info("starting worker", logging.String("version", Version))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return bootstrap.RunWorker(ctx, cfg, logger)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "enrichment pack concurrency (overrides config)")
	return cmd
}
