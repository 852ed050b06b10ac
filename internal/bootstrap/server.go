package bootstrap

import (
	"context"

	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	httpserver "github.com/reubenai/dealsense/internal/interfaces/http"
	"github.com/reubenai/dealsense/internal/interfaces/http/handlers"
)

// RunAPIServer wires the App, applies migrations and serves the REST API
// until ctx is cancelled.
func RunAPIServer(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	if err := RunMigrations(cfg); err != nil {
		return err
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	checkers := []handlers.HealthChecker{
		handlers.CheckerFunc{CheckName: "postgres", Probe: app.Postgres.HealthCheck},
	}
	if app.Redis != nil {
		checkers = append(checkers,
			handlers.CheckerFunc{CheckName: "redis", Probe: app.Redis.HealthCheck})
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		DealHandler: handlers.NewDealHandler(app.DealService),
		FundHandler: handlers.NewFundHandler(app.FundService),
		EnrichmentHandler: handlers.NewEnrichmentHandler(
			app.EnrichmentService, app.DealService, app.EnrichmentRepo),
		AnalysisHandler: handlers.NewAnalysisHandler(
			app.AnalysisService, app.MemoService, app.ExportService),
		IndustryHandler: handlers.NewIndustryHandler(
			app.Classifier, app.DealService, app.FundService),
		HealthHandler: handlers.NewHealthHandler(Version, checkers...),
		Logger:        logger,
		Metrics:       app.Metrics,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", logging.Int("port", cfg.Server.Port))
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Server.Shutdown applies the configured drain timeout itself.
	return srv.Shutdown(context.Background())
}
