package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/reubenai/dealsense/internal/application/enrichment"
	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/infrastructure/messaging/kafka"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/pkg/types/common"
)

const defaultWorkerHealthPort = 8081

// RunWorker wires the App and consumes enrichment requests from Kafka
// until ctx is cancelled.  Each message triggers a full enrichment run;
// pack failures degrade inside the run and never nack the message.
func RunWorker(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	if err := RunMigrations(cfg); err != nil {
		return err
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.ConsumerConfig{
		Topics:          []string{kafka.TopicEnrichmentRequested},
		MaxRetries:      cfg.Worker.MaxRetries,
		RetryBackoff:    cfg.Worker.RetryBackoff,
		DeadLetterTopic: kafka.TopicDeadLetter,
	}, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	defer consumer.Close()

	consumer.Subscribe(kafka.TopicEnrichmentRequested, enrichmentHandler(app, cfg, logger))

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	logger.Info("worker consuming",
		logging.String("topic", kafka.TopicEnrichmentRequested),
		logging.String("group", cfg.Kafka.GroupID))

	healthSrv := startWorkerHealthServer(cfg, app, logger)

	<-ctx.Done()
	logger.Info("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown", logging.Err(err))
	}
	return nil
}

// enrichmentHandler turns an enrichment.requested event into a service run.
// A run whose packs all degraded is still a success from the bus's point
// of view; only deal/fund resolution failures bubble up for retry.
func enrichmentHandler(app *App, cfg *config.Config, logger logging.Logger) kafka.Handler {
	return func(ctx context.Context, env *kafka.EventEnvelope) error {
		var payload kafka.EnrichmentRequestedPayload
		if err := env.DecodePayload(&payload); err != nil {
			return err
		}

		timeout := cfg.Worker.HandlerTimeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result, err := app.EnrichmentService.Run(runCtx, enrichment.RunRequest{
			DealID:       common.ID(payload.DealID),
			FundID:       common.ID(payload.FundID),
			Packs:        payload.Packs,
			ForceRefresh: payload.ForceRefresh,
		})
		if err != nil {
			return err
		}

		logger.Info("enrichment run completed",
			logging.String("deal_id", payload.DealID),
			logging.Int("packs", len(result.Outcomes)),
			logging.Int("degraded", result.Degraded))
		return nil
	}
}

// startWorkerHealthServer exposes the probe endpoints and metrics for the
// worker deployment.
func startWorkerHealthServer(cfg *config.Config, app *App, logger logging.Logger) *http.Server {
	port := cfg.Worker.HealthPort
	if port <= 0 {
		port = defaultWorkerHealthPort
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := app.Postgres.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", app.Metrics.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("worker health server listening", logging.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker health server", logging.Err(err))
		}
	}()

	return srv
}
