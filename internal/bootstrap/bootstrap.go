// Package bootstrap assembles the full dependency graph shared by the
// apiserver and worker entry points: infrastructure clients, domain and
// application services, and the HTTP surface.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/reubenai/dealsense/internal/application/analysis"
	"github.com/reubenai/dealsense/internal/application/enrichment"
	"github.com/reubenai/dealsense/internal/application/export"
	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/domain/baseline"
	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/domain/fund"
	"github.com/reubenai/dealsense/internal/domain/industry"
	"github.com/reubenai/dealsense/internal/domain/memo"
	"github.com/reubenai/dealsense/internal/infrastructure/database/postgres"
	"github.com/reubenai/dealsense/internal/infrastructure/database/postgres/repositories"
	"github.com/reubenai/dealsense/internal/infrastructure/database/redis"
	"github.com/reubenai/dealsense/internal/infrastructure/messaging/kafka"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	prom "github.com/reubenai/dealsense/internal/infrastructure/monitoring/prometheus"
	"github.com/reubenai/dealsense/internal/infrastructure/research"
	"github.com/reubenai/dealsense/internal/infrastructure/storage/minio"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// Version is injected at build time via ldflags.
var Version = "dev"

// App holds every wired component.  Optional infrastructure (Redis, Kafka,
// MinIO) may be nil when the backing service is unreachable at startup; the
// dependent features degrade instead of blocking boot.
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *prom.Metrics

	Postgres *postgres.Connection
	Redis    *redis.Client
	Producer *kafka.Producer
	Store    *minio.Store

	DealRepo       *repositories.DealRepository
	FundRepo       *repositories.FundRepository
	StrategyRepo   *repositories.StrategyRepository
	EnrichmentRepo *repositories.EnrichmentRepository
	AnalysisRepo   *repositories.AnalysisRepository
	ActivityRepo   *repositories.ActivityRepository
	MemoRepo       *repositories.MemoRepository
	ExportRepo     *repositories.ExportRepository
	OpsRepo        *repositories.OpsRepository

	Classifier *industry.Classifier

	DealService       *deal.Service
	FundService       *fund.Service
	MemoService       *memo.Service
	EnrichmentService *enrichment.Service
	AnalysisService   *analysis.Service
	ExportService     *export.Service
}

// rescorerAdapter narrows the analysis service to the fire-and-forget
// contract the enrichment orchestrator expects.
type rescorerAdapter struct {
	analyzer *analysis.Service
}

func (r rescorerAdapter) Rescore(ctx context.Context, dealID common.ID) error {
	_, err := r.analyzer.Rescore(ctx, dealID)
	return err
}

// NewApp wires the platform from configuration.  PostgreSQL is the only
// hard dependency; Redis, Kafka and MinIO failures are logged and their
// features run degraded.
func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: prom.New(),
	}

	pg, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	app.Postgres = pg

	db := pg.DB()
	app.DealRepo = repositories.NewDealRepository(db, logger)
	app.FundRepo = repositories.NewFundRepository(db, logger)
	app.StrategyRepo = repositories.NewStrategyRepository(db, logger)
	app.EnrichmentRepo = repositories.NewEnrichmentRepository(db, logger)
	app.AnalysisRepo = repositories.NewAnalysisRepository(db, logger)
	app.ActivityRepo = repositories.NewActivityRepository(db, logger)
	app.MemoRepo = repositories.NewMemoRepository(db, logger)
	app.ExportRepo = repositories.NewExportRepository(db, logger)
	app.OpsRepo = repositories.NewOpsRepository(db, logger)

	if rc, err := redis.NewClient(cfg.Redis, logger); err != nil {
		logger.Warn("redis unavailable, enrichment cache disabled", logging.Err(err))
	} else {
		app.Redis = rc
	}

	if producer, err := kafka.NewProducer(cfg.Kafka, logger); err != nil {
		logger.Warn("kafka unavailable, pipeline events disabled", logging.Err(err))
	} else {
		app.Producer = producer
	}

	if store, err := minio.NewStore(cfg.MinIO, logger); err != nil {
		logger.Warn("minio unavailable, packet export disabled", logging.Err(err))
	} else {
		app.Store = store
	}

	app.Classifier = industry.NewClassifier(nil)

	app.DealService = deal.NewService(app.DealRepo, app.ActivityRepo, logger)
	app.FundService = fund.NewService(app.FundRepo, app.StrategyRepo, nil, logger)
	app.MemoService = memo.NewService(app.MemoRepo, logger)

	app.AnalysisService = analysis.NewService(
		app.DealRepo,
		app.FundRepo,
		app.StrategyRepo,
		app.EnrichmentRepo,
		app.AnalysisRepo,
		app.ActivityRepo,
		app.Classifier,
		baseline.NewGenerator(nil),
		logger,
	)

	providers := enrichment.Providers{
		LLM:      research.NewOpenAIClient(cfg.Research, logger),
		Grounded: research.NewPerplexityClient(cfg.Research, logger),
		Search:   research.NewGoogleSearchClient(cfg.Research, logger),
	}

	var cache enrichment.Cache
	if app.Redis != nil {
		cache = redis.NewCache(app.Redis, logger)
	}
	var publisher enrichment.Publisher
	if app.Producer != nil {
		publisher = app.Producer
	}

	app.EnrichmentService = enrichment.NewService(
		app.DealRepo,
		app.FundRepo,
		app.EnrichmentRepo,
		providers,
		cache,
		app.OpsRepo,
		app.OpsRepo,
		publisher,
		rescorerAdapter{analyzer: app.AnalysisService},
		enrichment.Config{
			Concurrency: cfg.Enrichment.Concurrency,
			PackTimeout: cfg.Enrichment.PackTimeout,
			CacheTTL:    cfg.Enrichment.CacheTTL,
		},
		logger,
	)

	var store export.ObjectStore
	if app.Store != nil {
		store = app.Store
	}
	app.ExportService = export.NewService(
		app.DealRepo,
		app.MemoRepo,
		app.AnalysisRepo,
		store,
		app.ExportRepo,
		cfg.MinIO.PresignExpiry,
		logger,
	)

	return app, nil
}

// MigrationSourceURL normalises the configured migrations path into the
// source URL golang-migrate expects.
func MigrationSourceURL(cfg *config.Config) string {
	path := cfg.Database.MigrationPath
	if path == "" {
		path = "migrations"
	}
	if !strings.Contains(path, "://") {
		path = "file://" + path
	}
	return path
}

// RunMigrations applies pending schema migrations for the configured
// database.
func RunMigrations(cfg *config.Config) error {
	return postgres.RunMigrations(postgres.BuildDSN(cfg.Database), MigrationSourceURL(cfg))
}

// Close releases infrastructure in reverse dependency order.  Safe on a
// partially-constructed App.
func (a *App) Close() {
	if a.Producer != nil {
		if err := a.Producer.Close(); err != nil {
			a.Logger.Warn("kafka producer close", logging.Err(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("redis close", logging.Err(err))
		}
	}
	if a.Postgres != nil {
		if err := a.Postgres.Close(); err != nil {
			a.Logger.Warn("postgres close", logging.Err(err))
		}
	}
}
