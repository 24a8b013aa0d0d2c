// Package bootstrap assembles the API server from configuration.  It is
// shared by cmd/apiserver and the CLI serve command so both boot the exact
// same process.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/fraudlens/fraudlens/internal/application/analysis"
	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/database/postgres"
	"github.com/fraudlens/fraudlens/internal/infrastructure/database/postgres/repositories"
	"github.com/fraudlens/fraudlens/internal/infrastructure/database/redis"
	"github.com/fraudlens/fraudlens/internal/infrastructure/messaging/kafka"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
	"github.com/fraudlens/fraudlens/internal/infrastructure/storage/minio"
	"github.com/fraudlens/fraudlens/internal/ingestion"
	"github.com/fraudlens/fraudlens/internal/intelligence/anomaly"
	httpserver "github.com/fraudlens/fraudlens/internal/interfaces/http"
	"github.com/fraudlens/fraudlens/internal/interfaces/http/handlers"
)

// App bundles the running API server with the infrastructure clients it
// owns, so shutdown can close them in order.
type App struct {
	cfg    *config.Config
	logger logging.Logger
	server *httpserver.Server

	conn        *postgres.Connection
	redisClient *redis.Client
	producer    *kafka.Producer
}

// NewApp wires the full API server: Postgres with migrations, the optional
// Redis cache, MinIO archive, and Kafka producer, the anomaly model, and the
// HTTP layer.  Postgres is required; the optional backends degrade to nil
// with a warning so a partial deployment still serves requests.
func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "fraudlens",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: metrics collector: %w", err)
	}
	metrics := prometheus.NewAppMetrics(collector)

	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: postgres: %w", err)
	}
	if cfg.Database.MigrationPath != "" {
		if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
			conn.Close()
			return nil, fmt.Errorf("bootstrap: migrations: %w", err)
		}
	}
	repo := repositories.NewClaimRepository(conn.DB(), logger, metrics)

	app := &App{cfg: cfg, logger: logger, conn: conn}

	var statsCache analysis.StatsCache
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, stats served without cache", logging.Err(err))
	} else {
		app.redisClient = redisClient
		statsCache = redis.NewStatsCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL, logger)
	}

	var archive claim.DocumentArchive
	minioClient, err := minio.NewClient(cfg.MinIO, logger)
	if err != nil {
		logger.Warn("object store unavailable, documents will not be archived", logging.Err(err))
	} else {
		archive = minio.NewDocumentArchive(minioClient, metrics)
	}

	var publisher claim.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		app.producer = kafka.NewProducer(cfg.Kafka, logger, metrics)
		publisher = app.producer
	} else {
		logger.Warn("no kafka brokers configured, claim events will not be published")
	}

	scorer, err := anomaly.NewScorer(cfg.Model.ArtifactPath, logger)
	if err != nil {
		app.closeClients()
		return nil, fmt.Errorf("bootstrap: model artifact: %w", err)
	}
	engine := anomaly.NewFeatureEngine(anomaly.EngineParams{
		Contamination: cfg.Model.Contamination,
		MinHistory:    cfg.Model.MinHistory,
	}, logger)

	pipeline, err := analysis.NewPipeline(analysis.PipelineParams{
		Repo:              repo,
		Engine:            engine,
		Scorer:            scorer,
		Publisher:         publisher,
		Logger:            logger,
		Metrics:           metrics,
		HighRiskThreshold: cfg.Model.HighRiskThreshold,
	})
	if err != nil {
		app.closeClients()
		return nil, fmt.Errorf("bootstrap: pipeline: %w", err)
	}

	stats, err := analysis.NewStatsService(repo, statsCache, logger, metrics)
	if err != nil {
		app.closeClients()
		return nil, fmt.Errorf("bootstrap: stats service: %w", err)
	}

	claimHandler := handlers.NewClaimHandler(handlers.ClaimHandlerParams{
		Pipeline:  pipeline,
		Stats:     stats,
		Validator: ingestion.NewValidator(cfg.Ingestion),
		Extractor: ingestion.NewCommandExtractor(cfg.Ingestion, logger),
		Archive:   archive,
		Logger:    logger,
		Metrics:   metrics,
	})

	health := handlers.NewHealthHandler()
	health.Register("postgres", conn)
	if app.redisClient != nil {
		health.Register("redis", app.redisClient)
	}
	if minioClient != nil {
		health.Register("minio", minioClient)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ClaimHandler:  claimHandler,
		HealthHandler: health,
		Auth:          cfg.Auth,
		Logger:        logger,
		Metrics:       metrics,
		Collector:     collector,
		Mode:          cfg.Server.Mode,
		MaxBodySize:   cfg.Server.MaxBodySize,
	})

	app.server = httpserver.NewServer(cfg.Server, router, logger)
	return app, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// everything down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("API server listening", logging.Int("port", a.cfg.Server.Port))
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		a.closeClients()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Stop(shutdownCtx)
	a.closeClients()
	return err
}

// closeClients releases infrastructure connections in reverse dependency
// order.
func (a *App) closeClients() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close failed", logging.Err(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Warn("postgres close failed", logging.Err(err))
		}
	}
}
