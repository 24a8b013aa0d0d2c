// Command worker consumes claim lifecycle events from Kafka.  It keeps the
// cached stats report fresh and surfaces flagged claims in the logs for
// investigators.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/infrastructure/database/redis"
	"github.com/fraudlens/fraudlens/internal/infrastructure/messaging/kafka"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
)

var workerTopics = []string{
	kafka.TopicClaimAnalyzed,
	kafka.TopicClaimFlagged,
}

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (default: environment only)")
	opsAddr := flag.String("ops-addr", ":9090", "listen address for health and metrics endpoints")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if cfg.Log.Output != "" {
		logCfg.OutputPaths = []string{cfg.Log.Output}
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("worker")

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "fraudlens",
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		logger.Fatal("metrics collector failed", logging.Err(err))
	}
	metrics := prometheus.NewAppMetrics(collector)

	var statsCache *redis.StatsCache
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, stats cache will not be invalidated", logging.Err(err))
	} else {
		defer redisClient.Close()
		statsCache = redis.NewStatsCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opsSrv := startOpsServer(*opsAddr, collector, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = opsSrv.Shutdown(shutdownCtx)
	}()

	concurrency := cfg.Worker.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	logger.Info("starting claim-event workers",
		logging.Int("concurrency", concurrency),
		logging.Any("topics", workerTopics),
	)

	// Each worker owns its own group member; Kafka balances partitions
	// across them.
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Worker, workerTopics, logger, metrics)
		consumer.Handle(kafka.TopicClaimAnalyzed, analyzedHandler(statsCache, logger))
		consumer.Handle(kafka.TopicClaimFlagged, flaggedHandler(logger))

		wg.Add(1)
		go func(c *kafka.Consumer, id int) {
			defer wg.Done()
			defer c.Close()
			if err := c.Run(ctx); err != nil {
				logger.Error("consumer stopped", logging.Int("worker", id), logging.Err(err))
			}
		}(consumer, i)
	}

	wg.Wait()
	logger.Info("worker stopped")
}

// analyzedHandler invalidates the cached stats report whenever a new claim
// lands; the next stats read recomputes it from the store.
func analyzedHandler(cache *redis.StatsCache, logger logging.Logger) kafka.MessageHandler {
	return func(ctx context.Context, env *kafka.EventEnvelope) error {
		var payload kafka.ClaimAnalyzedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("worker: malformed analyzed payload: %w", err)
		}

		logger.Debug("claim analyzed",
			logging.String("claim_id", payload.ClaimID),
			logging.String("status", payload.Status),
		)

		if cache == nil {
			return nil
		}
		if err := cache.Invalidate(ctx); err != nil {
			return fmt.Errorf("worker: stats invalidation: %w", err)
		}
		return nil
	}
}

// flaggedHandler logs high-risk claims at WARN so investigators can pick
// them up from the aggregated logs.
func flaggedHandler(logger logging.Logger) kafka.MessageHandler {
	return func(_ context.Context, env *kafka.EventEnvelope) error {
		var payload kafka.ClaimFlaggedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("worker: malformed flagged payload: %w", err)
		}

		fields := []logging.Field{
			logging.String("claim_id", payload.ClaimID),
			logging.Float64("risk_score", payload.RiskScore),
		}
		if payload.Doctor != nil {
			fields = append(fields, logging.String("doctor", *payload.Doctor))
		}
		if payload.Diagnosis != nil {
			fields = append(fields, logging.String("diagnosis", *payload.Diagnosis))
		}
		if payload.Cost != nil {
			fields = append(fields, logging.Float64("cost", *payload.Cost))
		}
		logger.Warn("high-risk claim flagged", fields...)
		return nil
	}
}

// startOpsServer exposes liveness and metrics for the worker process.
func startOpsServer(addr string, collector prometheus.MetricsCollector, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ops server failed", logging.Err(err))
		}
	}()
	return srv
}
