package analysis

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
)

// StatsCache is the cache-aside contract for the aggregate stats report.
// A miss returns (nil, nil); only transport-level failures return errors.
type StatsCache interface {
	Get(ctx context.Context) (*claim.Stats, error)
	Set(ctx context.Context, stats *claim.Stats) error
	Invalidate(ctx context.Context) error
}

// StatsService serves the aggregate claim statistics and records adjuster
// feedback.  The cache is optional; without one every read hits the store.
type StatsService struct {
	repo    claim.Repository
	cache   StatsCache
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewStatsService constructs a StatsService.  cache may be nil.
func NewStatsService(repo claim.Repository, cache StatsCache, logger logging.Logger, metrics *prometheus.AppMetrics) (*StatsService, error) {
	if repo == nil {
		return nil, fmt.Errorf("analysis: repo is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	return &StatsService{
		repo:    repo,
		cache:   cache,
		logger:  logger.Named("stats"),
		metrics: metrics,
	}, nil
}

// Stats returns the aggregate report, serving from cache when possible.
// Cache failures degrade to a store read.
func (s *StatsService) Stats(ctx context.Context) (*claim.Stats, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("stats cache read failed", logging.Err(err))
			s.metrics.CacheMissesTotal.WithLabelValues("stats").Inc()
		} else if cached != nil {
			s.metrics.CacheHitsTotal.WithLabelValues("stats").Inc()
			return cached, nil
		} else {
			s.metrics.CacheMissesTotal.WithLabelValues("stats").Inc()
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, stats); err != nil {
			s.logger.Warn("stats cache write failed", logging.Err(err))
		}
	}
	return stats, nil
}

// RecordFeedback stores an adjuster's fraud label for a claim and invalidates
// the cached report.  A not-found error from the store surfaces unchanged.
func (s *StatsService) RecordFeedback(ctx context.Context, id uuid.UUID, isFraud bool) error {
	if err := s.repo.RecordFeedback(ctx, id, isFraud); err != nil {
		return err
	}

	label := "legitimate"
	if isFraud {
		label = "fraud"
	}
	s.metrics.FeedbackTotal.WithLabelValues(label).Inc()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("stats cache invalidation failed", logging.Err(err))
		}
	}
	return nil
}
