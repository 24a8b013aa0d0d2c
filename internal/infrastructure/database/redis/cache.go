package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fraudlens/fraudlens/internal/application/analysis"
	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/pkg/errors"
)

const statsKeySuffix = "stats:report"

// StatsCache caches the aggregate stats report under a single prefixed key.
// Entries are JSON with a short TTL; a missing key is a miss, not an error.
type StatsCache struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger logging.Logger
}

var _ analysis.StatsCache = (*StatsCache)(nil)

// NewStatsCache builds the cache over an established client.
func NewStatsCache(client *Client, keyPrefix string, ttl time.Duration, log logging.Logger) *StatsCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{
		rdb:    client.Redis(),
		key:    keyPrefix + statsKeySuffix,
		ttl:    ttl,
		logger: log.Named("statscache"),
	}
}

// Get returns the cached report, or (nil, nil) on a miss.
func (c *StatsCache) Get(ctx context.Context) (*claim.Stats, error) {
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read stats cache")
	}

	var stats claim.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		c.logger.Warn("discarding corrupt stats cache entry", logging.Err(err))
		return nil, nil
	}
	return &stats, nil
}

// Set stores the report with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, stats *claim.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode stats report")
	}
	if err := c.rdb.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write stats cache")
	}
	return nil
}

// Invalidate drops the cached report.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to invalidate stats cache")
	}
	return nil
}
