package prices

import (
	"context"
	"time"

	"github.com/wonny/capm-optimizer/internal/contracts"
	"github.com/wonny/capm-optimizer/pkg/logger"
	"github.com/wonny/capm-optimizer/pkg/redis"
)

// CachedSource memoizes price tables of another Source in Redis.
// Only inputs are cached; a cache failure falls through to the inner source.
type CachedSource struct {
	inner  Source
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSource wraps inner with a Redis cache
func NewCachedSource(inner Source, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedSource {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedSource{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.Component("price_cache"),
	}
}

// Load implements Source
func (s *CachedSource) Load(ctx context.Context, symbols []string, from, to time.Time) (contracts.PriceTable, error) {
	key := redis.PriceTableKey(symbols, from, to)

	var cached contracts.PriceTable
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).Warn("Price cache read failed")
	}
	if found && err == nil {
		if verr := cached.Validate(); verr == nil {
			return cached, nil
		}
	}

	table, err := s.inner.Load(ctx, symbols, from, to)
	if err != nil {
		return contracts.PriceTable{}, err
	}

	if err := s.cache.Set(ctx, key, table, s.ttl); err != nil {
		s.logger.WithError(err).Warn("Price cache write failed")
	}
	return table, nil
}
