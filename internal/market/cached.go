package market

import (
	"context"
	"log"
	"time"

	"token-launchpad/internal/cache"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
)

// DefaultTTL is how long a market snapshot stays fresh.
const DefaultTTL = 2 * time.Minute

// Lookuper fetches market data from upstream.
type Lookuper interface {
	Lookup(ctx context.Context, mint string) (*domain.MarketData, error)
}

// Cached wraps a market source with a TTL cache keyed by mint. Failed
// refreshes fall back to the last snapshot; with no snapshot at all,
// Lookup returns nil and the caller skips the token this round.
type Cached struct {
	source  Lookuper
	cache   *cache.Cache[*domain.MarketData]
	metrics *observability.Metrics
	logger  *log.Logger
}

// NewCached creates a caching market source. ttl of zero means DefaultTTL.
func NewCached(source Lookuper, ttl time.Duration, metrics *observability.Metrics, logger *log.Logger) *Cached {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{
		source:  source,
		cache:   cache.New[*domain.MarketData](ttl),
		metrics: metrics,
		logger:  logger,
	}
}

// Lookup returns cached market data for a mint, refreshing through the
// upstream source when stale. Returns nil when nothing is available.
// Only upstream refreshes count toward lookup latency; cache hits do not.
func (c *Cached) Lookup(ctx context.Context, mint string) *domain.MarketData {
	return c.cache.Get(ctx, mint, func(ctx context.Context) (*domain.MarketData, error) {
		start := time.Now()
		data, err := c.source.Lookup(ctx, mint)
		if c.metrics != nil {
			c.metrics.MarketLookupLatency.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			c.logger.Printf("Error refreshing market data for %s: %v", mint, err)
			return nil, err
		}
		return data, nil
	})
}

// Invalidate drops the cached snapshot for a mint.
func (c *Cached) Invalidate(mint string) {
	c.cache.Invalidate(mint)
}
