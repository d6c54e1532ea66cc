package rewards

import (
	"context"
	"log"
	"time"

	"token-launchpad/internal/cache"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
)

// PriceSource provides the SOL/USD conversion rate.
type PriceSource interface {
	SolPriceUSD(ctx context.Context) (float64, error)
}

// Calculator derives platform earnings from the trade archive and produces
// allocations on demand. Earnings and price lookups are memoized so
// leaderboard queries do not hammer ClickHouse or the price feed.
type Calculator struct {
	cfg     Config
	feeRate float64 // platform fee as a fraction of USD volume
	archive storage.TradeArchiveStore
	price   PriceSource

	earnings *cache.Cache[float64]
	solPrice *cache.Cache[float64]
	metrics  *observability.Metrics
	logger   *log.Logger
}

// CalculatorOptions configures a Calculator.
type CalculatorOptions struct {
	Config   Config
	FeeRate  float64       // default: 0.01 (1% of volume)
	CacheTTL time.Duration // default: 2 minutes
	Archive  storage.TradeArchiveStore
	Price    PriceSource
	Metrics  *observability.Metrics
	Logger   *log.Logger
}

// NewCalculator creates a reward calculator.
func NewCalculator(opts CalculatorOptions) *Calculator {
	feeRate := opts.FeeRate
	if feeRate == 0 {
		feeRate = 0.01
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = 2 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Calculator{
		cfg:      opts.Config,
		feeRate:  feeRate,
		archive:  opts.Archive,
		price:    opts.Price,
		earnings: cache.New[float64](ttl),
		solPrice: cache.New[float64](ttl),
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// Compute returns the current allocation. Upstream failures degrade to the
// cache's fallback (stale value or zero) instead of aborting: zero earnings
// produce a zero allocation, a zero rate produces zero SOL amounts.
func (c *Calculator) Compute(ctx context.Context) Allocation {
	earnings := c.earnings.Get(ctx, "platform_earnings", func(ctx context.Context) (float64, error) {
		volume, err := c.archive.TotalVolumeUSD(ctx)
		if err != nil {
			c.logger.Printf("Error fetching platform volume: %v", err)
			return 0, err
		}
		return volume * c.feeRate, nil
	})

	rate := c.solPrice.Get(ctx, "sol_usd", func(ctx context.Context) (float64, error) {
		price, err := c.price.SolPriceUSD(ctx)
		if err != nil {
			c.logger.Printf("Error fetching SOL price: %v", err)
			return 0, err
		}
		return price, nil
	})

	alloc := Allocate(earnings, rate, c.cfg)

	if c.metrics != nil {
		c.metrics.RewardComputations.Inc()
		c.metrics.PlatformEarningsUSD.Set(alloc.EarningsUSD)
		c.metrics.CommunityPoolUSD.Set(alloc.CommunityPoolUSD)
	}
	return alloc
}
