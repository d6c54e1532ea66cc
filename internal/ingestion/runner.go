package ingestion

import (
	"context"
	"log"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/quests"
	"token-launchpad/internal/storage"
)

// CurveSource polls bonding-curve fill progress for a token, in [0, 1].
type CurveSource interface {
	Progress(ctx context.Context, mint string) (float64, error)
}

// MarketSource looks up current market data for a token. Implementations
// return nil when no data is available; callers skip the subject.
type MarketSource interface {
	Lookup(ctx context.Context, mint string) *domain.MarketData
}

// Default schedule intervals.
const (
	DefaultIngestInterval    = 30 * time.Second
	DefaultCurveInterval     = 30 * time.Second
	DefaultMarketCapInterval = 5 * time.Minute
	DefaultRankInterval      = time.Hour
)

// Runner drives the periodic schedules: trade ingest, bonding-curve
// progress, market-cap tier quests, and global rank quests.
type Runner struct {
	aggregator *Aggregator
	tokens     storage.TokenStore
	curve      CurveSource
	market     MarketSource
	engine     *quests.Engine

	ingestInterval    time.Duration
	curveInterval     time.Duration
	marketCapInterval time.Duration
	rankInterval      time.Duration

	metrics *observability.Metrics
	logger  *log.Logger

	now func() int64
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Aggregator *Aggregator
	TokenStore storage.TokenStore
	Curve      CurveSource
	Market     MarketSource
	Engine     *quests.Engine

	IngestInterval    time.Duration // default: 30s
	CurveInterval     time.Duration // default: 30s
	MarketCapInterval time.Duration // default: 5m
	RankInterval      time.Duration // default: 1h

	Metrics *observability.Metrics
	Logger  *log.Logger
}

// NewRunner creates a schedule runner.
func NewRunner(opts RunnerOptions) *Runner {
	ingest := opts.IngestInterval
	if ingest == 0 {
		ingest = DefaultIngestInterval
	}
	curve := opts.CurveInterval
	if curve == 0 {
		curve = DefaultCurveInterval
	}
	mcap := opts.MarketCapInterval
	if mcap == 0 {
		mcap = DefaultMarketCapInterval
	}
	rank := opts.RankInterval
	if rank == 0 {
		rank = DefaultRankInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		aggregator:        opts.Aggregator,
		tokens:            opts.TokenStore,
		curve:             opts.Curve,
		market:            opts.Market,
		engine:            opts.Engine,
		ingestInterval:    ingest,
		curveInterval:     curve,
		marketCapInterval: mcap,
		rankInterval:      rank,
		metrics:           opts.Metrics,
		logger:            logger,
		now:               func() int64 { return time.Now().UnixMilli() },
	}
}

// Run blocks until ctx is cancelled, firing each schedule on its own
// ticker. A failing pass is logged and retried on the next tick; one
// schedule's failure never stalls the others.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("Runner started (ingest=%s curve=%s mcap=%s rank=%s)",
		r.ingestInterval, r.curveInterval, r.marketCapInterval, r.rankInterval)

	ingestTicker := time.NewTicker(r.ingestInterval)
	defer ingestTicker.Stop()
	curveTicker := time.NewTicker(r.curveInterval)
	defer curveTicker.Stop()
	mcapTicker := time.NewTicker(r.marketCapInterval)
	defer mcapTicker.Stop()
	rankTicker := time.NewTicker(r.rankInterval)
	defer rankTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Printf("Runner stopped: %v", ctx.Err())
			return ctx.Err()
		case <-ingestTicker.C:
			r.IngestPass(ctx)
		case <-curveTicker.C:
			r.CurvePass(ctx)
		case <-mcapTicker.C:
			r.MarketCapPass(ctx)
		case <-rankTicker.C:
			r.RankPass(ctx)
		}
	}
}

// IngestPass runs one ingest cycle for every tracked token.
func (r *Runner) IngestPass(ctx context.Context) {
	tokens, err := r.tokens.GetAll(ctx)
	if err != nil {
		r.logger.Printf("Error listing tokens for ingest: %v", err)
		return
	}

	start := time.Now()
	total := 0
	failures := 0
	for _, token := range tokens {
		n, err := r.aggregator.IngestCycle(ctx, token.Mint)
		if err != nil {
			r.logger.Printf("Error ingesting %s: %v", token.Mint, err)
			failures++
			continue
		}
		total += n
	}
	if r.metrics != nil {
		r.metrics.IngestCycleDuration.Observe(time.Since(start).Seconds())
		if failures == 0 {
			r.metrics.LastSuccessfulIngest.Set(float64(r.now()) / 1000)
		}
	}
	if total > 0 {
		r.logger.Printf("Ingest pass: %d new trades across %d tokens", total, len(tokens))
	}
}

// CurvePass polls curve progress for unmigrated tokens and flips the
// migrated flag exactly once when progress reaches 1.0. The store's
// compare-and-set keeps a concurrent pass from flipping it twice.
func (r *Runner) CurvePass(ctx context.Context) {
	tokens, err := r.tokens.GetUnmigrated(ctx)
	if err != nil {
		r.logger.Printf("Error listing unmigrated tokens: %v", err)
		return
	}

	for _, token := range tokens {
		progress, err := r.curve.Progress(ctx, token.Mint)
		if err != nil {
			r.logger.Printf("Error polling curve progress for %s: %v", token.Mint, err)
			continue
		}
		if progress < 1.0 {
			continue
		}

		flipped, err := r.tokens.SetMigrated(ctx, token.Mint, r.now())
		if err != nil {
			r.logger.Printf("Error marking %s migrated: %v", token.Mint, err)
			continue
		}
		if flipped {
			r.logger.Printf("Token %s completed its bonding curve, marked migrated", token.Mint)
			if r.metrics != nil {
				r.metrics.TokensMigrated.Inc()
			}
		}
	}
}

// MarketCapPass re-checks market-cap tier quests for every token. Tokens
// with no market data this pass are skipped.
func (r *Runner) MarketCapPass(ctx context.Context) {
	tokens, err := r.tokens.GetAll(ctx)
	if err != nil {
		r.logger.Printf("Error listing tokens for market-cap pass: %v", err)
		return
	}

	for _, token := range tokens {
		data := r.market.Lookup(ctx, token.Mint)
		if data == nil {
			continue
		}
		unlocked, err := r.engine.EvaluateMarketCap(ctx, token, data.MarketCapUSD)
		if err != nil {
			r.logger.Printf("Error evaluating market-cap quests for %s: %v", token.Mint, err)
			continue
		}
		if len(unlocked) > 0 {
			r.logger.Printf("Market-cap quests unlocked for %s: %v", token.Mint, unlocked)
			if r.metrics != nil {
				r.metrics.QuestsUnlocked.Add(float64(len(unlocked)))
				r.metrics.PointsAwarded.Add(float64(quests.PointsFor(unlocked)))
			}
		}
	}
}

// RankPass awards the global top-rank quest to the current leaderboard.
func (r *Runner) RankPass(ctx context.Context) {
	unlocked, err := r.engine.EvaluateRank(ctx)
	if err != nil {
		r.logger.Printf("Error evaluating rank quests: %v", err)
		return
	}
	if len(unlocked) > 0 {
		r.logger.Printf("Rank quests unlocked: %v", unlocked)
		if r.metrics != nil {
			r.metrics.QuestsUnlocked.Add(float64(len(unlocked)))
			r.metrics.PointsAwarded.Add(float64(quests.PointsFor(unlocked)))
		}
	}
}
