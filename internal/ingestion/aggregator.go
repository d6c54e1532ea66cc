// Package ingestion polls the external trade feed, deduplicates against
// persisted signatures, folds new trades into wallet stats and quest
// unlocks, and drives the slower curve/market-cap/rank schedules.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/hub"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/quests"
	"token-launchpad/internal/solana"
	"token-launchpad/internal/storage"
)

// TradeSource fetches the latest trades for a token from the external feed.
type TradeSource interface {
	Trades(ctx context.Context, mint string, limit int) ([]*domain.TradeRecord, error)
}

// wireTrade is the broadcast envelope for a trade record.
type wireTrade struct {
	Kind  string              `json:"kind"`
	Trade *domain.TradeRecord `json:"trade"`
}

// Aggregator runs the per-token ingest cycle: fetch, dedup, persist,
// broadcast, then stat folding and quest evaluation. A per-mint in-flight
// gate keeps concurrent cycles for the same token from double-ingesting.
type Aggregator struct {
	source  TradeSource
	tokens  storage.TokenStore
	trades  storage.TradeStore
	archive storage.TradeArchiveStore
	wallets storage.WalletStore
	engine  *quests.Engine

	tradeFeed *hub.Hub
	pageSize  int
	metrics   *observability.Metrics
	logger    *log.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// AggregatorOptions configures an Aggregator.
type AggregatorOptions struct {
	Source      TradeSource
	TokenStore  storage.TokenStore
	TradeStore  storage.TradeStore
	Archive     storage.TradeArchiveStore // optional analytics mirror
	WalletStore storage.WalletStore
	Engine      *quests.Engine
	TradeFeed   *hub.Hub // global trade feed hub
	PageSize    int      // default: 100
	Metrics     *observability.Metrics
	Logger      *log.Logger
}

// NewAggregator creates an ingestion aggregator.
func NewAggregator(opts AggregatorOptions) *Aggregator {
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = 100
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Aggregator{
		source:    opts.Source,
		tokens:    opts.TokenStore,
		trades:    opts.TradeStore,
		archive:   opts.Archive,
		wallets:   opts.WalletStore,
		engine:    opts.Engine,
		tradeFeed: opts.TradeFeed,
		pageSize:  pageSize,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// IngestCycle runs one ingest cycle for a token and returns the number of
// newly persisted trades. A cycle already in flight for the same mint makes
// this call a no-op. Persistence happens before any quest credit: if the
// write fails, the batch earns nothing this cycle and is retried on the
// next poll.
func (a *Aggregator) IngestCycle(ctx context.Context, mint string) (int, error) {
	if !a.acquire(mint) {
		return 0, nil
	}
	defer a.release(mint)

	fetched, err := a.source.Trades(ctx, mint, a.pageSize)
	if err != nil {
		a.countError("fetch")
		return 0, fmt.Errorf("fetch trades for %s: %w", mint, err)
	}

	known, err := a.trades.GetSignaturesByMint(ctx, mint)
	if err != nil {
		a.countError("dedup")
		return 0, fmt.Errorf("load signatures for %s: %w", mint, err)
	}

	var fresh []*domain.TradeRecord
	for _, t := range fetched {
		if known[t.TxSignature] {
			continue
		}
		if !solana.ValidateAddress(t.Wallet) {
			a.logger.Printf("Skipping trade %s: invalid wallet address %q", t.TxSignature, t.Wallet)
			continue
		}
		fresh = append(fresh, t)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	// Persist before anything downstream sees the batch
	if err := a.trades.InsertBulk(ctx, fresh); err != nil {
		a.countError("persist")
		return 0, fmt.Errorf("persist trades for %s: %w", mint, err)
	}

	// Analytics mirror is best effort; the Postgres write is the truth
	if a.archive != nil {
		if err := a.archive.InsertBulk(ctx, fresh); err != nil {
			a.countError("archive")
			a.logger.Printf("Error archiving trades for %s: %v", mint, err)
		}
	}

	if a.metrics != nil {
		a.metrics.TradesIngested.Add(float64(len(fresh)))
	}

	a.broadcastTrades(fresh)
	a.creditWallets(ctx, fresh)

	return len(fresh), nil
}

// broadcastTrades pushes each new record onto the global trade feed.
func (a *Aggregator) broadcastTrades(trades []*domain.TradeRecord) {
	if a.tradeFeed == nil {
		return
	}
	for _, t := range trades {
		msg, err := json.Marshal(wireTrade{Kind: "trade", Trade: t})
		if err != nil {
			a.logger.Printf("Marshal trade %s: %v", t.TxSignature, err)
			continue
		}
		a.tradeFeed.Broadcast(hub.TopicGlobal, msg)
	}
}

// creditWallets groups a persisted batch by trader and applies cumulative
// volume plus quest evaluation per wallet. Per-wallet failures are logged
// and do not block the other wallets in the batch.
func (a *Aggregator) creditWallets(ctx context.Context, trades []*domain.TradeRecord) {
	byWallet := make(map[string][]*domain.TradeRecord)
	var order []string
	for _, t := range trades {
		if _, ok := byWallet[t.Wallet]; !ok {
			order = append(order, t.Wallet)
		}
		byWallet[t.Wallet] = append(byWallet[t.Wallet], t)
	}

	for _, wallet := range order {
		batch := byWallet[wallet]

		if _, err := a.wallets.GetOrCreate(ctx, wallet); err != nil {
			a.countError("credit")
			a.logger.Printf("Error creating profile for %s: %v", wallet, err)
			continue
		}

		var volume float64
		for _, t := range batch {
			volume += t.AmountUSD
		}
		if err := a.wallets.AddVolume(ctx, wallet, volume); err != nil {
			a.countError("credit")
			a.logger.Printf("Error adding volume for %s: %v", wallet, err)
			continue
		}

		unlocked, err := a.engine.Process(ctx, wallet, batch)
		if err != nil {
			a.countError("credit")
			a.logger.Printf("Error evaluating quests for %s: %v", wallet, err)
			continue
		}
		if len(unlocked) > 0 {
			a.logger.Printf("Quests unlocked for %s: %v", wallet, unlocked)
			if a.metrics != nil {
				a.metrics.QuestsUnlocked.Add(float64(len(unlocked)))
				a.metrics.PointsAwarded.Add(float64(quests.PointsFor(unlocked)))
			}
		}
	}
}

// countError bumps the per-stage ingest error counter.
func (a *Aggregator) countError(stage string) {
	if a.metrics != nil {
		a.metrics.IngestErrors.WithLabelValues(stage).Inc()
	}
}

// acquire takes the per-mint in-flight gate. Returns false if a cycle for
// this mint is already running.
func (a *Aggregator) acquire(mint string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight == nil {
		a.inflight = make(map[string]bool)
	}
	if a.inflight[mint] {
		return false
	}
	a.inflight[mint] = true
	return true
}

func (a *Aggregator) release(mint string) {
	a.mu.Lock()
	delete(a.inflight, mint)
	a.mu.Unlock()
}
