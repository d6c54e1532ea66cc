package storage

import (
	"context"

	"token-launchpad/internal/domain"
)

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if mint exists.
	Insert(ctx context.Context, t *domain.Token) error

	// GetByMint retrieves a token by its mint. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.Token, error)

	// GetAll retrieves all tokens, ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.Token, error)

	// GetUnmigrated retrieves tokens whose curve has not completed, ordered by created_at ASC.
	GetUnmigrated(ctx context.Context) ([]*domain.Token, error)

	// SetMigrated flips the migration flag and stamps the timestamp.
	// Returns false if the token was already migrated (the flag flips exactly once).
	SetMigrated(ctx context.Context, mint string, at int64) (bool, error)
}

// TradeStore provides access to trades storage. Append-only.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if tx_signature exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByMint retrieves all trades for a mint, ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error)

	// GetSignaturesByMint returns the set of persisted signatures for a mint.
	// Used to compute the new-record diff during ingestion.
	GetSignaturesByMint(ctx context.Context, mint string) (map[string]bool, error)

	// GetFirstBuyers returns the wallets of the first k distinct buyers of a mint,
	// ordered by first-buy timestamp ASC.
	GetFirstBuyers(ctx context.Context, mint string, k int) ([]string, error)
}

// WalletStore provides access to wallet_profiles storage.
// Mutators serialize per-profile updates so callers never race on increments.
type WalletStore interface {
	// Get retrieves a profile. Returns ErrNotFound if not exists.
	Get(ctx context.Context, wallet string) (*domain.WalletProfile, error)

	// GetOrCreate retrieves a profile, creating it with zeroed defaults if absent.
	GetOrCreate(ctx context.Context, wallet string) (*domain.WalletProfile, error)

	// GetAll retrieves all profiles in unspecified order.
	GetAll(ctx context.Context) ([]*domain.WalletProfile, error)

	// TopByPoints retrieves the top k profiles ordered by points DESC.
	TopByPoints(ctx context.Context, k int) ([]*domain.WalletProfile, error)

	// AddVolume adds usd to the profile's cumulative volume.
	AddVolume(ctx context.Context, wallet string, usd float64) error

	// RecordBuy folds a buy into the wallet's per-mint position aggregates.
	RecordBuy(ctx context.Context, wallet, mint string, usd float64, ts int64) error

	// RecordFlip updates the profitable-flip counters. A profitable sell
	// increments both the lifetime count and the streak; an unprofitable one
	// resets the streak to zero. Returns the updated streak.
	RecordFlip(ctx context.Context, wallet string, profitable bool) (int, error)

	// IncrementDeployed bumps the deployed-token counter.
	IncrementDeployed(ctx context.Context, wallet string) error

	// IncrementSnipes bumps the snipe counter.
	IncrementSnipes(ctx context.Context, wallet string) error

	// Unlock adds a quest ID to the profile's unlocked set and awards its
	// points in one step. Returns false without awarding if already unlocked.
	Unlock(ctx context.Context, wallet, questID string, points int64) (bool, error)
}

// TradeArchiveStore provides access to the append-only trade analytics archive.
// Backed by ClickHouse in production; feeds platform-earnings aggregation.
type TradeArchiveStore interface {
	// InsertBulk appends trades to the archive. Duplicates are tolerated here;
	// the Postgres trades table is the dedup source of truth.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// TotalVolumeUSD returns the all-time USD volume across all archived trades.
	TotalVolumeUSD(ctx context.Context) (float64, error)
}
