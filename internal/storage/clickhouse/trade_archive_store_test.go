package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
)

func archiveTrade(sig, mint, wallet, side string, usd float64, ts int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TxSignature:  sig,
		Mint:         mint,
		Wallet:       wallet,
		Side:         side,
		AmountNative: usd / 100,
		AmountUSD:    usd,
		Timestamp:    ts,
	}
}

func TestTradeArchiveStore_InsertBulkAndTotalVolume(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeArchiveStore(conn)

	err := store.InsertBulk(ctx, []*domain.TradeRecord{
		archiveTrade("sig-1", "mint-1", "w1", domain.TradeSideBuy, 100, 1000),
		archiveTrade("sig-2", "mint-1", "w2", domain.TradeSideSell, 50, 2000),
		archiveTrade("sig-3", "mint-2", "w1", domain.TradeSideBuy, 25.5, 3000),
	})
	require.NoError(t, err)

	total, err := store.TotalVolumeUSD(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 175.5, total, 1e-9)
}

func TestTradeArchiveStore_DuplicatesDoNotInflateVolume(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeArchiveStore(conn)

	batch := []*domain.TradeRecord{
		archiveTrade("sig-1", "mint-1", "w1", domain.TradeSideBuy, 100, 1000),
	}
	require.NoError(t, store.InsertBulk(ctx, batch))
	require.NoError(t, store.InsertBulk(ctx, batch))

	total, err := store.TotalVolumeUSD(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, total, 1e-9, "replayed signature counts once")
}

func TestTradeArchiveStore_EmptyArchive(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeArchiveStore(conn)
	total, err := store.TotalVolumeUSD(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTradeArchiveStore_InsertBulkEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeArchiveStore(conn)
	require.NoError(t, store.InsertBulk(context.Background(), nil))
}
