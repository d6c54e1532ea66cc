package clickhouse

import (
	"context"
	"fmt"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// TradeArchiveStore implements storage.TradeArchiveStore using ClickHouse.
// The table is a ReplacingMergeTree keyed by tx_signature: re-inserting a
// signature is harmless, reads collapse duplicates themselves.
type TradeArchiveStore struct {
	conn *Conn
}

// NewTradeArchiveStore creates a new TradeArchiveStore.
func NewTradeArchiveStore(conn *Conn) *TradeArchiveStore {
	return &TradeArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeArchiveStore = (*TradeArchiveStore)(nil)

// InsertBulk appends trades to the archive. Duplicates are tolerated; the
// Postgres trades table is the dedup source of truth.
func (s *TradeArchiveStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_archive (
			tx_signature, mint, wallet, side, amount_native, amount_usd, ts
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.TxSignature, t.Mint, t.Wallet, t.Side,
			t.AmountNative, t.AmountUSD, uint64(t.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// TotalVolumeUSD returns the all-time USD volume across all archived trades.
// Duplicates are collapsed by signature since ReplacingMergeTree merges lazily.
func (s *TradeArchiveStore) TotalVolumeUSD(ctx context.Context) (float64, error) {
	query := `
		SELECT sum(amount_usd)
		FROM (
			SELECT tx_signature, any(amount_usd) AS amount_usd
			FROM trade_archive
			GROUP BY tx_signature
		)
	`

	var total float64
	if err := s.conn.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("total archived volume: %w", err)
	}
	return total, nil
}
