package postgres

import (
	"context"
	"fmt"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeInsertQuery = `
	INSERT INTO trades (tx_signature, mint, wallet, side, amount_native, amount_usd, ts)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const tradeSelectColumns = `tx_signature, mint, wallet, side, amount_native, amount_usd, ts`

// Insert adds a new trade. Returns ErrDuplicateKey if tx_signature exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	_, err := s.pool.Exec(ctx, tradeInsertQuery,
		t.TxSignature, t.Mint, t.Wallet, t.Side, t.AmountNative, t.AmountUSD, t.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		_, err := tx.Exec(ctx, tradeInsertQuery,
			t.TxSignature, t.Mint, t.Wallet, t.Side, t.AmountNative, t.AmountUSD, t.Timestamp,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByMint retrieves all trades for a mint, ordered by timestamp ASC.
func (s *TradeStore) GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeSelectColumns + `
		FROM trades
		WHERE mint = $1
		ORDER BY ts ASC, tx_signature ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get trades by mint: %w", err)
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		err := rows.Scan(&t.TxSignature, &t.Mint, &t.Wallet, &t.Side, &t.AmountNative, &t.AmountUSD, &t.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return trades, nil
}

// GetSignaturesByMint returns the set of persisted signatures for a mint.
func (s *TradeStore) GetSignaturesByMint(ctx context.Context, mint string) (map[string]bool, error) {
	query := `SELECT tx_signature FROM trades WHERE mint = $1`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get signatures by mint: %w", err)
	}
	defer rows.Close()

	sigs := make(map[string]bool)
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, fmt.Errorf("scan signature row: %w", err)
		}
		sigs[sig] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signature rows: %w", err)
	}
	return sigs, nil
}

// GetFirstBuyers returns the wallets of the first k distinct buyers of a mint,
// ordered by first-buy timestamp ASC.
func (s *TradeStore) GetFirstBuyers(ctx context.Context, mint string, k int) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}

	query := `
		SELECT wallet
		FROM (
			SELECT wallet, MIN(ts) AS first_buy
			FROM trades
			WHERE mint = $1 AND side = $2
			GROUP BY wallet
		) buyers
		ORDER BY first_buy ASC, wallet ASC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, mint, domain.TradeSideBuy, k)
	if err != nil {
		return nil, fmt.Errorf("get first buyers: %w", err)
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan buyer row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buyer rows: %w", err)
	}
	return wallets, nil
}
