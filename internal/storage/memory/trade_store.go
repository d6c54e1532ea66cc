package memory

import (
	"context"
	"sort"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data []*domain.TradeRecord
	sigs map[string]bool
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make([]*domain.TradeRecord, 0),
		sigs: make(map[string]bool),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if tx_signature exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TxSignature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sigs[t.TxSignature] {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data = append(s.data, &cp)
	s.sigs[t.TxSignature] = true
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicates (both existing and intra-batch)
	batch := make(map[string]bool)
	for _, t := range trades {
		if t == nil || t.TxSignature == "" {
			return storage.ErrInvalidInput
		}
		if s.sigs[t.TxSignature] || batch[t.TxSignature] {
			return storage.ErrDuplicateKey
		}
		batch[t.TxSignature] = true
	}

	for _, t := range trades {
		cp := *t
		s.data = append(s.data, &cp)
		s.sigs[t.TxSignature] = true
	}
	return nil
}

// GetByMint retrieves all trades for a mint, ordered by timestamp ASC.
func (s *TradeStore) GetByMint(_ context.Context, mint string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, t := range s.data {
		if t.Mint == mint {
			cp := *t
			result = append(result, &cp)
		}
	}
	sortTrades(result)
	return result, nil
}

// GetSignaturesByMint returns the set of persisted signatures for a mint.
func (s *TradeStore) GetSignaturesByMint(_ context.Context, mint string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]bool)
	for _, t := range s.data {
		if t.Mint == mint {
			result[t.TxSignature] = true
		}
	}
	return result, nil
}

// GetFirstBuyers returns the wallets of the first k distinct buyers of a mint,
// ordered by first-buy timestamp ASC.
func (s *TradeStore) GetFirstBuyers(_ context.Context, mint string, k int) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var buys []*domain.TradeRecord
	for _, t := range s.data {
		if t.Mint == mint && t.Side == domain.TradeSideBuy {
			buys = append(buys, t)
		}
	}
	sortTrades(buys)

	seen := make(map[string]bool)
	var result []string
	for _, t := range buys {
		if seen[t.Wallet] {
			continue
		}
		seen[t.Wallet] = true
		result = append(result, t.Wallet)
		if len(result) == k {
			break
		}
	}
	return result, nil
}

// sortTrades sorts trades by (timestamp, tx_signature) for deterministic ordering.
func sortTrades(trades []*domain.TradeRecord) {
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].Timestamp != trades[j].Timestamp {
			return trades[i].Timestamp < trades[j].Timestamp
		}
		return trades[i].TxSignature < trades[j].TxSignature
	})
}

// Verify interface compliance at compile time.
var _ storage.TradeStore = (*TradeStore)(nil)
