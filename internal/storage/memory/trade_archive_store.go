package memory

import (
	"context"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// TradeArchiveStore is an in-memory implementation of storage.TradeArchiveStore.
// Mirrors the ClickHouse archive semantics: appends tolerate duplicates,
// aggregation sums whatever was appended.
type TradeArchiveStore struct {
	mu   sync.RWMutex
	data []*domain.TradeRecord
	sigs map[string]bool
}

// NewTradeArchiveStore creates a new in-memory trade archive store.
func NewTradeArchiveStore() *TradeArchiveStore {
	return &TradeArchiveStore{
		data: make([]*domain.TradeRecord, 0),
		sigs: make(map[string]bool),
	}
}

// InsertBulk appends trades to the archive. Known signatures are skipped silently.
func (s *TradeArchiveStore) InsertBulk(_ context.Context, trades []*domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range trades {
		if t == nil || t.TxSignature == "" {
			return storage.ErrInvalidInput
		}
		if s.sigs[t.TxSignature] {
			continue
		}
		cp := *t
		s.data = append(s.data, &cp)
		s.sigs[t.TxSignature] = true
	}
	return nil
}

// TotalVolumeUSD returns the all-time USD volume across all archived trades.
func (s *TradeArchiveStore) TotalVolumeUSD(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, t := range s.data {
		total += t.AmountUSD
	}
	return total, nil
}

// Verify interface compliance at compile time.
var _ storage.TradeArchiveStore = (*TradeArchiveStore)(nil)
