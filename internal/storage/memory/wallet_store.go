package memory

import (
	"context"
	"sort"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
// The single mutex serializes all profile mutations, so callers never
// race on increments.
type WalletStore struct {
	mu       sync.RWMutex
	profiles map[string]*domain.WalletProfile
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{
		profiles: make(map[string]*domain.WalletProfile),
	}
}

// Get retrieves a profile. Returns ErrNotFound if not exists.
func (s *WalletStore) Get(_ context.Context, wallet string) (*domain.WalletProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[wallet]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyProfile(p), nil
}

// GetOrCreate retrieves a profile, creating it with zeroed defaults if absent.
func (s *WalletStore) GetOrCreate(_ context.Context, wallet string) (*domain.WalletProfile, error) {
	if wallet == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return copyProfile(s.getOrCreateLocked(wallet)), nil
}

// GetAll retrieves all profiles in unspecified order.
func (s *WalletStore) GetAll(_ context.Context) ([]*domain.WalletProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WalletProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		result = append(result, copyProfile(p))
	}
	return result, nil
}

// TopByPoints retrieves the top k profiles ordered by points DESC.
func (s *WalletStore) TopByPoints(_ context.Context, k int) ([]*domain.WalletProfile, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.WalletProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		all = append(all, copyProfile(p))
	}
	// Ties broken by wallet address for deterministic ordering
	sort.Slice(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		return all[i].Wallet < all[j].Wallet
	})
	if len(all) > k {
		all = all[:k]
	}
	return all, nil
}

// AddVolume adds usd to the profile's cumulative volume.
func (s *WalletStore) AddVolume(_ context.Context, wallet string, usd float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrCreateLocked(wallet).TotalVolumeUSD += usd
	return nil
}

// RecordBuy folds a buy into the wallet's per-mint position aggregates.
func (s *WalletStore) RecordBuy(_ context.Context, wallet, mint string, usd float64, ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreateLocked(wallet)
	pos, ok := p.Positions[mint]
	if !ok {
		pos = &domain.TokenPosition{Mint: mint}
		p.Positions[mint] = pos
	}
	pos.BuyCount++
	pos.BuyVolumeUSD += usd
	if pos.FirstBuyAt == 0 || ts < pos.FirstBuyAt {
		pos.FirstBuyAt = ts
	}
	return nil
}

// RecordFlip updates the profitable-flip counters and returns the new streak.
func (s *WalletStore) RecordFlip(_ context.Context, wallet string, profitable bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreateLocked(wallet)
	if profitable {
		p.ProfitableFlips++
		p.FlipStreak++
	} else {
		p.FlipStreak = 0
	}
	return p.FlipStreak, nil
}

// IncrementDeployed bumps the deployed-token counter.
func (s *WalletStore) IncrementDeployed(_ context.Context, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrCreateLocked(wallet).TokensDeployed++
	return nil
}

// IncrementSnipes bumps the snipe counter.
func (s *WalletStore) IncrementSnipes(_ context.Context, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrCreateLocked(wallet).Snipes++
	return nil
}

// Unlock adds a quest ID to the unlocked set and awards its points in one step.
// Returns false without awarding if already unlocked.
func (s *WalletStore) Unlock(_ context.Context, wallet, questID string, points int64) (bool, error) {
	if questID == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreateLocked(wallet)
	if p.HasQuest(questID) {
		return false, nil
	}
	p.Quests = append(p.Quests, questID)
	p.Points += points
	return true, nil
}

// getOrCreateLocked returns the live profile for wallet, creating it with
// zeroed defaults if absent. Caller must hold s.mu.
func (s *WalletStore) getOrCreateLocked(wallet string) *domain.WalletProfile {
	p, ok := s.profiles[wallet]
	if !ok {
		p = &domain.WalletProfile{
			Wallet:    wallet,
			Quests:    make([]string, 0),
			Positions: make(map[string]*domain.TokenPosition),
		}
		s.profiles[wallet] = p
	}
	return p
}

// copyProfile returns a deep copy so callers never observe live state.
func copyProfile(p *domain.WalletProfile) *domain.WalletProfile {
	cp := *p
	cp.Quests = append([]string(nil), p.Quests...)
	cp.Positions = make(map[string]*domain.TokenPosition, len(p.Positions))
	for mint, pos := range p.Positions {
		posCp := *pos
		cp.Positions[mint] = &posCp
	}
	return &cp
}

// Verify interface compliance at compile time.
var _ storage.WalletStore = (*WalletStore)(nil)
