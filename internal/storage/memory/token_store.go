package memory

import (
	"context"
	"sort"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*domain.Token
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]*domain.Token),
	}
}

// Insert adds a new token. Returns ErrDuplicateKey if mint exists.
func (s *TokenStore) Insert(_ context.Context, t *domain.Token) error {
	if t == nil || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[t.Mint]; ok {
		return storage.ErrDuplicateKey
	}

	// Store a copy
	cp := *t
	s.tokens[t.Mint] = &cp
	return nil
}

// GetByMint retrieves a token by its mint. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(_ context.Context, mint string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[mint]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// GetAll retrieves all tokens, ordered by created_at ASC.
func (s *TokenStore) GetAll(_ context.Context) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		cp := *t
		result = append(result, &cp)
	}
	sortTokens(result)
	return result, nil
}

// GetUnmigrated retrieves tokens whose curve has not completed, ordered by created_at ASC.
func (s *TokenStore) GetUnmigrated(_ context.Context) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Token
	for _, t := range s.tokens {
		if !t.Migrated {
			cp := *t
			result = append(result, &cp)
		}
	}
	sortTokens(result)
	return result, nil
}

// SetMigrated flips the migration flag and stamps the timestamp.
// Returns false if the token was already migrated.
func (s *TokenStore) SetMigrated(_ context.Context, mint string, at int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[mint]
	if !ok {
		return false, storage.ErrNotFound
	}
	if t.Migrated {
		return false, nil
	}
	t.Migrated = true
	t.MigratedAt = &at
	return true, nil
}

// sortTokens sorts tokens by (created_at, mint) for deterministic ordering.
func sortTokens(tokens []*domain.Token) {
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].CreatedAt != tokens[j].CreatedAt {
			return tokens[i].CreatedAt < tokens[j].CreatedAt
		}
		return tokens[i].Mint < tokens[j].Mint
	})
}

// Verify interface compliance at compile time.
var _ storage.TokenStore = (*TokenStore)(nil)
