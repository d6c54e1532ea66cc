package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const tokenColumns = `mint, name, symbol, creator, quote_mint, pool, created_at, migrated, migrated_at`

// Insert adds a new token. Returns ErrDuplicateKey if mint exists.
func (s *TokenStore) Insert(ctx context.Context, t *domain.Token) error {
	query := `
		INSERT INTO tokens (` + tokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Mint, t.Name, t.Symbol, t.Creator, t.QuoteMint, t.Pool,
		t.CreatedAt, t.Migrated, t.MigratedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByMint retrieves a token by its mint. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(ctx context.Context, mint string) (*domain.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE mint = $1`

	row := s.pool.QueryRow(ctx, query, mint)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by mint: %w", err)
	}
	return t, nil
}

// GetAll retrieves all tokens, ordered by created_at ASC.
func (s *TokenStore) GetAll(ctx context.Context) ([]*domain.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens ORDER BY created_at ASC, mint ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all tokens: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// GetUnmigrated retrieves tokens whose curve has not completed, ordered by created_at ASC.
func (s *TokenStore) GetUnmigrated(ctx context.Context) ([]*domain.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE NOT migrated ORDER BY created_at ASC, mint ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get unmigrated tokens: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// SetMigrated flips the migration flag and stamps the timestamp. The WHERE
// guard makes the flip a compare-and-set: a second caller affects zero rows.
func (s *TokenStore) SetMigrated(ctx context.Context, mint string, at int64) (bool, error) {
	query := `
		UPDATE tokens
		SET migrated = TRUE, migrated_at = $2
		WHERE mint = $1 AND NOT migrated
	`

	tag, err := s.pool.Exec(ctx, query, mint, at)
	if err != nil {
		return false, fmt.Errorf("set token migrated: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanToken scans a single row into a Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token

	err := row.Scan(
		&t.Mint, &t.Name, &t.Symbol, &t.Creator, &t.QuoteMint, &t.Pool,
		&t.CreatedAt, &t.Migrated, &t.MigratedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// scanTokens scans multiple rows into a slice of Token.
func scanTokens(rows pgx.Rows) ([]*domain.Token, error) {
	var tokens []*domain.Token

	for rows.Next() {
		var t domain.Token

		err := rows.Scan(
			&t.Mint, &t.Name, &t.Symbol, &t.Creator, &t.QuoteMint, &t.Pool,
			&t.CreatedAt, &t.Migrated, &t.MigratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}

		tokens = append(tokens, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}

	return tokens, nil
}
