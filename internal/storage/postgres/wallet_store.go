package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// WalletStore implements storage.WalletStore using PostgreSQL. Counter
// updates are single UPDATE statements, so row-level locking serializes
// concurrent mutations without explicit transactions.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

const profileColumns = `wallet, points, total_volume_usd, quests, profitable_flips, flip_streak, tokens_deployed, snipes`

// ensureQuery creates the profile row with zeroed defaults if absent.
const ensureQuery = `
	INSERT INTO wallet_profiles (wallet) VALUES ($1)
	ON CONFLICT (wallet) DO NOTHING
`

// Get retrieves a profile. Returns ErrNotFound if not exists.
func (s *WalletStore) Get(ctx context.Context, wallet string) (*domain.WalletProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM wallet_profiles WHERE wallet = $1`

	row := s.pool.QueryRow(ctx, query, wallet)
	p, err := scanProfile(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet profile: %w", err)
	}

	if err := s.attachPositions(ctx, map[string]*domain.WalletProfile{wallet: p}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetOrCreate retrieves a profile, creating it with zeroed defaults if absent.
func (s *WalletStore) GetOrCreate(ctx context.Context, wallet string) (*domain.WalletProfile, error) {
	if _, err := s.pool.Exec(ctx, ensureQuery, wallet); err != nil {
		return nil, fmt.Errorf("ensure wallet profile: %w", err)
	}
	return s.Get(ctx, wallet)
}

// GetAll retrieves all profiles.
func (s *WalletStore) GetAll(ctx context.Context) ([]*domain.WalletProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM wallet_profiles`
	return s.queryProfiles(ctx, query)
}

// TopByPoints retrieves the top k profiles ordered by points DESC.
func (s *WalletStore) TopByPoints(ctx context.Context, k int) ([]*domain.WalletProfile, error) {
	if k <= 0 {
		return nil, nil
	}
	query := `SELECT ` + profileColumns + ` FROM wallet_profiles ORDER BY points DESC, wallet ASC LIMIT $1`
	return s.queryProfiles(ctx, query, k)
}

// AddVolume adds usd to the profile's cumulative volume, creating the
// profile if needed.
func (s *WalletStore) AddVolume(ctx context.Context, wallet string, usd float64) error {
	query := `
		INSERT INTO wallet_profiles (wallet, total_volume_usd) VALUES ($1, $2)
		ON CONFLICT (wallet) DO UPDATE
		SET total_volume_usd = wallet_profiles.total_volume_usd + EXCLUDED.total_volume_usd
	`

	if _, err := s.pool.Exec(ctx, query, wallet, usd); err != nil {
		return fmt.Errorf("add wallet volume: %w", err)
	}
	return nil
}

// RecordBuy folds a buy into the wallet's per-mint position aggregates.
func (s *WalletStore) RecordBuy(ctx context.Context, wallet, mint string, usd float64, ts int64) error {
	if _, err := s.pool.Exec(ctx, ensureQuery, wallet); err != nil {
		return fmt.Errorf("ensure wallet profile: %w", err)
	}

	// first_buy_at is stamped on the first buy and never moves
	query := `
		INSERT INTO wallet_positions (wallet, mint, buy_count, buy_volume_usd, first_buy_at)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (wallet, mint) DO UPDATE
		SET buy_count      = wallet_positions.buy_count + 1,
		    buy_volume_usd = wallet_positions.buy_volume_usd + EXCLUDED.buy_volume_usd
	`

	if _, err := s.pool.Exec(ctx, query, wallet, mint, usd, ts); err != nil {
		return fmt.Errorf("record buy: %w", err)
	}
	return nil
}

// RecordFlip updates the profitable-flip counters and returns the updated streak.
func (s *WalletStore) RecordFlip(ctx context.Context, wallet string, profitable bool) (int, error) {
	if _, err := s.pool.Exec(ctx, ensureQuery, wallet); err != nil {
		return 0, fmt.Errorf("ensure wallet profile: %w", err)
	}

	var query string
	if profitable {
		query = `
			UPDATE wallet_profiles
			SET profitable_flips = profitable_flips + 1, flip_streak = flip_streak + 1
			WHERE wallet = $1
			RETURNING flip_streak
		`
	} else {
		query = `
			UPDATE wallet_profiles
			SET flip_streak = 0
			WHERE wallet = $1
			RETURNING flip_streak
		`
	}

	var streak int
	if err := s.pool.QueryRow(ctx, query, wallet).Scan(&streak); err != nil {
		return 0, fmt.Errorf("record flip: %w", err)
	}
	return streak, nil
}

// IncrementDeployed bumps the deployed-token counter.
func (s *WalletStore) IncrementDeployed(ctx context.Context, wallet string) error {
	query := `
		INSERT INTO wallet_profiles (wallet, tokens_deployed) VALUES ($1, 1)
		ON CONFLICT (wallet) DO UPDATE
		SET tokens_deployed = wallet_profiles.tokens_deployed + 1
	`

	if _, err := s.pool.Exec(ctx, query, wallet); err != nil {
		return fmt.Errorf("increment deployed: %w", err)
	}
	return nil
}

// IncrementSnipes bumps the snipe counter.
func (s *WalletStore) IncrementSnipes(ctx context.Context, wallet string) error {
	query := `
		INSERT INTO wallet_profiles (wallet, snipes) VALUES ($1, 1)
		ON CONFLICT (wallet) DO UPDATE
		SET snipes = wallet_profiles.snipes + 1
	`

	if _, err := s.pool.Exec(ctx, query, wallet); err != nil {
		return fmt.Errorf("increment snipes: %w", err)
	}
	return nil
}

// Unlock adds a quest ID to the profile's unlocked set and awards its points
// in one statement. The array guard makes the award idempotent: a second
// unlock affects zero rows and returns false.
func (s *WalletStore) Unlock(ctx context.Context, wallet, questID string, points int64) (bool, error) {
	if _, err := s.pool.Exec(ctx, ensureQuery, wallet); err != nil {
		return false, fmt.Errorf("ensure wallet profile: %w", err)
	}

	query := `
		UPDATE wallet_profiles
		SET quests = array_append(quests, $2), points = points + $3
		WHERE wallet = $1 AND NOT ($2 = ANY(quests))
	`

	tag, err := s.pool.Exec(ctx, query, wallet, questID, points)
	if err != nil {
		return false, fmt.Errorf("unlock quest: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// queryProfiles loads profiles for a query and attaches their positions.
func (s *WalletStore) queryProfiles(ctx context.Context, query string, args ...interface{}) ([]*domain.WalletProfile, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query wallet profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.WalletProfile
	byWallet := make(map[string]*domain.WalletProfile)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet profile row: %w", err)
		}
		profiles = append(profiles, p)
		byWallet[p.Wallet] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet profile rows: %w", err)
	}

	if err := s.attachPositions(ctx, byWallet); err != nil {
		return nil, err
	}
	return profiles, nil
}

// attachPositions loads per-mint aggregates for the given profiles.
func (s *WalletStore) attachPositions(ctx context.Context, profiles map[string]*domain.WalletProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	wallets := make([]string, 0, len(profiles))
	for w := range profiles {
		wallets = append(wallets, w)
	}

	query := `
		SELECT wallet, mint, buy_count, buy_volume_usd, first_buy_at
		FROM wallet_positions
		WHERE wallet = ANY($1)
	`

	rows, err := s.pool.Query(ctx, query, wallets)
	if err != nil {
		return fmt.Errorf("query wallet positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var wallet string
		var pos domain.TokenPosition
		if err := rows.Scan(&wallet, &pos.Mint, &pos.BuyCount, &pos.BuyVolumeUSD, &pos.FirstBuyAt); err != nil {
			return fmt.Errorf("scan wallet position row: %w", err)
		}
		p := profiles[wallet]
		if p.Positions == nil {
			p.Positions = make(map[string]*domain.TokenPosition)
		}
		p.Positions[pos.Mint] = &pos
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate wallet position rows: %w", err)
	}
	return nil
}

// scanProfile scans a single row into a WalletProfile.
func scanProfile(row pgx.Row) (*domain.WalletProfile, error) {
	var p domain.WalletProfile

	err := row.Scan(
		&p.Wallet, &p.Points, &p.TotalVolumeUSD, &p.Quests,
		&p.ProfitableFlips, &p.FlipStreak, &p.TokensDeployed, &p.Snipes,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
