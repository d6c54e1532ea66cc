package domain

// TokenPosition holds a wallet's per-token buy aggregates, used for the
// averaged-cost-basis profitability checks. No lot matching: a sell is
// profitable when its USD volume exceeds the mean of all prior buy volumes
// for the same mint.
type TokenPosition struct {
	Mint         string  // token mint address
	BuyCount     int     // number of buys observed
	BuyVolumeUSD float64 // cumulative USD buy volume
	FirstBuyAt   int64   // timestamp (ms) of first buy, 0 if none
}

// WalletProfile represents a trader's cumulative platform stats.
// Corresponds to wallet_profiles table in PostgreSQL. Created lazily on
// first observed activity, never deleted.
type WalletProfile struct {
	Wallet          string                    // PRIMARY KEY, wallet address
	Points          int64                     // cumulative quest points
	TotalVolumeUSD  float64                   // cumulative trade volume
	Quests          []string                  // unlocked quest IDs, set semantics
	ProfitableFlips int                       // lifetime profitable sell count
	FlipStreak      int                       // consecutive profitable sells, reset on loss
	TokensDeployed  int                       // tokens launched by this wallet
	Snipes          int                       // buys within the snipe window after launch
	Positions       map[string]*TokenPosition // per-mint buy aggregates
}

// HasQuest reports whether the quest ID is already unlocked.
func (w *WalletProfile) HasQuest(id string) bool {
	for _, q := range w.Quests {
		if q == id {
			return true
		}
	}
	return false
}

// Position returns the wallet's aggregates for mint, or nil if none exist.
func (w *WalletProfile) Position(mint string) *TokenPosition {
	if w.Positions == nil {
		return nil
	}
	return w.Positions[mint]
}
