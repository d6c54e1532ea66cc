package quests

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// Engine evaluates quest predicates and unlocks quests through the wallet
// store. Unlocks are idempotent: the store refuses duplicate IDs, so
// re-evaluating with the same wallet state never double-awards.
type Engine struct {
	tokens  storage.TokenStore
	trades  storage.TradeStore
	wallets storage.WalletStore

	snipeWindow time.Duration // buy-within-window-of-launch counts as a snipe
	earlyBuyers int           // first-K distinct buyers qualify as early
	logger      *log.Logger
}

// Options configures an Engine.
type Options struct {
	TokenStore  storage.TokenStore
	TradeStore  storage.TradeStore
	WalletStore storage.WalletStore
	SnipeWindow time.Duration // default: 2 minutes
	EarlyBuyers int           // default: 10
	Logger      *log.Logger
}

// NewEngine creates a quest engine.
func NewEngine(opts Options) *Engine {
	snipeWindow := opts.SnipeWindow
	if snipeWindow == 0 {
		snipeWindow = 2 * time.Minute
	}
	earlyBuyers := opts.EarlyBuyers
	if earlyBuyers == 0 {
		earlyBuyers = 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		tokens:      opts.TokenStore,
		trades:      opts.TradeStore,
		wallets:     opts.WalletStore,
		snipeWindow: snipeWindow,
		earlyBuyers: earlyBuyers,
		logger:      logger,
	}
}

// FoldResult summarizes a batch of trades after its counters were folded
// into the wallet profile. Evaluate needs these batch-scoped observations
// because they are not recoverable from the cumulative profile alone.
type FoldResult struct {
	MaxSingleUSD            float64  // largest single trade in the batch
	BestStreak              int      // highest flip streak reached during the batch
	ProfitableSells         int      // profitable sells in the batch
	LongestProfitableHoldMs int64    // longest first-buy-to-profitable-sell span
	SnipeBuys               int      // buys within the snipe window
	BuyMints                []string // distinct mints bought in the batch
}

// Process folds a wallet's new trades into its profile and evaluates quest
// unlocks. This is the per-cycle entry point used by ingestion.
func (e *Engine) Process(ctx context.Context, wallet string, batch []*domain.TradeRecord) ([]string, error) {
	fold, err := e.Fold(ctx, wallet, batch)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, wallet, batch, fold)
}

// Fold updates the wallet's positional and flip counters from a batch of
// new trades, oldest first. A sell is profitable when its USD volume exceeds
// the average of all prior buy volumes for the same mint; lots are not
// matched individually.
func (e *Engine) Fold(ctx context.Context, wallet string, batch []*domain.TradeRecord) (*FoldResult, error) {
	trades := make([]*domain.TradeRecord, len(batch))
	copy(trades, batch)
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].Timestamp < trades[j].Timestamp
	})

	result := &FoldResult{}
	buyMints := make(map[string]bool)

	for _, t := range trades {
		if t.AmountUSD > result.MaxSingleUSD {
			result.MaxSingleUSD = t.AmountUSD
		}

		if t.IsBuy() {
			if !buyMints[t.Mint] {
				buyMints[t.Mint] = true
				result.BuyMints = append(result.BuyMints, t.Mint)
			}

			if e.isSnipe(ctx, t) {
				if err := e.wallets.IncrementSnipes(ctx, wallet); err != nil {
					return nil, fmt.Errorf("increment snipes: %w", err)
				}
				result.SnipeBuys++
			}

			if err := e.wallets.RecordBuy(ctx, wallet, t.Mint, t.AmountUSD, t.Timestamp); err != nil {
				return nil, fmt.Errorf("record buy: %w", err)
			}
			continue
		}

		// Sell: profitability against the position as it stood before this sell
		profile, err := e.wallets.GetOrCreate(ctx, wallet)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		pos := profile.Position(t.Mint)
		profitable := pos != nil && pos.BuyCount > 0 &&
			t.AmountUSD > pos.BuyVolumeUSD/float64(pos.BuyCount)

		streak, err := e.wallets.RecordFlip(ctx, wallet, profitable)
		if err != nil {
			return nil, fmt.Errorf("record flip: %w", err)
		}
		if streak > result.BestStreak {
			result.BestStreak = streak
		}
		if profitable {
			result.ProfitableSells++
			if pos.FirstBuyAt > 0 {
				held := t.Timestamp - pos.FirstBuyAt
				if held > result.LongestProfitableHoldMs {
					result.LongestProfitableHoldMs = held
				}
			}
		}
	}

	return result, nil
}

// isSnipe reports whether a buy landed within the snipe window after launch.
// Unknown tokens never qualify.
func (e *Engine) isSnipe(ctx context.Context, t *domain.TradeRecord) bool {
	token, err := e.tokens.GetByMint(ctx, t.Mint)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.logger.Printf("Error loading token %s for snipe check: %v", t.Mint, err)
		}
		return false
	}
	return t.Timestamp-token.CreatedAt <= e.snipeWindow.Milliseconds()
}

// Evaluate checks every trade-path quest category against the wallet's
// current aggregates and the batch observations, returning newly unlocked
// quest IDs. Already-unlocked IDs are silent no-ops.
func (e *Engine) Evaluate(ctx context.Context, wallet string, batch []*domain.TradeRecord, fold *FoldResult) ([]string, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	profile, err := e.wallets.GetOrCreate(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var unlocked []string
	unlock := func(id string) error {
		added, err := e.unlock(ctx, wallet, id)
		if err != nil {
			return err
		}
		if added {
			unlocked = append(unlocked, id)
		}
		return nil
	}

	// Per-event thresholds: any trade at all, then single-trade size tiers
	for _, d := range byCategory(domain.QuestCategorySingle) {
		if d.threshold == 0 || fold.MaxSingleUSD >= d.threshold {
			if err := unlock(d.quest.ID); err != nil {
				return unlocked, err
			}
		}
	}

	// Cumulative volume tiers
	for _, d := range byCategory(domain.QuestCategoryVolume) {
		if profile.TotalVolumeUSD >= d.threshold {
			if err := unlock(d.quest.ID); err != nil {
				return unlocked, err
			}
		}
	}

	// Distinct traded mint tiers
	for _, d := range byCategory(domain.QuestCategoryDiversity) {
		if float64(len(profile.Positions)) >= d.threshold {
			if err := unlock(d.quest.ID); err != nil {
				return unlocked, err
			}
		}
	}

	// Early participation: snipe window, first-K buyer, snipe count tiers
	for _, d := range byCategory(domain.QuestCategoryEarly) {
		var hit bool
		switch d.quest.ID {
		case "sniper":
			hit = fold.SnipeBuys > 0
		case "early_bird":
			hit, err = e.isEarlyBuyer(ctx, wallet, fold.BuyMints)
			if err != nil {
				return unlocked, err
			}
		default:
			hit = float64(profile.Snipes) >= d.threshold
		}
		if hit {
			if err := unlock(d.quest.ID); err != nil {
				return unlocked, err
			}
		}
	}

	// Profitable flip count tiers
	for _, d := range byCategory(domain.QuestCategoryFlip) {
		if float64(profile.ProfitableFlips) >= d.threshold {
			if err := unlock(d.quest.ID); err != nil {
				return unlocked, err
			}
		}
	}

	// Streak tiers: the peak within the batch counts even if a later loss reset it
	streak := profile.FlipStreak
	if fold.BestStreak > streak {
		streak = fold.BestStreak
	}
	for _, d := range byCategory(domain.QuestCategoryStreak) {
		if float64(streak) >= d.threshold {
			if err := unlock(d.quest.ID); err != nil {
				return unlocked, err
			}
		}
	}

	// Hold duration before a profitable exit
	for _, d := range byCategory(domain.QuestCategoryHold) {
		if fold.LongestProfitableHoldMs > 0 && float64(fold.LongestProfitableHoldMs) >= d.threshold {
			if err := unlock(d.quest.ID); err != nil {
				return unlocked, err
			}
		}
	}

	// Deploy tiers (counter maintained by OnTokenDeployed)
	for _, d := range byCategory(domain.QuestCategoryDeploy) {
		if float64(profile.TokensDeployed) >= d.threshold {
			if err := unlock(d.quest.ID); err != nil {
				return unlocked, err
			}
		}
	}

	return unlocked, nil
}

// isEarlyBuyer reports whether the wallet is among the first-K distinct
// buyers of any of the given mints.
func (e *Engine) isEarlyBuyer(ctx context.Context, wallet string, mints []string) (bool, error) {
	for _, mint := range mints {
		buyers, err := e.trades.GetFirstBuyers(ctx, mint, e.earlyBuyers)
		if err != nil {
			return false, fmt.Errorf("first buyers for %s: %w", mint, err)
		}
		for _, b := range buyers {
			if b == wallet {
				return true, nil
			}
		}
	}
	return false, nil
}

// EvaluateMarketCap unlocks market-cap tier quests for a token's creator and
// its early buyers once the cap crosses a tier. Run on a slower schedule than
// trade ingestion.
func (e *Engine) EvaluateMarketCap(ctx context.Context, token *domain.Token, marketCapUSD float64) ([]string, error) {
	tiers := byCategory(domain.QuestCategoryMarketCap)

	var crossed []def
	for _, d := range tiers {
		if marketCapUSD >= d.threshold {
			crossed = append(crossed, d)
		}
	}
	if len(crossed) == 0 {
		return nil, nil
	}

	targets := []string{}
	if token.Creator != "" {
		targets = append(targets, token.Creator)
	}
	buyers, err := e.trades.GetFirstBuyers(ctx, token.Mint, e.earlyBuyers)
	if err != nil {
		return nil, fmt.Errorf("first buyers for %s: %w", token.Mint, err)
	}
	for _, b := range buyers {
		if b != token.Creator {
			targets = append(targets, b)
		}
	}

	var unlocked []string
	for _, wallet := range targets {
		for _, d := range crossed {
			added, err := e.unlock(ctx, wallet, d.quest.ID)
			if err != nil {
				return unlocked, err
			}
			if added {
				unlocked = append(unlocked, d.quest.ID)
			}
		}
	}
	return unlocked, nil
}

// EvaluateRank unlocks global-rank quests for wallets currently inside the
// top slice by points. Run on the slowest schedule.
func (e *Engine) EvaluateRank(ctx context.Context) ([]string, error) {
	var unlocked []string
	for _, d := range byCategory(domain.QuestCategoryGlobalRank) {
		top, err := e.wallets.TopByPoints(ctx, int(d.threshold))
		if err != nil {
			return unlocked, fmt.Errorf("top by points: %w", err)
		}
		for _, p := range top {
			added, err := e.unlock(ctx, p.Wallet, d.quest.ID)
			if err != nil {
				return unlocked, err
			}
			if added {
				unlocked = append(unlocked, d.quest.ID)
			}
		}
	}
	return unlocked, nil
}

// OnTokenDeployed bumps the creator's deploy counter and evaluates deploy tiers.
func (e *Engine) OnTokenDeployed(ctx context.Context, wallet string) ([]string, error) {
	if err := e.wallets.IncrementDeployed(ctx, wallet); err != nil {
		return nil, fmt.Errorf("increment deployed: %w", err)
	}

	profile, err := e.wallets.GetOrCreate(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var unlocked []string
	for _, d := range byCategory(domain.QuestCategoryDeploy) {
		if float64(profile.TokensDeployed) >= d.threshold {
			added, err := e.unlock(ctx, wallet, d.quest.ID)
			if err != nil {
				return unlocked, err
			}
			if added {
				unlocked = append(unlocked, d.quest.ID)
			}
		}
	}
	return unlocked, nil
}

// unlock awards a quest by ID through the wallet store. The ID and its
// points are applied in one store call so there is never partial credit.
func (e *Engine) unlock(ctx context.Context, wallet, id string) (bool, error) {
	d, ok := byID(id)
	if !ok {
		return false, fmt.Errorf("unknown quest id %q", id)
	}
	added, err := e.wallets.Unlock(ctx, wallet, id, d.quest.Points)
	if err != nil {
		return false, fmt.Errorf("unlock %s: %w", id, err)
	}
	return added, nil
}
