// Package quests evaluates achievement predicates over wallet aggregates
// and unlocks one-time, point-awarding quests.
package quests

import "token-launchpad/internal/domain"

// def pairs a quest definition with its predicate threshold. The threshold's
// meaning depends on the category: USD for volume/single, counts for
// diversity/flip/streak/snipe/deploy/rank, milliseconds for hold, USD market
// cap for market_cap tiers.
type def struct {
	quest     domain.Quest
	threshold float64
}

// catalog is the read-only quest reference data loaded at startup.
// Ascending tiers within a category must stay sorted by threshold so a single
// batch can unlock several tiers in order.
var catalog = []def{
	{domain.Quest{ID: "first_trade", Title: "First Blood", Points: 100, Category: domain.QuestCategorySingle}, 0},
	{domain.Quest{ID: "whale_move", Title: "Whale Move", Points: 500, Category: domain.QuestCategorySingle}, 1_000},

	{domain.Quest{ID: "volume_1k", Title: "Getting Started", Points: 200, Category: domain.QuestCategoryVolume}, 1_000},
	{domain.Quest{ID: "volume_10k", Title: "Volume Dealer", Points: 500, Category: domain.QuestCategoryVolume}, 10_000},
	{domain.Quest{ID: "volume_100k", Title: "Market Mover", Points: 2000, Category: domain.QuestCategoryVolume}, 100_000},

	{domain.Quest{ID: "degen_5", Title: "Taste Tester", Points: 200, Category: domain.QuestCategoryDiversity}, 5},
	{domain.Quest{ID: "degen_20", Title: "Full Degen", Points: 1000, Category: domain.QuestCategoryDiversity}, 20},

	{domain.Quest{ID: "sniper", Title: "Sniper", Points: 300, Category: domain.QuestCategoryEarly}, 0},
	{domain.Quest{ID: "early_bird", Title: "Early Bird", Points: 300, Category: domain.QuestCategoryEarly}, 0},
	{domain.Quest{ID: "serial_sniper", Title: "Serial Sniper", Points: 1500, Category: domain.QuestCategoryEarly}, 10},

	{domain.Quest{ID: "flipper", Title: "Flipper", Points: 200, Category: domain.QuestCategoryFlip}, 1},
	{domain.Quest{ID: "flip_10", Title: "Flip Machine", Points: 1000, Category: domain.QuestCategoryFlip}, 10},

	{domain.Quest{ID: "hot_streak_3", Title: "Hot Streak", Points: 400, Category: domain.QuestCategoryStreak}, 3},
	{domain.Quest{ID: "hot_streak_10", Title: "Untouchable", Points: 2000, Category: domain.QuestCategoryStreak}, 10},

	{domain.Quest{ID: "diamond_hands", Title: "Diamond Hands", Points: 800, Category: domain.QuestCategoryHold}, 24 * 60 * 60 * 1000},

	{domain.Quest{ID: "deployer", Title: "Deployer", Points: 300, Category: domain.QuestCategoryDeploy}, 1},
	{domain.Quest{ID: "launch_pad_5", Title: "Launch Pad", Points: 1500, Category: domain.QuestCategoryDeploy}, 5},

	{domain.Quest{ID: "mcap_100k", Title: "Six Figures", Points: 500, Category: domain.QuestCategoryMarketCap}, 100_000},
	{domain.Quest{ID: "mcap_1m", Title: "Millionaire Maker", Points: 3000, Category: domain.QuestCategoryMarketCap}, 1_000_000},

	{domain.Quest{ID: "top_10", Title: "Leaderboard Elite", Points: 5000, Category: domain.QuestCategoryGlobalRank}, 10},
}

// Quests returns the full quest catalog for listing purposes.
func Quests() []domain.Quest {
	result := make([]domain.Quest, 0, len(catalog))
	for _, d := range catalog {
		result = append(result, d.quest)
	}
	return result
}

// PointsFor sums the point values of the given quest IDs. Unknown IDs
// contribute nothing.
func PointsFor(ids []string) int64 {
	var total int64
	for _, id := range ids {
		if d, ok := byID(id); ok {
			total += d.quest.Points
		}
	}
	return total
}

// byCategory returns catalog entries for a category, in declaration order.
func byCategory(category string) []def {
	var result []def
	for _, d := range catalog {
		if d.quest.Category == category {
			result = append(result, d)
		}
	}
	return result
}

// byID returns the catalog entry for a quest ID.
func byID(id string) (def, bool) {
	for _, d := range catalog {
		if d.quest.ID == id {
			return d, true
		}
	}
	return def{}, false
}
