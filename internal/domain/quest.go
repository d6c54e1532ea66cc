package domain

// Quest represents a one-time-unlockable, point-awarding milestone.
// Definitions are read-only reference data loaded at startup.
type Quest struct {
	ID       string // stable identifier, e.g. "volume_1k"
	Title    string // human-readable title
	Points   int64  // points awarded on unlock
	Category string // predicate category, see constants below
}

// Quest predicate categories
const (
	QuestCategoryVolume     = "volume"      // cumulative USD volume threshold
	QuestCategoryDiversity  = "diversity"   // distinct traded mint count threshold
	QuestCategorySingle     = "single"      // single trade >= X
	QuestCategoryEarly      = "early"       // trade within window after launch / first-K buyer
	QuestCategoryFlip       = "flip"        // profitable sell count threshold
	QuestCategoryStreak     = "streak"      // consecutive profitable sell threshold
	QuestCategoryHold       = "hold"        // hold duration before profitable sell
	QuestCategoryMarketCap  = "market_cap"  // token market cap tier (slow schedule)
	QuestCategoryGlobalRank = "global_rank" // top-K by points (slowest schedule)
	QuestCategoryDeploy     = "deploy"      // tokens deployed threshold
)
