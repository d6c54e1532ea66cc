// Package rewards computes tiered reward-pool allocations from platform earnings.
package rewards

// Config holds the pool-splitting parameters. Fractions are nested:
// trader and holder fractions apply to the community pool, which is itself
// a fraction of total platform earnings.
type Config struct {
	CommunityFraction float64 // share of platform earnings routed to the community pool
	TraderFraction    float64 // share of the community pool for the trader tier
	HolderFraction    float64 // share of the community pool for the holder tier
	TraderSlots       int     // fixed trader reward slot count
	HolderSlots       int     // fixed holder reward slot count
	HolderPenaltyUSD  float64 // flat per-holder deduction, applied before conversion
	ConvPenaltyUSD    float64 // flat deduction applied to each per-unit amount before conversion
}

// DefaultConfig returns the production pool-split parameters.
func DefaultConfig() Config {
	return Config{
		CommunityFraction: 0.70,
		TraderFraction:    0.25,
		HolderFraction:    0.40,
		TraderSlots:       50,
		HolderSlots:       100,
		HolderPenaltyUSD:  3,
		ConvPenaltyUSD:    0,
	}
}

// Allocation is the result of a pool split. USD amounts are unit A,
// SOL amounts are unit B after conversion at the given rate.
type Allocation struct {
	EarningsUSD        float64 `json:"earnings_usd"` // input platform earnings
	CommunityPoolUSD   float64 `json:"community_pool_usd"`
	TraderPoolUSD      float64 `json:"trader_pool_usd"`
	PerTraderUSD       float64 `json:"per_trader_usd"`
	PerTraderSOL       float64 `json:"per_trader_sol"`
	HolderPoolUSD      float64 `json:"holder_pool_usd"`
	PerHolderUSD       float64 `json:"per_holder_usd"`
	PerHolderSOL       float64 `json:"per_holder_sol"`
	TotalHolderPoolUSD float64 `json:"total_holder_pool_usd"` // PerHolderUSD * HolderSlots after penalty
	TotalHolderPoolSOL float64 `json:"total_holder_pool_sol"`
}

// Allocate splits platform earnings into per-trader and per-holder shares.
// solPriceUSD is the conversion rate from USD to SOL; zero or negative rates
// convert to zero rather than dividing by zero. Every monetary amount is
// clamped at zero; negative allocations are never returned.
func Allocate(earningsUSD, solPriceUSD float64, cfg Config) Allocation {
	a := Allocation{EarningsUSD: clamp(earningsUSD)}

	a.CommunityPoolUSD = a.EarningsUSD * cfg.CommunityFraction

	a.TraderPoolUSD = a.CommunityPoolUSD * cfg.TraderFraction
	if cfg.TraderSlots > 0 {
		a.PerTraderUSD = clamp(a.TraderPoolUSD / float64(cfg.TraderSlots))
	}

	a.HolderPoolUSD = a.CommunityPoolUSD * cfg.HolderFraction
	if cfg.HolderSlots > 0 {
		a.PerHolderUSD = clamp(a.HolderPoolUSD/float64(cfg.HolderSlots) - cfg.HolderPenaltyUSD)
	}

	a.PerTraderSOL = convert(a.PerTraderUSD, solPriceUSD, cfg.ConvPenaltyUSD)
	a.PerHolderSOL = convert(a.PerHolderUSD, solPriceUSD, cfg.ConvPenaltyUSD)

	a.TotalHolderPoolUSD = a.PerHolderUSD * float64(cfg.HolderSlots)
	a.TotalHolderPoolSOL = a.PerHolderSOL * float64(cfg.HolderSlots)

	return a
}

// convert applies the flat conversion penalty then converts USD to SOL.
// An unavailable (zero or negative) rate yields zero.
func convert(amountUSD, solPriceUSD, penaltyUSD float64) float64 {
	if solPriceUSD <= 0 {
		return 0
	}
	return clamp(amountUSD-penaltyUSD) / solPriceUSD
}

// clamp floors a monetary amount at zero.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
