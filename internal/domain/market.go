package domain

// MarketData represents cached market enrichment for a token.
// Fetched from the external market-data API and memoized with a TTL.
type MarketData struct {
	Mint         string  // token mint address
	PriceUSD     float64 // last trade price in USD
	MarketCapUSD float64 // fully diluted market cap in USD
	LiquidityUSD float64 // pool liquidity in USD
	HolderCount  int     // distinct holder count
}
