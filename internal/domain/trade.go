package domain

// TradeRecord represents a single on-chain trade for a tracked token.
// Corresponds to trades table in PostgreSQL. Immutable once persisted;
// tx_signature is the global dedup key.
type TradeRecord struct {
	TxSignature  string  // PRIMARY KEY, Solana transaction signature
	Mint         string  // token mint address
	Wallet       string  // trader wallet address
	Side         string  // "buy" | "sell"
	AmountNative float64 // signed volume in native units
	AmountUSD    float64 // USD-equivalent volume
	Timestamp    int64   // Unix timestamp in milliseconds
}

// Trade side constants
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// IsBuy reports whether the trade is a buy.
func (t *TradeRecord) IsBuy() bool {
	return t.Side == TradeSideBuy
}
