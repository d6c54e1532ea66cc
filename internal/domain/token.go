package domain

// Token represents a launched token tracked by the platform.
// Corresponds to tokens table in PostgreSQL.
type Token struct {
	Mint       string  // PRIMARY KEY, token mint address
	Name       string  // display name
	Symbol     string  // ticker symbol
	Creator    string  // deployer wallet address
	QuoteMint  string  // quote asset mint (WSOL by default)
	Pool       *string // bonding-curve pool address (nullable)
	CreatedAt  int64   // launch confirmation timestamp (ms)
	Migrated   bool    // true once curve progress reached 100%
	MigratedAt *int64  // migration timestamp (ms), nil until migrated
}
