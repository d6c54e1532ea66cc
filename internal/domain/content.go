package domain

// ContentType classifies a generated terminal entry.
type ContentType string

const (
	ContentTypeShill    ContentType = "shill"
	ContentTypeLore     ContentType = "lore"
	ContentTypeMarket   ContentType = "market"
	ContentTypeProphecy ContentType = "prophecy"
	ContentTypeSystem   ContentType = "system" // synthetic boot/fallback entries
)

// ContentRotation is the fixed round-robin order a terminal cycles through.
// System entries are injected out of band and never scheduled.
var ContentRotation = []ContentType{
	ContentTypeShill,
	ContentTypeLore,
	ContentTypeMarket,
	ContentTypeProphecy,
}

// IsValid checks if the content type is a known value.
func (c ContentType) IsValid() bool {
	switch c {
	case ContentTypeShill, ContentTypeLore, ContentTypeMarket, ContentTypeProphecy, ContentTypeSystem:
		return true
	}
	return false
}

// ContentEntry represents one generated terminal message for a token.
// Entries are append-only and evicted oldest-first from bounded buffers.
type ContentEntry struct {
	Mint      string      // token mint address
	Type      ContentType // content classification
	Text      string      // generated text
	CreatedAt int64       // Unix timestamp in milliseconds
}
