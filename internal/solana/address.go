// Package solana holds address-level helpers for Solana base58 public keys.
package solana

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the byte length of an ed25519 public key.
const PublicKeyLength = 32

// ValidateAddress reports whether s is a well-formed Solana address: valid
// base58 decoding to exactly 32 bytes. It does not require the key to lie
// on the ed25519 curve, so program-derived addresses pass too.
func ValidateAddress(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == PublicKeyLength
}

// IsOnCurve reports whether the address decodes to a point on the ed25519
// curve. Wallet keypairs are on-curve; program-derived addresses are not.
func IsOnCurve(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil || len(decoded) != PublicKeyLength {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
