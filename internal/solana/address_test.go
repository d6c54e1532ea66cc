package solana

import "testing"

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"system program", "11111111111111111111111111111111", true},
		{"token program", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", true},
		{"wrapped sol mint", "So11111111111111111111111111111111111111112", true},
		{"empty", "", false},
		{"invalid characters", "not-a-wallet-address", false},
		{"zero l is not base58", "0OIl", false},
		{"too short", "abc", false},
		{"too long", "1111111111111111111111111111111111111111111111111111111111111111", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAddress(tt.address); got != tt.want {
				t.Errorf("ValidateAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

func TestIsOnCurve(t *testing.T) {
	// The all-zero key decodes fine and is a valid curve point encoding.
	if !IsOnCurve("11111111111111111111111111111111") {
		t.Error("expected all-zero key to be on curve")
	}
	if IsOnCurve("not-a-wallet-address") {
		t.Error("expected malformed address to be off curve")
	}
}
