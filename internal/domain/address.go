package domain

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidateAddress checks that s is a plausible Solana token address:
// valid base58 decoding to exactly 32 bytes. Off-curve keys are accepted
// because program-derived addresses are intentionally off-curve.
func ValidateAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("decode base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address decodes to %d bytes, want 32", len(raw))
	}
	return nil
}

// IsOnCurve reports whether the address is a valid ed25519 point,
// i.e. a real keypair address rather than a program-derived one.
func IsOnCurve(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
