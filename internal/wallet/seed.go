package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"
)

// Seed length bounds accepted for master key generation (128 to 512 bits).
const (
	MinSeedSize = 16
	MaxSeedSize = 64
)

// NewSeed returns a fresh random seed of bip32.RecommendedSeedLen bytes.
func NewSeed() ([]byte, error) {
	seed, err := bip32.NewSeed()
	if err != nil {
		return nil, fmt.Errorf("generate seed: %w", err)
	}
	return seed, nil
}

func validateSeed(seed []byte) error {
	if len(seed) < MinSeedSize || len(seed) > MaxSeedSize {
		return fmt.Errorf("%w: length %d, want %d..%d bytes", ErrInvalidSeed, len(seed), MinSeedSize, MaxSeedSize)
	}
	return nil
}
