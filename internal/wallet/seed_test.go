package wallet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

const abandonAbout = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// testSeed returns the BIP-39 seed of "abandon" x11 + "about" with
// passphrase "TREZOR".
func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := bip39.NewSeedWithErrorChecking(abandonAbout, "TREZOR")
	if err != nil {
		t.Fatalf("NewSeedWithErrorChecking() error: %v", err)
	}
	return seed
}

func TestNewSeed(t *testing.T) {
	s1, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed() error: %v", err)
	}
	s2, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed() error: %v", err)
	}

	if len(s1) != bip32.RecommendedSeedLen {
		t.Errorf("seed length = %d, want %d", len(s1), bip32.RecommendedSeedLen)
	}
	if err := validateSeed(s1); err != nil {
		t.Errorf("validateSeed(NewSeed()) error: %v", err)
	}
	if bytes.Equal(s1, s2) {
		t.Error("two generated seeds should not be identical")
	}
}

func TestValidateSeed(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		valid bool
	}{
		{"empty", 0, false},
		{"too short", MinSeedSize - 1, false},
		{"minimum", MinSeedSize, true},
		{"bip39 seed", 64, true},
		{"too long", MaxSeedSize + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSeed(make([]byte, tt.size))
			if tt.valid && err != nil {
				t.Errorf("validateSeed() error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidSeed) {
				t.Errorf("validateSeed() error = %v, want ErrInvalidSeed", err)
			}
		})
	}
}
