package wallet

import "errors"

var (
	// ErrHardenedDerivationRequiresPrivateKey is returned when a hardened
	// child is requested from a public-only key.
	ErrHardenedDerivationRequiresPrivateKey = errors.New("hardened derivation requires a private key")

	// ErrInvalidChildKey is returned when the derivation function yields an
	// invalid key (probability below 2^-127). Deriving the next index is the
	// usual way around it; callers decide.
	ErrInvalidChildKey = errors.New("derived child key is invalid")

	// ErrMaxDepth is returned when deriving below a key at depth 255; the
	// serialized depth is a single byte.
	ErrMaxDepth = errors.New("maximum derivation depth reached")

	ErrIndexOutOfRange       = errors.New("child index out of range")
	ErrInvalidSeed           = errors.New("invalid seed")
	ErrInvalidExtendedKey    = errors.New("invalid extended key")
	ErrKeychainUnavailable   = errors.New("keychain unavailable")
	ErrNoPrivateKeyAvailable = errors.New("no private key available in watch-only wallet")
	ErrNoRootKeyAvailable    = errors.New("no root key available")
	ErrInvalidGapLimit       = errors.New("gap limit must be positive")
)
