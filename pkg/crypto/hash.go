// Package crypto provides the hashing and curve helpers used around BIP-32
// derivation.
package crypto

import (
	"crypto/sha256"

	"github.com/Klingon-tech/klingnet-hd/pkg/types"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // BIP-32 fingerprints are defined over RIPEMD-160.
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// Hash160 computes RIPEMD160(SHA256(data)), the BIP-32 key identifier.
func Hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// Fingerprint returns the first four bytes of Hash160(pubKey).
func Fingerprint(pubKey []byte) types.Fingerprint {
	var f types.Fingerprint
	copy(f[:], Hash160(pubKey))
	return f
}
