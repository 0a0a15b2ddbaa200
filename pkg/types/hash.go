// Package types defines primitive value types shared by the HD wallet packages.
package types

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// FingerprintSize is the length of a key fingerprint in bytes.
const FingerprintSize = 4

// Hash represents a 256-bit hash value.
type Hash [HashSize]byte

// WalletID identifies a wallet by the hash of its root public record.
// It is stable across signer and watch-only instances of the same root.
type WalletID Hash

// Fingerprint is the first four bytes of HASH160 of a compressed public key.
type Fingerprint [FingerprintSize]byte

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the hex-encoded hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a hex string into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = Hash{}
		return nil
	}
	decoded, err := HexToHash(s)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// HexToHash converts a hex string to a Hash.
// Returns an error if the string is not exactly 64 hex characters.
func HexToHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// IsZero returns true if the wallet ID is all zeros.
func (w WalletID) IsZero() bool {
	return Hash(w).IsZero()
}

// String returns the hex-encoded wallet ID.
func (w WalletID) String() string {
	return Hash(w).String()
}

// Bytes returns a copy of the wallet ID.
func (w WalletID) Bytes() []byte {
	return Hash(w).Bytes()
}

// MarshalJSON encodes the wallet ID as a hex string.
func (w WalletID) MarshalJSON() ([]byte, error) {
	return Hash(w).MarshalJSON()
}

// UnmarshalJSON decodes a hex string into a wallet ID.
func (w *WalletID) UnmarshalJSON(data []byte) error {
	return (*Hash)(w).UnmarshalJSON(data)
}

// FingerprintFromUint32 packs v big-endian.
func FingerprintFromUint32(v uint32) Fingerprint {
	var f Fingerprint
	binary.BigEndian.PutUint32(f[:], v)
	return f
}

// Uint32 returns the fingerprint as a big-endian integer.
func (f Fingerprint) Uint32() uint32 {
	return binary.BigEndian.Uint32(f[:])
}

// String returns the hex-encoded fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}
