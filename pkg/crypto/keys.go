package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Key sizes used by BIP-32 serialization.
const (
	PrivateKeySize = 32
	PublicKeySize  = secp256k1.PubKeyBytesLenCompressed
)

var (
	ErrInvalidPrivateKey = errors.New("invalid secp256k1 private key")
	ErrInvalidPublicKey  = errors.New("invalid secp256k1 public key")
)

// ValidatePrivateKey checks that b is a 32-byte scalar in [1, n-1].
func ValidatePrivateKey(b []byte) error {
	if len(b) != PrivateKeySize {
		return fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidPrivateKey, PrivateKeySize, len(b))
	}
	var s secp256k1.ModNScalar
	overflow := s.SetByteSlice(b)
	defer s.Zero()
	if overflow || s.IsZero() {
		return fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	return nil
}

// ValidatePublicKey checks that b is a compressed point on the curve.
func ValidatePublicKey(b []byte) error {
	if len(b) != PublicKeySize {
		return fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidPublicKey, PublicKeySize, len(b))
	}
	if b[0] != secp256k1.PubKeyFormatCompressedEven && b[0] != secp256k1.PubKeyFormatCompressedOdd {
		return fmt.Errorf("%w: not compressed (prefix %#x)", ErrInvalidPublicKey, b[0])
	}
	if _, err := secp256k1.ParsePubKey(b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return nil
}

// PublicKeyFromScalar returns the compressed 33-byte public key for a
// 32-byte private scalar.
func PublicKeyFromScalar(b []byte) ([]byte, error) {
	if err := ValidatePrivateKey(b); err != nil {
		return nil, err
	}
	key := secp256k1.PrivKeyFromBytes(b)
	defer key.Zero()
	return key.PubKey().SerializeCompressed(), nil
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
