package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func TestPublicKeyFromScalar(t *testing.T) {
	// BIP-32 test vector 1 master key pair.
	priv := mustHex(t, "e8f32e723decf4051aefac8e2c93c9c5b214313817cdb01a1494b917c8436b35")
	want := mustHex(t, "0339a36013301597daef41fbe593a02cc513d0b55527ec2df1050e2e8ff49c85c2")

	got, err := PublicKeyFromScalar(priv)
	if err != nil {
		t.Fatalf("PublicKeyFromScalar() error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("PublicKeyFromScalar() = %x, want %x", got, want)
	}
	if err := ValidatePublicKey(got); err != nil {
		t.Errorf("ValidatePublicKey() on derived key: %v", err)
	}
}

func TestValidatePrivateKey(t *testing.T) {
	order := mustHex(t, "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")

	tests := []struct {
		name string
		key  []byte
		ok   bool
	}{
		{"valid", mustHex(t, "e8f32e723decf4051aefac8e2c93c9c5b214313817cdb01a1494b917c8436b35"), true},
		{"one", append(make([]byte, 31), 1), true},
		{"zero", make([]byte, 32), false},
		{"curve order", order, false},
		{"short", make([]byte, 31), false},
		{"long", make([]byte, 33), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrivateKey(tt.key)
			if tt.ok && err != nil {
				t.Errorf("ValidatePrivateKey() error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidPrivateKey) {
				t.Errorf("ValidatePrivateKey() error = %v, want ErrInvalidPrivateKey", err)
			}
		})
	}
}

func TestValidatePublicKey(t *testing.T) {
	valid := mustHex(t, "0339a36013301597daef41fbe593a02cc513d0b55527ec2df1050e2e8ff49c85c2")

	uncompressedPrefix := make([]byte, 33)
	copy(uncompressedPrefix, valid)
	uncompressedPrefix[0] = 0x04

	privateMarker := make([]byte, 33)
	copy(privateMarker[1:], valid[1:])

	tests := []struct {
		name string
		key  []byte
		ok   bool
	}{
		{"valid", valid, true},
		{"empty", nil, false},
		{"short", valid[:32], false},
		{"uncompressed prefix", uncompressedPrefix, false},
		{"private marker", privateMarker, false},
		{"x not below field prime", append([]byte{0x02}, bytes.Repeat([]byte{0xff}, 32)...), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePublicKey(tt.key)
			if tt.ok && err != nil {
				t.Errorf("ValidatePublicKey() error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidPublicKey) {
				t.Errorf("ValidatePublicKey() error = %v, want ErrInvalidPublicKey", err)
			}
		})
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	if !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Errorf("Zero() left %x", b)
	}
}
