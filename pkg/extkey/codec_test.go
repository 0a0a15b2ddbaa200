package extkey

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// BIP-32 test vector 1.
const (
	vec1MasterXpub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"
	vec1MasterXprv = "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"
	vec1ChildXpub  = "xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func TestDecode_MasterXpub(t *testing.T) {
	f, err := Decode(vec1MasterXpub)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if f.Version != MainnetPublic {
		t.Errorf("Version = %#08x, want %#08x", f.Version, MainnetPublic)
	}
	if f.Depth != 0 {
		t.Errorf("Depth = %d, want 0", f.Depth)
	}
	if f.ParentFingerprint != 0 {
		t.Errorf("ParentFingerprint = %#08x, want 0", f.ParentFingerprint)
	}
	if f.ChildIndex != 0 {
		t.Errorf("ChildIndex = %d, want 0", f.ChildIndex)
	}
	wantChain := mustHex(t, "873dff81c02f525623fd1fe5167eac3a55a049de3d314bb42ee227ffed37d508")
	if !bytes.Equal(f.ChainCode[:], wantChain) {
		t.Errorf("ChainCode = %x, want %x", f.ChainCode, wantChain)
	}
	wantKey := mustHex(t, "0339a36013301597daef41fbe593a02cc513d0b55527ec2df1050e2e8ff49c85c2")
	if !bytes.Equal(f.KeyData[:], wantKey) {
		t.Errorf("KeyData = %x, want %x", f.KeyData, wantKey)
	}
	if f.IsPrivate() {
		t.Error("xpub should not be private")
	}
}

func TestDecode_HardenedChild(t *testing.T) {
	f, err := Decode(vec1ChildXpub)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if f.Depth != 1 {
		t.Errorf("Depth = %d, want 1", f.Depth)
	}
	// Fingerprint of the vector 1 master key.
	if f.ParentFingerprint != 0x3442193e {
		t.Errorf("ParentFingerprint = %#08x, want 0x3442193e", f.ParentFingerprint)
	}
	if f.ChildIndex != 0x80000000 {
		t.Errorf("ChildIndex = %#08x, want 0x80000000", f.ChildIndex)
	}
}

func TestDecode_Xprv(t *testing.T) {
	f, err := Decode(vec1MasterXprv)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !f.IsPrivate() {
		t.Error("xprv should be private")
	}
	if f.Version != MainnetPrivate {
		t.Errorf("Version = %#08x, want %#08x", f.Version, MainnetPrivate)
	}
	wantPriv := mustHex(t, "e8f32e723decf4051aefac8e2c93c9c5b214313817cdb01a1494b917c8436b35")
	if !bytes.Equal(f.KeyData[1:], wantPriv) {
		t.Errorf("private scalar = %x, want %x", f.KeyData[1:], wantPriv)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	for _, s := range []string{vec1MasterXpub, vec1MasterXprv, vec1ChildXpub} {
		f, err := Decode(s)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", s, err)
		}
		if got := Encode(f); got != s {
			t.Errorf("Encode(Decode(x)) = %s, want %s", got, s)
		}
	}
}

func TestDecode_TooShort(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"truncated", vec1MasterXpub[:60]},
		{"invalid alphabet", "0OIl"},
		{"record without checksum", base58.Encode(make([]byte, RecordLen))},
		{"one byte short", base58.Encode(base58.Decode(vec1MasterXpub)[:SerializedLen-1])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			if !errors.Is(err, ErrTooShort) {
				t.Errorf("Decode() error = %v, want ErrTooShort", err)
			}
		})
	}
}

func TestDecode_ChecksumMismatch(t *testing.T) {
	raw := base58.Decode(vec1MasterXpub)
	raw[SerializedLen-1] ^= 0x01

	_, err := Decode(base58.Encode(raw))
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Decode() error = %v, want ErrChecksumMismatch", err)
	}

	raw = base58.Decode(vec1MasterXpub)
	raw[chainCodeOffset] ^= 0x80
	_, err = Decode(base58.Encode(raw))
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Decode() with altered chain code error = %v, want ErrChecksumMismatch", err)
	}
}

func TestParse_TrailingBytesIgnored(t *testing.T) {
	raw := base58.Decode(vec1MasterXpub)
	raw = append(raw, 0xde, 0xad)

	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if f.Version != MainnetPublic {
		t.Errorf("Version = %#08x, want %#08x", f.Version, MainnetPublic)
	}
}

func TestSerialize_BigEndian(t *testing.T) {
	f := &Fields{
		Version:           0x01020304,
		Depth:             7,
		ParentFingerprint: 0xa1b2c3d4,
		ChildIndex:        0x80000005,
	}
	out := f.Serialize()
	if len(out) != RecordLen {
		t.Fatalf("Serialize() length = %d, want %d", len(out), RecordLen)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 7, 0xa1, 0xb2, 0xc3, 0xd4, 0x80, 0x00, 0x00, 0x05}
	if !bytes.Equal(out[:13], want) {
		t.Errorf("header = %x, want %x", out[:13], want)
	}
}
