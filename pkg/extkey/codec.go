// Package extkey encodes and decodes the 78-byte BIP-32 extended key record
// wrapped in Base58Check:
//
//	version[4] | depth[1] | parentFingerprint[4] | childNumber[4] | chainCode[32] | keyData[33] | checksum[4]
//
// All integers are big-endian.
package extkey

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	versionLen     = 4
	depthLen       = 1
	fingerprintLen = 4
	childNumberLen = 4
	chainCodeLen   = 32
	keyDataLen     = 33
	checksumLen    = 4
)

// Field offsets within the serialized record.
const (
	versionOffset     = 0
	depthOffset       = versionOffset + versionLen
	fingerprintOffset = depthOffset + depthLen
	childNumberOffset = fingerprintOffset + fingerprintLen
	chainCodeOffset   = childNumberOffset + childNumberLen
	keyDataOffset     = chainCodeOffset + chainCodeLen

	// RecordLen is the serialized length without the checksum.
	RecordLen = keyDataOffset + keyDataLen

	// SerializedLen is the decoded Base58Check length.
	SerializedLen = RecordLen + checksumLen
)

var (
	ErrTooShort         = errors.New("extended key too short")
	ErrChecksumMismatch = errors.New("extended key checksum mismatch")
)

// Fields is the decoded content of an extended key record.
type Fields struct {
	Version           uint32
	Depth             uint8
	ParentFingerprint uint32
	ChildIndex        uint32
	ChainCode         [chainCodeLen]byte
	// KeyData is 0x00 || scalar for private keys, a compressed point otherwise.
	KeyData [keyDataLen]byte
}

// IsPrivate reports whether the record carries a private scalar.
func (f *Fields) IsPrivate() bool {
	return f.KeyData[0] == 0x00
}

// Serialize returns the 78-byte record without checksum.
func (f *Fields) Serialize() []byte {
	out := make([]byte, RecordLen)
	binary.BigEndian.PutUint32(out[versionOffset:], f.Version)
	out[depthOffset] = f.Depth
	binary.BigEndian.PutUint32(out[fingerprintOffset:], f.ParentFingerprint)
	binary.BigEndian.PutUint32(out[childNumberOffset:], f.ChildIndex)
	copy(out[chainCodeOffset:], f.ChainCode[:])
	copy(out[keyDataOffset:], f.KeyData[:])
	return out
}

// Encode returns the Base58Check string for f.
func Encode(f *Fields) string {
	record := f.Serialize()
	defer zero(record)
	full := make([]byte, 0, SerializedLen)
	full = append(full, record...)
	full = append(full, checksum(record)...)
	defer zero(full)
	return base58.Encode(full)
}

// Decode parses a Base58Check extended key string.
//
// Bytes past the checksum are ignored; anything shorter than a full record
// plus checksum fails with ErrTooShort.
func Decode(s string) (*Fields, error) {
	raw := base58.Decode(s)
	defer zero(raw)
	return Parse(raw)
}

// Parse decodes an already base58-decoded record including its checksum.
func Parse(raw []byte) (*Fields, error) {
	if len(raw) < SerializedLen {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrTooShort, len(raw), SerializedLen)
	}
	record := raw[:RecordLen]
	if !bytes.Equal(checksum(record), raw[RecordLen:SerializedLen]) {
		return nil, ErrChecksumMismatch
	}

	f := &Fields{
		Version:           binary.BigEndian.Uint32(record[versionOffset:depthOffset]),
		Depth:             record[depthOffset],
		ParentFingerprint: binary.BigEndian.Uint32(record[fingerprintOffset:childNumberOffset]),
		ChildIndex:        binary.BigEndian.Uint32(record[childNumberOffset:chainCodeOffset]),
	}
	copy(f.ChainCode[:], record[chainCodeOffset:keyDataOffset])
	copy(f.KeyData[:], record[keyDataOffset:RecordLen])
	return f, nil
}

func checksum(record []byte) []byte {
	return chainhash.DoubleHashB(record)[:checksumLen]
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
