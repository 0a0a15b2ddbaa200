package wallet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-hd/pkg/crypto"
	"github.com/Klingon-tech/klingnet-hd/pkg/extkey"
	"github.com/Klingon-tech/klingnet-hd/pkg/hdpath"
	"github.com/Klingon-tech/klingnet-hd/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

// ExtendedPrivateKey is a node of the derivation tree holding its private
// scalar. It owns the scalar: call Zero when done with it.
type ExtendedPrivateKey struct {
	key      *bip32.Key
	versions extkey.VersionPair
}

// ExtendedPublicKey is a node of the derivation tree without private
// material. Values are immutable and safe to share.
type ExtendedPublicKey struct {
	key     *bip32.Key
	version uint32
}

// Derive derives the child at index. Hardened children are always
// available from a private key.
func (k *ExtendedPrivateKey) Derive(index uint32, hardened bool) (*ExtendedPrivateKey, error) {
	step, err := newStep(index, hardened)
	if err != nil {
		return nil, err
	}
	return k.derive(step)
}

func (k *ExtendedPrivateKey) derive(step hdpath.Step) (*ExtendedPrivateKey, error) {
	if k.key.Depth == math.MaxUint8 {
		return nil, fmt.Errorf("%w: child %s", ErrMaxDepth, step)
	}
	child, err := k.key.NewChildKey(step.Child())
	if err != nil {
		return nil, childError(step, err)
	}
	child.Key = padScalar(child.Key)
	child.Version = versionBytes(k.versions.Private)
	return &ExtendedPrivateKey{key: child, versions: k.versions}, nil
}

// DerivePath walks p starting at k. Intermediate private keys are wiped;
// k itself is left untouched.
func (k *ExtendedPrivateKey) DerivePath(p hdpath.Path) (*ExtendedPrivateKey, error) {
	current := k.clone()
	for _, step := range p {
		child, err := current.derive(step)
		current.Zero()
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// Public returns the public counterpart of k.
func (k *ExtendedPrivateKey) Public() (*ExtendedPublicKey, error) {
	pub, err := crypto.PublicKeyFromScalar(k.key.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtendedKey, err)
	}
	return &ExtendedPublicKey{
		key: &bip32.Key{
			Version:     versionBytes(k.versions.Public),
			Depth:       k.key.Depth,
			ChildNumber: cloneBytes(k.key.ChildNumber),
			FingerPrint: cloneBytes(k.key.FingerPrint),
			ChainCode:   cloneBytes(k.key.ChainCode),
			Key:         pub,
			IsPrivate:   false,
		},
		version: k.versions.Public,
	}, nil
}

// PrivateKeyBytes returns a copy of the 32-byte private scalar.
func (k *ExtendedPrivateKey) PrivateKeyBytes() []byte {
	return cloneBytes(k.key.Key)
}

// PublicKeyBytes returns the compressed 33-byte public key, or nil once the
// key has been wiped.
func (k *ExtendedPrivateKey) PublicKeyBytes() []byte {
	pub, err := crypto.PublicKeyFromScalar(k.key.Key)
	if err != nil {
		return nil
	}
	return pub
}

// Depth returns the derivation depth (0 for master).
func (k *ExtendedPrivateKey) Depth() uint8 { return k.key.Depth }

// ChildIndex returns the raw child number, including the hardened bit.
func (k *ExtendedPrivateKey) ChildIndex() uint32 { return childIndex(k.key) }

// ParentFingerprint returns the fingerprint of the parent key.
func (k *ExtendedPrivateKey) ParentFingerprint() types.Fingerprint { return parentFingerprint(k.key) }

// Fingerprint returns this key's own fingerprint, or the zero fingerprint
// once the key has been wiped.
func (k *ExtendedPrivateKey) Fingerprint() types.Fingerprint {
	pub := k.PublicKeyBytes()
	if pub == nil {
		return types.Fingerprint{}
	}
	return crypto.Fingerprint(pub)
}

// ChainCode returns a copy of the chain code.
func (k *ExtendedPrivateKey) ChainCode() []byte { return cloneBytes(k.key.ChainCode) }

// Version returns the private version bytes.
func (k *ExtendedPrivateKey) Version() uint32 { return k.versions.Private }

// Fields returns the serializable record of k.
func (k *ExtendedPrivateKey) Fields() *extkey.Fields {
	f := baseFields(k.key, k.versions.Private)
	copy(f.KeyData[1:], k.key.Key)
	return f
}

// String returns the Base58Check xprv serialization.
func (k *ExtendedPrivateKey) String() string {
	f := k.Fields()
	defer crypto.Zero(f.KeyData[:])
	return extkey.Encode(f)
}

// Zero wipes the private scalar. The key is unusable afterwards.
func (k *ExtendedPrivateKey) Zero() {
	if k == nil || k.key == nil {
		return
	}
	crypto.Zero(k.key.Key)
}

func (k *ExtendedPrivateKey) clone() *ExtendedPrivateKey {
	return &ExtendedPrivateKey{
		key: &bip32.Key{
			Version:     cloneBytes(k.key.Version),
			Depth:       k.key.Depth,
			ChildNumber: cloneBytes(k.key.ChildNumber),
			FingerPrint: cloneBytes(k.key.FingerPrint),
			ChainCode:   cloneBytes(k.key.ChainCode),
			Key:         cloneBytes(k.key.Key),
			IsPrivate:   true,
		},
		versions: k.versions,
	}
}

// NewExtendedPublicKey builds a public key from a decoded record. Private
// records and points off the curve are rejected.
func NewExtendedPublicKey(f *extkey.Fields) (*ExtendedPublicKey, error) {
	if f == nil {
		return nil, ErrInvalidExtendedKey
	}
	if f.IsPrivate() {
		return nil, fmt.Errorf("%w: expected a public key, got a private one", ErrInvalidExtendedKey)
	}
	if err := crypto.ValidatePublicKey(f.KeyData[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExtendedKey, err)
	}
	if f.Depth == 0 && (f.ParentFingerprint != 0 || f.ChildIndex != 0) {
		return nil, fmt.Errorf("%w: zero depth with non-zero parent fingerprint or index", ErrInvalidExtendedKey)
	}

	var childNumber, fingerprint [4]byte
	binary.BigEndian.PutUint32(childNumber[:], f.ChildIndex)
	binary.BigEndian.PutUint32(fingerprint[:], f.ParentFingerprint)
	return &ExtendedPublicKey{
		key: &bip32.Key{
			Version:     versionBytes(f.Version),
			Depth:       f.Depth,
			ChildNumber: childNumber[:],
			FingerPrint: fingerprint[:],
			ChainCode:   cloneBytes(f.ChainCode[:]),
			Key:         cloneBytes(f.KeyData[:]),
			IsPrivate:   false,
		},
		version: f.Version,
	}, nil
}

// ParseExtendedPublicKey decodes a Base58Check xpub string.
func ParseExtendedPublicKey(s string) (*ExtendedPublicKey, error) {
	f, err := extkey.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExtendedKey, err)
	}
	return NewExtendedPublicKey(f)
}

// Derive derives the non-hardened child at index.
func (k *ExtendedPublicKey) Derive(index uint32, hardened bool) (*ExtendedPublicKey, error) {
	step, err := newStep(index, hardened)
	if err != nil {
		return nil, err
	}
	return k.derive(step)
}

func (k *ExtendedPublicKey) derive(step hdpath.Step) (*ExtendedPublicKey, error) {
	if step.Hardened {
		return nil, fmt.Errorf("%w: child %s", ErrHardenedDerivationRequiresPrivateKey, step)
	}
	if k.key.Depth == math.MaxUint8 {
		return nil, fmt.Errorf("%w: child %s", ErrMaxDepth, step)
	}
	child, err := k.key.NewChildKey(step.Child())
	if err != nil {
		return nil, childError(step, err)
	}
	child.Version = versionBytes(k.version)
	return &ExtendedPublicKey{key: child, version: k.version}, nil
}

// DerivePath walks p starting at k. Any hardened step fails.
func (k *ExtendedPublicKey) DerivePath(p hdpath.Path) (*ExtendedPublicKey, error) {
	current := k
	for _, step := range p {
		child, err := current.derive(step)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// PublicKeyBytes returns a copy of the compressed 33-byte public key.
func (k *ExtendedPublicKey) PublicKeyBytes() []byte { return cloneBytes(k.key.Key) }

// Depth returns the derivation depth.
func (k *ExtendedPublicKey) Depth() uint8 { return k.key.Depth }

// ChildIndex returns the raw child number, including the hardened bit.
func (k *ExtendedPublicKey) ChildIndex() uint32 { return childIndex(k.key) }

// ParentFingerprint returns the fingerprint of the parent key.
func (k *ExtendedPublicKey) ParentFingerprint() types.Fingerprint { return parentFingerprint(k.key) }

// Fingerprint returns this key's own fingerprint.
func (k *ExtendedPublicKey) Fingerprint() types.Fingerprint { return crypto.Fingerprint(k.key.Key) }

// ChainCode returns a copy of the chain code.
func (k *ExtendedPublicKey) ChainCode() []byte { return cloneBytes(k.key.ChainCode) }

// Version returns the public version bytes.
func (k *ExtendedPublicKey) Version() uint32 { return k.version }

// Fields returns the serializable record of k.
func (k *ExtendedPublicKey) Fields() *extkey.Fields {
	f := baseFields(k.key, k.version)
	copy(f.KeyData[:], k.key.Key)
	return f
}

// String returns the Base58Check xpub serialization.
func (k *ExtendedPublicKey) String() string {
	return extkey.Encode(k.Fields())
}

// Equal reports whether both keys serialize identically.
func (k *ExtendedPublicKey) Equal(other *ExtendedPublicKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return bytes.Equal(k.Fields().Serialize(), other.Fields().Serialize())
}

func newStep(index uint32, hardened bool) (hdpath.Step, error) {
	step, err := hdpath.NewStep(index, hardened)
	if err != nil {
		return hdpath.Step{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return step, nil
}

func childError(step hdpath.Step, err error) error {
	switch {
	case errors.Is(err, bip32.ErrHardnedChildPublicKey):
		return fmt.Errorf("%w: child %s", ErrHardenedDerivationRequiresPrivateKey, step)
	case errors.Is(err, bip32.ErrInvalidPrivateKey), errors.Is(err, bip32.ErrInvalidPublicKey):
		return fmt.Errorf("%w: child %s", ErrInvalidChildKey, step)
	default:
		return fmt.Errorf("derive child %s: %w", step, err)
	}
}

func baseFields(k *bip32.Key, version uint32) *extkey.Fields {
	f := &extkey.Fields{
		Version:           version,
		Depth:             k.Depth,
		ParentFingerprint: parentFingerprint(k).Uint32(),
		ChildIndex:        childIndex(k),
	}
	copy(f.ChainCode[:], k.ChainCode)
	return f
}

func childIndex(k *bip32.Key) uint32 {
	if len(k.ChildNumber) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(k.ChildNumber)
}

func parentFingerprint(k *bip32.Key) types.Fingerprint {
	var f types.Fingerprint
	copy(f[:], k.FingerPrint)
	return f
}

// padScalar left-pads a private scalar to 32 bytes.
func padScalar(b []byte) []byte {
	if len(b) >= crypto.PrivateKeySize {
		return b
	}
	out := make([]byte, crypto.PrivateKeySize)
	copy(out[crypto.PrivateKeySize-len(b):], b)
	crypto.Zero(b)
	return out
}

func versionBytes(v uint32) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, v)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
