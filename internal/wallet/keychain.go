package wallet

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-hd/internal/log"
	"github.com/Klingon-tech/klingnet-hd/internal/metrics"
	"github.com/Klingon-tech/klingnet-hd/pkg/extkey"
	"github.com/Klingon-tech/klingnet-hd/pkg/hdpath"
	"github.com/tyler-smith/go-bip32"
)

// Keychain derives private keys at arbitrary paths from a seed. The master
// key is computed once; the caller keeps ownership of the seed slice.
type Keychain struct {
	master   *ExtendedPrivateKey
	versions extkey.VersionPair
}

// NewKeychain computes the master key for seed using the given version
// bytes for serialization.
func NewKeychain(seed []byte, versions extkey.VersionPair) (*Keychain, error) {
	if err := validateSeed(seed); err != nil {
		return nil, err
	}
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	key.Key = padScalar(key.Key)
	key.Version = versionBytes(versions.Private)

	kc := &Keychain{
		master:   &ExtendedPrivateKey{key: key, versions: versions},
		versions: versions,
	}
	log.Keychain.Debug().
		Str("fingerprint", kc.master.Fingerprint().String()).
		Msg("Master key ready")
	return kc, nil
}

// Versions returns the version bytes used for serialization.
func (kc *Keychain) Versions() extkey.VersionPair { return kc.versions }

// DerivedKey walks p from the master key. An empty path returns a copy of
// the master key.
func (kc *Keychain) DerivedKey(p hdpath.Path) (*ExtendedPrivateKey, error) {
	if kc == nil || kc.master == nil {
		return nil, ErrKeychainUnavailable
	}
	k, err := kc.master.DerivePath(p)
	if err != nil {
		return nil, err
	}
	metrics.Derived(metrics.KindPrivate, 1)
	return k, nil
}

// DerivedKeyString parses s and derives the key at that path.
func (kc *Keychain) DerivedKeyString(s string) (*ExtendedPrivateKey, error) {
	p, err := hdpath.Parse(s)
	if err != nil {
		return nil, err
	}
	return kc.DerivedKey(p)
}

// Master returns the public master key.
func (kc *Keychain) Master() (*ExtendedPublicKey, error) {
	if kc == nil || kc.master == nil {
		return nil, ErrKeychainUnavailable
	}
	return kc.master.Public()
}

// Zero wipes the master key. Subsequent derivations fail with
// ErrKeychainUnavailable.
func (kc *Keychain) Zero() {
	if kc == nil || kc.master == nil {
		return
	}
	kc.master.Zero()
	kc.master = nil
}
