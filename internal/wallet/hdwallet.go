// Package wallet implements BIP-32 key derivation and the BIP-44 account
// layout on top of it.
//
// An HDWallet runs in one of two modes fixed at construction:
//
//   - signer: built from a seed, derives both private and public keys at
//     m/purpose'/coinType'/account'/chain/index.
//   - cold (watch-only): built from an xpub, derives public keys below it
//     at root/account/index and never holds private material.
package wallet

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-hd/internal/log"
	"github.com/Klingon-tech/klingnet-hd/internal/metrics"
	"github.com/Klingon-tech/klingnet-hd/pkg/crypto"
	"github.com/Klingon-tech/klingnet-hd/pkg/extkey"
	"github.com/Klingon-tech/klingnet-hd/pkg/hdpath"
	"github.com/Klingon-tech/klingnet-hd/pkg/types"
	"github.com/rs/zerolog"
)

// mode is either *signerMode or *coldMode.
type mode interface {
	name() string
}

type signerMode struct {
	keychain *Keychain
	purpose  uint32
	coinType uint32
}

type coldMode struct {
	root *ExtendedPublicKey
}

func (*signerMode) name() string { return "signer" }
func (*coldMode) name() string   { return "cold" }

// HDWallet derives keys for one root. All methods except Close are safe
// for concurrent use.
type HDWallet struct {
	mode     mode
	gapLimit int
	id       types.WalletID
	cache    *keyCache
	log      zerolog.Logger
}

// NewSigner builds a signing wallet from a seed.
func NewSigner(seed []byte, coinType uint32, versions extkey.VersionPair, opts ...Option) (*HDWallet, error) {
	kc, err := NewKeychain(seed, versions)
	if err != nil {
		return nil, err
	}
	w, err := NewSignerFromKeychain(kc, coinType, opts...)
	if err != nil {
		kc.Zero()
		return nil, err
	}
	return w, nil
}

// NewSignerFromKeychain builds a signing wallet over an existing keychain.
// The wallet takes ownership of kc.
func NewSignerFromKeychain(kc *Keychain, coinType uint32, opts ...Option) (*HDWallet, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(o.purpose, coinType); err != nil {
		return nil, err
	}
	root, err := kc.Master()
	if err != nil {
		return nil, err
	}
	return newWallet(&signerMode{keychain: kc, purpose: o.purpose, coinType: coinType}, root, o)
}

// NewCold builds a watch-only wallet from a Base58Check xpub. Private
// extended keys are rejected.
func NewCold(xpub string, opts ...Option) (*HDWallet, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	root, err := ParseExtendedPublicKey(xpub)
	if err != nil {
		return nil, err
	}
	return newWallet(&coldMode{root: root}, root, o)
}

func buildOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.gapLimit <= 0 {
		return o, fmt.Errorf("%w: %d", ErrInvalidGapLimit, o.gapLimit)
	}
	if o.cacheSize < 0 {
		return o, fmt.Errorf("cache size must not be negative: %d", o.cacheSize)
	}
	return o, nil
}

func newWallet(m mode, root *ExtendedPublicKey, o options) (*HDWallet, error) {
	id := types.WalletID(crypto.Hash(root.Fields().Serialize()))
	cache, err := newKeyCache(o.cacheSize, o.index, id)
	if err != nil {
		return nil, fmt.Errorf("create key cache: %w", err)
	}
	if o.index != nil {
		if err := o.index.Register(id, root.String()); err != nil {
			return nil, err
		}
	}

	w := &HDWallet{
		mode:     m,
		gapLimit: o.gapLimit,
		id:       id,
		cache:    cache,
		log:      log.WithWalletID(id.String()),
	}
	w.log.Debug().
		Str("mode", m.name()).
		Str("fingerprint", root.Fingerprint().String()).
		Uint8("depth", root.Depth()).
		Int("gap_limit", o.gapLimit).
		Msg("Wallet ready")
	return w, nil
}

// ID identifies the wallet by its root public key.
func (w *HDWallet) ID() types.WalletID { return w.id }

// GapLimit returns the configured gap limit.
func (w *HDWallet) GapLimit() int { return w.gapLimit }

// IsCold reports whether the wallet is watch-only.
func (w *HDWallet) IsCold() bool {
	_, ok := w.mode.(*coldMode)
	return ok
}

// CoinType returns the BIP-44 coin type. Watch-only wallets have none.
func (w *HDWallet) CoinType() (uint32, bool) {
	if m, ok := w.mode.(*signerMode); ok {
		return m.coinType, true
	}
	return 0, false
}

// Purpose returns the BIP-44 purpose level. Watch-only wallets have none.
func (w *HDWallet) Purpose() (uint32, bool) {
	if m, ok := w.mode.(*signerMode); ok {
		return m.purpose, true
	}
	return 0, false
}

// RootPublicKey returns the master xpub of a signer or the configured xpub
// of a watch-only wallet.
func (w *HDWallet) RootPublicKey() (*ExtendedPublicKey, error) {
	switch m := w.mode.(type) {
	case *signerMode:
		return w.publicAt(nil)
	case *coldMode:
		return m.root, nil
	default:
		return nil, ErrNoRootKeyAvailable
	}
}

// PrivateKey returns the private key at m/purpose'/coinType'/account'/chain/index.
func (w *HDWallet) PrivateKey(account, index uint32, chain hdpath.Chain) (*ExtendedPrivateKey, error) {
	m, err := w.signer()
	if err != nil {
		return nil, err
	}
	p, err := m.canonical(account, chain, index)
	if err != nil {
		return nil, err
	}
	return m.keychain.DerivedKey(p)
}

// PrivateKeyAtPath returns the private key at an absolute path string.
func (w *HDWallet) PrivateKeyAtPath(path string) (*ExtendedPrivateKey, error) {
	m, err := w.signer()
	if err != nil {
		return nil, err
	}
	return m.keychain.DerivedKeyString(path)
}

// PublicKey returns the public key for (account, index, chain).
//
// Signers use the full BIP-44 path. Watch-only wallets derive
// root/account/index; chain plays no part there.
func (w *HDWallet) PublicKey(account, index uint32, chain hdpath.Chain) (*ExtendedPublicKey, error) {
	p, err := w.publicPath(account, index, chain)
	if err != nil {
		return nil, err
	}
	return w.publicAt(p)
}

// PublicKeyAtPath returns the public key at path. For signers the path is
// absolute; for watch-only wallets it is relative to the configured xpub
// and may not contain hardened steps.
func (w *HDWallet) PublicKeyAtPath(path string) (*ExtendedPublicKey, error) {
	if w.mode == nil {
		return nil, ErrNoRootKeyAvailable
	}
	p, err := hdpath.Parse(path)
	if err != nil {
		return nil, err
	}
	if w.IsCold() && !p.IsPublic() {
		return nil, fmt.Errorf("%w: %s", ErrHardenedDerivationRequiresPrivateKey, p)
	}
	return w.publicAt(p)
}

// PublicKeys returns count consecutive public keys starting at index start.
func (w *HDWallet) PublicKeys(account uint32, chain hdpath.Chain, start uint32, count int) ([]*ExtendedPublicKey, error) {
	if count <= 0 {
		return nil, nil
	}
	last := uint64(start) + uint64(count) - 1
	if last > uint64(hdpath.MaxIndex) {
		return nil, fmt.Errorf("%w: window ends at %d", ErrIndexOutOfRange, last)
	}
	defer log.Benchmark("public key window")()

	first, err := w.publicPath(account, start, chain)
	if err != nil {
		return nil, err
	}
	parentPath := first[:len(first)-1]
	parent, err := w.publicAt(parentPath)
	if err != nil {
		return nil, err
	}

	keys := make([]*ExtendedPublicKey, 0, count)
	fresh := make(map[string]*ExtendedPublicKey)
	for i := 0; i < count; i++ {
		step := hdpath.Step{Index: start + uint32(i)}
		p := parentPath.Child(step)
		if k, ok := w.cache.get(p.String()); ok {
			keys = append(keys, k)
			continue
		}
		k, err := parent.derive(step)
		if err != nil {
			return nil, err
		}
		fresh[p.String()] = k
		keys = append(keys, k)
	}
	metrics.Derived(metrics.KindPublic, len(fresh))
	w.cache.putAll(fresh)
	return keys, nil
}

// PublicKeyWindow returns GapLimit consecutive public keys starting at start.
func (w *HDWallet) PublicKeyWindow(account uint32, chain hdpath.Chain, start uint32) ([]*ExtendedPublicKey, error) {
	return w.PublicKeys(account, chain, start, w.gapLimit)
}

// AccountPublicKey returns the xpub at m/purpose'/coinType'/account',
// suitable for constructing a watch-only wallet.
func (w *HDWallet) AccountPublicKey(account uint32) (*ExtendedPublicKey, error) {
	m, err := w.signer()
	if err != nil {
		return nil, err
	}
	if err := checkIndex(account); err != nil {
		return nil, err
	}
	p, err := hdpath.Account(m.purpose, m.coinType, account)
	if err != nil {
		return nil, err
	}
	return w.publicAt(p)
}

// Close wipes private material. It must not race with other calls; the
// wallet only fails afterwards.
func (w *HDWallet) Close() {
	if m, ok := w.mode.(*signerMode); ok {
		m.keychain.Zero()
	}
}

func (w *HDWallet) signer() (*signerMode, error) {
	m, ok := w.mode.(*signerMode)
	if !ok {
		return nil, ErrNoPrivateKeyAvailable
	}
	if m.keychain == nil {
		return nil, ErrKeychainUnavailable
	}
	return m, nil
}

func (m *signerMode) canonical(account uint32, chain hdpath.Chain, index uint32) (hdpath.Path, error) {
	if err := checkIndex(account, uint32(chain), index); err != nil {
		return nil, err
	}
	return hdpath.Canonical(m.purpose, m.coinType, account, chain, index)
}

func (w *HDWallet) publicPath(account, index uint32, chain hdpath.Chain) (hdpath.Path, error) {
	switch m := w.mode.(type) {
	case *signerMode:
		return m.canonical(account, chain, index)
	case *coldMode:
		if err := checkIndex(account, index); err != nil {
			return nil, err
		}
		return hdpath.Path{{Index: account}, {Index: index}}, nil
	default:
		return nil, ErrNoRootKeyAvailable
	}
}

// publicAt returns the public key at p, consulting the cache first.
func (w *HDWallet) publicAt(p hdpath.Path) (*ExtendedPublicKey, error) {
	key := p.String()
	if k, ok := w.cache.get(key); ok {
		return k, nil
	}
	k, err := w.derivePublic(p)
	if err != nil {
		return nil, err
	}
	metrics.Derived(metrics.KindPublic, 1)
	w.cache.put(key, k)
	return k, nil
}

// derivePublic derives the public key at p. Signers only touch private
// keys up to the last hardened step; the non-hardened tail is derived from
// the (cached) public parent.
func (w *HDWallet) derivePublic(p hdpath.Path) (*ExtendedPublicKey, error) {
	switch m := w.mode.(type) {
	case *signerMode:
		split := lastHardened(p) + 1
		if split < len(p) {
			parent, err := w.publicAt(p[:split])
			if err != nil {
				return nil, err
			}
			return parent.DerivePath(p[split:])
		}
		if m.keychain == nil {
			return nil, ErrKeychainUnavailable
		}
		priv, err := m.keychain.DerivedKey(p)
		if err != nil {
			return nil, err
		}
		defer priv.Zero()
		return priv.Public()
	case *coldMode:
		return m.root.DerivePath(p)
	default:
		return nil, ErrNoRootKeyAvailable
	}
}

func lastHardened(p hdpath.Path) int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Hardened {
			return i
		}
	}
	return -1
}

func checkIndex(vals ...uint32) error {
	for _, v := range vals {
		if v > hdpath.MaxIndex {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, v)
		}
	}
	return nil
}
