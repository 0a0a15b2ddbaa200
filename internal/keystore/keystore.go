// Package keystore stores wallets on disk: an Argon2id-sealed seed for
// signing wallets or a plain xpub for watch-only ones, plus the next unused
// index of every account chain.
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-hd/internal/log"
	"github.com/Klingon-tech/klingnet-hd/pkg/hdpath"
)

const (
	fileVersion = 1
	fileExt     = ".wallet"
)

// Kind tells signing wallets from watch-only ones.
type Kind string

const (
	KindSigner    Kind = "signer"
	KindWatchOnly Kind = "watch-only"
)

var (
	ErrExists     = errors.New("wallet already exists")
	ErrNotFound   = errors.New("wallet not found")
	ErrWatchOnly  = errors.New("watch-only wallet has no seed")
	ErrBadName    = errors.New("invalid wallet name")
	ErrBadVersion = errors.New("unsupported wallet file version")
)

// Meta is the public part of a wallet entry.
type Meta struct {
	Network     string `json:"network"`
	CoinType    uint32 `json:"coin_type"`
	Fingerprint string `json:"fingerprint"`
	// Xpub is the root public key: the master xpub of a signer or the
	// imported key of a watch-only wallet.
	Xpub string `json:"xpub"`
}

// Entry describes a stored wallet without secrets.
type Entry struct {
	Name      string
	Kind      Kind
	CreatedAt time.Time
	Meta
}

// cursor tracks the next unused index of both chains of an account.
type cursor struct {
	External uint32 `json:"external"`
	Internal uint32 `json:"internal"`
}

type walletFile struct {
	Version       int               `json:"version"`
	Kind          Kind              `json:"kind"`
	CreatedAt     time.Time         `json:"created_at"`
	Meta          Meta              `json:"meta"`
	EncryptedSeed []byte            `json:"encrypted_seed,omitempty"`
	Cursors       map[string]cursor `json:"cursors,omitempty"`
}

// Keystore manages wallet files in one directory.
type Keystore struct {
	dir string
	mu  sync.Mutex
}

// New opens a keystore in dir, creating it with 0700 permissions.
func New(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return filepath.Join(ks.dir, name+fileExt), nil
}

// CreateSigner stores seed sealed under password.
func (ks *Keystore) CreateSigner(name string, seed, password []byte, p Params, meta Meta) error {
	sealed, err := Seal(seed, password, p)
	if err != nil {
		return fmt.Errorf("encrypt seed: %w", err)
	}
	return ks.create(name, &walletFile{
		Kind:          KindSigner,
		Meta:          meta,
		EncryptedSeed: sealed,
	})
}

// CreateWatchOnly stores a watch-only wallet for meta.Xpub.
func (ks *Keystore) CreateWatchOnly(name string, meta Meta) error {
	if meta.Xpub == "" {
		return errors.New("watch-only wallet needs an xpub")
	}
	return ks.create(name, &walletFile{Kind: KindWatchOnly, Meta: meta})
}

func (ks *Keystore) create(name string, wf *walletFile) error {
	path, err := ks.path(name)
	if err != nil {
		return err
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %q", ErrExists, name)
	}
	wf.Version = fileVersion
	wf.CreatedAt = time.Now().UTC()
	if err := writeFile(path, wf); err != nil {
		return err
	}
	log.Keystore.Info().Str("wallet", name).Str("kind", string(wf.Kind)).Msg("Wallet created")
	return nil
}

// Info returns the public metadata of a wallet.
func (ks *Keystore) Info(name string) (*Entry, error) {
	wf, err := ks.load(name)
	if err != nil {
		return nil, err
	}
	return &Entry{Name: name, Kind: wf.Kind, CreatedAt: wf.CreatedAt, Meta: wf.Meta}, nil
}

// Seed decrypts and returns the seed of a signing wallet. The caller owns
// the returned slice and should wipe it.
func (ks *Keystore) Seed(name string, password []byte) ([]byte, error) {
	wf, err := ks.load(name)
	if err != nil {
		return nil, err
	}
	if wf.Kind != KindSigner {
		return nil, fmt.Errorf("%w: %q", ErrWatchOnly, name)
	}
	seed, err := Open(wf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet %q: %w", name, err)
	}
	return seed, nil
}

// List returns the names of all wallets, sorted.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		names = append(names, e.Name()[:len(e.Name())-len(fileExt)])
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	path, err := ks.path(name)
	if err != nil {
		return err
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}

// NextIndex returns the next unused index of an account chain.
func (ks *Keystore) NextIndex(name string, account uint32, chain hdpath.Chain) (uint32, error) {
	wf, err := ks.load(name)
	if err != nil {
		return 0, err
	}
	return wf.cursor(account).get(chain), nil
}

// SetNextIndex overwrites the next unused index of an account chain.
func (ks *Keystore) SetNextIndex(name string, account uint32, chain hdpath.Chain, idx uint32) error {
	if idx > hdpath.MaxIndex {
		return fmt.Errorf("index %d out of range", idx)
	}
	return ks.update(name, func(wf *walletFile) error {
		c := wf.cursor(account)
		c.set(chain, idx)
		wf.setCursor(account, c)
		return nil
	})
}

// Advance returns the next unused index of an account chain and moves the
// cursor past it.
func (ks *Keystore) Advance(name string, account uint32, chain hdpath.Chain) (uint32, error) {
	var idx uint32
	err := ks.update(name, func(wf *walletFile) error {
		c := wf.cursor(account)
		idx = c.get(chain)
		if idx >= hdpath.MaxIndex {
			return fmt.Errorf("account %d %s chain exhausted", account, chain)
		}
		c.set(chain, idx+1)
		wf.setCursor(account, c)
		return nil
	})
	return idx, err
}

func (ks *Keystore) update(name string, fn func(*walletFile) error) error {
	path, err := ks.path(name)
	if err != nil {
		return err
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()

	wf, err := readFile(path, name)
	if err != nil {
		return err
	}
	if err := fn(wf); err != nil {
		return err
	}
	return writeFile(path, wf)
}

func (ks *Keystore) load(name string) (*walletFile, error) {
	path, err := ks.path(name)
	if err != nil {
		return nil, err
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return readFile(path, name)
}

func (wf *walletFile) cursor(account uint32) cursor {
	return wf.Cursors[strconv.FormatUint(uint64(account), 10)]
}

func (wf *walletFile) setCursor(account uint32, c cursor) {
	if wf.Cursors == nil {
		wf.Cursors = make(map[string]cursor)
	}
	wf.Cursors[strconv.FormatUint(uint64(account), 10)] = c
}

func (c cursor) get(chain hdpath.Chain) uint32 {
	if chain == hdpath.Internal {
		return c.Internal
	}
	return c.External
}

func (c *cursor) set(chain hdpath.Chain, idx uint32) {
	if chain == hdpath.Internal {
		c.Internal = idx
	} else {
		c.External = idx
	}
}

// writeFile replaces path atomically via a temp file and rename.
func writeFile(path string, wf *walletFile) error {
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace wallet: %w", err)
	}
	return nil
}

func readFile(path, name string) (*walletFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if wf.Version != fileVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, wf.Version)
	}
	return &wf, nil
}
