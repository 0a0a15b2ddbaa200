// Package keyindex persists derived public keys per wallet so that repeated
// scans do not re-derive them.
//
// Layout inside the backing store:
//
//	w/<wallet-id-hex>           -> root xpub
//	k/<wallet-id-hex>/<path>    -> derived xpub
package keyindex

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-hd/internal/log"
	"github.com/Klingon-tech/klingnet-hd/internal/storage"
	"github.com/Klingon-tech/klingnet-hd/pkg/types"
)

var walletPrefix = []byte("w/")

// Index stores derived public keys keyed by wallet and path.
type Index struct {
	db storage.DB
}

// New returns an index backed by db. The index does not own db.
func New(db storage.DB) *Index {
	return &Index{db: db}
}

func (ix *Index) keys(id types.WalletID) *storage.PrefixDB {
	return storage.WalletKeys(ix.db, id)
}

func walletKey(id types.WalletID) []byte {
	return append(append([]byte{}, walletPrefix...), id.String()...)
}

// Register records the root xpub of a wallet.
func (ix *Index) Register(id types.WalletID, rootXpub string) error {
	if err := ix.db.Put(walletKey(id), []byte(rootXpub)); err != nil {
		return fmt.Errorf("register wallet %s: %w", id, err)
	}
	return nil
}

// Root returns the registered root xpub of a wallet.
func (ix *Index) Root(id types.WalletID) (string, bool, error) {
	return ix.get(ix.db, walletKey(id))
}

// Wallets lists the IDs of all registered wallets.
func (ix *Index) Wallets() ([]types.WalletID, error) {
	var ids []types.WalletID
	err := ix.db.ForEach(walletPrefix, func(key, _ []byte) error {
		h, err := types.HexToHash(string(key[len(walletPrefix):]))
		if err != nil {
			log.Index.Warn().Str("key", string(key)).Msg("Skipping malformed wallet entry")
			return nil
		}
		ids = append(ids, types.WalletID(h))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return ids, nil
}

// Get returns the xpub stored for path, if any.
func (ix *Index) Get(id types.WalletID, path string) (string, bool, error) {
	return ix.get(ix.keys(id), []byte(path))
}

func (ix *Index) get(db storage.DB, key []byte) (string, bool, error) {
	v, err := db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("keyindex get %s: %w", key, err)
	}
	return string(v), true, nil
}

// Put stores the xpub derived at path.
func (ix *Index) Put(id types.WalletID, path, xpub string) error {
	if err := ix.keys(id).Put([]byte(path), []byte(xpub)); err != nil {
		return fmt.Errorf("keyindex put %s: %w", path, err)
	}
	return nil
}

// PutAll stores several path/xpub pairs in one batch.
func (ix *Index) PutAll(id types.WalletID, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	b := ix.keys(id).NewBatch()
	for path, xpub := range entries {
		if err := b.Put([]byte(path), []byte(xpub)); err != nil {
			return fmt.Errorf("keyindex batch put %s: %w", path, err)
		}
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("keyindex batch commit: %w", err)
	}
	log.Index.Trace().
		Str("wallet_id", id.String()).
		Int("entries", len(entries)).
		Msg("Stored derived keys")
	return nil
}

// ForEach calls fn for every stored path of a wallet.
func (ix *Index) ForEach(id types.WalletID, fn func(path, xpub string) error) error {
	return ix.keys(id).ForEach(nil, func(key, value []byte) error {
		return fn(string(key), string(value))
	})
}

// Count returns the number of stored keys of a wallet.
func (ix *Index) Count(id types.WalletID) (int, error) {
	n := 0
	err := ix.ForEach(id, func(_, _ string) error {
		n++
		return nil
	})
	return n, err
}

// DeleteWallet removes a wallet and every key stored for it.
func (ix *Index) DeleteWallet(id types.WalletID) error {
	if err := ix.keys(id).DeleteAll(); err != nil {
		return fmt.Errorf("delete keys of %s: %w", id, err)
	}
	if err := ix.db.Delete(walletKey(id)); err != nil {
		return fmt.Errorf("delete wallet %s: %w", id, err)
	}
	return nil
}
