package wallet

import (
	"github.com/Klingon-tech/klingnet-hd/internal/keyindex"
	"github.com/Klingon-tech/klingnet-hd/internal/log"
	"github.com/Klingon-tech/klingnet-hd/internal/metrics"
	"github.com/Klingon-tech/klingnet-hd/pkg/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// keyCache memoizes derived public keys by path: an in-process LRU in
// front of an optional persistent index. Private keys never enter it.
type keyCache struct {
	l1    *lru.Cache[string, *ExtendedPublicKey]
	index *keyindex.Index
	id    types.WalletID
}

func newKeyCache(size int, index *keyindex.Index, id types.WalletID) (*keyCache, error) {
	c := &keyCache{index: index, id: id}
	if size > 0 {
		l1, err := lru.New[string, *ExtendedPublicKey](size)
		if err != nil {
			return nil, err
		}
		c.l1 = l1
	}
	return c, nil
}

func (c *keyCache) get(path string) (*ExtendedPublicKey, bool) {
	if c == nil {
		return nil, false
	}
	if c.l1 != nil {
		k, ok := c.l1.Get(path)
		metrics.Lookup(metrics.TierMemory, ok)
		if ok {
			return k, true
		}
	}
	if c.index == nil {
		return nil, false
	}

	s, ok, err := c.index.Get(c.id, path)
	if err != nil {
		log.Wallet.Warn().Err(err).Str("path", path).Msg("Key index lookup failed")
		return nil, false
	}
	metrics.Lookup(metrics.TierIndex, ok)
	if !ok {
		return nil, false
	}
	k, err := ParseExtendedPublicKey(s)
	if err != nil {
		log.Wallet.Warn().Err(err).Str("path", path).Msg("Discarding corrupt key index entry")
		return nil, false
	}
	if c.l1 != nil {
		c.l1.Add(path, k)
	}
	return k, true
}

func (c *keyCache) put(path string, k *ExtendedPublicKey) {
	if c == nil {
		return
	}
	if c.l1 != nil {
		c.l1.Add(path, k)
	}
	if c.index != nil {
		if err := c.index.Put(c.id, path, k.String()); err != nil {
			log.Wallet.Warn().Err(err).Str("path", path).Msg("Key index write failed")
		}
	}
}

func (c *keyCache) putAll(keys map[string]*ExtendedPublicKey) {
	if c == nil || len(keys) == 0 {
		return
	}
	if c.l1 != nil {
		for path, k := range keys {
			c.l1.Add(path, k)
		}
	}
	if c.index != nil {
		entries := make(map[string]string, len(keys))
		for path, k := range keys {
			entries[path] = k.String()
		}
		if err := c.index.PutAll(c.id, entries); err != nil {
			log.Wallet.Warn().Err(err).Int("entries", len(entries)).Msg("Key index batch write failed")
		}
	}
}

func (c *keyCache) len() int {
	if c == nil || c.l1 == nil {
		return 0
	}
	return c.l1.Len()
}
