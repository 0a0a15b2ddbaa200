package storage

import "github.com/Klingon-tech/klingnet-hd/pkg/types"

// WalletKeysPrefix namespaces derived keys of one wallet: k/<wallet-id-hex>/.
const WalletKeysPrefix = "k/"

// PrefixDB is a view of a DB restricted to keys starting with a namespace.
// Keys passed in and handed back are relative to the namespace.
type PrefixDB struct {
	inner DB
	ns    []byte
}

// NewPrefixDB returns a view of inner under the namespace prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, ns: join(nil, prefix)}
}

// WalletKeys returns the namespace holding the derived keys of wallet id.
func WalletKeys(inner DB, id types.WalletID) *PrefixDB {
	ns := make([]byte, 0, len(WalletKeysPrefix)+2*types.HashSize+1)
	ns = append(ns, WalletKeysPrefix...)
	ns = append(ns, id.String()...)
	ns = append(ns, '/')
	return &PrefixDB{inner: inner, ns: ns}
}

// Prefix returns a copy of the namespace.
func (p *PrefixDB) Prefix() []byte { return join(nil, p.ns) }

// join returns a fresh slice holding ns followed by key.
func join(ns, key []byte) []byte {
	out := make([]byte, 0, len(ns)+len(key))
	return append(append(out, ns...), key...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) { return p.inner.Get(join(p.ns, key)) }

func (p *PrefixDB) Put(key, value []byte) error { return p.inner.Put(join(p.ns, key), value) }

func (p *PrefixDB) Delete(key []byte) error { return p.inner.Delete(join(p.ns, key)) }

func (p *PrefixDB) Has(key []byte) (bool, error) { return p.inner.Has(join(p.ns, key)) }

// ForEach visits keys under prefix within the namespace. fn sees keys with
// the namespace removed.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.ns)
	return p.inner.ForEach(join(p.ns, prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// DeleteAll removes every key in the namespace. Stores that batch delete
// atomically; others delete one key at a time.
func (p *PrefixDB) DeleteAll() error {
	var doomed [][]byte
	err := p.ForEach(nil, func(key, _ []byte) error {
		doomed = append(doomed, join(nil, key))
		return nil
	})
	if err != nil || len(doomed) == 0 {
		return err
	}
	b := p.NewBatch()
	for _, key := range doomed {
		if err := b.Delete(key); err != nil {
			return err
		}
	}
	return b.Commit()
}

// Close does nothing; the backing DB is closed by its owner.
func (p *PrefixDB) Close() error { return nil }

// NewBatch returns a batch scoped to the namespace. It commits atomically
// only when the backing DB is a Batcher.
func (p *PrefixDB) NewBatch() Batch {
	if batcher, ok := p.inner.(Batcher); ok {
		return &prefixBatch{inner: batcher.NewBatch(), ns: p.ns}
	}
	return &sequentialBatch{db: p}
}

type prefixBatch struct {
	inner Batch
	ns    []byte
}

func (pb *prefixBatch) Put(key, value []byte) error { return pb.inner.Put(join(pb.ns, key), value) }

func (pb *prefixBatch) Delete(key []byte) error { return pb.inner.Delete(join(pb.ns, key)) }

func (pb *prefixBatch) Commit() error { return pb.inner.Commit() }

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// sequentialBatch queues writes and replays them in order on Commit.
type sequentialBatch struct {
	db  DB
	ops []batchOp
}

func (sb *sequentialBatch) Put(key, value []byte) error {
	sb.ops = append(sb.ops, batchOp{key: join(nil, key), value: join(nil, value)})
	return nil
}

func (sb *sequentialBatch) Delete(key []byte) error {
	sb.ops = append(sb.ops, batchOp{key: join(nil, key), delete: true})
	return nil
}

func (sb *sequentialBatch) Commit() error {
	for _, op := range sb.ops {
		var err error
		if op.delete {
			err = sb.db.Delete(op.key)
		} else {
			err = sb.db.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	sb.ops = nil
	return nil
}
