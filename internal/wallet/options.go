package wallet

import (
	"github.com/Klingon-tech/klingnet-hd/internal/keyindex"
	"github.com/Klingon-tech/klingnet-hd/pkg/hdpath"
)

const (
	// DefaultGapLimit is the number of consecutive unused addresses scanned
	// before a chain is considered exhausted.
	DefaultGapLimit = 5

	// DefaultCacheSize is the number of derived public keys kept in memory.
	DefaultCacheSize = 1024
)

type options struct {
	gapLimit  int
	cacheSize int
	purpose   uint32
	index     *keyindex.Index
}

func defaultOptions() options {
	return options{
		gapLimit:  DefaultGapLimit,
		cacheSize: DefaultCacheSize,
		purpose:   hdpath.PurposeBIP44,
	}
}

// Option configures an HDWallet.
type Option func(*options)

// WithGapLimit sets the gap limit. It must be positive.
func WithGapLimit(n int) Option {
	return func(o *options) { o.gapLimit = n }
}

// WithCacheSize sets the in-memory public key cache size. Zero disables it.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithPurpose overrides the BIP-44 purpose level of signer paths.
func WithPurpose(purpose uint32) Option {
	return func(o *options) { o.purpose = purpose }
}

// WithKeyIndex persists derived public keys in idx.
func WithKeyIndex(idx *keyindex.Index) Option {
	return func(o *options) { o.index = idx }
}
