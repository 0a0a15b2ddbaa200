package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/Klingon-tech/klingnet-hd/pkg/extkey"
	"github.com/Klingon-tech/klingnet-hd/pkg/hdpath"
)

// Validate checks cfg for operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	w := cfg.Wallet
	if w.Name == "" && w.Xpub == "" {
		return fmt.Errorf("either wallet.name or wallet.xpub must be set")
	}
	if strings.ContainsAny(w.Name, `/\`) {
		return fmt.Errorf("wallet.name must not contain path separators")
	}
	if w.CoinType > hdpath.MaxIndex {
		return fmt.Errorf("wallet.cointype must be below 2^31")
	}
	if w.Purpose > hdpath.MaxIndex {
		return fmt.Errorf("wallet.purpose must be below 2^31")
	}
	if w.GapLimit <= 0 {
		return fmt.Errorf("wallet.gaplimit must be positive")
	}
	if w.CacheSize < 0 {
		return fmt.Errorf("wallet.cachesize must not be negative")
	}
	if w.Xpub != "" {
		if err := validateXpub(w.Xpub); err != nil {
			return fmt.Errorf("wallet.xpub: %w", err)
		}
	}

	switch cfg.Index.Backend {
	case IndexBadger, IndexLevelDB, IndexMemory, IndexNone:
	case "":
		cfg.Index.Backend = IndexNone
	default:
		return fmt.Errorf("index.backend must be %s, %s, %s or %s", IndexBadger, IndexLevelDB, IndexMemory, IndexNone)
	}

	if _, _, err := net.SplitHostPort(cfg.RPC.Addr); err != nil {
		return fmt.Errorf("rpc.addr: %w", err)
	}
	for _, entry := range cfg.RPC.AllowedIPs {
		if net.ParseIP(entry) == nil {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return fmt.Errorf("rpc.allowed: %q is neither an IP nor a CIDR", entry)
			}
		}
	}

	switch cfg.Log.Level {
	case "trace", "debug", "info", "warn", "error", "off", "disabled":
	default:
		return fmt.Errorf("log.level %q is not recognized", cfg.Log.Level)
	}
	if cfg.Log.File != "" && (cfg.Log.MaxSizeKB <= 0 || cfg.Log.MaxFiles <= 0) {
		return fmt.Errorf("log.maxsize and log.maxfiles must be positive when log.file is set")
	}
	return nil
}

// validateXpub checks encoding and that the key is public. Curve checks
// happen when the wallet is built.
func validateXpub(s string) error {
	f, err := extkey.Decode(s)
	if err != nil {
		return err
	}
	if f.IsPrivate() {
		return fmt.Errorf("private extended key given where a public one is required")
	}
	return nil
}
