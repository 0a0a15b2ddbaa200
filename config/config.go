// Package config handles application configuration.
//
// Values are layered: per-network defaults, then the conf file in the data
// directory, then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/Klingon-tech/klingnet-hd/pkg/extkey"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Coin types used by default on each network.
const (
	CoinTypeKlingnet uint32 = 8888
	CoinTypeTestnet  uint32 = 1
)

// Index backends.
const (
	IndexBadger  = "badger"
	IndexLevelDB = "leveldb"
	IndexMemory  = "memory"
	IndexNone    = "none"
)

// Config holds runtime configuration.
type Config struct {
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	Wallet WalletConfig
	Index  IndexConfig
	RPC    RPCConfig
	Log    LogConfig
}

// WalletConfig selects the wallet and its derivation parameters.
type WalletConfig struct {
	Name      string `conf:"wallet.name"`
	Xpub      string `conf:"wallet.xpub"` // watch-only root, overrides the keystore
	CoinType  uint32 `conf:"wallet.cointype"`
	Purpose   uint32 `conf:"wallet.purpose"`
	GapLimit  int    `conf:"wallet.gaplimit"`
	CacheSize int    `conf:"wallet.cachesize"`
}

// IndexConfig selects the derived key index backend.
type IndexConfig struct {
	Backend string `conf:"index.backend"`
}

// RPCConfig holds settings of the read-only derivation RPC server.
type RPCConfig struct {
	Addr        string   `conf:"rpc.addr"`
	AllowedIPs  []string `conf:"rpc.allowed"` // IPs or CIDRs; empty allows all
	CORSOrigins []string `conf:"rpc.cors"`
	Metrics     bool     `conf:"rpc.metrics"` // serve /metrics next to the RPC endpoint
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`

	// Rotation of log.file.
	MaxSizeKB int64 `conf:"log.maxsize"`
	MaxFiles  int   `conf:"log.maxfiles"`
}

// Versions returns the extended key version bytes of the network.
func (c *Config) Versions() extkey.VersionPair {
	if c.Network == Testnet {
		return extkey.Testnet
	}
	return extkey.Mainnet
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-hd
//	macOS:   ~/Library/Application Support/KlingnetHD
//	Windows: %APPDATA%\KlingnetHD
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-hd"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetHD")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetHD")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetHD")
	default:
		return filepath.Join(home, ".klingnet-hd")
	}
}

// NetworkDir returns the network-specific data directory.
func (c *Config) NetworkDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDir(), "keystore")
}

// IndexDir returns the derived key index directory. Each on-disk backend
// gets its own directory.
func (c *Config) IndexDir() string {
	if c.Index.Backend == IndexLevelDB {
		return filepath.Join(c.NetworkDir(), "keyindex-leveldb")
	}
	return filepath.Join(c.NetworkDir(), "keyindex")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "klingnet-hd.conf")
}
