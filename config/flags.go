package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Version is reported by --version.
const Version = "0.1.0"

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	Testnet bool
	DataDir string
	Config  string

	// Wallet
	Wallet    string
	Xpub      string
	CoinType  uint
	Purpose   uint
	GapLimit  int
	CacheSize int

	// Index
	Index string

	// RPC
	RPCAddr    string
	RPCAllowed string
	RPCCORS    string
	RPCMetrics bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args (command and its arguments)
	Args []string

	// Explicitly-set flags whose zero value is meaningful.
	SetCoinType  bool
	SetPurpose   bool
	SetCacheSize bool
	SetLogJSON   bool
	SetMetrics   bool
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("klingnet-hd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	fs.BoolVar(&f.Testnet, "testnet", false, "Shorthand for --network=testnet")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Wallet
	fs.StringVar(&f.Wallet, "wallet", "", "Keystore wallet name")
	fs.StringVar(&f.Wallet, "w", "", "Keystore wallet name (shorthand)")
	fs.StringVar(&f.Xpub, "xpub", "", "Watch-only root xpub")
	fs.UintVar(&f.CoinType, "cointype", 0, "BIP-44 coin type")
	fs.UintVar(&f.Purpose, "purpose", 0, "BIP-44 purpose")
	fs.IntVar(&f.GapLimit, "gap-limit", 0, "Gap limit")
	fs.IntVar(&f.CacheSize, "cache-size", 0, "Derived public keys kept in memory")

	// Index
	fs.StringVar(&f.Index, "index", "", "Key index backend (badger, leveldb, memory, none)")

	// RPC
	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "RPC listen address (host:port)")
	fs.StringVar(&f.RPCAllowed, "rpc-allowed", "", "Allowed RPC client IPs/CIDRs, comma-separated")
	fs.StringVar(&f.RPCCORS, "rpc-cors", "", "Allowed CORS origins, comma-separated")
	fs.BoolVar(&f.RPCMetrics, "rpc-metrics", false, "Serve Prometheus metrics at /metrics")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Log as JSON")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	f.Args = fs.Args()
	f.SetCoinType = isFlagSet(fs, "cointype")
	f.SetPurpose = isFlagSet(fs, "purpose")
	f.SetCacheSize = isFlagSet(fs, "cache-size")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.SetMetrics = isFlagSet(fs, "rpc-metrics")
	return f, nil
}

// network returns the network selected by flags, or "" when none was.
func (f *Flags) network() NetworkType {
	if f.Testnet {
		return Testnet
	}
	return NetworkType(strings.ToLower(f.Network))
}

// ApplyFlags applies explicitly given flags to cfg.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if n := f.network(); n != "" {
		cfg.Network = n
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Wallet
	if f.Wallet != "" {
		cfg.Wallet.Name = f.Wallet
	}
	if f.Xpub != "" {
		cfg.Wallet.Xpub = f.Xpub
	}
	if f.SetCoinType {
		cfg.Wallet.CoinType = uint32(f.CoinType)
	}
	if f.SetPurpose {
		cfg.Wallet.Purpose = uint32(f.Purpose)
	}
	if f.GapLimit != 0 {
		cfg.Wallet.GapLimit = f.GapLimit
	}
	if f.SetCacheSize {
		cfg.Wallet.CacheSize = f.CacheSize
	}

	// Index
	if f.Index != "" {
		cfg.Index.Backend = strings.ToLower(f.Index)
	}

	// RPC
	if f.RPCAddr != "" {
		cfg.RPC.Addr = f.RPCAddr
	}
	if f.RPCAllowed != "" {
		cfg.RPC.AllowedIPs = parseStringList(f.RPCAllowed)
	}
	if f.RPCCORS != "" {
		cfg.RPC.CORSOrigins = parseStringList(f.RPCCORS)
	}
	if f.SetMetrics {
		cfg.RPC.Metrics = f.RPCMetrics
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the help text to w.
func PrintUsage(w io.Writer) {
	usage := `Klingnet HD - BIP-32/BIP-44 key derivation

Usage:
  klingnet-hd [options] <command> [arguments]

Commands:
  create                      Generate a seed and store it in the keystore
  import-xpub <xpub>          Store a watch-only wallet
  list                        List keystore wallets
  info                        Show wallet mode, fingerprint and root xpub
  account <account>           Print the account xpub (signer only)
  pubkey <account> <index> [chain]
                              Print a public key
  privkey <account> <index> [chain]
                              Print a private key (signer only)
  path <path>                 Derive the key at an absolute path
  window <account> <chain> [start]
                              Print gap-limit public keys
  next <account> [chain]      Print the next unused public key and advance
  index                       List keys recorded in the key index
  serve                       Serve public derivation over JSON-RPC
  call <method> [params-json] Query a running server at --rpc-addr

Core Options:
  --network       Network type: mainnet (default) or testnet
  --testnet       Shorthand for --network=testnet
  --datadir       Data directory (default: ~/.klingnet-hd)
  --config, -c    Config file path (default: <datadir>/klingnet-hd.conf)

Wallet Options:
  --wallet, -w    Keystore wallet name (default: default)
  --xpub          Watch-only root xpub; bypasses the keystore
  --cointype      BIP-44 coin type (mainnet: 8888, testnet: 1)
  --purpose       BIP-44 purpose (default: 44)
  --gap-limit     Gap limit (default: 5)
  --cache-size    Derived public keys kept in memory (default: 1024)

Index Options:
  --index         Key index backend: badger (default), leveldb, memory or none

RPC Options:
  --rpc-addr      Listen address (mainnet: 127.0.0.1:8645, testnet: 127.0.0.1:8646)
  --rpc-allowed   Allowed client IPs/CIDRs, comma-separated (default: all)
  --rpc-cors      Allowed CORS origins, comma-separated
  --rpc-metrics   Serve Prometheus metrics at /metrics

Logging Options:
  --log-level     Log level: trace, debug, info, warn, error (default: warn)
  --log-file      Log file path
  --log-json      Log as JSON

Chains are "external" (0) or "internal" (1).
`
	fmt.Fprint(w, usage)
}

// Load parses args and resolves the configuration. Precedence, lowest to
// highest: network defaults, config file, flags. When --help or --version
// is given the returned config is nil.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	dataDir := flags.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	configPath := flags.Config
	if configPath == "" {
		configPath = (&Config{DataDir: dataDir}).ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	// Network picks the defaults, so resolve it before anything else.
	network := Mainnet
	switch {
	case flags.network() != "":
		network = flags.network()
	case fileValues["network"] != "":
		network = NetworkType(strings.ToLower(fileValues["network"]))
	}

	cfg := Default(network)
	cfg.DataDir = dataDir
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	// Flags win over the file.
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}
	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDir(),
		cfg.KeystoreDir(),
		cfg.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
