package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile reads a .conf file.
// Format: key = value (one per line, # for comments). A missing file
// yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file values to cfg.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "network":
		cfg.Network = NetworkType(strings.ToLower(value))
	case "datadir":
		cfg.DataDir = value

	case "wallet.name", "wallet":
		cfg.Wallet.Name = value
	case "wallet.xpub", "xpub":
		cfg.Wallet.Xpub = value
	case "wallet.cointype":
		n, err := parseUint32(value)
		if err != nil {
			return err
		}
		cfg.Wallet.CoinType = n
	case "wallet.purpose":
		n, err := parseUint32(value)
		if err != nil {
			return err
		}
		cfg.Wallet.Purpose = n
	case "wallet.gaplimit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Wallet.GapLimit = n
	case "wallet.cachesize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Wallet.CacheSize = n

	case "index.backend", "index":
		cfg.Index.Backend = strings.ToLower(value)

	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)
	case "rpc.metrics":
		cfg.RPC.Metrics = parseBool(value)

	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)
	case "log.maxsize":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Log.MaxSizeKB = n
	case "log.maxfiles":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Log.MaxFiles = n

	default:
		// Unknown keys are ignored
	}
	return nil
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func parseStringList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a commented default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# Klingnet HD wallet configuration

# Network: mainnet or testnet
# network = ` + string(network) + `

# Data directory (default: ~/.klingnet-hd)
# datadir = ~/.klingnet-hd

# ============================================================================
# Wallet
# ============================================================================

# Keystore entry to open
wallet.name = ` + cfg.Wallet.Name + `

# Watch-only root; when set the keystore is not consulted
# wallet.xpub = xpub...

# BIP-44 coin type and purpose of signer paths (coin type defaults to
# 8888 on mainnet and 1 on testnet)
# wallet.cointype = ` + strconv.FormatUint(uint64(cfg.Wallet.CoinType), 10) + `
# wallet.purpose = ` + strconv.FormatUint(uint64(cfg.Wallet.Purpose), 10) + `

# Consecutive unused addresses scanned per chain
wallet.gaplimit = ` + strconv.Itoa(cfg.Wallet.GapLimit) + `

# Derived public keys kept in memory (0 disables)
wallet.cachesize = ` + strconv.Itoa(cfg.Wallet.CacheSize) + `

# ============================================================================
# Derived key index: badger, leveldb, memory or none
# ============================================================================

index.backend = ` + cfg.Index.Backend + `

# ============================================================================
# Derivation RPC server (klingnet-hd serve)
# ============================================================================

# rpc.addr = ` + cfg.RPC.Addr + `
# Comma-separated IPs or CIDRs; empty allows all
# rpc.allowed = 127.0.0.1
# rpc.cors =
# Serve Prometheus metrics at /metrics
# rpc.metrics = false

# ============================================================================
# Logging
# ============================================================================

log.level = ` + cfg.Log.Level + `
# log.file =
log.json = false
# Rotate log.file after log.maxsize KB, keeping log.maxfiles old files
# log.maxsize = ` + strconv.FormatInt(cfg.Log.MaxSizeKB, 10) + `
# log.maxfiles = ` + strconv.Itoa(cfg.Log.MaxFiles) + `
`
	return os.WriteFile(path, []byte(content), 0o644)
}
