package config

import "github.com/Klingon-tech/klingnet-hd/pkg/hdpath"

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Wallet: WalletConfig{
			Name:      "default",
			CoinType:  CoinTypeKlingnet,
			Purpose:   hdpath.PurposeBIP44,
			GapLimit:  5,
			CacheSize: 1024,
		},
		Index: IndexConfig{
			Backend: IndexBadger,
		},
		RPC: RPCConfig{
			Addr: "127.0.0.1:8645",
		},
		Log: LogConfig{
			Level:     "warn",
			JSON:      false,
			MaxSizeKB: 10 * 1024,
			MaxFiles:  3,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Wallet.CoinType = CoinTypeTestnet
	cfg.RPC.Addr = "127.0.0.1:8646"
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
