package config

import (
	"fmt"
	"time"
)

type ChainConfig struct {
	// RPCAddr specifies the URL of the chain JSON-RPC endpoint.
	RPCAddr string `mapstructure:"rpc-addr"`
	// FaucetKeyEnv names the environment variable holding the faucet wallet
	// private key in hex. The key itself never appears in the config file.
	FaucetKeyEnv string `mapstructure:"faucet-key-env"`
	// Timeout bounds a single disbursement round trip, confirmation included.
	Timeout time.Duration `mapstructure:"timeout"`
}

func (cfg *ChainConfig) Validate() error {
	if cfg.RPCAddr == "" {
		return fmt.Errorf("chain rpc-addr is required")
	}
	if cfg.FaucetKeyEnv == "" {
		return fmt.Errorf("chain faucet-key-env is required")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("chain timeout must be positive")
	}

	return nil
}
