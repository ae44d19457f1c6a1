package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	PrivateKey string
	APIKey     string
	RPCURL     string
	BaseURL    string
	ChainID    int64
	SellToken  string
	BuyToken   string
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".zerox-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("base_url", "https://api.0x.org")
	viper.SetDefault("chain_id", 8453)
	// WETH and wstETH on Base
	viper.SetDefault("sell_token", "0x4200000000000000000000000000000000000006")
	viper.SetDefault("buy_token", "0xc1CBa3fCea344f92D9239c08C0568f6F2F0ee452")

	// Read from environment variables
	viper.SetEnvPrefix("ZEROX_SWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	// Create config struct
	cfg := &Config{
		PrivateKey: viper.GetString("private_key"),
		APIKey:     viper.GetString("api_key"),
		RPCURL:     viper.GetString("rpc_url"),
		BaseURL:    viper.GetString("base_url"),
		ChainID:    viper.GetInt64("chain_id"),
		SellToken:  viper.GetString("sell_token"),
		BuyToken:   viper.GetString("buy_token"),
	}

	// These have no usable defaults; fail before any network call
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key not found. Please set ZEROX_SWAP_PRIVATE_KEY or add private_key to a .zerox-swap.yaml config file")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key not found. Please set ZEROX_SWAP_API_KEY or add api_key to a .zerox-swap.yaml config file")
	}
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL not found. Please set ZEROX_SWAP_RPC_URL or add rpc_url to a .zerox-swap.yaml config file")
	}

	return cfg, nil
}
