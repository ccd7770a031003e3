package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvRPCURL        = "HAMMY_RPC_URL"
	EnvChainID       = "HAMMY_CHAIN_ID"
	EnvFactory       = "UNISWAP_V2_FACTORY"
	EnvRouter        = "UNISWAP_V2_ROUTER"
	EnvWrapped       = "WETH_ADDRESS"
	EnvInitCodeHash  = "UNISWAP_V2_INIT_CODE_HASH"
	EnvWalletAddress = "WALLET_ADDRESS"
)

// LoadEnv loads environment variables from a .env file when one exists
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && len(files) == 0 && os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// ApplyEnv overrides config fields from the environment
func ApplyEnv(c *Config) error {
	c.RPCEndpoint = GetEnvWithDefault(EnvRPCURL, c.RPCEndpoint)
	c.DEX.Factory = GetEnvWithDefault(EnvFactory, c.DEX.Factory)
	c.DEX.Router = GetEnvWithDefault(EnvRouter, c.DEX.Router)
	c.DEX.Wrapped = GetEnvWithDefault(EnvWrapped, c.DEX.Wrapped)
	c.DEX.InitCodeHash = GetEnvWithDefault(EnvInitCodeHash, c.DEX.InitCodeHash)

	if v := os.Getenv(EnvChainID); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvChainID, err)
		}
		c.ChainID = id
	}
	return nil
}
