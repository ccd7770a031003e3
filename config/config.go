package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/tokenlist"
	"github.com/pr1mer-tech/hammy/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// DefaultConfigFile is looked up in the home directory when no file is given
const DefaultConfigFile = ".hammy.json"

type Config struct {
	// Chain and network settings
	ChainID        uint64 `json:"chain_id" yaml:"chain_id"`
	RPCEndpoint    string `json:"rpc_endpoint" yaml:"rpc_endpoint"`
	NativeSymbol   string `json:"native_symbol" yaml:"native_symbol"`
	NativeDecimals uint8  `json:"native_decimals" yaml:"native_decimals"`

	// Protocol deployment
	DEX DEXConfig `json:"dex" yaml:"dex"`

	// Trading defaults
	DefaultSlippage  string        `json:"default_slippage" yaml:"default_slippage"`
	DeadlineWindow   time.Duration `json:"deadline_window" yaml:"deadline_window"`
	GasBufferPercent uint64        `json:"gas_buffer_percent" yaml:"gas_buffer_percent"`
	RouteBases       []string      `json:"route_bases" yaml:"route_bases"`
	CrossCheck       bool          `json:"cross_check" yaml:"cross_check"`
	TokenList        string        `json:"token_list" yaml:"token_list"`

	// RPC behaviour
	PairCacheSize int             `json:"pair_cache_size" yaml:"pair_cache_size"`
	RPCRateLimit  RateLimitConfig `json:"rpc_rate_limit" yaml:"rpc_rate_limit"`
	Retry         RetryConfig     `json:"retry" yaml:"retry"`

	// Monitoring
	PrometheusEnabled  bool          `json:"prometheus_enabled" yaml:"prometheus_enabled"`
	PrometheusEndpoint string        `json:"prometheus_endpoint" yaml:"prometheus_endpoint"`
	WatchInterval      time.Duration `json:"watch_interval" yaml:"watch_interval"`

	// Internal components
	Logger *zap.Logger `json:"-" yaml:"-"`
}

// DEXConfig names one Uniswap V2 deployment. Forks only differ here.
type DEXConfig struct {
	Name         string `json:"name" yaml:"name"`
	Factory      string `json:"factory" yaml:"factory"`
	Router       string `json:"router" yaml:"router"`
	Wrapped      string `json:"wrapped" yaml:"wrapped"`
	InitCodeHash string `json:"init_code_hash" yaml:"init_code_hash"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size"`
	WaitTimeout       time.Duration `json:"wait_timeout" yaml:"wait_timeout"`
}

type RetryConfig struct {
	MaxRetries     uint          `json:"max_retries" yaml:"max_retries"`
	InitialBackoff time.Duration `json:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `json:"max_backoff" yaml:"max_backoff"`
}

// FactoryAddress returns the parsed factory address
func (c *Config) FactoryAddress() common.Address { return common.HexToAddress(c.DEX.Factory) }

// RouterAddress returns the parsed router address
func (c *Config) RouterAddress() common.Address { return common.HexToAddress(c.DEX.Router) }

// WrappedAddress returns the parsed wrapped native token address
func (c *Config) WrappedAddress() common.Address { return common.HexToAddress(c.DEX.Wrapped) }

// InitCodeHash returns the pair init-code hash, zero when unset
func (c *Config) InitCodeHash() common.Hash {
	if c.DEX.InitCodeHash == "" {
		return common.Hash{}
	}
	return common.HexToHash(c.DEX.InitCodeHash)
}

// RouteBaseAddresses parses RouteBases
func (c *Config) RouteBaseAddresses() []common.Address {
	bases := make([]common.Address, 0, len(c.RouteBases))
	for _, b := range c.RouteBases {
		bases = append(bases, common.HexToAddress(b))
	}
	return bases
}

func (c *Config) ValidateConfig() error {
	var errors []string

	// Validate Chain and Network settings
	if c.ChainID == 0 {
		errors = append(errors, "chain_id must be specified")
	}
	if c.RPCEndpoint == "" {
		errors = append(errors, "rpc_endpoint must be specified")
	}
	if c.NativeSymbol == "" {
		errors = append(errors, "native_symbol must be specified")
	}

	// Validate the deployment
	if err := c.DEX.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("dex config error: %v", err))
	}
	for _, b := range c.RouteBases {
		if !common.IsHexAddress(b) {
			errors = append(errors, fmt.Sprintf("route base %q is not an address", b))
		}
	}

	// Validate trading defaults
	if _, err := types.ParseSlippage(c.DefaultSlippage); err != nil {
		errors = append(errors, fmt.Sprintf("default_slippage error: %v", err))
	}
	if c.DeadlineWindow <= 0 {
		errors = append(errors, "deadline_window must be positive")
	}
	if c.GasBufferPercent > 100 {
		errors = append(errors, "gas_buffer_percent must be at most 100")
	}
	if c.PairCacheSize < 0 {
		errors = append(errors, "pair_cache_size must not be negative")
	}

	// Validate Rate Limits
	if err := c.RPCRateLimit.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("RPC rate limit error: %v", err))
	}
	if err := c.Retry.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("retry error: %v", err))
	}

	if c.PrometheusEnabled && c.PrometheusEndpoint == "" {
		errors = append(errors, "prometheus_endpoint must be specified when prometheus is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (d *DEXConfig) Validate() error {
	for _, f := range []struct{ name, addr string }{
		{"factory", d.Factory},
		{"router", d.Router},
		{"wrapped", d.Wrapped},
	} {
		if !common.IsHexAddress(f.addr) || common.HexToAddress(f.addr) == (common.Address{}) {
			return fmt.Errorf("%s address must be specified", f.name)
		}
	}
	if d.InitCodeHash != "" && len(common.FromHex(d.InitCodeHash)) != common.HashLength {
		return fmt.Errorf("init code hash must be 32 bytes")
	}
	return nil
}

func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if r.BurstSize <= 0 {
		return fmt.Errorf("burst size must be positive")
	}
	if r.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive")
	}

	return nil
}

func (r *RetryConfig) Validate() error {
	if r.InitialBackoff <= 0 {
		return fmt.Errorf("initial backoff must be positive")
	}
	if r.MaxBackoff < r.InitialBackoff {
		return fmt.Errorf("max backoff must not be below initial backoff")
	}
	return nil
}

// LoadConfig reads cfgFile on top of the defaults, applies environment
// overrides and validates the result. A missing default file is not an
// error: the built-in XRPL EVM settings are used instead. Logger is left as
// a no-op for the caller to replace.
func LoadConfig(cfgFile string) (*Config, error) {
	explicit := cfgFile != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfgFile = filepath.Join(home, DefaultConfigFile)
	}

	config := DefaultConfig()
	data, err := os.ReadFile(cfgFile)
	switch {
	case err == nil:
		if err := decode(cfgFile, data, config); err != nil {
			return nil, err
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

func decode(path string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to decode config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to decode config file: %w", err)
		}
	}
	return nil
}

func SaveConfig(cfg *Config, cfgFile string) error {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cfgFile = filepath.Join(home, DefaultConfigFile)
	}

	file, err := os.Create(cfgFile)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(cfgFile)) {
	case ".yaml", ".yml":
		return yaml.NewEncoder(file).Encode(cfg)
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	return encoder.Encode(cfg)
}

// DefaultConfig targets XRPL EVM mainnet. The deployment addresses have no
// default and come from the config file or the environment.
func DefaultConfig() *Config {
	return &Config{
		ChainID:          tokenlist.XRPLEVMChainID,
		RPCEndpoint:      "https://rpc.xrplevm.org",
		NativeSymbol:     tokenlist.NativeSymbol,
		NativeDecimals:   18,
		DEX:              DEXConfig{Name: "UniswapV2"},
		DefaultSlippage:  "0.5",
		DeadlineWindow:   20 * time.Minute,
		GasBufferPercent: 10,
		PairCacheSize:    1024,
		RPCRateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			BurstSize:         10,
			WaitTimeout:       5 * time.Second,
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
		},
		PrometheusEnabled:  false,
		PrometheusEndpoint: ":9090",
		WatchInterval:      5 * time.Second,
		Logger:             zap.NewNop(),
	}
}
