package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	factory = "0x00000000000000000000000000000000000000f1"
	router  = "0x00000000000000000000000000000000000000f2"
	wrapped = "0x00000000000000000000000000000000000000e0"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{EnvRPCURL, EnvChainID, EnvFactory, EnvRouter, EnvWrapped, EnvInitCodeHash} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigJSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "hammy.json", `{
		"rpc_endpoint": "http://localhost:8545",
		"dex": {"name": "Hammy", "factory": "`+factory+`", "router": "`+router+`", "wrapped": "`+wrapped+`"},
		"cross_check": true,
		"route_bases": ["`+wrapped+`"]
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.RPCEndpoint)
	assert.Equal(t, uint64(1440000), cfg.ChainID)
	assert.Equal(t, "Hammy", cfg.DEX.Name)
	assert.Equal(t, common.HexToAddress(router), cfg.RouterAddress())
	assert.Equal(t, []common.Address{common.HexToAddress(wrapped)}, cfg.RouteBaseAddresses())
	assert.True(t, cfg.CrossCheck)
	assert.Equal(t, 20*time.Minute, cfg.DeadlineWindow)
	assert.Equal(t, common.Hash{}, cfg.InitCodeHash())
	assert.False(t, cfg.Logger.Core().Enabled(zap.ErrorLevel), "logging is left to the caller")
}

func TestLoadConfigYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "hammy.yaml", `
chain_id: 1449000
dex:
  factory: "`+factory+`"
  router: "`+router+`"
  wrapped: "`+wrapped+`"
  init_code_hash: "0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f"
deadline_window: 10m
default_slippage: "1"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1449000), cfg.ChainID)
	assert.Equal(t, 10*time.Minute, cfg.DeadlineWindow)
	assert.Equal(t, "1", cfg.DefaultSlippage)
	assert.NotEqual(t, common.Hash{}, cfg.InitCodeHash())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRPCURL, "http://node:8545")
	t.Setenv(EnvChainID, "1449000")
	t.Setenv(EnvFactory, factory)
	t.Setenv(EnvRouter, router)
	t.Setenv(EnvWrapped, wrapped)

	cfg, err := LoadConfig(writeFile(t, "empty.json", `{}`))
	require.NoError(t, err)
	assert.Equal(t, "http://node:8545", cfg.RPCEndpoint)
	assert.Equal(t, uint64(1449000), cfg.ChainID)
	assert.Equal(t, common.HexToAddress(factory), cfg.FactoryAddress())

	t.Setenv(EnvChainID, "xrpl")
	_, err = LoadConfig(writeFile(t, "empty.json", `{}`))
	assert.Error(t, err)
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "broken.json", `{`))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.DEX.Factory, cfg.DEX.Router, cfg.DEX.Wrapped = factory, router, wrapped
		return cfg
	}
	require.NoError(t, valid().ValidateConfig())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing router", func(c *Config) { c.DEX.Router = "" }, "router address must be specified"},
		{"short init code hash", func(c *Config) { c.DEX.InitCodeHash = "0x1234" }, "init code hash"},
		{"bad slippage", func(c *Config) { c.DefaultSlippage = "60" }, "default_slippage"},
		{"bad route base", func(c *Config) { c.RouteBases = []string{"nope"} }, "route base"},
		{"rate limit", func(c *Config) { c.RPCRateLimit.BurstSize = 0 }, "burst size"},
		{"retry", func(c *Config) { c.Retry.MaxBackoff = time.Millisecond }, "max backoff"},
		{"prometheus", func(c *Config) { c.PrometheusEnabled = true; c.PrometheusEndpoint = "" }, "prometheus_endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := valid()
	cfg.ChainID = 0
	cfg.RPCEndpoint = ""
	err := cfg.ValidateConfig()
	require.Error(t, err)
	assert.Equal(t, 2, strings.Count(err.Error(), "; ")+1)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	cfg.DEX.Factory, cfg.DEX.Router, cfg.DEX.Wrapped = factory, router, wrapped

	for _, name := range []string{"saved.json", "saved.yml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, SaveConfig(cfg, path))
		loaded, err := LoadConfig(path)
		require.NoError(t, err, name)
		assert.Equal(t, cfg.DEX, loaded.DEX)
		assert.Equal(t, cfg.RPCRateLimit, loaded.RPCRateLimit)
	}
}

func TestLoadEnv(t *testing.T) {
	const key = "HAMMY_TEST_ROUTER"
	t.Cleanup(func() { os.Unsetenv(key) })
	path := writeFile(t, ".env", key+"="+router+"\n")
	require.NoError(t, LoadEnv(path))
	assert.Equal(t, router, os.Getenv(key))
	assert.Error(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}
