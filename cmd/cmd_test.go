package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/config"
	"github.com/pr1mer-tech/hammy/trade"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	xrp  = types.Token{Address: types.NativeAddress, Symbol: "XRP", Decimals: 18}
	usdc = types.Token{Address: common.HexToAddress("0x00000000000000000000000000000000000000bb"), Symbol: "USDC", Decimals: 6}
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"quote"},
		{"watch"},
		{"gas"},
		{"config", "check"},
		{"config", "init"},
		{"config", "verify"},
		{"tokens"},
		{"pool", "preview"},
		{"pool", "withdraw"},
		{"pool", "positions"},
		{"tx", "swap"},
		{"tx", "add"},
		{"tx", "remove"},
		{"tx", "approve"},
		{"tx", "wrap"},
		{"tx", "unwrap"},
		{"tx", "decode"},
	} {
		found, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestParseHelpers(t *testing.T) {
	addr, err := parseAddress("owner", "0x00000000000000000000000000000000000000bb")
	require.NoError(t, err)
	assert.Equal(t, usdc.Address, addr)

	_, err = parseAddress("owner", "bob")
	assert.ErrorContains(t, err, "--owner")

	amount, err := parseAmount(usdc, "1.5")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_500_000), amount)

	_, err = parseAmount(usdc, "0.0000001")
	assert.ErrorContains(t, err, "USDC")
}

func TestNewQuoteView(t *testing.T) {
	slippage, err := types.ParseSlippage("0.5")
	require.NoError(t, err)
	preview := &trade.SwapPreview{
		Quote: &types.QuoteResult{
			Kind:        types.ExactIn,
			TokenIn:     xrp,
			TokenOut:    usdc,
			AmountIn:    new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
			AmountOut:   big.NewInt(2_000_000),
			Path:        []common.Address{common.HexToAddress("0xe0"), usdc.Address},
			PriceImpact: decimal.RequireFromString("0.123"),
			Snapshot:    42,
		},
		Slippage:     slippage,
		AmountOutMin: big.NewInt(1_990_000),
		AmountInMax:  new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
	}

	view := newQuoteView(preview, map[common.Address]string{usdc.Address: "USDC"})
	assert.Equal(t, "exact_in", view.Kind)
	assert.Equal(t, "1", view.AmountIn)
	assert.Equal(t, "2", view.AmountOut)
	assert.Equal(t, "1.99", view.AmountOutMin)
	assert.Equal(t, "0.12", view.PriceImpact)
	assert.Contains(t, view.Route, "-> USDC")
	assert.Equal(t, uint64(42), view.Snapshot)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, view))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2", decoded["amount_out"])
	assert.NotContains(t, decoded, "wrap")
}

func TestNewDepositView(t *testing.T) {
	view := newDepositView(&trade.DepositPreview{
		TokenA:          xrp,
		TokenB:          usdc,
		AmountA:         new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
		AmountB:         big.NewInt(3_000_000),
		PoolShare:       decimal.NewFromInt(100),
		LiquidityMinted: big.NewInt(0),
		Bootstrap:       true,
	})
	assert.Empty(t, view.Pair)
	assert.Equal(t, "100.00", view.PoolShare)
	assert.Equal(t, "3", view.AmountB)
	assert.True(t, view.Bootstrap)
}

func TestUserError(t *testing.T) {
	log := zaptest.NewLogger(t)

	assert.NoError(t, userError(log, nil))

	plain := fmt.Errorf("dial tcp: refused")
	assert.Same(t, plain, userError(log, plain))

	err := userError(log, fmt.Errorf("quote: %w", types.ErrNoRouteAvailable))
	assert.ErrorIs(t, err, types.ErrNoRouteAvailable)
	assert.Contains(t, err.Error(), "No route available for this token pair.")
}

func TestConfigInit(t *testing.T) {
	for _, key := range []string{config.EnvRPCURL, config.EnvChainID, config.EnvFactory, config.EnvRouter, config.EnvWrapped, config.EnvInitCodeHash} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvRouter, "0x00000000000000000000000000000000000000f2")

	path := filepath.Join(t.TempDir(), "hammy.yaml")
	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })

	cmd := newConfigInitCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Contains(t, out.String(), path)
	assert.Contains(t, errOut.String(), "factory address must be specified")

	require.Error(t, cmd.RunE(cmd, nil), "existing file needs --force")
	require.NoError(t, cmd.Flags().Set("force", "true"))
	require.NoError(t, cmd.RunE(cmd, nil))

	t.Setenv(config.EnvFactory, "0x00000000000000000000000000000000000000f1")
	t.Setenv(config.EnvWrapped, "0x00000000000000000000000000000000000000e0")
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf2"), cfg.RouterAddress())
	assert.Equal(t, uint64(1440000), cfg.ChainID)
}
