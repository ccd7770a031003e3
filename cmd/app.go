package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pr1mer-tech/hammy/config"
	"github.com/pr1mer-tech/hammy/dex/uniswap"
	"github.com/pr1mer-tech/hammy/gas"
	"github.com/pr1mer-tech/hammy/simulator"
	"github.com/pr1mer-tech/hammy/tokenlist"
	"github.com/pr1mer-tech/hammy/trade"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/pr1mer-tech/hammy/utils"
	"github.com/pr1mer-tech/hammy/utils/metrics"
	"go.uber.org/zap"
)

const metricsNamespace = "hammy"

// app holds everything a command needs, built once per invocation
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	client    *ethclient.Client
	exchange  *uniswap.UniswapV2
	service   *trade.Service
	builder   *trade.Builder
	estimator *gas.Estimator
	simulator *simulator.Simulator
	tokens    *tokenlist.List
	metrics   *metrics.QuoteMetrics
}

func newApp(ctx context.Context) (*app, error) {
	log := utils.GetLogger()

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Logger = log

	client, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.RPCEndpoint, err)
	}

	reg := metrics.Registry()
	backend := uniswap.NewThrottledBackend(client, uniswap.BackendOptions{
		RequestsPerSecond: cfg.RPCRateLimit.RequestsPerSecond,
		Burst:             cfg.RPCRateLimit.BurstSize,
		WaitTimeout:       cfg.RPCRateLimit.WaitTimeout,
		MaxRetries:        cfg.Retry.MaxRetries,
		InitialBackoff:    cfg.Retry.InitialBackoff,
		MaxBackoff:        cfg.Retry.MaxBackoff,
		Metrics:           metrics.NewRPCMetrics(reg, metricsNamespace),
		Logger:            log,
	})

	native := types.Token{
		Address:  types.NativeAddress,
		Symbol:   cfg.NativeSymbol,
		Name:     cfg.NativeSymbol,
		Decimals: cfg.NativeDecimals,
	}
	exchange, err := uniswap.NewUniswapV2(backend, uniswap.Config{
		Name:         cfg.DEX.Name,
		Factory:      cfg.FactoryAddress(),
		Router:       cfg.RouterAddress(),
		Wrapped:      cfg.WrappedAddress(),
		InitCodeHash: cfg.InitCodeHash(),
		NativeToken:  native,
		CacheSize:    cfg.PairCacheSize,
		Logger:       log,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	quoteMetrics := metrics.NewQuoteMetrics(reg, metricsNamespace)
	service, err := trade.NewService(exchange, exchange.Wrapping(), trade.Options{
		RouteBases: cfg.RouteBaseAddresses(),
		CrossCheck: cfg.CrossCheck,
		Metrics:    quoteMetrics,
		Logger:     log,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	wrapped := types.Token{
		Address:  cfg.WrappedAddress(),
		Symbol:   "W" + cfg.NativeSymbol,
		Name:     "Wrapped " + cfg.NativeSymbol,
		Decimals: cfg.NativeDecimals,
	}
	tokens := tokenlist.New(cfg.ChainID, native, wrapped)
	if cfg.TokenList != "" {
		n, err := tokens.Load(ctx, cfg.TokenList)
		if err != nil {
			log.Warn("Failed to load token list", zap.String("location", cfg.TokenList), zap.Error(err))
		} else {
			log.Debug("Loaded token list", zap.Int("tokens", n))
		}
	}

	return &app{
		cfg:       cfg,
		log:       log,
		client:    client,
		exchange:  exchange,
		service:   service,
		builder:   trade.NewBuilder(cfg.RouterAddress(), exchange.Wrapping(), cfg.DeadlineWindow),
		estimator: gas.NewEstimator(client, log, cfg.GasBufferPercent),
		simulator: simulator.NewSimulator(client, log),
		tokens:    tokens,
		metrics:   quoteMetrics,
	}, nil
}

func (a *app) Close() {
	a.client.Close()
	utils.CleanupLogger()
}

// token resolves a symbol or address. Addresses missing from the token list
// are looked up on chain.
func (a *app) token(ctx context.Context, s string) (types.Token, error) {
	tok, ok, err := a.tokens.Resolve(s)
	if err != nil {
		return types.Token{}, err
	}
	if ok {
		return tok, nil
	}
	info, err := a.exchange.TokenInfo(ctx, tok.Address)
	if err != nil {
		return types.Token{}, fmt.Errorf("failed to read token %s: %w", tok.Address.Hex(), err)
	}
	a.tokens.Add(info)
	return info, nil
}

// pair parses "XRP/USDC"
func (a *app) pair(ctx context.Context, s string) (trade.PoolTokens, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return trade.PoolTokens{}, fmt.Errorf("pair %q must look like A/B", s)
	}
	tokA, err := a.token(ctx, parts[0])
	if err != nil {
		return trade.PoolTokens{}, err
	}
	tokB, err := a.token(ctx, parts[1])
	if err != nil {
		return trade.PoolTokens{}, err
	}
	return trade.PoolTokens{A: tokA, B: tokB}, nil
}

func (a *app) slippage(s string) (types.SlippageTolerance, error) {
	if s == "" {
		s = a.cfg.DefaultSlippage
	}
	return types.ParseSlippage(s)
}

func parseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s must be an address, got %q", name, s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(tok types.Token, s string) (*big.Int, error) {
	amount, err := utils.ParseUnits(s, tok.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%s amount: %w", tok.Symbol, err)
	}
	return amount, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userError keeps the wrapped cause for the log and shows the short message
func userError(log *zap.Logger, err error) error {
	if err == nil || !types.Known(err) {
		return err
	}
	log.Debug("Command failed", zap.Error(err))
	return fmt.Errorf("%s (%w)", types.UserMessage(err), err)
}
