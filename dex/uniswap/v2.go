package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pr1mer-tech/hammy/amm"
	"github.com/pr1mer-tech/hammy/dex"
	"github.com/pr1mer-tech/hammy/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultCacheSize = 1024

// Config locates the contracts of one Uniswap V2 deployment
type Config struct {
	// Name labels the deployment, for forks that reuse the V2 contracts
	Name    string
	Factory common.Address
	Router  common.Address
	Wrapped common.Address
	// InitCodeHash enables local CREATE2 pair derivation. When zero the
	// factory is asked with getPair.
	InitCodeHash common.Hash
	NativeToken  types.Token
	CacheSize    int
	Logger       *zap.Logger
}

// UniswapV2 implements the Exchange interface for Uniswap V2
type UniswapV2 struct {
	name         string
	backend      Backend
	factory      *Factory
	router       *Router
	wrapping     amm.Wrapping
	initCodeHash common.Hash
	native       types.Token
	pairs        *lru.Cache
	tokens       *lru.Cache
	logger       *zap.Logger
}

var _ dex.Exchange = (*UniswapV2)(nil)

// NewUniswapV2 creates a new Uniswap V2 exchange reading through backend
func NewUniswapV2(backend Backend, cfg Config) (*UniswapV2, error) {
	if cfg.Factory == (common.Address{}) {
		return nil, fmt.Errorf("factory address must be specified")
	}
	if cfg.Router == (common.Address{}) {
		return nil, fmt.Errorf("router address must be specified")
	}
	if cfg.Wrapped == (common.Address{}) {
		return nil, fmt.Errorf("wrapped native token address must be specified")
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	pairs, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create pair cache: %w", err)
	}
	tokens, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	native := cfg.NativeToken
	native.Address = types.NativeAddress

	name := cfg.Name
	if name == "" {
		name = "UniswapV2"
	}

	return &UniswapV2{
		name:         name,
		backend:      backend,
		factory:      NewFactory(cfg.Factory, backend),
		router:       NewRouter(cfg.Router, backend),
		wrapping:     amm.Wrapping{Wrapped: cfg.Wrapped},
		initCodeHash: cfg.InitCodeHash,
		native:       native,
		pairs:        pairs,
		tokens:       tokens,
		logger:       logger,
	}, nil
}

// GetName returns the exchange name
func (u *UniswapV2) GetName() string {
	return u.name
}

// GetRouterAddress returns the router contract address
func (u *UniswapV2) GetRouterAddress() common.Address {
	return u.router.Address()
}

// Wrapping returns the native asset mapping of this deployment
func (u *UniswapV2) Wrapping() amm.Wrapping {
	return u.wrapping
}

// PairFor returns the pair address for two tokens. The zero address means
// the factory has no pair for them.
func (u *UniswapV2) PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	token0, token1, err := u.wrapping.Sort(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	key := [2]common.Address{token0, token1}
	if cached, ok := u.pairs.Get(key); ok {
		return cached.(common.Address), nil
	}

	var pair common.Address
	if u.initCodeHash != (common.Hash{}) {
		pair, err = amm.PairAddress(u.factory.address, u.initCodeHash, token0, token1)
	} else {
		pair, err = u.factory.GetPair(&bind.CallOpts{Context: ctx}, token0, token1)
	}
	if err != nil {
		return common.Address{}, ClassifyError(err)
	}

	// A missing pair may be created later, so only real ones are cached.
	if pair != (common.Address{}) {
		u.pairs.Add(key, pair)
	}
	return pair, nil
}

// Reserves returns the reserves of the pair of tokenA and tokenB at the
// latest block. The native asset is read through its wrapped token.
func (u *UniswapV2) Reserves(ctx context.Context, tokenA, tokenB common.Address) (*types.ReservePair, error) {
	effA := u.wrapping.Effective(tokenA)
	token0, token1, err := u.wrapping.Sort(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	aIsToken0 := token0 == effA

	var (
		pair  common.Address
		block uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pair, err = u.PairFor(gctx, tokenA, tokenB)
		return err
	})
	g.Go(func() error {
		var err error
		block, err = u.backend.BlockNumber(gctx)
		if err != nil {
			return fmt.Errorf("failed to get block number: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	empty := types.EmptyReservePair(token0, token1, aIsToken0)
	empty.BlockNumber = block
	if pair == (common.Address{}) {
		return empty, nil
	}

	opts := &bind.CallOpts{Context: ctx, BlockNumber: new(big.Int).SetUint64(block)}
	reserves, err := NewUniswapV2Pair(pair, u.backend).GetReserves(opts)
	if errors.Is(err, bind.ErrNoCode) {
		// Derived CREATE2 address with nothing deployed yet.
		return empty, nil
	}
	if err != nil {
		return nil, ClassifyError(err)
	}

	snapshot := &types.ReservePair{
		Pair:        pair,
		Token0:      token0,
		Token1:      token1,
		Reserve0:    reserves.Reserve0,
		Reserve1:    reserves.Reserve1,
		AIsToken0:   aIsToken0,
		BlockNumber: block,
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("pair %s: %w", pair.Hex(), err)
	}

	u.logger.Debug("Read reserves",
		zap.String("pair", pair.Hex()),
		zap.String("reserve0", snapshot.Reserve0.String()),
		zap.String("reserve1", snapshot.Reserve1.String()),
		zap.Uint64("block", block))
	return snapshot, nil
}

// PairTokens returns token0 and token1 of pair
func (u *UniswapV2) PairTokens(ctx context.Context, pair common.Address) (token0, token1 common.Address, err error) {
	contract := NewUniswapV2Pair(pair, u.backend)
	opts := &bind.CallOpts{Context: ctx}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		token0, err = contract.Token0(opts)
		return err
	})
	g.Go(func() error {
		var err error
		token1, err = contract.Token1(opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return common.Address{}, common.Address{}, ClassifyError(err)
	}
	return token0, token1, nil
}

// TotalSupply returns the LP tokens outstanding for pair
func (u *UniswapV2) TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error) {
	supply, err := NewUniswapV2Pair(pair, u.backend).TotalSupply(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, ClassifyError(err)
	}
	return supply, nil
}

// BalanceOf returns the balance of token held by owner. The native asset is
// read from the account balance.
func (u *UniswapV2) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if token == types.NativeAddress {
		balance, err := u.backend.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get native balance: %w", err)
		}
		return balance, nil
	}
	balance, err := NewERC20(token, u.backend).BalanceOf(&bind.CallOpts{Context: ctx}, owner)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return balance, nil
}

// Allowance returns how much of token spender may move for owner. The native
// asset needs no approval and reports the maximum.
func (u *UniswapV2) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	if token == types.NativeAddress {
		return new(big.Int).Set(math.MaxBig256), nil
	}
	allowance, err := NewERC20(token, u.backend).Allowance(&bind.CallOpts{Context: ctx}, owner, spender)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return allowance, nil
}

// TokenInfo returns symbol, name and decimals of token
func (u *UniswapV2) TokenInfo(ctx context.Context, token common.Address) (types.Token, error) {
	if token == types.NativeAddress {
		return u.native, nil
	}
	if cached, ok := u.tokens.Get(token); ok {
		return cached.(types.Token), nil
	}

	contract := NewERC20(token, u.backend)
	opts := &bind.CallOpts{Context: ctx}
	info := types.Token{Address: token}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info.Decimals, err = contract.Decimals(opts)
		return err
	})
	g.Go(func() error {
		var err error
		info.Symbol, err = contract.Symbol(opts)
		return err
	})
	g.Go(func() error {
		var err error
		info.Name, err = contract.Name(opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.Token{}, fmt.Errorf("token %s: %w", token.Hex(), ClassifyError(err))
	}

	u.tokens.Add(token, info)
	return info, nil
}

// GetAmountsOut asks the router to price an exact-input swap
func (u *UniswapV2) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	amounts, err := u.router.GetAmountsOut(&bind.CallOpts{Context: ctx}, amountIn, u.routerPath(path))
	if err != nil {
		return nil, ClassifyError(err)
	}
	return amounts, nil
}

// GetAmountsIn asks the router to price an exact-output swap
func (u *UniswapV2) GetAmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	amounts, err := u.router.GetAmountsIn(&bind.CallOpts{Context: ctx}, amountOut, u.routerPath(path))
	if err != nil {
		return nil, ClassifyError(err)
	}
	return amounts, nil
}

func (u *UniswapV2) routerPath(path []common.Address) []common.Address {
	out := make([]common.Address, len(path))
	for i, addr := range path {
		out[i] = u.wrapping.Effective(addr)
	}
	return out
}

// Deployment is what the chain reports about a configured deployment
type Deployment struct {
	Name    string         `json:"name"`
	Factory common.Address `json:"factory"`
	Router  common.Address `json:"router"`
	Wrapped common.Address `json:"wrapped"`
	Pairs   uint64         `json:"pairs"`
}

// Verify checks that the router trades through the configured factory and
// wrapped token, and counts the pairs the factory created
func (u *UniswapV2) Verify(ctx context.Context) (*Deployment, error) {
	opts := &bind.CallOpts{Context: ctx}
	var (
		factory, wrapped common.Address
		pairs            *big.Int
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		factory, err = u.router.Factory(opts)
		return err
	})
	g.Go(func() error {
		var err error
		wrapped, err = u.router.WETH(opts)
		return err
	})
	g.Go(func() error {
		var err error
		pairs, err = u.factory.AllPairsLength(opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, ClassifyError(err)
	}

	if factory != u.factory.address {
		return nil, fmt.Errorf("router %s uses factory %s, configured %s", u.router.Address().Hex(), factory.Hex(), u.factory.address.Hex())
	}
	if wrapped != u.wrapping.Wrapped {
		return nil, fmt.Errorf("router %s uses wrapped token %s, configured %s", u.router.Address().Hex(), wrapped.Hex(), u.wrapping.Wrapped.Hex())
	}
	return &Deployment{
		Name:    u.name,
		Factory: factory,
		Router:  u.router.Address(),
		Wrapped: wrapped,
		Pairs:   pairs.Uint64(),
	}, nil
}
