package trade

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/amm"
	"github.com/pr1mer-tech/hammy/types"
	mathutil "github.com/pr1mer-tech/hammy/utils/math"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Side names the token whose amount the user typed
type Side int

const (
	SideA Side = iota
	SideB
)

// DepositRequest describes a liquidity deposit. For an existing pool only
// the amount on Side is used and the other side follows the pool ratio. An
// empty pool takes both amounts as given.
type DepositRequest struct {
	TokenA  types.Token
	TokenB  types.Token
	AmountA *big.Int
	AmountB *big.Int
	Side    Side
}

// DepositPreview is what a deposit would add and mint
type DepositPreview struct {
	TokenA  types.Token
	TokenB  types.Token
	AmountA *big.Int
	AmountB *big.Int
	Pair    common.Address
	// PoolShare is the depositor's share of the pool afterwards, in percent
	PoolShare decimal.Decimal
	// LiquidityMinted is zero when the deposit is too small to mint
	LiquidityMinted *big.Int
	// Bootstrap marks the first deposit, which sets the price
	Bootstrap bool
	Snapshot  uint64
}

// PreviewDeposit computes the counterpart amount, pool share and LP tokens
// for a deposit
func (s *Service) PreviewDeposit(ctx context.Context, req DepositRequest) (*DepositPreview, error) {
	a, b := req.TokenA.Address, req.TokenB.Address
	if s.wrapping.SameAssetForPool(a, b) {
		return nil, fmt.Errorf("%w: %s and %s", types.ErrIdenticalTokens, req.TokenA, req.TokenB)
	}

	rp, err := s.exchange.Reserves(ctx, a, b)
	if err != nil {
		return nil, err
	}
	reserveA, reserveB := rp.Oriented()

	preview := &DepositPreview{
		TokenA:   req.TokenA,
		TokenB:   req.TokenB,
		Pair:     rp.Pair,
		Snapshot: rp.Fingerprint(),
	}

	if !rp.Exists() {
		if !mathutil.IsPositive(req.AmountA) || !mathutil.IsPositive(req.AmountB) {
			return nil, fmt.Errorf("%w: both amounts are needed to set the initial price", types.ErrPoolNotInitialized)
		}
		preview.Bootstrap = true
		preview.AmountA = mathutil.Clone(req.AmountA)
		preview.AmountB = mathutil.Clone(req.AmountB)
	} else if req.Side == SideB {
		preview.AmountB = mathutil.Clone(req.AmountB)
		preview.AmountA, err = amm.ProportionalAmount(req.AmountB, reserveB, reserveA)
	} else {
		preview.AmountA = mathutil.Clone(req.AmountA)
		preview.AmountB, err = amm.ProportionalAmount(req.AmountA, reserveA, reserveB)
	}
	if err != nil {
		return nil, err
	}

	preview.PoolShare, err = amm.PoolShare(preview.AmountA, preview.AmountB, reserveA, reserveB)
	if err != nil {
		return nil, err
	}

	totalSupply := new(big.Int)
	if rp.Exists() {
		totalSupply, err = s.exchange.TotalSupply(ctx, rp.Pair)
		if err != nil {
			return nil, err
		}
	}
	amount0, amount1 := preview.AmountA, preview.AmountB
	if !rp.AIsToken0 {
		amount0, amount1 = amount1, amount0
	}
	minted, err := amm.LiquidityMinted(amount0, amount1, rp.Reserve0, rp.Reserve1, totalSupply)
	switch {
	case errors.Is(err, types.ErrInsufficientLiquidityMinted):
		minted = new(big.Int)
	case err != nil:
		return nil, err
	}
	preview.LiquidityMinted = minted

	s.logger.Debug("Previewed deposit",
		zap.String("token_a", req.TokenA.String()),
		zap.String("token_b", req.TokenB.String()),
		zap.String("amount_a", preview.AmountA.String()),
		zap.String("amount_b", preview.AmountB.String()),
		zap.Bool("bootstrap", preview.Bootstrap))
	return preview, nil
}

// WithdrawPreview is what burning part of an LP position pays out
type WithdrawPreview struct {
	TokenA      types.Token
	TokenB      types.Token
	Pair        common.Address
	Balance     *big.Int
	Liquidity   *big.Int
	TotalSupply *big.Int
	AmountA     *big.Int
	AmountB     *big.Int
	AmountAMin  *big.Int
	AmountBMin  *big.Int
	Slippage    types.SlippageTolerance
}

var hundred = decimal.NewFromInt(100)

// PreviewWithdraw prices burning percent (0, 100] of owner's LP tokens
func (s *Service) PreviewWithdraw(ctx context.Context, owner common.Address, tokenA, tokenB types.Token, percent decimal.Decimal, slippage types.SlippageTolerance) (*WithdrawPreview, error) {
	if !percent.IsPositive() || percent.GreaterThan(hundred) {
		return nil, fmt.Errorf("withdraw percent must be in (0, 100], got %s", percent)
	}
	if s.wrapping.SameAssetForPool(tokenA.Address, tokenB.Address) {
		return nil, fmt.Errorf("%w: %s and %s", types.ErrIdenticalTokens, tokenA, tokenB)
	}

	rp, err := s.exchange.Reserves(ctx, tokenA.Address, tokenB.Address)
	if err != nil {
		return nil, err
	}
	if !rp.Exists() {
		return nil, fmt.Errorf("%w: no pool for %s/%s", types.ErrPoolNotInitialized, tokenA, tokenB)
	}

	balance, totalSupply, err := s.lpState(ctx, rp.Pair, owner)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, fmt.Errorf("%w: no LP tokens for %s/%s", types.ErrInsufficientBalance, tokenA, tokenB)
	}

	liquidity := balance
	if !percent.Equal(hundred) {
		liquidity = decimal.NewFromBigInt(balance, 0).Mul(percent).Div(hundred).Floor().BigInt()
	}
	amount0, amount1, err := amm.LiquidityValue(liquidity, rp.Reserve0, rp.Reserve1, totalSupply)
	if err != nil {
		return nil, err
	}
	amountA, amountB := amount0, amount1
	if !rp.AIsToken0 {
		amountA, amountB = amount1, amount0
	}

	return &WithdrawPreview{
		TokenA:      tokenA,
		TokenB:      tokenB,
		Pair:        rp.Pair,
		Balance:     balance,
		Liquidity:   liquidity,
		TotalSupply: totalSupply,
		AmountA:     amountA,
		AmountB:     amountB,
		AmountAMin:  slippage.MinimumAmount(amountA),
		AmountBMin:  slippage.MinimumAmount(amountB),
		Slippage:    slippage,
	}, nil
}

// Position is an owner's stake in one pool
type Position struct {
	TokenA      types.Token
	TokenB      types.Token
	Pair        common.Address
	Balance     *big.Int
	TotalSupply *big.Int
	// Share is the owner's share of the pool in percent
	Share   decimal.Decimal
	AmountA *big.Int
	AmountB *big.Int
}

// PoolTokens names a pool by its two tokens
type PoolTokens struct {
	A types.Token
	B types.Token
}

const positionConcurrency = 4

// Positions reads owner's stake in each pool. Pools that do not exist or
// where owner holds nothing come back with zero amounts.
func (s *Service) Positions(ctx context.Context, owner common.Address, pools []PoolTokens) ([]Position, error) {
	positions := make([]Position, len(pools))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(positionConcurrency)
	for i, pool := range pools {
		g.Go(func() error {
			pos, err := s.position(gctx, owner, pool)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", pool.A, pool.B, err)
			}
			positions[i] = *pos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *Service) position(ctx context.Context, owner common.Address, pool PoolTokens) (*Position, error) {
	pos := &Position{
		TokenA:      pool.A,
		TokenB:      pool.B,
		Balance:     new(big.Int),
		TotalSupply: new(big.Int),
		Share:       decimal.Zero,
		AmountA:     new(big.Int),
		AmountB:     new(big.Int),
	}
	if s.wrapping.SameAssetForPool(pool.A.Address, pool.B.Address) {
		return nil, types.ErrIdenticalTokens
	}

	rp, err := s.exchange.Reserves(ctx, pool.A.Address, pool.B.Address)
	if err != nil {
		return nil, err
	}
	pos.Pair = rp.Pair
	if !rp.Exists() {
		return pos, nil
	}

	pos.Balance, pos.TotalSupply, err = s.lpState(ctx, rp.Pair, owner)
	if err != nil {
		return nil, err
	}
	if pos.Balance.Sign() == 0 || pos.TotalSupply.Sign() == 0 {
		return pos, nil
	}

	amount0, amount1, err := amm.LiquidityValue(pos.Balance, rp.Reserve0, rp.Reserve1, pos.TotalSupply)
	if err != nil {
		return nil, err
	}
	pos.AmountA, pos.AmountB = amount0, amount1
	if !rp.AIsToken0 {
		pos.AmountA, pos.AmountB = amount1, amount0
	}
	pos.Share = decimal.NewFromBigInt(pos.Balance, 0).
		Mul(hundred).
		DivRound(decimal.NewFromBigInt(pos.TotalSupply, 0), 2)
	return pos, nil
}

// lpState reads owner's LP balance and the total supply together
func (s *Service) lpState(ctx context.Context, pair, owner common.Address) (balance, totalSupply *big.Int, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = s.exchange.BalanceOf(gctx, pair, owner)
		return err
	})
	g.Go(func() error {
		var err error
		totalSupply, err = s.exchange.TotalSupply(gctx, pair)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return balance, totalSupply, nil
}
