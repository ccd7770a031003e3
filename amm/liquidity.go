package amm

import (
	"math/big"

	"github.com/pr1mer-tech/hammy/types"
	mathutil "github.com/pr1mer-tech/hammy/utils/math"
)

// MinimumLiquidity is locked forever by the pair on the first deposit
var MinimumLiquidity = big.NewInt(1000)

// ProportionalAmount returns the amount of the paired token that keeps the
// pool ratio for a deposit of amountIn. Empty pools return
// ErrPoolNotInitialized: the depositor sets the initial price instead.
func ProportionalAmount(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, types.ErrInsufficientInputAmount
	}
	if mathutil.IsZero(reserveIn) && mathutil.IsZero(reserveOut) {
		return nil, types.ErrPoolNotInitialized
	}
	if !liquid(reserveIn, reserveOut) {
		return nil, types.ErrInsufficientLiquidity
	}
	return mathutil.MulDiv(amountIn, reserveOut, reserveIn), nil
}

// LiquidityMinted estimates the LP tokens minted for a deposit, following
// the pair contract: sqrt(amount0*amount1) - MinimumLiquidity for the first
// deposit and the smaller proportional share afterwards.
func LiquidityMinted(amount0, amount1, reserve0, reserve1, totalSupply *big.Int) (*big.Int, error) {
	if !mathutil.IsPositive(amount0) || !mathutil.IsPositive(amount1) {
		return nil, types.ErrInsufficientInputAmount
	}

	var liquidity *big.Int
	if mathutil.IsZero(totalSupply) {
		liquidity = mathutil.Sqrt(new(big.Int).Mul(amount0, amount1))
		liquidity.Sub(liquidity, MinimumLiquidity)
	} else {
		if !liquid(reserve0, reserve1) {
			return nil, types.ErrInsufficientLiquidity
		}
		liquidity = mathutil.Min(
			mathutil.MulDiv(amount0, totalSupply, reserve0),
			mathutil.MulDiv(amount1, totalSupply, reserve1),
		)
	}

	if liquidity.Sign() <= 0 {
		return nil, types.ErrInsufficientLiquidityMinted
	}
	return liquidity, nil
}

// LiquidityValue returns the underlying amounts paid out for burning
// liquidity LP tokens
func LiquidityValue(liquidity, reserve0, reserve1, totalSupply *big.Int) (amount0, amount1 *big.Int, err error) {
	if !mathutil.IsPositive(liquidity) {
		return nil, nil, types.ErrInsufficientInputAmount
	}
	if !mathutil.IsPositive(totalSupply) || liquidity.Cmp(totalSupply) > 0 {
		return nil, nil, types.ErrInsufficientLiquidity
	}
	return mathutil.MulDiv(liquidity, mathutil.Clone(reserve0), totalSupply),
		mathutil.MulDiv(liquidity, mathutil.Clone(reserve1), totalSupply),
		nil
}
