package amm

import (
	"math/big"

	"github.com/pr1mer-tech/hammy/types"
	mathutil "github.com/pr1mer-tech/hammy/utils/math"
	"github.com/shopspring/decimal"
)

const pricePrecision = 40

var (
	hundred = decimal.NewFromInt(100)

	// MaxPriceImpact caps the displayed impact
	MaxPriceImpact = decimal.RequireFromString("99.99")
)

// PoolShare previews the percentage of the pool owned after depositing
// amountA and amountB. It approximates LP minting and is for display only.
func PoolShare(amountA, amountB, reserveA, reserveB *big.Int) (decimal.Decimal, error) {
	if mathutil.IsZero(reserveA) && mathutil.IsZero(reserveB) {
		return hundred, nil
	}
	if !liquid(reserveA, reserveB) {
		return decimal.Zero, types.ErrInsufficientLiquidity
	}

	shareA := share(mathutil.Clone(amountA), reserveA)
	shareB := share(mathutil.Clone(amountB), reserveB)
	return decimal.Min(shareA, shareB).Mul(hundred).Round(2), nil
}

func share(amount, reserve *big.Int) decimal.Decimal {
	if amount.Sign() <= 0 {
		return decimal.Zero
	}
	total := new(big.Int).Add(reserve, amount)
	return decimal.NewFromBigInt(amount, 0).DivRound(decimal.NewFromBigInt(total, 0), pricePrecision)
}

// SpotPrice is the pool's instantaneous price of the input token in units of
// the output token
func SpotPrice(reserveIn, reserveOut *big.Int, decimalsIn, decimalsOut uint8) decimal.Decimal {
	return price(reserveOut, reserveIn, decimalsOut, decimalsIn)
}

// ExecutionPrice is the average price a trade actually gets
func ExecutionPrice(amountIn, amountOut *big.Int, decimalsIn, decimalsOut uint8) decimal.Decimal {
	return price(amountOut, amountIn, decimalsOut, decimalsIn)
}

func price(num, den *big.Int, decimalsNum, decimalsDen uint8) decimal.Decimal {
	if !mathutil.IsPositive(num) || !mathutil.IsPositive(den) {
		return decimal.Zero
	}
	return mathutil.ToDecimal(num, decimalsNum).DivRound(mathutil.ToDecimal(den, decimalsDen), pricePrecision)
}

// PriceImpact is the percentage by which the execution price falls short of
// the spot price, floored at 0, capped at MaxPriceImpact and rounded to two
// decimal places.
func PriceImpact(amountIn, amountOut, reserveIn, reserveOut *big.Int, decimalsIn, decimalsOut uint8) decimal.Decimal {
	spot := SpotPrice(reserveIn, reserveOut, decimalsIn, decimalsOut)
	if spot.IsZero() || !mathutil.IsPositive(amountIn) || !mathutil.IsPositive(amountOut) {
		return decimal.Zero
	}
	exec := ExecutionPrice(amountIn, amountOut, decimalsIn, decimalsOut)
	return impactFromRatio(exec.DivRound(spot, pricePrecision))
}

// PathPriceImpact combines the impact of every hop of a route. amounts holds
// the amount at each step as returned by the path quoters.
func PathPriceImpact(amounts []*big.Int, hops []Hop) decimal.Decimal {
	if len(hops) == 0 || len(amounts) != len(hops)+1 {
		return decimal.Zero
	}

	ratio := decimal.NewFromInt(1)
	for i, hop := range hops {
		if !liquid(hop.ReserveIn, hop.ReserveOut) || !mathutil.IsPositive(amounts[i]) {
			return decimal.Zero
		}
		// decimals cancel out of execution/spot, so raw units are enough
		num := new(big.Int).Mul(mathutil.Clone(amounts[i+1]), hop.ReserveIn)
		den := new(big.Int).Mul(amounts[i], hop.ReserveOut)
		hopRatio := decimal.NewFromBigInt(num, 0).DivRound(decimal.NewFromBigInt(den, 0), pricePrecision)
		ratio = ratio.Mul(hopRatio).Round(pricePrecision)
	}
	return impactFromRatio(ratio)
}

func impactFromRatio(ratio decimal.Decimal) decimal.Decimal {
	impact := decimal.NewFromInt(1).Sub(ratio).Mul(hundred)
	if impact.IsNegative() {
		return decimal.Zero
	}
	if impact.GreaterThan(MaxPriceImpact) {
		return MaxPriceImpact
	}
	return impact.Round(2)
}
