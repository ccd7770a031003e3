package math

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	zero = big.NewInt(0)
	one  = big.NewInt(1)
)

// Clone returns a copy of x, treating nil as zero
func Clone(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}

// IsPositive returns true if x is non-nil and greater than zero
func IsPositive(x *big.Int) bool {
	return x != nil && x.Sign() > 0
}

// IsZero returns true if x is nil or zero
func IsZero(x *big.Int) bool {
	return x == nil || x.Sign() == 0
}

// Min returns a copy of the smaller of x and y
func Min(x, y *big.Int) *big.Int {
	if x.Cmp(y) <= 0 {
		return Clone(x)
	}
	return Clone(y)
}

// MulDiv computes a*b/c rounded down
func MulDiv(a, b, c *big.Int) *big.Int {
	n := new(big.Int).Mul(a, b)
	return n.Quo(n, c)
}

// MulDivRoundingUp computes a*b/c rounded up
func MulDivRoundingUp(a, b, c *big.Int) *big.Int {
	n := new(big.Int).Mul(a, b)
	q, r := n.QuoRem(n, c, new(big.Int))
	if r.Cmp(zero) > 0 {
		q.Add(q, one)
	}
	return q
}

// Sqrt returns floor(sqrt(x)); negative inputs yield zero
func Sqrt(x *big.Int) *big.Int {
	if x == nil || x.Sign() <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sqrt(x)
}

// ToDecimal scales an integer amount down by decimals
func ToDecimal(x *big.Int, decimals uint8) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, -int32(decimals))
}

// FromDecimal scales a decimal amount up to integer units, truncating any
// precision finer than the token supports
func FromDecimal(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).Truncate(0).BigInt()
}
