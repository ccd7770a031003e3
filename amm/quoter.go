// Package amm implements the constant-product arithmetic used by Uniswap V2
// style pairs. Every function is pure and works on integer token units so the
// results agree with the contracts up to their own rounding.
package amm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/types"
)

// Fee is the share of the input that reaches the pool, as a fraction
type Fee struct {
	Numerator   int64
	Denominator int64
}

// DefaultFee is the 0.3% swap fee charged by Uniswap V2 pairs
var DefaultFee = Fee{Numerator: 997, Denominator: 1000}

// Validate checks 0 < Numerator <= Denominator
func (f Fee) Validate() error {
	if f.Denominator <= 0 || f.Numerator <= 0 || f.Numerator > f.Denominator {
		return fmt.Errorf("invalid fee %d/%d", f.Numerator, f.Denominator)
	}
	return nil
}

// Quoter prices swaps for one fee tier
type Quoter struct {
	feeNumerator   *big.Int
	feeDenominator *big.Int
}

// NewQuoter creates a quoter for the given fee
func NewQuoter(fee Fee) (*Quoter, error) {
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	return &Quoter{
		feeNumerator:   big.NewInt(fee.Numerator),
		feeDenominator: big.NewInt(fee.Denominator),
	}, nil
}

var defaultQuoter, _ = NewQuoter(DefaultFee)

// QuoteOutput prices an exact-input swap at the default fee
func QuoteOutput(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	return defaultQuoter.QuoteOutput(amountIn, reserveIn, reserveOut)
}

// QuoteInput prices an exact-output swap at the default fee
func QuoteInput(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	return defaultQuoter.QuoteInput(amountOut, reserveIn, reserveOut)
}

// QuoteOutput returns the amount received for amountIn. The result is
// always strictly less than reserveOut.
func (q *Quoter) QuoteOutput(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, types.ErrInsufficientInputAmount
	}
	if !liquid(reserveIn, reserveOut) {
		return nil, types.ErrInsufficientLiquidity
	}

	amountInWithFee := new(big.Int).Mul(amountIn, q.feeNumerator)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, q.feeDenominator)
	denominator.Add(denominator, amountInWithFee)

	return numerator.Quo(numerator, denominator), nil
}

// QuoteInput returns the input required to receive amountOut. It rounds
// the way the router does (floor plus one) so it never under-quotes.
func (q *Quoter) QuoteInput(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, types.ErrInsufficientOutputAmount
	}
	if !liquid(reserveIn, reserveOut) {
		return nil, types.ErrInsufficientLiquidity
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, types.ErrInsufficientLiquidity
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, q.feeDenominator)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, q.feeNumerator)

	amountIn := numerator.Quo(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}

// Hop is one pair along a route, oriented in the direction of the trade
type Hop struct {
	TokenIn    common.Address
	TokenOut   common.Address
	ReserveIn  *big.Int
	ReserveOut *big.Int
}

// HopFromReserves orients a snapshot that was read as (tokenIn, tokenOut)
func HopFromReserves(tokenIn, tokenOut common.Address, rp *types.ReservePair) Hop {
	reserveIn, reserveOut := rp.Oriented()
	return Hop{
		TokenIn:    tokenIn,
		TokenOut:   tokenOut,
		ReserveIn:  reserveIn,
		ReserveOut: reserveOut,
	}
}

// QuoteOutputPath chains exact-input quotes left to right and returns the
// amount at every step, starting with amountIn.
func (q *Quoter) QuoteOutputPath(amountIn *big.Int, hops []Hop) ([]*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, types.ErrInsufficientInputAmount
	}
	if err := checkPath(hops); err != nil {
		return nil, err
	}

	amounts := make([]*big.Int, len(hops)+1)
	amounts[0] = new(big.Int).Set(amountIn)
	for i, hop := range hops {
		out, err := q.QuoteOutput(amounts[i], hop.ReserveIn, hop.ReserveOut)
		if err != nil {
			return nil, hopError(i, hop, err)
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// QuoteInputPath chains exact-output quotes right to left and returns the
// amount at every step, ending with amountOut.
func (q *Quoter) QuoteInputPath(amountOut *big.Int, hops []Hop) ([]*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, types.ErrInsufficientOutputAmount
	}
	if err := checkPath(hops); err != nil {
		return nil, err
	}

	amounts := make([]*big.Int, len(hops)+1)
	amounts[len(hops)] = new(big.Int).Set(amountOut)
	for i := len(hops) - 1; i >= 0; i-- {
		in, err := q.QuoteInput(amounts[i+1], hops[i].ReserveIn, hops[i].ReserveOut)
		if err != nil {
			return nil, hopError(i, hops[i], err)
		}
		amounts[i] = in
	}
	return amounts, nil
}

// PathTokens lists every token along the hops
func PathTokens(hops []Hop) []common.Address {
	if len(hops) == 0 {
		return nil
	}
	path := make([]common.Address, 0, len(hops)+1)
	path = append(path, hops[0].TokenIn)
	for _, hop := range hops {
		path = append(path, hop.TokenOut)
	}
	return path
}

func checkPath(hops []Hop) error {
	if len(hops) == 0 {
		return fmt.Errorf("%w: empty path", types.ErrNoRouteAvailable)
	}
	for i := 1; i < len(hops); i++ {
		if hops[i-1].TokenOut != hops[i].TokenIn {
			return fmt.Errorf("%w: hop %d does not continue from hop %d", types.ErrNoRouteAvailable, i, i-1)
		}
	}
	return nil
}

func hopError(i int, hop Hop, err error) error {
	return fmt.Errorf("%w: hop %d (%s -> %s): %w", types.ErrNoRouteAvailable, i, hop.TokenIn.Hex(), hop.TokenOut.Hex(), err)
}

func liquid(reserveIn, reserveOut *big.Int) bool {
	return reserveIn != nil && reserveOut != nil && reserveIn.Sign() > 0 && reserveOut.Sign() > 0
}
