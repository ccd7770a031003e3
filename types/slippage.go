package types

import (
	"fmt"
	"math/big"
	"strings"

	mathutil "github.com/pr1mer-tech/hammy/utils/math"
	"github.com/shopspring/decimal"
)

const (
	bpsDenominator = 10000
	// MaxSlippageBps rejects tolerances above 50%
	MaxSlippageBps = 5000
)

// SlippageTolerance bounds the adverse price movement accepted between
// quote time and execution. It never changes the quote itself.
type SlippageTolerance struct {
	bps int64
}

var (
	// DefaultSlippage is 0.5%
	DefaultSlippage = SlippageTolerance{bps: 50}

	// SlippagePresets are the quick picks offered to users
	SlippagePresets = []SlippageTolerance{{bps: 10}, {bps: 50}, {bps: 100}}
)

// NewSlippageTolerance builds a tolerance from a percentage such as 0.5
func NewSlippageTolerance(percent decimal.Decimal) (SlippageTolerance, error) {
	bps := percent.Mul(decimal.NewFromInt(100))
	if !bps.Equal(bps.Truncate(0)) {
		return SlippageTolerance{}, fmt.Errorf("slippage %s%% is finer than one basis point", percent)
	}
	return SlippageFromBps(bps.IntPart())
}

// SlippageFromBps builds a tolerance from basis points
func SlippageFromBps(bps int64) (SlippageTolerance, error) {
	if bps < 0 {
		return SlippageTolerance{}, fmt.Errorf("slippage must not be negative")
	}
	if bps > MaxSlippageBps {
		return SlippageTolerance{}, fmt.Errorf("slippage %d bps exceeds maximum of %d bps", bps, MaxSlippageBps)
	}
	return SlippageTolerance{bps: bps}, nil
}

// ParseSlippage parses "0.5" or "0.5%"
func ParseSlippage(s string) (SlippageTolerance, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return SlippageTolerance{}, fmt.Errorf("invalid slippage %q: %w", s, err)
	}
	return NewSlippageTolerance(d)
}

// BasisPoints returns the tolerance in hundredths of a percent
func (s SlippageTolerance) BasisPoints() int64 {
	return s.bps
}

// Percent returns the tolerance as a percentage
func (s SlippageTolerance) Percent() decimal.Decimal {
	return decimal.New(s.bps, -2)
}

func (s SlippageTolerance) String() string {
	return s.Percent().String() + "%"
}

// MinimumAmount is the smallest acceptable output: amount * (1 - tolerance), rounded down
func (s SlippageTolerance) MinimumAmount(amount *big.Int) *big.Int {
	return mathutil.MulDiv(amount, big.NewInt(bpsDenominator-s.bps), big.NewInt(bpsDenominator))
}

// MaximumAmount is the largest acceptable input: amount * (1 + tolerance), rounded up
func (s SlippageTolerance) MaximumAmount(amount *big.Int) *big.Int {
	return mathutil.MulDivRoundingUp(amount, big.NewInt(bpsDenominator+s.bps), big.NewInt(bpsDenominator))
}
