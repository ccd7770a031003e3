package utils

import (
	"fmt"
	"math/big"
	"strings"

	mathutil "github.com/pr1mer-tech/hammy/utils/math"
	"github.com/shopspring/decimal"
)

// ParseUnits converts a human amount such as "1.5" into base units of a token
// with the given decimals. Amounts finer than one base unit are rejected.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q must not be negative", s)
	}

	units := mathutil.FromDecimal(d, decimals)
	if !mathutil.ToDecimal(units, decimals).Equal(d) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	return units, nil
}

// FormatUnits renders base units as a decimal string without trailing zeros
func FormatUnits(amount *big.Int, decimals uint8) string {
	return mathutil.ToDecimal(amount, decimals).String()
}
