package math

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBigInt(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T)
	}{
		{"TestClone", testClone},
		{"TestMin", testMin},
		{"TestMulDiv", testMulDiv},
		{"TestMulDivRoundingUp", testMulDivRoundingUp},
		{"TestSqrt", testSqrt},
		{"TestDecimalConversion", testDecimalConversion},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.fn)
	}
}

func testClone(t *testing.T) {
	x := big.NewInt(42)
	c := Clone(x)
	c.Add(c, big.NewInt(1))
	if x.Int64() != 42 {
		t.Errorf("Clone mutated source: %v", x)
	}
	if Clone(nil).Sign() != 0 {
		t.Errorf("Clone(nil) should be zero")
	}
}

func testMin(t *testing.T) {
	if got := Min(big.NewInt(3), big.NewInt(7)); got.Int64() != 3 {
		t.Errorf("Min(3, 7) = %v; want 3", got)
	}
	if got := Min(big.NewInt(9), big.NewInt(7)); got.Int64() != 7 {
		t.Errorf("Min(9, 7) = %v; want 7", got)
	}
}

func testMulDiv(t *testing.T) {
	if got := MulDiv(big.NewInt(10), big.NewInt(2000), big.NewInt(1000)); got.Int64() != 20 {
		t.Errorf("MulDiv(10, 2000, 1000) = %v; want 20", got)
	}
	if got := MulDiv(big.NewInt(7), big.NewInt(1), big.NewInt(2)); got.Int64() != 3 {
		t.Errorf("MulDiv(7, 1, 2) = %v; want 3", got)
	}
}

func testMulDivRoundingUp(t *testing.T) {
	if got := MulDivRoundingUp(big.NewInt(7), big.NewInt(1), big.NewInt(2)); got.Int64() != 4 {
		t.Errorf("MulDivRoundingUp(7, 1, 2) = %v; want 4", got)
	}
	if got := MulDivRoundingUp(big.NewInt(8), big.NewInt(1), big.NewInt(2)); got.Int64() != 4 {
		t.Errorf("MulDivRoundingUp(8, 1, 2) = %v; want 4", got)
	}
}

func testSqrt(t *testing.T) {
	cases := map[int64]int64{0: 0, 1: 1, 15: 3, 16: 4, 5000: 70, -4: 0}
	for in, want := range cases {
		if got := Sqrt(big.NewInt(in)); got.Int64() != want {
			t.Errorf("Sqrt(%d) = %v; want %d", in, got, want)
		}
	}
}

func testDecimalConversion(t *testing.T) {
	amount, _ := new(big.Int).SetString("1500000000000000000", 10)
	d := ToDecimal(amount, 18)
	if !d.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("ToDecimal = %v; want 1.5", d)
	}
	back := FromDecimal(decimal.RequireFromString("1.5"), 18)
	if back.Cmp(amount) != 0 {
		t.Errorf("FromDecimal = %v; want %v", back, amount)
	}
	if got := FromDecimal(decimal.RequireFromString("0.1234567"), 6); got.Int64() != 123456 {
		t.Errorf("FromDecimal truncation = %v; want 123456", got)
	}
}
