package amm

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/shopspring/decimal"
)

// Wrapping knows the canonical wrapped form of the native asset. Pairs only
// ever hold the wrapped token.
type Wrapping struct {
	Wrapped common.Address
}

// Effective maps the native asset to its wrapped token
func (w Wrapping) Effective(addr common.Address) common.Address {
	if addr == types.NativeAddress {
		return w.Wrapped
	}
	return addr
}

// IsWrapPair reports whether a and b are the native asset and its wrapped
// form, in either order. Such a swap is a 1:1 wrap or unwrap.
func (w Wrapping) IsWrapPair(a, b common.Address) bool {
	return (a == types.NativeAddress && b == w.Wrapped) || (a == w.Wrapped && b == types.NativeAddress)
}

// SameAssetForPool reports whether a and b resolve to the same pool token
func (w Wrapping) SameAssetForPool(a, b common.Address) bool {
	return w.Effective(a) == w.Effective(b)
}

// PriceImpact is PriceImpact for two concrete token amounts. Wrapping and
// unwrapping never move a price, so wrap pairs always report zero.
func (w Wrapping) PriceImpact(in, out types.TokenAmount, reserveIn, reserveOut *big.Int) decimal.Decimal {
	if w.IsWrapPair(in.Token.Address, out.Token.Address) {
		return decimal.Zero
	}
	return PriceImpact(in.Amount, out.Amount, reserveIn, reserveOut, in.Token.Decimals, out.Token.Decimals)
}

// Sort orders two tokens the way pairs do after resolving the native asset
func (w Wrapping) Sort(a, b common.Address) (token0, token1 common.Address, err error) {
	return SortTokens(w.Effective(a), w.Effective(b))
}

// SortTokens returns the tokens in canonical pair order, lower address first
func SortTokens(a, b common.Address) (token0, token1 common.Address, err error) {
	switch bytes.Compare(a.Bytes(), b.Bytes()) {
	case 0:
		return common.Address{}, common.Address{}, fmt.Errorf("%w: %s", types.ErrIdenticalTokens, a.Hex())
	case -1:
		token0, token1 = a, b
	default:
		token0, token1 = b, a
	}
	if token0 == (common.Address{}) {
		return common.Address{}, common.Address{}, fmt.Errorf("zero address cannot be a pair token")
	}
	return token0, token1, nil
}

// PairAddress computes the CREATE2 address of the pair for a and b
func PairAddress(factory common.Address, initCodeHash common.Hash, a, b common.Address) (common.Address, error) {
	token0, token1, err := SortTokens(a, b)
	if err != nil {
		return common.Address{}, err
	}
	salt := crypto.Keccak256(token0.Bytes(), token1.Bytes())
	return common.BytesToAddress(crypto.Keccak256(
		[]byte{0xff},
		factory.Bytes(),
		salt,
		initCodeHash.Bytes(),
	)[12:]), nil
}
