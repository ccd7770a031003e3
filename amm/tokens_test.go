package amm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortTokens(t *testing.T) {
	t0, t1, err := SortTokens(tokenB, tokenA)
	require.NoError(t, err)
	assert.Equal(t, tokenA, t0)
	assert.Equal(t, tokenB, t1)

	// mixed case hex sorts by value, not by checksum casing
	upper := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	lower := common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")
	t0, _, err = SortTokens(upper, lower)
	require.NoError(t, err)
	assert.Equal(t, lower, t0)

	_, _, err = SortTokens(tokenA, tokenA)
	assert.ErrorIs(t, err, types.ErrIdenticalTokens)

	_, _, err = SortTokens(types.NativeAddress, tokenA)
	assert.Error(t, err)
}

func TestWrapping(t *testing.T) {
	wrapped := common.HexToAddress("0x81Be083099c2C65b062378E74Fa8469644347BB7")
	w := Wrapping{Wrapped: wrapped}

	assert.Equal(t, wrapped, w.Effective(types.NativeAddress))
	assert.Equal(t, tokenA, w.Effective(tokenA))

	assert.True(t, w.IsWrapPair(types.NativeAddress, wrapped))
	assert.True(t, w.IsWrapPair(wrapped, types.NativeAddress))
	assert.False(t, w.IsWrapPair(wrapped, tokenA))

	assert.True(t, w.SameAssetForPool(types.NativeAddress, wrapped))
	assert.True(t, w.SameAssetForPool(tokenA, tokenA))
	assert.False(t, w.SameAssetForPool(types.NativeAddress, tokenA))

	t0, t1, err := w.Sort(types.NativeAddress, tokenA)
	require.NoError(t, err)
	assert.Equal(t, tokenA, t0)
	assert.Equal(t, wrapped, t1)

	_, _, err = w.Sort(types.NativeAddress, wrapped)
	assert.ErrorIs(t, err, types.ErrIdenticalTokens)
}

func TestPairAddress(t *testing.T) {
	factory := common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	initCode := common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

	pair, err := PairAddress(factory, initCode, weth, usdc)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"), pair)

	reversed, err := PairAddress(factory, initCode, usdc, weth)
	require.NoError(t, err)
	assert.Equal(t, pair, reversed)
}
