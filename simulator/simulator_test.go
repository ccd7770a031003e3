package simulator

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/dex/uniswap"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockClient struct {
	output  []byte
	callErr error
	gas     uint64
	gasErr  error
}

func (m *mockClient) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return m.output, m.callErr
}

func (m *mockClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return m.gas, m.gasErr
}

func swapTx(t *testing.T) *types.TxRequest {
	t.Helper()
	enc := uniswap.NewRouterEncoder(common.HexToAddress("0x00000000000000000000000000000000000000f2"))
	tx, err := enc.SwapExactTokensForTokens(uniswap.SwapParams{
		AmountIn:     big.NewInt(10),
		AmountOutMin: big.NewInt(18),
		Path: []common.Address{
			common.HexToAddress("0x00000000000000000000000000000000000000aa"),
			common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		},
		To:       common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Deadline: big.NewInt(1_700_000_000),
	})
	require.NoError(t, err)
	return tx
}

func TestSimulateTransaction(t *testing.T) {
	output, err := uniswap.RouterABI.Methods["swapExactTokensForTokens"].Outputs.Pack([]*big.Int{big.NewInt(10), big.NewInt(19)})
	require.NoError(t, err)

	sim := NewSimulator(&mockClient{output: output, gas: 120000}, zaptest.NewLogger(t))
	result, err := sim.SimulateTransaction(context.Background(), swapTx(t))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, uint64(120000), result.GasUsed)
	require.Len(t, result.Amounts, 2)
	assert.Equal(t, int64(19), result.Amounts[1].Int64())
	assert.NoError(t, result.Error)
}

func TestSimulateTransactionFailures(t *testing.T) {
	tests := []struct {
		name   string
		client *mockClient
		want   error
	}{
		{
			name:   "call reverts on slippage",
			client: &mockClient{callErr: errors.New("execution reverted: UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT")},
			want:   types.ErrSlippageExceeded,
		},
		{
			name:   "estimate fails on funds",
			client: &mockClient{gasErr: errors.New("insufficient funds for gas * price + value")},
			want:   types.ErrInsufficientBalance,
		},
		{
			name:   "unknown failure",
			client: &mockClient{callErr: errors.New("something odd")},
			want:   types.ErrTransactionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := NewSimulator(tt.client, zaptest.NewLogger(t))
			result, err := sim.SimulateTransaction(context.Background(), swapTx(t))
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.ErrorIs(t, result.Error, tt.want)
		})
	}
}

func TestSimulateTransactionCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := NewSimulator(&mockClient{callErr: context.Canceled}, zaptest.NewLogger(t))
	_, err := sim.SimulateTransaction(ctx, swapTx(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRouterAmountsIgnoresUnknownOutput(t *testing.T) {
	assert.Nil(t, routerAmounts("approve", []byte{0x01}))
	assert.Nil(t, routerAmounts("swapExactTokensForTokens", nil))
	assert.Nil(t, routerAmounts("swapExactTokensForTokens", []byte{0x01}))
}
