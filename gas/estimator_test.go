package gas

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeEth struct {
	gas      uint64
	price    *big.Int
	revert   string
	lastCall map[string]interface{}
}

func (f *fakeEth) EstimateGas(ctx context.Context, args map[string]interface{}) (hexutil.Uint64, error) {
	f.lastCall = args
	if f.revert != "" {
		return 0, errors.New(f.revert)
	}
	return hexutil.Uint64(f.gas), nil
}

func (f *fakeEth) GasPrice(ctx context.Context) (*hexutil.Big, error) {
	return (*hexutil.Big)(f.price), nil
}

func newInprocEthClient(t *testing.T, fe *fakeEth) *ethclient.Client {
	t.Helper()
	srv := gethrpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", fe))
	c := gethrpc.DialInProc(srv)
	t.Cleanup(c.Close)
	return ethclient.NewClient(c)
}

func testTx() *types.TxRequest {
	return &types.TxRequest{
		From:   common.HexToAddress("0x0000000000000000000000000000000000000001"),
		To:     common.HexToAddress("0x00000000000000000000000000000000000000f2"),
		Data:   []byte{0xd0, 0xe3, 0x0d, 0xb0},
		Value:  big.NewInt(5),
		Method: "deposit",
	}
}

func TestEstimate(t *testing.T) {
	fe := &fakeEth{gas: 100000, price: big.NewInt(2_000_000_000)}
	est := NewEstimator(newInprocEthClient(t, fe), zaptest.NewLogger(t), DefaultBufferPercent)

	got, err := est.Estimate(context.Background(), testTx())
	require.NoError(t, err)
	assert.Equal(t, uint64(110000), got.GasLimit)
	assert.Equal(t, "2000000000", got.GasPrice.String())
	assert.Equal(t, "220000000000000", got.Cost.String())
	assert.Equal(t, "0.00022", got.CostDecimal(18).String())

	require.NotNil(t, fe.lastCall)
	assert.Equal(t, "0x00000000000000000000000000000000000000f2", fe.lastCall["to"])
}

func TestEstimateRevertIsClassified(t *testing.T) {
	fe := &fakeEth{price: big.NewInt(1), revert: "execution reverted: UniswapV2Router: EXPIRED"}
	est := NewEstimator(newInprocEthClient(t, fe), zaptest.NewLogger(t), DefaultBufferPercent)

	_, err := est.Estimate(context.Background(), testTx())
	assert.ErrorIs(t, err, types.ErrDeadlineExpired)
}

func TestWithBuffer(t *testing.T) {
	tests := []struct {
		name    string
		percent uint64
		gas     uint64
		want    uint64
	}{
		{"ten percent", 10, 21000, 23100},
		{"rounds up", 10, 21001, 23102},
		{"no buffer", 0, 50000, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := NewEstimator(nil, nil, tt.percent)
			assert.Equal(t, tt.want, est.WithBuffer(tt.gas))
		})
	}
}

func TestEstimateGasCost(t *testing.T) {
	fe := &fakeEth{price: big.NewInt(3)}
	est := NewEstimator(newInprocEthClient(t, fe), zaptest.NewLogger(t), DefaultBufferPercent)

	got, err := est.EstimateGasCost(context.Background(), 21000)
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), got.GasLimit)
	assert.Equal(t, int64(63000), got.Cost.Int64())
}
