package trade

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pr1mer-tech/hammy/simulator"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/pr1mer-tech/hammy/utils/metrics"
	"github.com/pr1mer-tech/hammy/utils/testutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var txHash = common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001")

type fakeWallet struct {
	mu   sync.Mutex
	sent []*types.TxRequest
	err  error
}

func (w *fakeWallet) SendTransaction(ctx context.Context, tx *types.TxRequest) (common.Hash, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return common.Hash{}, w.err
	}
	w.sent = append(w.sent, tx)
	return txHash, nil
}

// fakeReceipts reports the receipt as pending for the first pending lookups
type fakeReceipts struct {
	mu        sync.Mutex
	pending   int
	lookups   int
	status    uint64
	blockTime uint64
}

func (r *fakeReceipts) TransactionReceipt(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.lookups <= r.pending {
		return nil, ethereum.NotFound
	}
	return &gethtypes.Receipt{
		Status:      r.status,
		TxHash:      hash,
		GasUsed:     90000,
		BlockNumber: big.NewInt(101),
	}, nil
}

func (r *fakeReceipts) HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error) {
	return &gethtypes.Header{Number: number, Time: r.blockTime}, nil
}

func swapTx(t *testing.T) *types.TxRequest {
	t.Helper()
	svc := newService(t, newFake(), Options{})
	preview, err := svc.PreviewSwap(context.Background(), QuoteRequest{TokenIn: tokenA, TokenOut: tokenB, Amount: big.NewInt(10), Kind: types.ExactIn}, types.DefaultSlippage)
	require.NoError(t, err)
	tx, err := newBuilder().BuildSwap(preview, recipient)
	require.NoError(t, err)
	return tx
}

func newExecutor(t *testing.T, fake *testutils.FakeBackend, wallet Wallet, receipts ReceiptReader) (*Executor, *metrics.TxMetrics) {
	t.Helper()
	tm := metrics.NewTxMetrics(prometheus.NewRegistry(), "test")
	e := NewExecutor(simulator.NewSimulator(fake, zaptest.NewLogger(t)), wallet, receipts, ExecutorOptions{
		PollInterval: time.Millisecond,
		MaxWait:      time.Second,
		Metrics:      tm,
		Logger:       zaptest.NewLogger(t),
	})
	e.now = func() time.Time { return time.Unix(1_700_000_100, 0) }
	return e, tm
}

func TestExecuteConfirmed(t *testing.T) {
	wallet := &fakeWallet{}
	receipts := &fakeReceipts{pending: 2, status: gethtypes.ReceiptStatusSuccessful}
	e, tm := newExecutor(t, newFake(), wallet, receipts)

	receipt, err := e.Execute(context.Background(), swapTx(t))
	require.NoError(t, err)
	assert.Equal(t, txHash, receipt.TxHash)
	assert.Equal(t, 3, receipts.lookups)
	assert.Len(t, wallet.sent, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(tm.Submitted.WithLabelValues("swapExactTokensForTokens")))
}

func TestExecuteFailures(t *testing.T) {
	slippageRevert := errors.New("execution reverted: UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT")

	tests := []struct {
		name     string
		setup    func(tx *types.TxRequest, fake *testutils.FakeBackend, wallet *fakeWallet, receipts *fakeReceipts)
		want     error
		sentWant int
	}{
		{
			name: "deadline passed before submission",
			setup: func(tx *types.TxRequest, _ *testutils.FakeBackend, _ *fakeWallet, _ *fakeReceipts) {
				tx.Deadline = 1_700_000_000
			},
			want: types.ErrDeadlineExpired,
		},
		{
			name: "simulation reverts",
			setup: func(_ *types.TxRequest, fake *testutils.FakeBackend, _ *fakeWallet, _ *fakeReceipts) {
				fake.Revert("swapExactTokensForTokens", slippageRevert)
			},
			want: types.ErrSlippageExceeded,
		},
		{
			name: "wallet rejects",
			setup: func(_ *types.TxRequest, _ *testutils.FakeBackend, wallet *fakeWallet, _ *fakeReceipts) {
				wallet.err = errors.New("User rejected the request")
			},
			want: types.ErrUserRejected,
		},
		{
			name: "reverted on chain",
			setup: func(_ *types.TxRequest, _ *testutils.FakeBackend, _ *fakeWallet, receipts *fakeReceipts) {
				receipts.blockTime = 1_700_000_200
			},
			want:     types.ErrTransactionFailed,
			sentWant: 1,
		},
		{
			name: "mined after deadline",
			setup: func(_ *types.TxRequest, _ *testutils.FakeBackend, _ *fakeWallet, receipts *fakeReceipts) {
				receipts.blockTime = 1_700_009_999
			},
			want:     types.ErrDeadlineExpired,
			sentWant: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake()
			wallet := &fakeWallet{}
			receipts := &fakeReceipts{status: gethtypes.ReceiptStatusFailed}
			tx := swapTx(t)
			tt.setup(tx, fake, wallet, receipts)

			e, tm := newExecutor(t, fake, wallet, receipts)
			_, err := e.Execute(context.Background(), tx)
			assert.ErrorIs(t, err, tt.want)
			assert.Len(t, wallet.sent, tt.sentWant)
			assert.Equal(t, float64(1), testutil.ToFloat64(tm.Failed.WithLabelValues(metrics.Reason(err))))
		})
	}
}

func TestExecuteReceiptTimeout(t *testing.T) {
	receipts := &fakeReceipts{pending: 1 << 30}
	e, _ := newExecutor(t, newFake(), &fakeWallet{}, receipts)
	e.opts.MaxWait = 20 * time.Millisecond

	_, err := e.Execute(context.Background(), swapTx(t))
	assert.ErrorIs(t, err, ethereum.NotFound)
}
