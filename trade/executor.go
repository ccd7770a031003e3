package trade

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pr1mer-tech/hammy/dex/uniswap"
	"github.com/pr1mer-tech/hammy/simulator"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/pr1mer-tech/hammy/utils/metrics"
	"go.uber.org/zap"
)

// Wallet signs and broadcasts a transaction. Key handling lives outside
// this module.
type Wallet interface {
	SendTransaction(ctx context.Context, tx *types.TxRequest) (common.Hash, error)
}

// ReceiptReader reads mined transactions
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error)
}

// ExecutorOptions tune receipt polling
type ExecutorOptions struct {
	PollInterval time.Duration
	MaxWait      time.Duration
	Metrics      *metrics.TxMetrics
	Logger       *zap.Logger
}

// Executor simulates, submits and confirms transactions
type Executor struct {
	simulator *simulator.Simulator
	wallet    Wallet
	receipts  ReceiptReader
	opts      ExecutorOptions
	logger    *zap.Logger
	now       func() time.Time
}

// NewExecutor creates an executor
func NewExecutor(sim *simulator.Simulator, wallet Wallet, receipts ReceiptReader, opts ExecutorOptions) *Executor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		simulator: sim,
		wallet:    wallet,
		receipts:  receipts,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute runs tx through simulation, hands it to the wallet and waits for
// the receipt. Every failure is mapped onto the error taxonomy.
func (e *Executor) Execute(ctx context.Context, tx *types.TxRequest) (receipt *gethtypes.Receipt, err error) {
	defer func() {
		if err != nil && e.opts.Metrics != nil {
			e.opts.Metrics.Failed.WithLabelValues(metrics.Reason(err)).Inc()
		}
	}()

	if tx.Deadline != 0 && uint64(e.now().Unix()) > tx.Deadline {
		return nil, fmt.Errorf("%w: %s deadline passed before submission", types.ErrDeadlineExpired, tx.Method)
	}

	result, err := e.simulator.SimulateTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, result.Error
	}

	hash, err := e.wallet.SendTransaction(ctx, tx)
	if err != nil {
		return nil, uniswap.ClassifyError(err)
	}
	submitted := e.now()
	if e.opts.Metrics != nil {
		e.opts.Metrics.Submitted.WithLabelValues(tx.Method).Inc()
	}
	e.logger.Info("Submitted transaction",
		zap.String("method", tx.Method),
		zap.String("hash", hash.Hex()))

	receipt, err = e.waitReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.Confirmation.Observe(e.now().Sub(submitted).Seconds())
	}

	if receipt.Status == gethtypes.ReceiptStatusSuccessful {
		e.logger.Info("Transaction confirmed",
			zap.String("hash", hash.Hex()),
			zap.Uint64("gas_used", receipt.GasUsed))
		return receipt, nil
	}
	return receipt, e.failure(ctx, tx, receipt)
}

func (e *Executor) waitReceipt(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.opts.PollInterval
	policy.MaxInterval = e.opts.PollInterval * 4

	operation := func() (*gethtypes.Receipt, error) {
		receipt, err := e.receipts.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			e.logger.Debug("Receipt lookup failed", zap.String("hash", hash.Hex()), zap.Error(err))
			return nil, err
		}
		return receipt, nil
	}

	receipt, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(e.opts.MaxWait))
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
	}
	return receipt, nil
}

// failure explains a reverted receipt. A revert mined after the deadline is
// reported as an expired deadline.
func (e *Executor) failure(ctx context.Context, tx *types.TxRequest, receipt *gethtypes.Receipt) error {
	e.logger.Warn("Transaction reverted",
		zap.String("method", tx.Method),
		zap.String("hash", receipt.TxHash.Hex()))

	if tx.Deadline != 0 && receipt.BlockNumber != nil {
		header, err := e.receipts.HeaderByNumber(ctx, receipt.BlockNumber)
		if err == nil && header.Time > tx.Deadline {
			return fmt.Errorf("%w: %s mined after deadline", types.ErrDeadlineExpired, receipt.TxHash.Hex())
		}
	}
	return fmt.Errorf("%w: %s reverted", types.ErrTransactionFailed, receipt.TxHash.Hex())
}
