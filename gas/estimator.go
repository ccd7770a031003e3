package gas

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/pr1mer-tech/hammy/dex/uniswap"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultBufferPercent is added on top of the node's estimate
const DefaultBufferPercent = 10

// Client is the part of an Ethereum client needed to price a transaction
type Client interface {
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Estimate is the expected cost of a transaction
type Estimate struct {
	GasLimit uint64
	GasPrice *big.Int
	// Cost is GasLimit * GasPrice in the native asset's smallest unit
	Cost *big.Int
}

// CostDecimal returns the cost in whole native units
func (e *Estimate) CostDecimal(decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(e.Cost, -int32(decimals))
}

// Estimator provides gas estimation for unsigned transactions
type Estimator struct {
	client        Client
	logger        *zap.Logger
	bufferPercent uint64
}

// NewEstimator creates a new gas estimator
func NewEstimator(client Client, logger *zap.Logger, bufferPercent uint64) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		client:        client,
		logger:        logger,
		bufferPercent: bufferPercent,
	}
}

// Estimate asks the node for gas and price concurrently and applies the buffer
func (e *Estimator) Estimate(ctx context.Context, tx *types.TxRequest) (*Estimate, error) {
	var (
		gas   uint64
		price *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gas, err = e.client.EstimateGas(gctx, tx.CallMsg())
		if err != nil {
			return fmt.Errorf("failed to estimate gas for %s: %w", tx.Method, uniswap.ClassifyError(err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		price, err = e.client.SuggestGasPrice(gctx)
		if err != nil {
			return fmt.Errorf("failed to get gas price: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	limit := e.WithBuffer(gas)
	cost := new(big.Int).Mul(new(big.Int).SetUint64(limit), price)

	e.logger.Debug("Estimated gas",
		zap.String("method", tx.Method),
		zap.Uint64("estimate", gas),
		zap.Uint64("limit", limit),
		zap.String("gas_price", price.String()),
		zap.String("cost", cost.String()))

	return &Estimate{GasLimit: limit, GasPrice: price, Cost: cost}, nil
}

// WithBuffer adds the configured percentage to gas, rounding up
func (e *Estimator) WithBuffer(gas uint64) uint64 {
	extra := (gas*e.bufferPercent + 99) / 100
	return gas + extra
}

// EstimateGasCost prices a known gas limit at the current gas price. No
// buffer is added.
func (e *Estimator) EstimateGasCost(ctx context.Context, gasLimit uint64) (*Estimate, error) {
	price, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	cost := new(big.Int).Mul(price, new(big.Int).SetUint64(gasLimit))
	return &Estimate{GasLimit: gasLimit, GasPrice: price, Cost: cost}, nil
}
