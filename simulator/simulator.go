package simulator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/pr1mer-tech/hammy/dex/uniswap"
	"github.com/pr1mer-tech/hammy/types"
	"go.uber.org/zap"
)

// Client is the part of an Ethereum client the simulator calls
type Client interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
}

// SimulationResult represents the result of a transaction simulation
type SimulationResult struct {
	Success bool
	GasUsed uint64
	// Amounts holds the router's returned amounts when the call returns any
	Amounts []*big.Int
	// Error is the classified failure when Success is false
	Error error
}

// Simulator dry-runs unsigned transactions against the latest state
type Simulator struct {
	client Client
	logger *zap.Logger
}

// NewSimulator creates a new transaction simulator
func NewSimulator(client Client, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		client: client,
		logger: logger,
	}
}

// SimulateTransaction runs tx with eth_call and then estimates its gas. A
// revert is reported in the result, not as an error. The returned error is
// only set when ctx ends first.
func (s *Simulator) SimulateTransaction(ctx context.Context, tx *types.TxRequest) (*SimulationResult, error) {
	msg := tx.CallMsg()

	output, err := s.client.CallContract(ctx, msg, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return s.failed(tx, err), nil
	}

	gasUsed, err := s.client.EstimateGas(ctx, msg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return s.failed(tx, err), nil
	}

	return &SimulationResult{
		Success: true,
		GasUsed: gasUsed,
		Amounts: routerAmounts(tx.Method, output),
	}, nil
}

func (s *Simulator) failed(tx *types.TxRequest, err error) *SimulationResult {
	classified := uniswap.ClassifyError(err)
	s.logger.Warn("Simulation failed",
		zap.String("method", tx.Method),
		zap.String("to", tx.To.Hex()),
		zap.Error(classified))
	return &SimulationResult{Success: false, Error: classified}
}

// routerAmounts decodes the amounts a router call returns. Swaps return the
// amount at every hop, liquidity calls return the token amounts moved.
func routerAmounts(method string, output []byte) []*big.Int {
	if len(output) == 0 {
		return nil
	}
	abiMethod, ok := uniswap.RouterABI.Methods[method]
	if !ok || len(abiMethod.Outputs) == 0 {
		return nil
	}
	values, err := abiMethod.Outputs.Unpack(output)
	if err != nil {
		return nil
	}

	var amounts []*big.Int
	for _, v := range values {
		switch x := v.(type) {
		case *big.Int:
			amounts = append(amounts, x)
		case []*big.Int:
			amounts = append(amounts, x...)
		}
	}
	return amounts
}
