package utils

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/dex/uniswap"
	"go.uber.org/zap"
)

// DecodedCall is router calldata turned back into typed arguments. Exactly
// one of the parameter fields is set, matching Method.
type DecodedCall struct {
	Method             string
	Swap               *uniswap.SwapParams
	AddLiquidity       *uniswap.AddLiquidityParams
	AddLiquidityETH    *uniswap.AddLiquidityETHParams
	RemoveLiquidity    *uniswap.RemoveLiquidityParams
	RemoveLiquidityETH *uniswap.RemoveLiquidityETHParams
}

// TokenIn is the first token of a decoded swap path
func (c *DecodedCall) TokenIn() common.Address {
	if c.Swap == nil || len(c.Swap.Path) == 0 {
		return common.Address{}
	}
	return c.Swap.Path[0]
}

// TokenOut is the last token of a decoded swap path
func (c *DecodedCall) TokenOut() common.Address {
	if c.Swap == nil || len(c.Swap.Path) == 0 {
		return common.Address{}
	}
	return c.Swap.Path[len(c.Swap.Path)-1]
}

// TransactionDecoder handles decoding of router transaction data
type TransactionDecoder struct {
	router abi.ABI
	logger *zap.Logger
}

// NewTransactionDecoder creates a new transaction decoder
func NewTransactionDecoder(logger *zap.Logger) (*TransactionDecoder, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &TransactionDecoder{
		router: uniswap.RouterABI,
		logger: logger,
	}, nil
}

// DecodeRouterCall decodes calldata of any state-changing router method.
// value is the native amount sent along, which is the swap input of
// swapExactETHForTokens.
func (d *TransactionDecoder) DecodeRouterCall(data []byte, value *big.Int) (*DecodedCall, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("invalid data length")
	}

	method, err := d.router.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("failed to decode method: %w", err)
	}

	params := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(params, data[4:]); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	args := argReader{method: method.Name, params: params}

	call := &DecodedCall{Method: method.Name}
	switch method.Name {
	case "swapExactTokensForTokens", "swapExactTokensForETH", "swapExactETHForTokens":
		amountIn := value
		if method.Name != "swapExactETHForTokens" {
			amountIn = args.bigInt("amountIn")
		}
		call.Swap = &uniswap.SwapParams{
			AmountIn:     amountIn,
			AmountOutMin: args.bigInt("amountOutMin"),
			Path:         args.path("path"),
			To:           args.address("to"),
			Deadline:     args.bigInt("deadline"),
		}
	case "addLiquidity":
		call.AddLiquidity = &uniswap.AddLiquidityParams{
			TokenA:         args.address("tokenA"),
			TokenB:         args.address("tokenB"),
			AmountADesired: args.bigInt("amountADesired"),
			AmountBDesired: args.bigInt("amountBDesired"),
			AmountAMin:     args.bigInt("amountAMin"),
			AmountBMin:     args.bigInt("amountBMin"),
			To:             args.address("to"),
			Deadline:       args.bigInt("deadline"),
		}
	case "addLiquidityETH":
		call.AddLiquidityETH = &uniswap.AddLiquidityETHParams{
			Token:              args.address("token"),
			AmountTokenDesired: args.bigInt("amountTokenDesired"),
			AmountTokenMin:     args.bigInt("amountTokenMin"),
			AmountETH:          value,
			AmountETHMin:       args.bigInt("amountETHMin"),
			To:                 args.address("to"),
			Deadline:           args.bigInt("deadline"),
		}
	case "removeLiquidity":
		call.RemoveLiquidity = &uniswap.RemoveLiquidityParams{
			TokenA:     args.address("tokenA"),
			TokenB:     args.address("tokenB"),
			Liquidity:  args.bigInt("liquidity"),
			AmountAMin: args.bigInt("amountAMin"),
			AmountBMin: args.bigInt("amountBMin"),
			To:         args.address("to"),
			Deadline:   args.bigInt("deadline"),
		}
	case "removeLiquidityETH":
		call.RemoveLiquidityETH = &uniswap.RemoveLiquidityETHParams{
			Token:          args.address("token"),
			Liquidity:      args.bigInt("liquidity"),
			AmountTokenMin: args.bigInt("amountTokenMin"),
			AmountETHMin:   args.bigInt("amountETHMin"),
			To:             args.address("to"),
			Deadline:       args.bigInt("deadline"),
		}
	default:
		return nil, fmt.Errorf("%s is not a router transaction", method.Name)
	}
	if args.err != nil {
		return nil, args.err
	}

	d.logger.Debug("Decoded router call", zap.String("method", method.Name))
	return call, nil
}

// DecodeSwap decodes a swap transaction
func (d *TransactionDecoder) DecodeSwap(data []byte, value *big.Int) (*uniswap.SwapParams, error) {
	call, err := d.DecodeRouterCall(data, value)
	if err != nil {
		return nil, err
	}
	if call.Swap == nil {
		return nil, fmt.Errorf("%s is not a swap", call.Method)
	}
	return call.Swap, nil
}

// argReader pulls typed values out of an unpacked argument map and keeps the
// first mismatch
type argReader struct {
	method string
	params map[string]interface{}
	err    error
}

func (r *argReader) fail(name string) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s in %s", name, r.method)
	}
}

func (r *argReader) bigInt(name string) *big.Int {
	v, ok := r.params[name].(*big.Int)
	if !ok {
		r.fail(name)
	}
	return v
}

func (r *argReader) address(name string) common.Address {
	v, ok := r.params[name].(common.Address)
	if !ok {
		r.fail(name)
	}
	return v
}

func (r *argReader) path(name string) []common.Address {
	v, ok := r.params[name].([]common.Address)
	if !ok || len(v) < 2 {
		r.fail(name)
	}
	return v
}
