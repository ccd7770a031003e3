package uniswap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// PairReserves is the decoded result of getReserves
type PairReserves struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

// UniswapV2Pair is a typed adapter for a pair contract
type UniswapV2Pair struct {
	contract *bind.BoundContract
	address  common.Address
}

// NewUniswapV2Pair binds the pair at address
func NewUniswapV2Pair(address common.Address, caller bind.ContractCaller) *UniswapV2Pair {
	return &UniswapV2Pair{
		contract: bind.NewBoundContract(address, PairABI, caller, nil, nil),
		address:  address,
	}
}

// Address returns the pair contract address
func (p *UniswapV2Pair) Address() common.Address {
	return p.address
}

// GetReserves returns the current reserves of the pair
func (p *UniswapV2Pair) GetReserves(opts *bind.CallOpts) (*PairReserves, error) {
	var out []interface{}
	if err := p.contract.Call(opts, &out, "getReserves"); err != nil {
		return nil, fmt.Errorf("failed to get reserves: %w", err)
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("failed to parse reserves: got %d values", len(out))
	}

	reserve0, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse reserve0")
	}
	reserve1, ok := out[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse reserve1")
	}
	timestamp, ok := out[2].(uint32)
	if !ok {
		return nil, fmt.Errorf("failed to parse blockTimestampLast")
	}

	return &PairReserves{Reserve0: reserve0, Reserve1: reserve1, BlockTimestampLast: timestamp}, nil
}

// Token0 returns the address of token0
func (p *UniswapV2Pair) Token0(opts *bind.CallOpts) (common.Address, error) {
	return callAddress(p.contract, opts, "token0")
}

// Token1 returns the address of token1
func (p *UniswapV2Pair) Token1(opts *bind.CallOpts) (common.Address, error) {
	return callAddress(p.contract, opts, "token1")
}

// TotalSupply returns the outstanding LP tokens
func (p *UniswapV2Pair) TotalSupply(opts *bind.CallOpts) (*big.Int, error) {
	return callBigInt(p.contract, opts, "totalSupply")
}

// BalanceOf returns the LP tokens held by owner
func (p *UniswapV2Pair) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	return callBigInt(p.contract, opts, "balanceOf", owner)
}

func callAddress(contract *bind.BoundContract, opts *bind.CallOpts, method string, params ...interface{}) (common.Address, error) {
	var out []interface{}
	if err := contract.Call(opts, &out, method, params...); err != nil {
		return common.Address{}, fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(out) == 0 {
		return common.Address{}, fmt.Errorf("failed to parse %s: empty result", method)
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("failed to parse %s address", method)
	}
	return addr, nil
}

func callBigInt(contract *bind.BoundContract, opts *bind.CallOpts, method string, params ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := contract.Call(opts, &out, method, params...); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("failed to parse %s: empty result", method)
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse %s value", method)
	}
	return value, nil
}

func callBigInts(contract *bind.BoundContract, opts *bind.CallOpts, method string, params ...interface{}) ([]*big.Int, error) {
	var out []interface{}
	if err := contract.Call(opts, &out, method, params...); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("failed to parse %s: empty result", method)
	}
	values, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse %s amounts", method)
	}
	return values, nil
}
