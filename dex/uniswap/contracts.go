package uniswap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Factory is a typed adapter for the pair factory
type Factory struct {
	contract *bind.BoundContract
	address  common.Address
}

// NewFactory binds the factory at address
func NewFactory(address common.Address, caller bind.ContractCaller) *Factory {
	return &Factory{
		contract: bind.NewBoundContract(address, FactoryABI, caller, nil, nil),
		address:  address,
	}
}

// GetPair returns the pair for tokenA and tokenB, or the zero address when
// no pool has been created
func (f *Factory) GetPair(opts *bind.CallOpts, tokenA, tokenB common.Address) (common.Address, error) {
	return callAddress(f.contract, opts, "getPair", tokenA, tokenB)
}

// AllPairsLength returns the number of pairs the factory created
func (f *Factory) AllPairsLength(opts *bind.CallOpts) (*big.Int, error) {
	return callBigInt(f.contract, opts, "allPairsLength")
}

// ERC20 is a typed adapter for a token contract
type ERC20 struct {
	contract *bind.BoundContract
	address  common.Address
}

// NewERC20 binds the token at address
func NewERC20(address common.Address, caller bind.ContractCaller) *ERC20 {
	return &ERC20{
		contract: bind.NewBoundContract(address, ERC20ABI, caller, nil, nil),
		address:  address,
	}
}

// BalanceOf returns the balance held by owner
func (t *ERC20) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	return callBigInt(t.contract, opts, "balanceOf", owner)
}

// Allowance returns how much spender may move on behalf of owner
func (t *ERC20) Allowance(opts *bind.CallOpts, owner, spender common.Address) (*big.Int, error) {
	return callBigInt(t.contract, opts, "allowance", owner, spender)
}

// Decimals returns the token's decimals
func (t *ERC20) Decimals(opts *bind.CallOpts) (uint8, error) {
	var out []interface{}
	if err := t.contract.Call(opts, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("failed to call decimals: %w", err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("failed to parse decimals: empty result")
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("failed to parse decimals")
	}
	return decimals, nil
}

// Symbol returns the token's ticker
func (t *ERC20) Symbol(opts *bind.CallOpts) (string, error) {
	return callString(t.contract, opts, "symbol")
}

// Name returns the token's name
func (t *ERC20) Name(opts *bind.CallOpts) (string, error) {
	return callString(t.contract, opts, "name")
}

// Router is a typed adapter for the read side of the router. Write calls
// are encoded by RouterEncoder and submitted by the wallet.
type Router struct {
	contract *bind.BoundContract
	address  common.Address
}

// NewRouter binds the router at address
func NewRouter(address common.Address, caller bind.ContractCaller) *Router {
	return &Router{
		contract: bind.NewBoundContract(address, RouterABI, caller, nil, nil),
		address:  address,
	}
}

// Address returns the router contract address
func (r *Router) Address() common.Address {
	return r.address
}

// GetAmountsOut asks the router to price an exact-input swap along path
func (r *Router) GetAmountsOut(opts *bind.CallOpts, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	return callBigInts(r.contract, opts, "getAmountsOut", amountIn, path)
}

// GetAmountsIn asks the router to price an exact-output swap along path
func (r *Router) GetAmountsIn(opts *bind.CallOpts, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	return callBigInts(r.contract, opts, "getAmountsIn", amountOut, path)
}

// Factory returns the factory the router trades through
func (r *Router) Factory(opts *bind.CallOpts) (common.Address, error) {
	return callAddress(r.contract, opts, "factory")
}

// WETH returns the wrapped native token the router uses
func (r *Router) WETH(opts *bind.CallOpts) (common.Address, error) {
	return callAddress(r.contract, opts, "WETH")
}

func callString(contract *bind.BoundContract, opts *bind.CallOpts, method string) (string, error) {
	var out []interface{}
	if err := contract.Call(opts, &out, method); err != nil {
		return "", fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("failed to parse %s: empty result", method)
	}
	value, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("failed to parse %s", method)
	}
	return value, nil
}
