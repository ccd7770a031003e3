package uniswap

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/types"
)

// SwapParams are the arguments of the swapExact*For* router calls
type SwapParams struct {
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Path         []common.Address
	To           common.Address
	Deadline     *big.Int
}

// AddLiquidityParams are the arguments of addLiquidity
type AddLiquidityParams struct {
	TokenA         common.Address
	TokenB         common.Address
	AmountADesired *big.Int
	AmountBDesired *big.Int
	AmountAMin     *big.Int
	AmountBMin     *big.Int
	To             common.Address
	Deadline       *big.Int
}

// AddLiquidityETHParams are the arguments of addLiquidityETH. AmountETH is
// sent as the call value.
type AddLiquidityETHParams struct {
	Token              common.Address
	AmountTokenDesired *big.Int
	AmountTokenMin     *big.Int
	AmountETH          *big.Int
	AmountETHMin       *big.Int
	To                 common.Address
	Deadline           *big.Int
}

// RemoveLiquidityParams are the arguments of removeLiquidity
type RemoveLiquidityParams struct {
	TokenA     common.Address
	TokenB     common.Address
	Liquidity  *big.Int
	AmountAMin *big.Int
	AmountBMin *big.Int
	To         common.Address
	Deadline   *big.Int
}

// RemoveLiquidityETHParams are the arguments of removeLiquidityETH
type RemoveLiquidityETHParams struct {
	Token          common.Address
	Liquidity      *big.Int
	AmountTokenMin *big.Int
	AmountETHMin   *big.Int
	To             common.Address
	Deadline       *big.Int
}

// Deadline returns the unix timestamp window after now
func Deadline(now time.Time, window time.Duration) *big.Int {
	return big.NewInt(now.Add(window).Unix())
}

// RouterEncoder builds unsigned router transactions
type RouterEncoder struct {
	router common.Address
}

// NewRouterEncoder creates an encoder for the router at address
func NewRouterEncoder(router common.Address) *RouterEncoder {
	return &RouterEncoder{router: router}
}

// Address returns the router the transactions target
func (e *RouterEncoder) Address() common.Address {
	return e.router
}

// SwapExactTokensForTokens sells an exact amount of an ERC20 for another ERC20
func (e *RouterEncoder) SwapExactTokensForTokens(p SwapParams) (*types.TxRequest, error) {
	if err := checkSwap(p); err != nil {
		return nil, err
	}
	return e.pack(nil, p.Deadline, "swapExactTokensForTokens", p.AmountIn, p.AmountOutMin, p.Path, p.To, p.Deadline)
}

// SwapExactETHForTokens sells an exact amount of the native asset
func (e *RouterEncoder) SwapExactETHForTokens(p SwapParams) (*types.TxRequest, error) {
	if err := checkSwap(p); err != nil {
		return nil, err
	}
	return e.pack(p.AmountIn, p.Deadline, "swapExactETHForTokens", p.AmountOutMin, p.Path, p.To, p.Deadline)
}

// SwapExactTokensForETH sells an exact amount of an ERC20 for the native asset
func (e *RouterEncoder) SwapExactTokensForETH(p SwapParams) (*types.TxRequest, error) {
	if err := checkSwap(p); err != nil {
		return nil, err
	}
	return e.pack(nil, p.Deadline, "swapExactTokensForETH", p.AmountIn, p.AmountOutMin, p.Path, p.To, p.Deadline)
}

// AddLiquidity deposits two ERC20 tokens
func (e *RouterEncoder) AddLiquidity(p AddLiquidityParams) (*types.TxRequest, error) {
	if p.TokenA == p.TokenB {
		return nil, fmt.Errorf("%w: %s", types.ErrIdenticalTokens, p.TokenA.Hex())
	}
	return e.pack(nil, p.Deadline, "addLiquidity", p.TokenA, p.TokenB,
		p.AmountADesired, p.AmountBDesired, p.AmountAMin, p.AmountBMin, p.To, p.Deadline)
}

// AddLiquidityETH deposits an ERC20 together with the native asset
func (e *RouterEncoder) AddLiquidityETH(p AddLiquidityETHParams) (*types.TxRequest, error) {
	return e.pack(p.AmountETH, p.Deadline, "addLiquidityETH", p.Token,
		p.AmountTokenDesired, p.AmountTokenMin, p.AmountETHMin, p.To, p.Deadline)
}

// RemoveLiquidity burns LP tokens for two ERC20 tokens
func (e *RouterEncoder) RemoveLiquidity(p RemoveLiquidityParams) (*types.TxRequest, error) {
	if p.TokenA == p.TokenB {
		return nil, fmt.Errorf("%w: %s", types.ErrIdenticalTokens, p.TokenA.Hex())
	}
	return e.pack(nil, p.Deadline, "removeLiquidity", p.TokenA, p.TokenB,
		p.Liquidity, p.AmountAMin, p.AmountBMin, p.To, p.Deadline)
}

// RemoveLiquidityETH burns LP tokens for an ERC20 and the native asset
func (e *RouterEncoder) RemoveLiquidityETH(p RemoveLiquidityETHParams) (*types.TxRequest, error) {
	return e.pack(nil, p.Deadline, "removeLiquidityETH", p.Token,
		p.Liquidity, p.AmountTokenMin, p.AmountETHMin, p.To, p.Deadline)
}

func (e *RouterEncoder) pack(value, deadline *big.Int, method string, args ...interface{}) (*types.TxRequest, error) {
	data, err := RouterABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	if value == nil {
		value = new(big.Int)
	}
	tx := &types.TxRequest{To: e.router, Data: data, Value: new(big.Int).Set(value), Method: method}
	if deadline != nil && deadline.IsUint64() {
		tx.Deadline = deadline.Uint64()
	}
	return tx, nil
}

// Approve lets spender move amount of token
func Approve(token, spender common.Address, amount *big.Int) (*types.TxRequest, error) {
	data, err := ERC20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve: %w", err)
	}
	return &types.TxRequest{To: token, Data: data, Value: new(big.Int), Method: "approve"}, nil
}

// Deposit wraps amount of the native asset
func Deposit(wrapped common.Address, amount *big.Int) (*types.TxRequest, error) {
	data, err := WrappedABI.Pack("deposit")
	if err != nil {
		return nil, fmt.Errorf("failed to pack deposit: %w", err)
	}
	return &types.TxRequest{To: wrapped, Data: data, Value: new(big.Int).Set(amount), Method: "deposit"}, nil
}

// Withdraw unwraps amount back to the native asset
func Withdraw(wrapped common.Address, amount *big.Int) (*types.TxRequest, error) {
	data, err := WrappedABI.Pack("withdraw", amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack withdraw: %w", err)
	}
	return &types.TxRequest{To: wrapped, Data: data, Value: new(big.Int), Method: "withdraw"}, nil
}

func checkSwap(p SwapParams) error {
	if len(p.Path) < 2 {
		return fmt.Errorf("%w: path needs at least two tokens", types.ErrNoRouteAvailable)
	}
	if p.AmountIn == nil || p.AmountIn.Sign() <= 0 {
		return types.ErrInsufficientInputAmount
	}
	if p.AmountOutMin == nil || p.Deadline == nil {
		return fmt.Errorf("swap needs a minimum output and a deadline")
	}
	return nil
}
