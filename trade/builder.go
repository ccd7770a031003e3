package trade

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/amm"
	"github.com/pr1mer-tech/hammy/dex/uniswap"
	"github.com/pr1mer-tech/hammy/types"
	mathutil "github.com/pr1mer-tech/hammy/utils/math"
)

// DefaultDeadlineWindow is how long a router call stays valid
const DefaultDeadlineWindow = 20 * time.Minute

// Builder turns previews into unsigned transactions
type Builder struct {
	encoder  *uniswap.RouterEncoder
	wrapping amm.Wrapping
	window   time.Duration
	now      func() time.Time
}

// NewBuilder creates a builder for router. A zero window uses
// DefaultDeadlineWindow.
func NewBuilder(router common.Address, wrapping amm.Wrapping, window time.Duration) *Builder {
	if window <= 0 {
		window = DefaultDeadlineWindow
	}
	return &Builder{
		encoder:  uniswap.NewRouterEncoder(router),
		wrapping: wrapping,
		window:   window,
		now:      time.Now,
	}
}

func (b *Builder) deadline() *big.Int {
	return uniswap.Deadline(b.now(), b.window)
}

// BuildSwap encodes the swap of preview, paying out to recipient. Exact
// output quotes are executed as exact input swaps of the quoted input.
func (b *Builder) BuildSwap(preview *SwapPreview, recipient common.Address) (*types.TxRequest, error) {
	q := preview.Quote
	if q.Wrap {
		if q.TokenIn.IsNative() {
			return b.BuildWrap(q.AmountIn)
		}
		return b.BuildUnwrap(q.AmountIn)
	}

	params := uniswap.SwapParams{
		AmountIn:     q.AmountIn,
		AmountOutMin: preview.AmountOutMin,
		Path:         q.Path,
		To:           recipient,
		Deadline:     b.deadline(),
	}
	switch {
	case q.TokenIn.IsNative():
		return b.encoder.SwapExactETHForTokens(params)
	case q.TokenOut.IsNative():
		return b.encoder.SwapExactTokensForETH(params)
	default:
		return b.encoder.SwapExactTokensForTokens(params)
	}
}

// BuildAddLiquidity encodes the deposit of preview. The first deposit of a
// pool is rejected when it cannot mint any LP tokens.
func (b *Builder) BuildAddLiquidity(preview *DepositPreview, slippage types.SlippageTolerance, recipient common.Address) (*types.TxRequest, error) {
	if preview.LiquidityMinted == nil || preview.LiquidityMinted.Sign() == 0 {
		return nil, types.ErrInsufficientLiquidityMinted
	}
	deadline := b.deadline()

	if preview.TokenA.IsNative() || preview.TokenB.IsNative() {
		token, amountToken, amountETH := preview.TokenB, preview.AmountB, preview.AmountA
		if preview.TokenB.IsNative() {
			token, amountToken, amountETH = preview.TokenA, preview.AmountA, preview.AmountB
		}
		return b.encoder.AddLiquidityETH(uniswap.AddLiquidityETHParams{
			Token:              token.Address,
			AmountTokenDesired: amountToken,
			AmountTokenMin:     slippage.MinimumAmount(amountToken),
			AmountETH:          amountETH,
			AmountETHMin:       slippage.MinimumAmount(amountETH),
			To:                 recipient,
			Deadline:           deadline,
		})
	}

	return b.encoder.AddLiquidity(uniswap.AddLiquidityParams{
		TokenA:         preview.TokenA.Address,
		TokenB:         preview.TokenB.Address,
		AmountADesired: preview.AmountA,
		AmountBDesired: preview.AmountB,
		AmountAMin:     slippage.MinimumAmount(preview.AmountA),
		AmountBMin:     slippage.MinimumAmount(preview.AmountB),
		To:             recipient,
		Deadline:       deadline,
	})
}

// BuildRemoveLiquidity encodes the withdrawal of preview
func (b *Builder) BuildRemoveLiquidity(preview *WithdrawPreview, recipient common.Address) (*types.TxRequest, error) {
	deadline := b.deadline()

	if preview.TokenA.IsNative() || preview.TokenB.IsNative() {
		token, tokenMin, ethMin := preview.TokenB, preview.AmountBMin, preview.AmountAMin
		if preview.TokenB.IsNative() {
			token, tokenMin, ethMin = preview.TokenA, preview.AmountAMin, preview.AmountBMin
		}
		return b.encoder.RemoveLiquidityETH(uniswap.RemoveLiquidityETHParams{
			Token:          token.Address,
			Liquidity:      preview.Liquidity,
			AmountTokenMin: tokenMin,
			AmountETHMin:   ethMin,
			To:             recipient,
			Deadline:       deadline,
		})
	}

	return b.encoder.RemoveLiquidity(uniswap.RemoveLiquidityParams{
		TokenA:     preview.TokenA.Address,
		TokenB:     preview.TokenB.Address,
		Liquidity:  preview.Liquidity,
		AmountAMin: preview.AmountAMin,
		AmountBMin: preview.AmountBMin,
		To:         recipient,
		Deadline:   deadline,
	})
}

// BuildApprove lets the router spend amount of token. LP tokens are approved
// the same way before a withdrawal.
func (b *Builder) BuildApprove(token common.Address, amount *big.Int) (*types.TxRequest, error) {
	if token == types.NativeAddress {
		return nil, fmt.Errorf("the native asset needs no approval")
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("approval amount must not be negative")
	}
	return uniswap.Approve(token, b.encoder.Address(), amount)
}

// BuildWrap converts amount of the native asset into the wrapped token
func (b *Builder) BuildWrap(amount *big.Int) (*types.TxRequest, error) {
	if !mathutil.IsPositive(amount) {
		return nil, types.ErrInsufficientInputAmount
	}
	return uniswap.Deposit(b.wrapping.Wrapped, amount)
}

// BuildUnwrap converts amount of the wrapped token back to the native asset
func (b *Builder) BuildUnwrap(amount *big.Int) (*types.TxRequest, error) {
	if !mathutil.IsPositive(amount) {
		return nil, types.ErrInsufficientInputAmount
	}
	return uniswap.Withdraw(b.wrapping.Wrapped, amount)
}
