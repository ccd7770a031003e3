package uniswap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pr1mer-tech/hammy/types"
)

// revertPatterns maps substrings of node and wallet errors to the error
// taxonomy. The first match wins, so more specific patterns come first.
var revertPatterns = []struct {
	substr string
	err    error
}{
	{"INSUFFICIENT_OUTPUT_AMOUNT", types.ErrSlippageExceeded},
	{"EXCESSIVE_INPUT_AMOUNT", types.ErrSlippageExceeded},
	{"INSUFFICIENT_A_AMOUNT", types.ErrSlippageExceeded},
	{"INSUFFICIENT_B_AMOUNT", types.ErrSlippageExceeded},
	{"INSUFFICIENT_LIQUIDITY_MINTED", types.ErrInsufficientLiquidityMinted},
	{"INSUFFICIENT_LIQUIDITY_BURNED", types.ErrInsufficientLiquidity},
	{"INSUFFICIENT_LIQUIDITY", types.ErrInsufficientLiquidity},
	{"INSUFFICIENT_INPUT_AMOUNT", types.ErrInsufficientInputAmount},
	{"INSUFFICIENT_AMOUNT", types.ErrInsufficientInputAmount},
	{"Router: EXPIRED", types.ErrDeadlineExpired},
	{"UniswapV2: K", types.ErrPriceImpactTooHigh},
	{"INVALID_PATH", types.ErrNoRouteAvailable},
	{"IDENTICAL_ADDRESSES", types.ErrIdenticalTokens},
	{"TRANSFER_FROM_FAILED", types.ErrInsufficientAllowance},
	{"insufficient allowance", types.ErrInsufficientAllowance},
	{"exceeds allowance", types.ErrInsufficientAllowance},
	{"insufficient funds", types.ErrInsufficientBalance},
	{"exceeds balance", types.ErrInsufficientBalance},
	{"user rejected", types.ErrUserRejected},
	{"user denied", types.ErrUserRejected},
}

// ClassifyError maps a failed call or transaction onto the error taxonomy,
// keeping the original error in the chain. Errors already in the taxonomy
// and context errors pass through unchanged. Anything unrecognized becomes
// ErrTransactionFailed.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if types.Known(err) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, p := range revertPatterns {
		if strings.Contains(msg, strings.ToLower(p.substr)) {
			return fmt.Errorf("%w: %w", p.err, err)
		}
	}
	return fmt.Errorf("%w: %w", types.ErrTransactionFailed, err)
}

// IsRevert reports whether the node rejected the call on execution rather
// than failing to answer
func IsRevert(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
