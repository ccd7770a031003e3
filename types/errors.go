package types

import "errors"

// Errors surfaced to users. Wrap them with fmt.Errorf("...: %w") and test with errors.Is.
var (
	ErrInsufficientLiquidity       = errors.New("insufficient liquidity")
	ErrNoRouteAvailable            = errors.New("no route available")
	ErrInsufficientAllowance       = errors.New("insufficient allowance")
	ErrSlippageExceeded            = errors.New("slippage exceeded")
	ErrIdenticalTokens             = errors.New("identical tokens")
	ErrDeadlineExpired             = errors.New("deadline expired")
	ErrInsufficientInputAmount     = errors.New("insufficient input amount")
	ErrInsufficientOutputAmount    = errors.New("insufficient output amount")
	ErrInsufficientBalance         = errors.New("insufficient balance")
	ErrPriceImpactTooHigh          = errors.New("price impact too high")
	ErrUserRejected                = errors.New("user rejected transaction")
	ErrPoolNotInitialized          = errors.New("pool not initialized")
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	ErrTransactionFailed           = errors.New("transaction failed")
)

var userMessages = []struct {
	err error
	msg string
}{
	{ErrSlippageExceeded, "Price moved unfavorably. Try increasing slippage tolerance."},
	{ErrNoRouteAvailable, "No route available for this token pair."},
	{ErrInsufficientLiquidity, "Insufficient liquidity for this trade."},
	{ErrInsufficientAllowance, "Token approval required before this transaction."},
	{ErrIdenticalTokens, "Select two different tokens."},
	{ErrDeadlineExpired, "Transaction deadline expired. Please try again."},
	{ErrInsufficientInputAmount, "Input amount too small."},
	{ErrInsufficientOutputAmount, "Output amount too small."},
	{ErrInsufficientBalance, "Insufficient balance to cover amount and gas."},
	{ErrPriceImpactTooHigh, "Trade would cause too much price impact."},
	{ErrUserRejected, "Transaction rejected."},
	{ErrPoolNotInitialized, "This pool has no liquidity yet. You set the initial price."},
	{ErrInsufficientLiquidityMinted, "Deposit too small to mint liquidity tokens."},
}

// UserMessage turns an error into the short message shown to users.
// Unknown errors fall back to a generic failure message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Transaction failed."
}

// Known reports whether err wraps one of the errors above
func Known(err error) bool {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return errors.Is(err, ErrTransactionFailed)
}
