package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/types"
)

// ReserveSource reads pair reserves
type ReserveSource interface {
	// Reserves returns the snapshot for the pair of tokenA and tokenB. A pool
	// that was never created comes back with zero reserves, not an error.
	Reserves(ctx context.Context, tokenA, tokenB common.Address) (*types.ReservePair, error)
}

// PoolReader reads the token and LP state needed to preview liquidity
// operations
type PoolReader interface {
	ReserveSource

	// PairFor returns the pair address for two tokens, or the zero address
	PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)

	// TotalSupply returns the LP tokens outstanding for pair
	TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error)

	// BalanceOf returns the balance of token held by owner
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)

	// Allowance returns how much of token spender may move for owner
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)

	// TokenInfo returns the token metadata
	TokenInfo(ctx context.Context, token common.Address) (types.Token, error)
}

// AmountsQuoter asks the router for amounts along a path
type AmountsQuoter interface {
	GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
	GetAmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error)
}

// RouterProvider defines an interface for exchanges that provide router contracts
type RouterProvider interface {
	GetRouterAddress() common.Address
}

// Exchange represents a decentralized exchange
type Exchange interface {
	// GetName returns the exchange name
	GetName() string

	PoolReader
	AmountsQuoter
	RouterProvider
}
