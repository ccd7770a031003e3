package trade

import (
	"context"
	"math/big"
	"testing"

	"github.com/pr1mer-tech/hammy/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewDeposit(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, newFake(), Options{})

	t.Run("counterpart from side A", func(t *testing.T) {
		p, err := svc.PreviewDeposit(ctx, DepositRequest{TokenA: tokenA, TokenB: tokenB, AmountA: big.NewInt(100), Side: SideA})
		require.NoError(t, err)
		assert.False(t, p.Bootstrap)
		assert.Equal(t, pairAB, p.Pair)
		assert.Equal(t, "200", p.AmountB.String())
		assert.Equal(t, "9.09", p.PoolShare.String())
		assert.Equal(t, "141", p.LiquidityMinted.String())
	})

	t.Run("counterpart from side B", func(t *testing.T) {
		p, err := svc.PreviewDeposit(ctx, DepositRequest{TokenA: tokenA, TokenB: tokenB, AmountB: big.NewInt(200), Side: SideB})
		require.NoError(t, err)
		assert.Equal(t, "100", p.AmountA.String())
	})

	t.Run("request order does not matter", func(t *testing.T) {
		p, err := svc.PreviewDeposit(ctx, DepositRequest{TokenA: tokenB, TokenB: tokenA, AmountA: big.NewInt(200), Side: SideA})
		require.NoError(t, err)
		assert.Equal(t, "100", p.AmountB.String())
		assert.Equal(t, "141", p.LiquidityMinted.String())
	})

	t.Run("native side uses the wrapped pool", func(t *testing.T) {
		p, err := svc.PreviewDeposit(ctx, DepositRequest{TokenA: native, TokenB: tokenA, AmountA: big.NewInt(50), Side: SideA})
		require.NoError(t, err)
		assert.Equal(t, pairAW, p.Pair)
		assert.Equal(t, "50", p.AmountB.String())
	})
}

func TestPreviewDepositEmptyPool(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, newFake(), Options{})

	t.Run("small first deposit", func(t *testing.T) {
		p, err := svc.PreviewDeposit(ctx, DepositRequest{TokenA: tokenA, TokenB: tokenC, AmountA: big.NewInt(100), AmountB: big.NewInt(50)})
		require.NoError(t, err)
		assert.True(t, p.Bootstrap)
		assert.True(t, p.PoolShare.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, "0", p.LiquidityMinted.String())
	})

	t.Run("first deposit mints sqrt minus the locked minimum", func(t *testing.T) {
		p, err := svc.PreviewDeposit(ctx, DepositRequest{TokenA: tokenA, TokenB: tokenC, AmountA: big.NewInt(1_000_000), AmountB: big.NewInt(4_000_000)})
		require.NoError(t, err)
		assert.Equal(t, "1999000", p.LiquidityMinted.String())
		assert.Equal(t, "4000000", p.AmountB.String())
	})

	t.Run("one amount cannot set a price", func(t *testing.T) {
		_, err := svc.PreviewDeposit(ctx, DepositRequest{TokenA: tokenA, TokenB: tokenC, AmountA: big.NewInt(100)})
		assert.ErrorIs(t, err, types.ErrPoolNotInitialized)
	})
}

func TestPreviewDepositIdenticalTokens(t *testing.T) {
	fake := newFake()
	svc := newService(t, fake, Options{})

	for _, pair := range [][2]types.Token{{tokenA, tokenA}, {native, wrapped}} {
		_, err := svc.PreviewDeposit(context.Background(), DepositRequest{TokenA: pair[0], TokenB: pair[1], AmountA: big.NewInt(1), AmountB: big.NewInt(1)})
		assert.ErrorIs(t, err, types.ErrIdenticalTokens)
	}
	assert.Zero(t, fake.TotalCalls())
}

func TestPreviewWithdraw(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	fake.SetBalance(pairAB, owner, big.NewInt(707))
	svc := newService(t, fake, Options{})

	t.Run("half", func(t *testing.T) {
		p, err := svc.PreviewWithdraw(ctx, owner, tokenA, tokenB, decimal.NewFromInt(50), types.DefaultSlippage)
		require.NoError(t, err)
		assert.Equal(t, "353", p.Liquidity.String())
		assert.Equal(t, "249", p.AmountA.String())
		assert.Equal(t, "499", p.AmountB.String())
		assert.Equal(t, "247", p.AmountAMin.String())
		assert.Equal(t, "496", p.AmountBMin.String())
	})

	t.Run("everything in reverse order", func(t *testing.T) {
		p, err := svc.PreviewWithdraw(ctx, owner, tokenB, tokenA, decimal.NewFromInt(100), types.DefaultSlippage)
		require.NoError(t, err)
		assert.Equal(t, "707", p.Liquidity.String())
		assert.Equal(t, "1000", p.AmountA.String())
		assert.Equal(t, "500", p.AmountB.String())
	})

	tests := []struct {
		name    string
		a, b    types.Token
		percent decimal.Decimal
		want    error
	}{
		{"no balance", tokenA, wrapped, decimal.NewFromInt(10), types.ErrInsufficientBalance},
		{"no pool", tokenA, tokenC, decimal.NewFromInt(10), types.ErrPoolNotInitialized},
		{"identical", native, wrapped, decimal.NewFromInt(10), types.ErrIdenticalTokens},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PreviewWithdraw(ctx, owner, tt.a, tt.b, tt.percent, types.DefaultSlippage)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	for _, pct := range []int64{0, -5, 101} {
		_, err := svc.PreviewWithdraw(ctx, owner, tokenA, tokenB, decimal.NewFromInt(pct), types.DefaultSlippage)
		assert.Error(t, err, "percent %d", pct)
	}
}

func TestPositions(t *testing.T) {
	fake := newFake()
	fake.SetBalance(pairAB, owner, big.NewInt(707))
	svc := newService(t, fake, Options{})

	positions, err := svc.Positions(context.Background(), owner, []PoolTokens{
		{A: tokenA, B: tokenB},
		{A: tokenA, B: tokenC},
		{A: native, B: tokenA},
	})
	require.NoError(t, err)
	require.Len(t, positions, 3)

	held := positions[0]
	assert.Equal(t, pairAB, held.Pair)
	assert.Equal(t, "50", held.Share.String())
	assert.Equal(t, "500", held.AmountA.String())
	assert.Equal(t, "1000", held.AmountB.String())

	assert.Zero(t, positions[1].Balance.Sign())
	assert.True(t, positions[1].Share.IsZero())
	assert.Equal(t, pairAW, positions[2].Pair)
	assert.Zero(t, positions[2].AmountA.Sign())

	_, err = svc.Positions(context.Background(), owner, []PoolTokens{{A: native, B: wrapped}})
	assert.ErrorIs(t, err, types.ErrIdenticalTokens)
}
