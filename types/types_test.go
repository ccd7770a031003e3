package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlippageTolerance(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		bps     int64
		wantErr bool
	}{
		{name: "preset", input: "0.5", bps: 50},
		{name: "percent sign", input: "1%", bps: 100},
		{name: "tenth", input: " 0.1 ", bps: 10},
		{name: "zero", input: "0", bps: 0},
		{name: "too fine", input: "0.125", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "above maximum", input: "51", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSlippage(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bps, s.BasisPoints())
		})
	}

	assert.Equal(t, "0.5%", DefaultSlippage.String())
	assert.True(t, SlippagePresets[2].Percent().Equal(decimal.NewFromInt(1)))
}

func TestSlippageBounds(t *testing.T) {
	amount := big.NewInt(1000)
	assert.Equal(t, int64(995), DefaultSlippage.MinimumAmount(amount).Int64())
	assert.Equal(t, int64(1005), DefaultSlippage.MaximumAmount(amount).Int64())

	// 19 * 0.995 = 18.905 -> 18, 19 * 1.005 = 19.095 -> 20
	assert.Equal(t, int64(18), DefaultSlippage.MinimumAmount(big.NewInt(19)).Int64())
	assert.Equal(t, int64(20), DefaultSlippage.MaximumAmount(big.NewInt(19)).Int64())

	none, err := SlippageFromBps(0)
	require.NoError(t, err)
	assert.Equal(t, int64(19), none.MinimumAmount(big.NewInt(19)).Int64())
}

func TestReservePair(t *testing.T) {
	pair := common.HexToAddress("0x01")
	rp := &ReservePair{Pair: pair, Reserve0: big.NewInt(100), Reserve1: big.NewInt(300), AIsToken0: true}
	require.NoError(t, rp.Validate())
	assert.True(t, rp.Exists())

	a, b := rp.Oriented()
	assert.Equal(t, int64(100), a.Int64())
	assert.Equal(t, int64(300), b.Int64())

	rp.AIsToken0 = false
	a, b = rp.Oriented()
	assert.Equal(t, int64(300), a.Int64())
	assert.Equal(t, int64(100), b.Int64())

	empty := EmptyReservePair(common.HexToAddress("0x02"), common.HexToAddress("0x03"), true)
	require.NoError(t, empty.Validate())
	assert.False(t, empty.Exists())

	broken := &ReservePair{Pair: pair, Reserve0: big.NewInt(0), Reserve1: big.NewInt(5)}
	assert.ErrorIs(t, broken.Validate(), ErrInsufficientLiquidity)
}

func TestReservePairFingerprint(t *testing.T) {
	pair := common.HexToAddress("0x01")
	a := &ReservePair{Pair: pair, Reserve0: big.NewInt(100), Reserve1: big.NewInt(300)}
	b := &ReservePair{Pair: pair, Reserve0: big.NewInt(100), Reserve1: big.NewInt(300), BlockNumber: 9}
	c := &ReservePair{Pair: pair, Reserve0: big.NewInt(1003), Reserve1: big.NewInt(0)}
	d := &ReservePair{Pair: pair, Reserve0: big.NewInt(100), Reserve1: big.NewInt(3000)}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())

	assert.Equal(t, CombineFingerprints(1, 2), CombineFingerprints(1, 2))
	assert.NotEqual(t, CombineFingerprints(1, 2), CombineFingerprints(2, 1))
}

func TestTxRequestJSON(t *testing.T) {
	tx := TxRequest{
		To:     common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Data:   []byte{0xd0, 0xe3, 0x0d, 0xb0},
		Value:  big.NewInt(255),
		Method: "deposit",
	}

	raw, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"to":"0x00000000000000000000000000000000000000aa","data":"0xd0e30db0","value":"0xff","method":"deposit"}`, string(raw))

	var decoded TxRequest
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, tx.To, decoded.To)
	assert.Equal(t, 0, tx.Value.Cmp(decoded.Value))

	msg := tx.CallMsg()
	assert.Equal(t, tx.To, *msg.To)
	assert.Equal(t, tx.Data, msg.Data)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Transaction failed.", UserMessage(fmt.Errorf("boom")))
	assert.Equal(t, "Select two different tokens.", UserMessage(fmt.Errorf("deposit: %w", ErrIdenticalTokens)))

	// route failures name the route even when a hop ran dry
	err := fmt.Errorf("%w: hop 1: %w", ErrNoRouteAvailable, ErrInsufficientLiquidity)
	assert.Equal(t, "No route available for this token pair.", UserMessage(err))
}

func TestTokenAmount(t *testing.T) {
	usdc := Token{Address: common.HexToAddress("0x0b"), Symbol: "USDC", Decimals: 6}
	src := big.NewInt(1_500_000)
	amount := NewTokenAmount(usdc, src)
	src.SetInt64(0)

	assert.Equal(t, "1.5 USDC", amount.String())
	assert.False(t, usdc.IsNative())
	assert.True(t, Token{Symbol: "XRP"}.IsNative())
}
