package types

import (
	"encoding/binary"
	"math/big"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// NativeAddress stands in for the chain's native asset, which has no contract.
var NativeAddress = common.Address{}

// Token describes an ERC20 token or the native asset
type Token struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Decimals uint8          `json:"decimals"`
	LogoURI  string         `json:"logoURI,omitempty"`
}

// IsNative reports whether the token is the chain's native asset
func (t Token) IsNative() bool {
	return t.Address == NativeAddress
}

func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}

// TokenAmount is a magnitude in the token's smallest unit
type TokenAmount struct {
	Token  Token
	Amount *big.Int
}

// NewTokenAmount copies amount so later mutation by the caller has no effect
func NewTokenAmount(token Token, amount *big.Int) TokenAmount {
	if amount == nil {
		amount = new(big.Int)
	}
	return TokenAmount{Token: token, Amount: new(big.Int).Set(amount)}
}

// Decimal returns the amount scaled down by the token decimals
func (a TokenAmount) Decimal() decimal.Decimal {
	if a.Amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.Amount, -int32(a.Token.Decimals))
}

func (a TokenAmount) String() string {
	return a.Decimal().String() + " " + a.Token.String()
}

// ReservePair is a snapshot of a pair's reserves in canonical order.
// AIsToken0 tells whether the first token of the request is the pair's token0.
type ReservePair struct {
	Pair        common.Address
	Token0      common.Address
	Token1      common.Address
	Reserve0    *big.Int
	Reserve1    *big.Int
	AIsToken0   bool
	BlockNumber uint64
}

// EmptyReservePair describes a pool that does not exist yet
func EmptyReservePair(token0, token1 common.Address, aIsToken0 bool) *ReservePair {
	return &ReservePair{
		Token0:    token0,
		Token1:    token1,
		Reserve0:  new(big.Int),
		Reserve1:  new(big.Int),
		AIsToken0: aIsToken0,
	}
}

// Exists reports whether the pool is deployed and holds liquidity
func (r *ReservePair) Exists() bool {
	return r.Pair != (common.Address{}) && r.Reserve0.Sign() > 0 && r.Reserve1.Sign() > 0
}

// Oriented returns the reserves in request order (token A, token B)
func (r *ReservePair) Oriented() (reserveA, reserveB *big.Int) {
	if r.AIsToken0 {
		return r.Reserve0, r.Reserve1
	}
	return r.Reserve1, r.Reserve0
}

// Validate checks that reserves are both zero or both positive
func (r *ReservePair) Validate() error {
	if r.Reserve0 == nil || r.Reserve1 == nil {
		return ErrInsufficientLiquidity
	}
	if r.Reserve0.Sign() < 0 || r.Reserve1.Sign() < 0 {
		return ErrInsufficientLiquidity
	}
	if (r.Reserve0.Sign() == 0) != (r.Reserve1.Sign() == 0) {
		return ErrInsufficientLiquidity
	}
	return nil
}

// Fingerprint identifies the snapshot. Two snapshots with the same
// fingerprint produce the same quotes.
func (r *ReservePair) Fingerprint() uint64 {
	d := xxhash.New()
	_, _ = d.Write(r.Pair.Bytes())
	_, _ = d.Write(common.BigToHash(r.Reserve0).Bytes())
	_, _ = d.Write(common.BigToHash(r.Reserve1).Bytes())
	return d.Sum64()
}

// CombineFingerprints folds per-hop fingerprints into one value for a path
func CombineFingerprints(prints ...uint64) uint64 {
	buf := make([]byte, 8*len(prints))
	for i, p := range prints {
		binary.BigEndian.PutUint64(buf[i*8:], p)
	}
	return xxhash.Sum64(buf)
}

// TradeKind tells which side of a swap the user fixed
type TradeKind int

const (
	ExactIn TradeKind = iota
	ExactOut
)

func (k TradeKind) String() string {
	if k == ExactOut {
		return "exact_out"
	}
	return "exact_in"
}

// QuoteResult is a swap quote computed from one reserve snapshot
type QuoteResult struct {
	Kind        TradeKind
	TokenIn     Token
	TokenOut    Token
	AmountIn    *big.Int
	AmountOut   *big.Int
	Path        []common.Address
	Amounts     []*big.Int
	PriceImpact decimal.Decimal
	// Wrap marks a 1:1 native/wrapped conversion that bypasses the AMM
	Wrap bool
	// Snapshot fingerprints the reserves the quote was computed from
	Snapshot uint64
}

// PathString renders the route as symbols when known
func (q *QuoteResult) PathString(symbols map[common.Address]string) string {
	parts := make([]string, len(q.Path))
	for i, addr := range q.Path {
		if s, ok := symbols[addr]; ok {
			parts[i] = s
			continue
		}
		parts[i] = addr.Hex()
	}
	return strings.Join(parts, " -> ")
}
