package testutils

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pr1mer-tech/hammy/amm"
	"github.com/pr1mer-tech/hammy/dex/uniswap"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/stretchr/testify/require"
)

// Addresses used by the fake deployment
var (
	FactoryAddress = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	RouterAddress  = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	WrappedAddress = common.HexToAddress("0x00000000000000000000000000000000000000e0")
)

// CreateTestKey returns a fresh key and its address
func CreateTestKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

// BigInt parses a base-10 integer or fails the test
func BigInt(t *testing.T, s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "invalid integer %q", s)
	return v
}

type fakePool struct {
	token0, token1     common.Address
	reserve0, reserve1 *big.Int
}

type fakeToken struct {
	info       types.Token
	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[[2]common.Address]*big.Int
}

// FakeBackend answers contract reads for a small in-memory Uniswap V2
// deployment. Calls are dispatched on the target address and selector.
type FakeBackend struct {
	mu sync.Mutex

	block  uint64
	pairs  map[[2]common.Address]common.Address
	pools  map[common.Address]*fakePool
	tokens map[common.Address]*fakeToken
	native map[common.Address]*big.Int
	calls  map[string]int

	transient   int
	transientEr error
	reverts     map[string]error

	// RouterAmounts replaces the router's own pricing when set
	RouterAmounts func(method string, amount *big.Int, path []common.Address) ([]*big.Int, error)
	// GasEstimate is returned by EstimateGas
	GasEstimate uint64
	// GasPrice is returned by SuggestGasPrice
	GasPrice *big.Int
}

var _ uniswap.Backend = (*FakeBackend)(nil)

// NewFakeBackend creates an empty deployment at block 100
func NewFakeBackend() *FakeBackend {
	f := &FakeBackend{
		block:       100,
		pairs:       make(map[[2]common.Address]common.Address),
		pools:       make(map[common.Address]*fakePool),
		tokens:      make(map[common.Address]*fakeToken),
		native:      make(map[common.Address]*big.Int),
		calls:       make(map[string]int),
		reverts:     make(map[string]error),
		GasEstimate: 100000,
		GasPrice:    big.NewInt(1_000_000_000),
	}
	f.AddToken(types.Token{Address: WrappedAddress, Symbol: "WXRP", Name: "Wrapped XRP", Decimals: 18})
	return f
}

// AddToken registers an ERC20
func (f *FakeBackend) AddToken(info types.Token) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[info.Address] = &fakeToken{
		info:       info,
		supply:     new(big.Int),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[[2]common.Address]*big.Int),
	}
}

// AddPool deploys a pair at addr holding reserveA of tokenA and reserveB of
// tokenB, with totalSupply LP tokens outstanding
func (f *FakeBackend) AddPool(addr, tokenA, tokenB common.Address, reserveA, reserveB, totalSupply *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pool := &fakePool{token0: tokenA, token1: tokenB, reserve0: reserveA, reserve1: reserveB}
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) > 0 {
		pool = &fakePool{token0: tokenB, token1: tokenA, reserve0: reserveB, reserve1: reserveA}
	}
	f.pools[addr] = pool
	f.pairs[[2]common.Address{pool.token0, pool.token1}] = addr
	f.tokens[addr] = &fakeToken{
		info:       types.Token{Address: addr, Symbol: "UNI-V2", Name: "Uniswap V2", Decimals: 18},
		supply:     new(big.Int).Set(totalSupply),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[[2]common.Address]*big.Int),
	}
}

// SetReserves replaces the reserves of a deployed pair, in token0/token1 order
func (f *FakeBackend) SetReserves(pair common.Address, reserve0, reserve1 *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pools[pair].reserve0 = reserve0
	f.pools[pair].reserve1 = reserve1
	f.block++
}

// SetBalance sets the ERC20 (or LP) balance of owner
func (f *FakeBackend) SetBalance(token, owner common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token].balances[owner] = amount
}

// SetAllowance sets how much spender may move for owner
func (f *FakeBackend) SetAllowance(token, owner, spender common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token].allowances[[2]common.Address{owner, spender}] = amount
}

// SetNativeBalance sets the account balance of owner
func (f *FakeBackend) SetNativeBalance(owner common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.native[owner] = amount
}

// FailNext makes the next n calls fail with err before reaching the contracts
func (f *FakeBackend) FailNext(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transient = n
	f.transientEr = err
}

// Revert makes every call to method fail with err
func (f *FakeBackend) Revert(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverts[method] = err
}

// Calls returns how many times method was called
func (f *FakeBackend) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of contract calls made
func (f *FakeBackend) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// BlockNumber returns the fake chain height
func (f *FakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["blockNumber"]++
	if err := f.takeFailure(); err != nil {
		return 0, err
	}
	return f.block, nil
}

// BalanceAt returns the native balance of account
func (f *FakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["balance"]++
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	return valueOrZero(f.native[account]), nil
}

// CodeAt reports code for every contract the fake knows about
func (f *FakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if contract == FactoryAddress || contract == RouterAddress {
		return []byte{0x60}, nil
	}
	if _, ok := f.tokens[contract]; ok {
		return []byte{0x60}, nil
	}
	return nil, nil
}

// SuggestGasPrice returns GasPrice
func (f *FakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["gasPrice"]++
	return new(big.Int).Set(f.GasPrice), nil
}

// EstimateGas runs the call and returns GasEstimate when it succeeds
func (f *FakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if _, err := f.CallContract(ctx, call, nil); err != nil {
		return 0, err
	}
	return f.GasEstimate, nil
}

// CallContract executes a read against the in-memory state
func (f *FakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if call.To == nil {
		return nil, fmt.Errorf("contract creation not supported")
	}
	name := uniswap.MethodName(call.Data)

	f.mu.Lock()
	f.calls[name]++
	if err := f.takeFailure(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if err := f.reverts[name]; err != nil {
		f.mu.Unlock()
		return nil, err
	}
	hook := f.RouterAmounts
	f.mu.Unlock()

	to := *call.To
	switch {
	case to == FactoryAddress:
		return f.callFactory(call.Data)
	case to == RouterAddress:
		return f.callRouter(call, hook)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if pool, ok := f.pools[to]; ok {
		if out, handled, err := f.callPair(pool, call.Data); handled {
			return out, err
		}
	}
	if token, ok := f.tokens[to]; ok {
		return f.callToken(token, call)
	}
	return nil, nil
}

func (f *FakeBackend) takeFailure() error {
	if f.transient > 0 {
		f.transient--
		return f.transientEr
	}
	return nil
}

func (f *FakeBackend) callFactory(data []byte) ([]byte, error) {
	method, args, err := decode(uniswap.FactoryABI, data)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch method.Name {
	case "getPair":
		a, b := args[0].(common.Address), args[1].(common.Address)
		if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
			a, b = b, a
		}
		return method.Outputs.Pack(f.pairs[[2]common.Address{a, b}])
	case "allPairsLength":
		return method.Outputs.Pack(big.NewInt(int64(len(f.pairs))))
	}
	return nil, fmt.Errorf("execution reverted: unsupported factory method %s", method.Name)
}

func (f *FakeBackend) callPair(pool *fakePool, data []byte) ([]byte, bool, error) {
	method, _, err := decode(uniswap.PairABI, data)
	if err != nil {
		return nil, false, nil
	}
	var out []byte
	switch method.Name {
	case "getReserves":
		out, err = method.Outputs.Pack(pool.reserve0, pool.reserve1, uint32(f.block))
	case "token0":
		out, err = method.Outputs.Pack(pool.token0)
	case "token1":
		out, err = method.Outputs.Pack(pool.token1)
	default:
		return nil, false, nil
	}
	return out, true, err
}

func (f *FakeBackend) callToken(token *fakeToken, call ethereum.CallMsg) ([]byte, error) {
	method, args, err := decode(uniswap.ERC20ABI, call.Data)
	if err != nil {
		if method, _, werr := decode(uniswap.WrappedABI, call.Data); werr == nil {
			return method.Outputs.Pack()
		}
		return nil, err
	}
	switch method.Name {
	case "balanceOf":
		return method.Outputs.Pack(valueOrZero(token.balances[args[0].(common.Address)]))
	case "allowance":
		key := [2]common.Address{args[0].(common.Address), args[1].(common.Address)}
		return method.Outputs.Pack(valueOrZero(token.allowances[key]))
	case "totalSupply":
		return method.Outputs.Pack(token.supply)
	case "decimals":
		return method.Outputs.Pack(token.info.Decimals)
	case "symbol":
		return method.Outputs.Pack(token.info.Symbol)
	case "name":
		return method.Outputs.Pack(token.info.Name)
	case "approve":
		return method.Outputs.Pack(true)
	}
	return nil, fmt.Errorf("execution reverted: unsupported token method %s", method.Name)
}

func (f *FakeBackend) callRouter(call ethereum.CallMsg, hook func(string, *big.Int, []common.Address) ([]*big.Int, error)) ([]byte, error) {
	method, args, err := decode(uniswap.RouterABI, call.Data)
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "factory":
		return method.Outputs.Pack(FactoryAddress)
	case "WETH":
		return method.Outputs.Pack(WrappedAddress)
	case "getAmountsOut", "getAmountsIn":
		amount := args[0].(*big.Int)
		path := args[1].([]common.Address)
		var amounts []*big.Int
		if hook != nil {
			amounts, err = hook(method.Name, amount, path)
		} else {
			amounts, err = f.routerAmounts(method.Name, amount, path)
		}
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(amounts)
	}
	// State-changing router calls succeed when simulated against the fake.
	return nil, nil
}

func (f *FakeBackend) routerAmounts(method string, amount *big.Int, path []common.Address) ([]*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(path) < 2 {
		return nil, errors.New("execution reverted: UniswapV2Library: INVALID_PATH")
	}
	hops := make([]amm.Hop, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		a, b := path[i], path[i+1]
		key := [2]common.Address{a, b}
		if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
			key = [2]common.Address{b, a}
		}
		pool, ok := f.pools[f.pairs[key]]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		hop := amm.Hop{TokenIn: a, TokenOut: b, ReserveIn: pool.reserve0, ReserveOut: pool.reserve1}
		if pool.token0 != a {
			hop.ReserveIn, hop.ReserveOut = pool.reserve1, pool.reserve0
		}
		hops[i] = hop
	}

	quoter, _ := amm.NewQuoter(amm.DefaultFee)
	var (
		amounts []*big.Int
		err     error
	)
	if method == "getAmountsOut" {
		amounts, err = quoter.QuoteOutputPath(amount, hops)
	} else {
		amounts, err = quoter.QuoteInputPath(amount, hops)
	}
	if err != nil {
		return nil, fmt.Errorf("execution reverted: UniswapV2Library: INSUFFICIENT_LIQUIDITY")
	}
	return amounts, nil
}

func decode(parsed abi.ABI, data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("short calldata")
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
