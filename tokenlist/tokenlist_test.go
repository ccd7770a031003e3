package tokenlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wxrp = types.Token{
	Address:  common.HexToAddress("0x00000000000000000000000000000000000000e0"),
	Symbol:   "WXRP",
	Name:     "Wrapped XRP",
	Decimals: 18,
}

const listJSON = `{"tokens":[
	{"chainId":1440000,"address":"0x00000000000000000000000000000000000000aa","name":"USD Coin","symbol":"USDC","decimals":6},
	{"chainId":1,"address":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48","name":"USD Coin","symbol":"USDC","decimals":6},
	{"chainId":1440000,"address":"0x00000000000000000000000000000000000000bb","name":"Ripple USD","symbol":"RLUSD","decimals":18}
]}`

func newList() *List {
	return New(XRPLEVMChainID, types.Token{Symbol: NativeSymbol, Name: "XRP", Decimals: 18}, wxrp)
}

func TestBuiltins(t *testing.T) {
	l := newList()

	xrp, ok := l.BySymbol("xrp")
	require.True(t, ok)
	assert.True(t, xrp.IsNative())

	w, ok := l.ByAddress(wxrp.Address)
	require.True(t, ok)
	assert.Equal(t, "WXRP", w.Symbol)
}

func TestLoadReaderFiltersChain(t *testing.T) {
	l := newList()
	added, err := l.LoadReader(strings.NewReader(listJSON))
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	usdc, ok := l.BySymbol("USDC")
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000aa"), usdc.Address)
	assert.Equal(t, uint8(6), usdc.Decimals)

	_, ok = l.ByAddress(common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"))
	assert.False(t, ok)
	assert.Len(t, l.All(), 4)
	assert.Equal(t, "RLUSD", l.All()[0].Symbol)
}

func TestLoadReaderInvalid(t *testing.T) {
	l := newList()
	_, err := l.LoadReader(strings.NewReader("{"))
	assert.Error(t, err)

	_, err = l.LoadReader(strings.NewReader(`{"tokens":[{"chainId":1440000,"address":"nope","symbol":"BAD"}]}`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(listJSON), 0o600))

	l := newList()
	added, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listJSON))
	}))
	defer srv.Close()

	l = newList()
	added, err = l.Load(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	_, err = l.Load(context.Background(), filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	l := newList()
	_, err := l.LoadReader(strings.NewReader(listJSON))
	require.NoError(t, err)

	tok, ok, err := l.Resolve("usdc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "USDC", tok.Symbol)

	tok, ok, err = l.Resolve("0x00000000000000000000000000000000000000bb")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "RLUSD", tok.Symbol)

	tok, ok, err = l.Resolve("0x00000000000000000000000000000000000000cc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000cc"), tok.Address)

	_, _, err = l.Resolve("NOPE")
	assert.Error(t, err)

	assert.Equal(t, "WXRP", l.Symbols()[wxrp.Address])
}
