// Package tokenlist resolves user-supplied token symbols and addresses to
// token metadata.
package tokenlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/types"
)

// XRPL EVM mainnet defaults
const (
	XRPLEVMChainID = 1440000
	NativeSymbol   = "XRP"
)

// entry is one token of a standard token list document
type entry struct {
	ChainID  uint64 `json:"chainId"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

type document struct {
	Tokens []entry `json:"tokens"`
}

// List is a set of known tokens for one chain
type List struct {
	chainID   uint64
	mu        sync.RWMutex
	bySymbol  map[string]types.Token
	byAddress map[common.Address]types.Token
}

// New creates a list for chainID seeded with the native asset and its
// wrapped token
func New(chainID uint64, native, wrapped types.Token) *List {
	l := &List{
		chainID:   chainID,
		bySymbol:  make(map[string]types.Token),
		byAddress: make(map[common.Address]types.Token),
	}
	native.Address = types.NativeAddress
	l.Add(native)
	if wrapped.Address != (common.Address{}) {
		l.Add(wrapped)
	}
	return l
}

// Add registers token, replacing any token with the same address
func (l *List) Add(token types.Token) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byAddress[token.Address] = token
	if token.Symbol != "" {
		key := strings.ToUpper(token.Symbol)
		if _, taken := l.bySymbol[key]; !taken {
			l.bySymbol[key] = token
		}
	}
}

// Load reads a token list document from a file path or an http(s) URL and
// adds the tokens of this chain. It returns how many were added.
func (l *List) Load(ctx context.Context, location string) (int, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return 0, fmt.Errorf("failed to build token list request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch token list: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return 0, fmt.Errorf("failed to fetch token list: %s", resp.Status)
		}
		return l.LoadReader(resp.Body)
	}

	f, err := os.Open(location)
	if err != nil {
		return 0, fmt.Errorf("failed to open token list: %w", err)
	}
	defer f.Close()
	return l.LoadReader(f)
}

// LoadReader decodes a token list document and adds the tokens of this chain
func (l *List) LoadReader(r io.Reader) (int, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("failed to decode token list: %w", err)
	}

	added := 0
	for _, e := range doc.Tokens {
		if e.ChainID != l.chainID {
			continue
		}
		if !common.IsHexAddress(e.Address) {
			return added, fmt.Errorf("token %s has invalid address %q", e.Symbol, e.Address)
		}
		l.Add(types.Token{
			Address:  common.HexToAddress(e.Address),
			Symbol:   e.Symbol,
			Name:     e.Name,
			Decimals: e.Decimals,
			LogoURI:  e.LogoURI,
		})
		added++
	}
	return added, nil
}

// BySymbol finds a token by symbol, ignoring case
func (l *List) BySymbol(symbol string) (types.Token, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// ByAddress finds a token by address
func (l *List) ByAddress(addr common.Address) (types.Token, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.byAddress[addr]
	return t, ok
}

// Resolve accepts a symbol or a hex address. Unknown addresses are returned
// with ok false so the caller can fetch their metadata on chain.
func (l *List) Resolve(s string) (token types.Token, ok bool, err error) {
	if common.IsHexAddress(s) {
		addr := common.HexToAddress(s)
		if t, found := l.ByAddress(addr); found {
			return t, true, nil
		}
		return types.Token{Address: addr}, false, nil
	}
	if t, found := l.BySymbol(s); found {
		return t, true, nil
	}
	return types.Token{}, false, fmt.Errorf("unknown token %q", s)
}

// Symbols maps every known address to its symbol
func (l *List) Symbols() map[common.Address]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[common.Address]string, len(l.byAddress))
	for addr, t := range l.byAddress {
		out[addr] = t.Symbol
	}
	return out
}

// All returns the tokens sorted by symbol
func (l *List) All() []types.Token {
	l.mu.RLock()
	out := make([]types.Token, 0, len(l.byAddress))
	for _, t := range l.byAddress {
		out = append(out, t)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.ToUpper(out[i].Symbol) < strings.ToUpper(out[j].Symbol)
	})
	return out
}
