// Package trade composes the reserve reader and the AMM math into the
// operations a user invokes: quoting, previewing deposits and withdrawals,
// and building the transactions that carry them out.
package trade

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/amm"
	"github.com/pr1mer-tech/hammy/dex"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/pr1mer-tech/hammy/utils/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tune quoting
type Options struct {
	Fee amm.Fee
	// RouteBases are the intermediate tokens tried for two-hop routes.
	// Defaults to the wrapped native token.
	RouteBases []common.Address
	// CrossCheck asks the router for the same amounts and prefers its answer
	CrossCheck bool
	Metrics    *metrics.QuoteMetrics
	Logger     *zap.Logger
}

// Service answers quote and preview requests. Every call reads fresh
// reserves; nothing is recomputed in the background.
type Service struct {
	exchange   dex.Exchange
	quoter     *amm.Quoter
	wrapping   amm.Wrapping
	bases      []common.Address
	crossCheck bool
	metrics    *metrics.QuoteMetrics
	logger     *zap.Logger
}

// NewService creates a trade service on top of exchange
func NewService(exchange dex.Exchange, wrapping amm.Wrapping, opts Options) (*Service, error) {
	fee := opts.Fee
	if fee == (amm.Fee{}) {
		fee = amm.DefaultFee
	}
	quoter, err := amm.NewQuoter(fee)
	if err != nil {
		return nil, err
	}
	bases := opts.RouteBases
	if len(bases) == 0 && wrapping.Wrapped != (common.Address{}) {
		bases = []common.Address{wrapping.Wrapped}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		exchange:   exchange,
		quoter:     quoter,
		wrapping:   wrapping,
		bases:      bases,
		crossCheck: opts.CrossCheck,
		metrics:    opts.Metrics,
		logger:     logger,
	}, nil
}

// Wrapping returns the native asset mapping the service quotes with
func (s *Service) Wrapping() amm.Wrapping {
	return s.wrapping
}

// QuoteRequest fixes one side of a swap
type QuoteRequest struct {
	TokenIn  types.Token
	TokenOut types.Token
	// Amount is the input for ExactIn and the desired output for ExactOut
	Amount *big.Int
	Kind   types.TradeKind
}

type route struct {
	quote *types.QuoteResult
	hops  []amm.Hop
}

// Quote prices a swap. The direct pool is used when it can fill the trade,
// otherwise the best two-hop route through a base token.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (result *types.QuoteResult, err error) {
	start := time.Now()
	defer func() {
		s.observe(req.Kind, start, result, err)
	}()

	if req.Amount == nil || req.Amount.Sign() <= 0 {
		if req.Kind == types.ExactOut {
			return nil, types.ErrInsufficientOutputAmount
		}
		return nil, types.ErrInsufficientInputAmount
	}
	in, out := req.TokenIn.Address, req.TokenOut.Address
	if in == out {
		return nil, fmt.Errorf("%w: %s", types.ErrIdenticalTokens, req.TokenIn)
	}
	if s.wrapping.IsWrapPair(in, out) {
		return wrapQuote(req, s.wrapping), nil
	}

	var (
		best     *route
		lastErr  error
		tooSmall error
	)
	for i, path := range s.candidatePaths(in, out) {
		r, err := s.quotePath(ctx, req, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, types.ErrInsufficientOutputAmount) && tooSmall == nil {
				tooSmall = err
			}
			lastErr = err
			continue
		}
		if i == 0 {
			best = r
			break
		}
		if best == nil || better(req.Kind, r.quote, best.quote) {
			best = r
		}
	}
	if best == nil {
		if tooSmall != nil {
			return nil, tooSmall
		}
		if errors.Is(lastErr, types.ErrNoRouteAvailable) {
			return nil, lastErr
		}
		return nil, fmt.Errorf("%w: %s -> %s: %w", types.ErrNoRouteAvailable, req.TokenIn, req.TokenOut, lastErr)
	}

	if s.crossCheck {
		s.applyRouterAmounts(ctx, best)
	}
	return best.quote, nil
}

// candidatePaths lists the direct path first, then one path per base token
func (s *Service) candidatePaths(in, out common.Address) [][]common.Address {
	effIn, effOut := s.wrapping.Effective(in), s.wrapping.Effective(out)
	paths := [][]common.Address{{effIn, effOut}}
	for _, base := range s.bases {
		if base == effIn || base == effOut {
			continue
		}
		paths = append(paths, []common.Address{effIn, base, effOut})
	}
	return paths
}

func (s *Service) quotePath(ctx context.Context, req QuoteRequest, path []common.Address) (*route, error) {
	hops, prints, err := s.readHops(ctx, path)
	if err != nil {
		return nil, err
	}

	var amounts []*big.Int
	if req.Kind == types.ExactOut {
		amounts, err = s.quoter.QuoteInputPath(req.Amount, hops)
	} else {
		amounts, err = s.quoter.QuoteOutputPath(req.Amount, hops)
	}
	if err != nil {
		return nil, err
	}
	// the pair rejects swaps that pay out nothing
	if amounts[len(amounts)-1].Sign() == 0 {
		return nil, fmt.Errorf("%w: %s of %s buys nothing through %d hop(s)", types.ErrInsufficientOutputAmount, req.Amount, req.TokenIn, len(hops))
	}

	return &route{
		quote: &types.QuoteResult{
			Kind:        req.Kind,
			TokenIn:     req.TokenIn,
			TokenOut:    req.TokenOut,
			AmountIn:    amounts[0],
			AmountOut:   amounts[len(amounts)-1],
			Path:        path,
			Amounts:     amounts,
			PriceImpact: amm.PathPriceImpact(amounts, hops),
			Snapshot:    types.CombineFingerprints(prints...),
		},
		hops: hops,
	}, nil
}

// readHops reads every pool of path concurrently
func (s *Service) readHops(ctx context.Context, path []common.Address) ([]amm.Hop, []uint64, error) {
	hops := make([]amm.Hop, len(path)-1)
	prints := make([]uint64, len(path)-1)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < len(path)-1; i++ {
		g.Go(func() error {
			a, b := path[i], path[i+1]
			rp, err := s.exchange.Reserves(gctx, a, b)
			if err != nil {
				return fmt.Errorf("hop %d: %w", i, err)
			}
			if !rp.Exists() {
				return fmt.Errorf("%w: no pool for %s/%s", types.ErrNoRouteAvailable, a.Hex(), b.Hex())
			}
			hops[i] = amm.HopFromReserves(a, b, rp)
			prints[i] = rp.Fingerprint()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return hops, prints, nil
}

// applyRouterAmounts replaces the local amounts with the router's when they
// disagree. A failed router call keeps the local quote.
func (s *Service) applyRouterAmounts(ctx context.Context, r *route) {
	q := r.quote
	var (
		amounts []*big.Int
		err     error
	)
	if q.Kind == types.ExactOut {
		amounts, err = s.exchange.GetAmountsIn(ctx, q.AmountOut, q.Path)
	} else {
		amounts, err = s.exchange.GetAmountsOut(ctx, q.AmountIn, q.Path)
	}
	if err != nil {
		s.logger.Warn("Router cross-check failed", zap.Error(err))
		return
	}
	if len(amounts) != len(q.Amounts) || equalAmounts(amounts, q.Amounts) {
		return
	}

	s.logger.Warn("Router disagrees with local quote",
		zap.String("local_in", q.AmountIn.String()),
		zap.String("local_out", q.AmountOut.String()),
		zap.String("router_in", amounts[0].String()),
		zap.String("router_out", amounts[len(amounts)-1].String()))
	if s.metrics != nil {
		s.metrics.RouterMismatches.Inc()
	}

	q.Amounts = amounts
	q.AmountIn = amounts[0]
	q.AmountOut = amounts[len(amounts)-1]
	q.PriceImpact = amm.PathPriceImpact(amounts, r.hops)
}

func (s *Service) observe(kind types.TradeKind, start time.Time, result *types.QuoteResult, err error) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.Failures.WithLabelValues(metrics.Reason(err)).Inc()
		return
	}
	s.metrics.Quotes.WithLabelValues(kind.String()).Inc()
	s.metrics.Latency.Observe(time.Since(start).Seconds())
	s.metrics.PriceImpact.Observe(result.PriceImpact.InexactFloat64())
}

// wrapQuote converts 1:1 between the native asset and its wrapped token
func wrapQuote(req QuoteRequest, w amm.Wrapping) *types.QuoteResult {
	in := types.NewTokenAmount(req.TokenIn, req.Amount)
	out := types.NewTokenAmount(req.TokenOut, req.Amount)
	return &types.QuoteResult{
		Kind:        req.Kind,
		TokenIn:     req.TokenIn,
		TokenOut:    req.TokenOut,
		AmountIn:    in.Amount,
		AmountOut:   out.Amount,
		Path:        []common.Address{req.TokenIn.Address, req.TokenOut.Address},
		Amounts:     []*big.Int{in.Amount, out.Amount},
		PriceImpact: w.PriceImpact(in, out, nil, nil),
		Wrap:        true,
	}
}

// better reports whether a beats b for the trade kind
func better(kind types.TradeKind, a, b *types.QuoteResult) bool {
	if kind == types.ExactOut {
		return a.AmountIn.Cmp(b.AmountIn) < 0
	}
	return a.AmountOut.Cmp(b.AmountOut) > 0
}

func equalAmounts(a, b []*big.Int) bool {
	for i := range a {
		if a[i].Cmp(b[i]) != 0 {
			return false
		}
	}
	return true
}

// SwapPreview is a quote with the bounds the transaction will enforce
type SwapPreview struct {
	Quote    *types.QuoteResult
	Slippage types.SlippageTolerance
	// AmountOutMin is the least output accepted on chain
	AmountOutMin *big.Int
	// AmountInMax is the most input an exact-output trade may cost
	AmountInMax *big.Int
}

// PreviewSwap quotes req and applies slippage. Wraps are exact and get no
// tolerance.
func (s *Service) PreviewSwap(ctx context.Context, req QuoteRequest, slippage types.SlippageTolerance) (*SwapPreview, error) {
	q, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	preview := &SwapPreview{Quote: q, Slippage: slippage}
	if q.Wrap {
		preview.AmountOutMin = new(big.Int).Set(q.AmountOut)
		preview.AmountInMax = new(big.Int).Set(q.AmountIn)
		return preview, nil
	}
	preview.AmountOutMin = slippage.MinimumAmount(q.AmountOut)
	if preview.AmountOutMin.Sign() == 0 {
		return nil, fmt.Errorf("%w: minimum of %s %s rounds to zero at %s slippage", types.ErrInsufficientOutputAmount, q.AmountOut, q.TokenOut, slippage)
	}
	if q.Kind == types.ExactOut {
		preview.AmountInMax = slippage.MaximumAmount(q.AmountIn)
	} else {
		preview.AmountInMax = new(big.Int).Set(q.AmountIn)
	}
	return preview, nil
}

// CheckAllowance returns ErrInsufficientAllowance when the router may not
// move amount of token for owner. The native asset never needs approval.
func (s *Service) CheckAllowance(ctx context.Context, token types.Token, owner common.Address, amount *big.Int) error {
	if token.IsNative() {
		return nil
	}
	allowance, err := s.exchange.Allowance(ctx, token.Address, owner, s.exchange.GetRouterAddress())
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s allowance %s below %s", types.ErrInsufficientAllowance, token, allowance, amount)
	}
	return nil
}
