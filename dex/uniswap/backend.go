package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/utils/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BackendOptions tune how a ThrottledBackend talks to the node
type BackendOptions struct {
	RequestsPerSecond float64
	Burst             int
	// WaitTimeout bounds how long one request may queue for the limiter
	WaitTimeout       time.Duration
	MaxRetries        uint
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	Metrics           *metrics.RPCMetrics
	Logger            *zap.Logger
}

// DefaultBackendOptions suit a public RPC endpoint
func DefaultBackendOptions() BackendOptions {
	return BackendOptions{
		RequestsPerSecond: 20,
		Burst:             10,
		WaitTimeout:       5 * time.Second,
		MaxRetries:        3,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
	}
}

// ThrottledBackend wraps a Backend with a request rate limit and retries
// transient failures. Reverts are returned immediately.
type ThrottledBackend struct {
	inner   Backend
	limiter *rate.Limiter
	opts    BackendOptions
	logger  *zap.Logger
}

var _ Backend = (*ThrottledBackend)(nil)

// ErrRateLimited is returned when a request waited too long for the limiter
var ErrRateLimited = errors.New("rpc rate limit wait exceeded")

// NewThrottledBackend wraps inner
func NewThrottledBackend(inner Backend, opts BackendOptions) *ThrottledBackend {
	defaults := DefaultBackendOptions()
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = defaults.Burst
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = defaults.WaitTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaults.MaxRetries
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaults.InitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaults.MaxBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ThrottledBackend{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		opts:    opts,
		logger:  logger,
	}
}

// CodeAt returns the code deployed at contract
func (b *ThrottledBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return withRetry(ctx, b, "code", func() ([]byte, error) {
		return b.inner.CodeAt(ctx, contract, blockNumber)
	})
}

// CallContract executes a read-only call
func (b *ThrottledBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return withRetry(ctx, b, MethodName(call.Data), func() ([]byte, error) {
		return b.inner.CallContract(ctx, call, blockNumber)
	})
}

// BlockNumber returns the latest block height
func (b *ThrottledBackend) BlockNumber(ctx context.Context) (uint64, error) {
	return withRetry(ctx, b, "blockNumber", func() (uint64, error) {
		return b.inner.BlockNumber(ctx)
	})
}

// BalanceAt returns the native balance of account
func (b *ThrottledBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return withRetry(ctx, b, "balance", func() (*big.Int, error) {
		return b.inner.BalanceAt(ctx, account, blockNumber)
	})
}

// wait takes a limiter token, giving up after WaitTimeout
func (b *ThrottledBackend) wait(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, b.opts.WaitTimeout)
	defer cancel()
	if err := b.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w after %s: %w", ErrRateLimited, b.opts.WaitTimeout, err)
	}
	return nil
}

func withRetry[T any](ctx context.Context, b *ThrottledBackend, method string, call func() (T, error)) (T, error) {
	start := time.Now()
	m := b.opts.Metrics
	if m != nil {
		m.Calls.WithLabelValues(method).Inc()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.opts.InitialBackoff
	policy.MaxInterval = b.opts.MaxBackoff

	operation := func() (T, error) {
		var zero T
		if err := b.wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}
		result, err := call()
		if err == nil {
			return result, nil
		}
		if IsRevert(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}

	notify := func(err error, wait time.Duration) {
		if m != nil {
			m.Retries.Inc()
		}
		b.logger.Debug("Retrying RPC call",
			zap.String("method", method),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(b.opts.MaxRetries+1),
		backoff.WithNotify(notify))

	if m != nil {
		m.Latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
		if err != nil {
			m.Errors.WithLabelValues(method).Inc()
		}
	}
	return result, err
}
