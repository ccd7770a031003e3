package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pr1mer-tech/hammy/types"
)

var registry = prometheus.NewRegistry()

// Registry returns the process-wide registry used when no registerer is given
func Registry() *prometheus.Registry {
	return registry
}

// Handler serves the metrics in gatherer over HTTP
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registererOrDefault(reg prometheus.Registerer) prometheus.Registerer {
	if reg == nil {
		return registry
	}
	return reg
}

// QuoteMetrics tracks quote requests
type QuoteMetrics struct {
	Quotes           *prometheus.CounterVec
	Failures         *prometheus.CounterVec
	Latency          prometheus.Histogram
	PriceImpact      prometheus.Histogram
	RouterMismatches prometheus.Counter
}

// NewQuoteMetrics registers quote metrics under namespace
func NewQuoteMetrics(reg prometheus.Registerer, namespace string) *QuoteMetrics {
	factory := promauto.With(registererOrDefault(reg))
	return &QuoteMetrics{
		Quotes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Total number of quotes computed, by kind",
		}, []string{"kind"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_failures_total",
			Help:      "Total number of failed quotes, by reason",
		}, []string{"reason"}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_latency_seconds",
			Help:      "Time to fetch reserves and compute a quote",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		PriceImpact: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_price_impact_percent",
			Help:      "Price impact of computed quotes",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
		}),
		RouterMismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_mismatches_total",
			Help:      "Quotes where the router disagreed with the local computation",
		}),
	}
}

// RPCMetrics tracks contract reads
type RPCMetrics struct {
	Calls   *prometheus.CounterVec
	Errors  *prometheus.CounterVec
	Retries prometheus.Counter
	Latency *prometheus.HistogramVec
}

// NewRPCMetrics registers RPC metrics under namespace
func NewRPCMetrics(reg prometheus.Registerer, namespace string) *RPCMetrics {
	factory := promauto.With(registererOrDefault(reg))
	return &RPCMetrics{
		Calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "Total number of contract calls, by method",
		}, []string{"method"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_errors_total",
			Help:      "Total number of failed contract calls, by method",
		}, []string{"method"}),
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_retries_total",
			Help:      "Total number of retried contract calls",
		}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_latency_seconds",
			Help:      "Contract call latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method"}),
	}
}

// TxMetrics tracks submitted transactions
type TxMetrics struct {
	Submitted    *prometheus.CounterVec
	Failed       *prometheus.CounterVec
	Confirmation prometheus.Histogram
}

// NewTxMetrics registers transaction metrics under namespace
func NewTxMetrics(reg prometheus.Registerer, namespace string) *TxMetrics {
	factory := promauto.With(registererOrDefault(reg))
	return &TxMetrics{
		Submitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_submitted_total",
			Help:      "Total number of submitted transactions, by method",
		}, []string{"method"}),
		Failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_failed_total",
			Help:      "Total number of failed transactions, by reason",
		}, []string{"reason"}),
		Confirmation: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tx_confirmation_seconds",
			Help:      "Time from submission to receipt",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

var reasons = []struct {
	err   error
	label string
}{
	{types.ErrNoRouteAvailable, "no_route"},
	{types.ErrInsufficientLiquidity, "insufficient_liquidity"},
	{types.ErrIdenticalTokens, "identical_tokens"},
	{types.ErrSlippageExceeded, "slippage"},
	{types.ErrInsufficientAllowance, "allowance"},
	{types.ErrDeadlineExpired, "deadline"},
	{types.ErrInsufficientInputAmount, "input_amount"},
	{types.ErrInsufficientOutputAmount, "output_amount"},
	{types.ErrInsufficientBalance, "balance"},
	{types.ErrPriceImpactTooHigh, "price_impact"},
	{types.ErrUserRejected, "rejected"},
}

// Reason turns an error into a bounded label value
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "other"
}
