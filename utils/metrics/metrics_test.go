package metrics

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQuoteMetrics(reg, "test_quote")
	require.NotNil(t, m)

	m.Quotes.WithLabelValues("exact_in").Inc()
	m.Quotes.WithLabelValues("exact_in").Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Quotes.WithLabelValues("exact_in")))

	m.Failures.WithLabelValues(Reason(types.ErrNoRouteAvailable)).Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Failures.WithLabelValues("no_route")))

	m.Latency.Observe(0.01)
	m.Latency.Observe(0.02)
	var sample dto.Metric
	require.NoError(t, m.Latency.Write(&sample))
	assert.Equal(t, uint64(2), sample.GetHistogram().GetSampleCount())
}

func TestRPCMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRPCMetrics(reg, "test_rpc")

	m.Calls.WithLabelValues("getReserves").Inc()
	m.Errors.WithLabelValues("getReserves").Inc()
	m.Retries.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Calls.WithLabelValues("getReserves")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Retries))

	count, err := testutil.GatherAndCount(reg, "test_rpc_rpc_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTxMetricsAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTxMetrics(reg, "test_tx")
	m.Submitted.WithLabelValues("swapExactETHForTokens").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_tx_tx_submitted_total"))
}

func TestDefaultRegistry(t *testing.T) {
	m := NewRPCMetrics(nil, "test_default")
	m.Calls.WithLabelValues("getPair").Inc()

	families, err := Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "test_default_rpc_calls_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "slippage", Reason(fmt.Errorf("swap: %w", types.ErrSlippageExceeded)))
	assert.Equal(t, "other", Reason(fmt.Errorf("boom")))
}
