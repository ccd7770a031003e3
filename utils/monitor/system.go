package monitor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Poller reads the current state and returns its fingerprint
type Poller func(ctx context.Context) (uint64, error)

// ChangeHandler is called with each new fingerprint
type ChangeHandler func(ctx context.Context, fingerprint uint64)

// Watcher polls a snapshot on an interval and reports when its fingerprint
// changes. It also publishes process gauges for long-running commands.
type Watcher struct {
	interval time.Duration
	logger   *zap.Logger
	metrics  struct {
		polls      prometheus.Counter
		changes    prometheus.Counter
		pollErrors prometheus.Counter
		goroutines prometheus.Gauge
		heapAlloc  prometheus.Gauge
		gcPause    prometheus.Gauge
	}

	mu   sync.Mutex
	last uint64
	seen bool
}

// NewWatcher creates a watcher that registers its metrics with reg
func NewWatcher(reg prometheus.Registerer, namespace string, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{interval: interval, logger: logger}

	factory := promauto.With(reg)
	w.metrics.polls = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watch_polls_total",
		Help:      "Snapshot polls performed",
	})
	w.metrics.changes = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watch_changes_total",
		Help:      "Snapshot changes observed",
	})
	w.metrics.pollErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watch_poll_errors_total",
		Help:      "Snapshot polls that failed",
	})
	w.metrics.goroutines = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_goroutines",
		Help:      "Current number of goroutines",
	})
	w.metrics.heapAlloc = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_heap_alloc_bytes",
		Help:      "Current heap allocation in bytes",
	})
	w.metrics.gcPause = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_gc_pause_seconds",
		Help:      "Last GC pause duration",
	})
	return w
}

// Run polls immediately and then on every tick until ctx ends. onChange runs
// on the first successful poll and whenever the fingerprint differs from the
// previous one. Poll errors are logged and retried on the next tick.
func (w *Watcher) Run(ctx context.Context, poll Poller, onChange ChangeHandler) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.tick(ctx, poll, onChange)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Watcher) tick(ctx context.Context, poll Poller, onChange ChangeHandler) {
	w.collectProcessMetrics()
	w.metrics.polls.Inc()

	fingerprint, err := poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.metrics.pollErrors.Inc()
		w.logger.Warn("Snapshot poll failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	changed := !w.seen || fingerprint != w.last
	w.last, w.seen = fingerprint, true
	w.mu.Unlock()

	if changed {
		w.metrics.changes.Inc()
		w.logger.Debug("Snapshot changed", zap.Uint64("fingerprint", fingerprint))
		onChange(ctx, fingerprint)
	}
}

// Last returns the most recent fingerprint and whether any poll succeeded
func (w *Watcher) Last() (uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.seen
}

func (w *Watcher) collectProcessMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	w.metrics.goroutines.Set(float64(runtime.NumGoroutine()))
	w.metrics.heapAlloc.Set(float64(memStats.HeapAlloc))
	w.metrics.gcPause.Set(float64(memStats.PauseNs[(memStats.NumGC+255)%256]) / float64(time.Second))
}
