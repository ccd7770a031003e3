package cmd

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/pr1mer-tech/hammy/trade"
	"github.com/pr1mer-tech/hammy/utils/metrics"
	"github.com/pr1mer-tech/hammy/utils/monitor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd() *cobra.Command {
	var (
		flags    swapFlags
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-quote a swap whenever the pool reserves change",
		Long: `Poll the pools on the route and print a fresh quote each time their
reserves move. Stops on interrupt. With prometheus_enabled set in the
config, metrics are served on prometheus_endpoint meanwhile.`,
		Example: `  hammy watch --from XRP --to USDC --amount 100 --interval 10s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req, slippage, err := flags.request(ctx, a)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = a.cfg.WatchInterval
			}

			var (
				mu     sync.Mutex
				latest *trade.SwapPreview
			)
			poll := func(ctx context.Context) (uint64, error) {
				preview, err := a.service.PreviewSwap(ctx, req, slippage)
				if err != nil {
					return 0, err
				}
				mu.Lock()
				latest = preview
				mu.Unlock()
				return preview.Quote.Snapshot, nil
			}
			out := cmd.OutOrStdout()
			symbols := a.tokens.Symbols()
			onChange := func(ctx context.Context, _ uint64) {
				mu.Lock()
				preview := latest
				mu.Unlock()
				if err := writeJSON(out, newQuoteView(preview, symbols)); err != nil {
					a.log.Warn("Failed to print quote", zap.Error(err))
				}
			}

			watcher := monitor.NewWatcher(metrics.Registry(), metricsNamespace, interval, a.log)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return watcher.Run(gctx, poll, onChange)
			})
			if a.cfg.PrometheusEnabled {
				srv := &http.Server{
					Addr:              a.cfg.PrometheusEndpoint,
					Handler:           metrics.Handler(metrics.Registry()),
					ReadHeaderTimeout: 5 * time.Second,
				}
				g.Go(func() error {
					a.log.Info("Serving metrics", zap.String("addr", srv.Addr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-gctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}
			return g.Wait()
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from config)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newWatchCmd())
}
