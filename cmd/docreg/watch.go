package main

import (
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/docreg/watch"
)

// newWatchCmd creates the watch command: keep the registry snapshot up to
// date as documents change, with metrics exposed over HTTP.
func newWatchCmd(app *appContext) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously rebuild the registry as documents change",
		Long: `Watch performs an initial registry build, then rebuilds after every
debounced batch of changes under the scan roots. Clean builds
refresh the registry snapshot; builds with problems log them and
leave the previous snapshot in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watcher, err := watch.NewWatcher(app.repoRoot, app.cfg.Scan.Roots, app.cfg.Scan.Debounce, app.logger)
			if err != nil {
				return err
			}

			metrics := watch.NewMetrics()

			addr := metricsAddr
			if addr == "" {
				addr = app.cfg.Metrics.Addr
			}
			if addr != "" {
				go func() {
					if err := metrics.Serve(ctx, addr, app.logger); err != nil {
						app.logger.Error("Metrics server failed", "error", err)
					}
				}()
			}

			snapshotPath := filepath.Join(app.repoRoot, app.cfg.Registry.SnapshotPath)
			service := watch.NewService(newBuilder(app), watcher, metrics, snapshotPath, app.logger)
			return service.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listen address for /metrics (overrides config)")

	return cmd
}
