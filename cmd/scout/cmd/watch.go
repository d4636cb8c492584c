package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scout/internal/output"
	"github.com/Aman-CERP/scout/internal/watcher"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch [name...]",
		Short: "Keep indexes open and refresh them when a rebuild lands",
		Long: `Open the named indexes (default: every bound index) and keep them open.
When another process rebuilds an index it touches the freshness signal;
watch then drops handles older than the signal so the next search opens
the new generation.

With --metrics-addr, Prometheus metrics are served on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, opts, args, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *rootOptions, names []string, metricsAddr string) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	debounce, err := a.cfg.DebounceWindow()
	if err != nil {
		return err
	}
	poll, err := a.cfg.PollInterval()
	if err != nil {
		return err
	}
	w, err := watcher.New(a.signal, watcher.Options{
		DebounceWindow: debounce,
		PollInterval:   poll,
		ForcePolling:   a.cfg.Watch.ForcePolling,
		Logger:         a.logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	watched := func() []string {
		if len(names) > 0 {
			return names
		}
		bindings, err := a.catalog.Bindings()
		if err != nil {
			a.logger.Warn("watch_bindings_failed", slog.String("error", err.Error()))
			return nil
		}
		out := make([]string, 0, len(bindings))
		for _, b := range bindings {
			out = append(out, b.Name)
		}
		sort.Strings(out)
		return out
	}

	out := output.New(cmd.OutOrStdout())
	for _, name := range watched() {
		h, err := a.manager.Acquire(ctx, name)
		if err != nil {
			out.Warningf("%s: %v", name, err)
			continue
		}
		a.manager.Release(h)
		out.Infof("watching %s (%s)", name, h.Ref())
	}

	if metricsAddr == "" {
		metricsAddr = a.cfg.Metrics.Addr
	}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics_server_failed", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		out.Infof("metrics on %s/metrics", metricsAddr)
	}

	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("watcher_failed", slog.String("error", err.Error()))
		}
	}()
	watcher.Run(ctx, w, a.manager, watched)
	return nil
}
