package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/newthinker/orderdesk/internal/dashboard"
	"github.com/newthinker/orderdesk/internal/logger"
	"github.com/newthinker/orderdesk/internal/metrics"
	"github.com/newthinker/orderdesk/internal/tui"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchBaseURL     string
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the admin dashboard in the terminal",
	Long: `watch polls the order backend for the list of orders and the per-status
counts, and lets you switch the filter and mark orders as done.
Logs go to dashboard.log_file because the dashboard owns the terminal.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchBaseURL, "base-url", "", "backend URL (overrides dashboard.base_url)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve dashboard metrics on this address")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(zap.NewNop())
	if err != nil {
		return err
	}

	log, err := logger.NewFile(cfg.Dashboard.LogFile, debug)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer log.Sync()

	client, err := newDashboardClient(cfg.Dashboard, watchBaseURL)
	if err != nil {
		return err
	}
	opts, err := dashboardOptions(cfg.Dashboard)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bridge := tui.NewBridge()
	opts.Alerter = bridge
	opts.OnChange = bridge.Notify
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		opts.Metrics = reg
		if watchMetricsAddr != "" {
			go serveMetrics(ctx, newMetricsServer(watchMetricsAddr, cfg.Metrics.Path, reg), log)
		}
	}

	ctrl := dashboard.New(client, opts, log)
	log.Info("dashboard starting",
		zap.String("base_url", client.BaseURL()),
		zap.Duration("poll_interval", opts.PollInterval),
		zap.String("filter", string(opts.Filter)))

	if err := ctrl.Load(ctx); err != nil {
		// Polling still works; the csrf token falls back to the cookie.
		log.Warn("dashboard page unavailable", zap.Error(err))
	}

	poller := ctrl.Start(ctx)
	defer poller.Stop()

	p := tea.NewProgram(tui.New(ctx, ctrl, bridge), tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err = p.Run()
	// Releases a mark-done blocked on an alert and stops the poller.
	cancel()
	return err
}

// newMetricsServer serves reg at path with the same timeouts as the API server.
func newMetricsServer(addr, path string, reg *metrics.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func serveMetrics(ctx context.Context, srv *http.Server, log *zap.Logger) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics server error", zap.Error(err))
	}
}
