package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/newthinker/orderdesk/internal/dashboard"
	"github.com/newthinker/orderdesk/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var doneBaseURL string

var doneCmd = &cobra.Command{
	Use:   "done <order-id>...",
	Short: "Mark orders as delivered",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDone,
}

func init() {
	doneCmd.Flags().StringVar(&doneBaseURL, "base-url", "", "backend URL (overrides dashboard.base_url)")
	rootCmd.AddCommand(doneCmd)
}

// resultCounter tallies mark-done outcomes reported through the
// controller's metrics hook.
type resultCounter struct {
	mu      sync.Mutex
	results map[string]int
}

func (r *resultCounter) RecordPollCycle()                  {}
func (r *resultCounter) RecordFetchFailure(string, string) {}
func (r *resultCounter) SetBadgeCount(int)                 {}

func (r *resultCounter) RecordMarkDone(result string) {
	r.mu.Lock()
	r.results[result]++
	r.mu.Unlock()
}

func runDone(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	client, err := newDashboardClient(cfg.Dashboard, doneBaseURL)
	if err != nil {
		return err
	}
	opts, err := dashboardOptions(cfg.Dashboard)
	if err != nil {
		return err
	}

	counter := &resultCounter{results: make(map[string]int)}
	opts.Metrics = counter
	opts.Alerter = dashboard.AlerterFunc(func(_ context.Context, msg string) {
		fmt.Fprintln(os.Stderr, msg)
	})

	ctrl := dashboard.New(client, opts, log)
	ctx := cmd.Context()
	if err := ctrl.Load(ctx); err != nil {
		log.Warn("dashboard page unavailable", zap.Error(err))
	}

	for _, id := range args {
		ctrl.MarkDone(ctx, id)
	}

	ok := counter.results["ok"]
	fmt.Printf("marked %d of %d orders done\n", ok, len(args))
	if ok != len(args) {
		return fmt.Errorf("%d orders could not be marked done", len(args)-ok)
	}
	return nil
}
