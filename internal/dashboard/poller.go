package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Poller runs a cycle immediately and then on every tick. Cycles run in
// their own goroutines and may overlap.
type Poller struct {
	interval time.Duration
	cycle    func(ctx context.Context)
	logger   *zap.Logger
}

// NewPoller creates a poller. A non-positive interval becomes
// DefaultPollInterval.
func NewPoller(interval time.Duration, cycle func(ctx context.Context), logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval, cycle: cycle, logger: logger}
}

// Handle controls a running poller.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches the loop. It stops when ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)

		var wg sync.WaitGroup
		defer wg.Wait()

		run := func() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.cycle(ctx)
			}()
		}

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		run()
		for {
			select {
			case <-ctx.Done():
				p.logger.Debug("poller stopping")
				return
			case <-ticker.C:
				run()
			}
		}
	}()

	return h
}

// Stop cancels the loop and any in-flight cycles, and waits for them.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the loop and its cycles have exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
