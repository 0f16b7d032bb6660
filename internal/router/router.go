package router

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/orderdesk/internal/core"
	"github.com/newthinker/orderdesk/internal/notifier"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		Workers:     2,
		QueueSize:   100,
		SendTimeout: 10 * time.Second,
	}
}

// Recorder counts notification outcomes per notifier.
type Recorder interface {
	RecordNotification(notifier, status string)
}

// Router delivers placed orders to every registered notifier. Until Start
// is called it delivers synchronously on the caller's goroutine; after
// that orders are queued and sent by background workers.
type Router struct {
	cfg      Config
	registry *notifier.Registry
	recorder Recorder
	logger   *zap.Logger

	mu    sync.RWMutex
	queue chan core.Order
	wg    sync.WaitGroup

	statsMu sync.Mutex
	routed  int
	dropped int
	failed  int
}

// New creates a new order router. registry and recorder may be nil.
func New(cfg Config, registry *notifier.Registry, recorder Recorder, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Router{
		cfg:      cfg,
		registry: registry,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "router")),
	}
}

// Start launches the workers. They exit when ctx ends or Stop is called.
func (r *Router) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queue != nil {
		return
	}

	queue := make(chan core.Order, r.cfg.QueueSize)
	r.queue = queue
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case o, ok := <-queue:
					if !ok {
						return
					}
					r.deliver(ctx, o)
				}
			}
		}()
	}
}

// Stop closes the queue and waits for queued orders to be delivered.
func (r *Router) Stop() {
	r.mu.Lock()
	if r.queue != nil {
		close(r.queue)
		r.queue = nil
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Route hands o to the notifiers. Only NEW orders are announced. When the
// queue is full the order is dropped and logged; it is never retried.
func (r *Router) Route(ctx context.Context, o core.Order) {
	if o.Status != core.StatusNew || r.registry == nil {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.queue == nil {
		r.deliver(ctx, o)
		return
	}

	select {
	case r.queue <- o:
	default:
		r.count(func() { r.dropped++ })
		r.logger.Warn("notification queue full, order not announced",
			zap.String("order_id", o.ID))
		if r.recorder != nil {
			for _, name := range r.registry.Names() {
				r.recorder.RecordNotification(name, "dropped")
			}
		}
	}
}

func (r *Router) deliver(ctx context.Context, o core.Order) {
	if r.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.SendTimeout)
		defer cancel()
	}

	errs := r.registry.NotifyAll(ctx, o)
	for _, name := range r.registry.Names() {
		status := "ok"
		if err, failed := errs[name]; failed {
			status = "error"
			r.logger.Error("notifier failed",
				zap.String("notifier", name),
				zap.String("order_id", o.ID),
				zap.Error(err))
		}
		if r.recorder != nil {
			r.recorder.RecordNotification(name, status)
		}
	}

	r.count(func() {
		r.routed++
		if len(errs) > 0 {
			r.failed++
		}
	})
	r.logger.Info("order announced",
		zap.String("order_id", o.ID),
		zap.String("location", o.Location()),
		zap.Int("notifiers", len(r.registry.Names())),
		zap.Int("errors", len(errs)))
}

func (r *Router) count(fn func()) {
	r.statsMu.Lock()
	fn()
	r.statsMu.Unlock()
}

// GetStats returns router statistics
func (r *Router) GetStats() map[string]any {
	r.mu.RLock()
	queued := 0
	if r.queue != nil {
		queued = len(r.queue)
	}
	r.mu.RUnlock()

	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return map[string]any{
		"routed":  r.routed,
		"dropped": r.dropped,
		"failed":  r.failed,
		"queued":  queued,
		"workers": r.cfg.Workers,
	}
}
