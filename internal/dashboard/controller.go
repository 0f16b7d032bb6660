package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/newthinker/orderdesk/internal/core"
	"go.uber.org/zap"
)

// MethodNotAllowedMessage is shown when the backend rejects mark-done with 405.
const MethodNotAllowedMessage = "Error: Method Not Allowed. Ensure backend accepts POST."

// DefaultPollInterval is used when Options.PollInterval is zero.
const DefaultPollInterval = 5 * time.Second

// Alerter shows a message to the operator and returns once it has been
// acknowledged.
type Alerter interface {
	Alert(ctx context.Context, message string)
}

// AlerterFunc adapts a function to Alerter.
type AlerterFunc func(ctx context.Context, message string)

func (f AlerterFunc) Alert(ctx context.Context, message string) { f(ctx, message) }

// Metrics receives controller activity. *metrics.Registry implements it.
type Metrics interface {
	RecordPollCycle()
	RecordFetchFailure(endpoint, kind string)
	RecordMarkDone(result string)
	SetBadgeCount(n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordPollCycle()                  {}
func (noopMetrics) RecordFetchFailure(string, string) {}
func (noopMetrics) RecordMarkDone(string)             {}
func (noopMetrics) SetBadgeCount(int)                 {}

// ActionFunc handles a delegated click on the order list.
type ActionFunc func(ctx context.Context, ev Event)

// State is the controller's mutable selection.
type State struct {
	Filter core.Status
}

// Options configures a Controller.
type Options struct {
	Filter       core.Status
	PollInterval time.Duration

	// SequenceGuard drops order responses older than the last one rendered.
	SequenceGuard bool
	// DedupeMarkDone drops a mark-done for an id whose request is in flight.
	DedupeMarkDone bool

	Alerter Alerter
	Metrics Metrics
	// OnChange runs after every write to the view. It must not block.
	OnChange func()
}

// Controller polls the backend, renders into its View and performs the
// mark-done action.
type Controller struct {
	client  *Client
	view    *View
	logger  *zap.Logger
	opts    Options
	alerter Alerter
	metrics Metrics

	mu       sync.Mutex
	state    State
	actions  map[string]ActionFunc
	issued   uint64
	rendered uint64
	inflight map[string]struct{}
}

// New creates a controller. Nothing is fetched until Load, Start or one of
// the refresh methods is called.
func New(client *Client, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.Filter.IsValid() {
		opts.Filter = core.StatusNew
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	c := &Controller{
		client:   client,
		view:     NewView(),
		logger:   logger.With(zap.String("component", "dashboard")),
		opts:     opts,
		alerter:  opts.Alerter,
		metrics:  opts.Metrics,
		state:    State{Filter: opts.Filter},
		inflight: make(map[string]struct{}),
	}
	if c.alerter == nil {
		c.alerter = AlerterFunc(func(_ context.Context, msg string) {
			c.logger.Warn("alert", zap.String("message", msg))
		})
	}
	if c.metrics == nil {
		c.metrics = noopMetrics{}
	}
	c.view.SetFilter(opts.Filter)

	c.actions = map[string]ActionFunc{
		MarkDoneClass: func(ctx context.Context, ev Event) {
			c.MarkDone(ctx, ev.Attr(IDAttr))
		},
	}
	return c
}

// View returns the view the controller renders into.
func (c *Controller) View() *View {
	return c.view
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load fetches the dashboard page. This picks up the csrf form field, the
// csrf cookie and the server-rendered counts.
func (c *Controller) Load(ctx context.Context) error {
	page, err := c.client.FetchPage(ctx)
	if err != nil {
		c.logger.Error("loading dashboard page failed",
			zap.String("kind", errorKind(err)), zap.Error(err))
		c.metrics.RecordFetchFailure("page", errorKind(err))
		return err
	}
	if err := c.view.LoadPage(page); err != nil {
		c.logger.Error("parsing dashboard page failed", zap.Error(err))
		c.metrics.RecordFetchFailure("page", errorKind(err))
		return err
	}
	c.changed()
	return nil
}

// Start begins polling. The first cycle runs immediately.
func (c *Controller) Start(ctx context.Context) *Handle {
	c.logger.Info("starting poller",
		zap.Duration("interval", c.opts.PollInterval),
		zap.String("filter", string(c.State().Filter)))
	return NewPoller(c.opts.PollInterval, c.PollCycle, c.logger).Start(ctx)
}

// PollCycle refreshes the order list and then the stats.
func (c *Controller) PollCycle(ctx context.Context) {
	c.metrics.RecordPollCycle()
	c.RefreshOrders(ctx)
	c.RefreshStats(ctx)
}

// RefreshOrders fetches the list for the current filter and renders it.
// Failures are logged and leave the view untouched.
func (c *Controller) RefreshOrders(ctx context.Context) {
	c.mu.Lock()
	filter := c.state.Filter
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	markup, err := c.client.FetchOrders(ctx, filter)
	if err != nil {
		c.logger.Error("fetching orders failed",
			zap.String("filter", string(filter)),
			zap.String("kind", errorKind(err)),
			zap.Int("status", StatusCode(err)),
			zap.Error(err))
		c.metrics.RecordFetchFailure("orders", errorKind(err))
		return
	}

	if c.opts.SequenceGuard {
		c.mu.Lock()
		if seq < c.rendered {
			c.mu.Unlock()
			c.logger.Debug("discarding stale order response",
				zap.Uint64("seq", seq), zap.Uint64("rendered", c.rendered))
			return
		}
		c.rendered = seq
		c.mu.Unlock()
	}

	count, err := c.view.ReplaceOrders(markup)
	if err != nil {
		c.logger.Error("rendering orders failed", zap.Error(err))
		c.metrics.RecordFetchFailure("orders", errorKind(err))
		return
	}
	c.metrics.SetBadgeCount(count)
	c.logger.Debug("orders rendered", zap.String("filter", string(filter)), zap.Int("count", count))
	c.changed()
}

// RefreshStats fetches the counts and writes them to the stats slots.
func (c *Controller) RefreshStats(ctx context.Context) {
	stats, err := c.client.FetchStats(ctx)
	if err != nil {
		c.logger.Error("fetching stats failed",
			zap.String("kind", errorKind(err)),
			zap.Int("status", StatusCode(err)),
			zap.Error(err))
		c.metrics.RecordFetchFailure("stats", errorKind(err))
		return
	}
	c.view.SetStats(formatCount(stats.NewCount), formatCount(stats.DeliveredCount))
	c.changed()
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SetFilter selects f, updates the toggles and slider, and fetches the
// order list once. Stats are left alone.
func (c *Controller) SetFilter(ctx context.Context, f core.Status) error {
	if !f.IsValid() {
		return core.WrapError(core.ErrInvalidStatus, fmt.Errorf("%q", f))
	}

	c.view.SetFilter(f)
	c.mu.Lock()
	c.state.Filter = f
	c.mu.Unlock()
	c.changed()

	c.RefreshOrders(ctx)
	return nil
}

// On registers fn for clicks whose target carries class.
func (c *Controller) On(class string, fn ActionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions[class] = fn
}

// Dispatch routes a click to the action of the first mapped class on the
// target. It reports whether an action ran.
func (c *Controller) Dispatch(ctx context.Context, ev Event) bool {
	c.mu.Lock()
	var fn ActionFunc
	for _, class := range ev.Classes {
		if f, ok := c.actions[class]; ok {
			fn = f
			break
		}
	}
	c.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(ctx, ev)
	return true
}

// MarkDone asks the backend to mark order id as delivered. On success the
// list and then the stats are refreshed once each.
func (c *Controller) MarkDone(ctx context.Context, id string) {
	if id == "" {
		return
	}

	if c.opts.DedupeMarkDone {
		if !c.acquire(id) {
			c.logger.Debug("mark-done already in flight", zap.String("order_id", id))
			c.metrics.RecordMarkDone("deduped")
			return
		}
		defer c.release(id)
	}

	token := c.csrfToken()
	if token == "" {
		c.logger.Warn("no csrf token available", zap.String("order_id", id))
	}

	if err := c.client.MarkDone(ctx, id, token); err != nil {
		code := StatusCode(err)
		c.logger.Error("marking order done failed",
			zap.String("order_id", id),
			zap.String("kind", errorKind(err)),
			zap.Int("status", code),
			zap.Error(err))
		if code == http.StatusMethodNotAllowed {
			c.metrics.RecordMarkDone("method_not_allowed")
			c.alerter.Alert(ctx, MethodNotAllowedMessage)
			return
		}
		c.metrics.RecordMarkDone("error")
		return
	}

	c.metrics.RecordMarkDone("ok")
	c.logger.Info("order marked done", zap.String("order_id", id))
	c.RefreshOrders(ctx)
	c.RefreshStats(ctx)
}

// csrfToken resolves the token for each request: the page form field
// first, then the cookie.
func (c *Controller) csrfToken() string {
	if t := c.view.CSRFField(); t != "" {
		return t
	}
	return c.client.Cookie(CSRFCookieName)
}

func (c *Controller) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return false
	}
	c.inflight[id] = struct{}{}
	return true
}

func (c *Controller) release(id string) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

func (c *Controller) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}
