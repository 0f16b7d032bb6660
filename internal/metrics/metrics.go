package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Backend metrics
	ordersPlaced    prometheus.Counter
	ordersDelivered prometheus.Counter
	notifications   *prometheus.CounterVec

	// Dashboard client metrics
	pollCycles    prometheus.Counter
	fetchFailures *prometheus.CounterVec
	markDone      *prometheus.CounterVec
	badgeCount    prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.ordersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orderdesk_orders_placed_total",
			Help: "Total number of orders placed from seat QR codes",
		},
	)
	r.ordersDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orderdesk_orders_delivered_total",
			Help: "Total number of orders marked delivered",
		},
	)
	r.notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdesk_notifications_total",
			Help: "Total number of new-order notifications sent",
		},
		[]string{"notifier", "status"},
	)

	r.pollCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orderdesk_poll_cycles_total",
			Help: "Total number of dashboard poll cycles started",
		},
	)
	r.fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdesk_fetch_failures_total",
			Help: "Total number of failed dashboard fetches",
		},
		[]string{"endpoint", "kind"},
	)
	r.markDone = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdesk_mark_done_total",
			Help: "Total number of mark-done attempts by result",
		},
		[]string{"result"},
	)
	r.badgeCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderdesk_badge_count",
			Help: "Number of order cards in the last rendered list",
		},
	)

	reg.MustRegister(r.ordersPlaced)
	reg.MustRegister(r.ordersDelivered)
	reg.MustRegister(r.notifications)
	reg.MustRegister(r.pollCycles)
	reg.MustRegister(r.fetchFailures)
	reg.MustRegister(r.markDone)
	reg.MustRegister(r.badgeCount)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordOrderPlaced counts a new order.
func (r *Registry) RecordOrderPlaced() {
	r.ordersPlaced.Inc()
}

// RecordOrderDelivered counts an order marked delivered.
func (r *Registry) RecordOrderDelivered() {
	r.ordersDelivered.Inc()
}

// RecordNotification records a notifier outcome.
func (r *Registry) RecordNotification(notifier, status string) {
	r.notifications.WithLabelValues(notifier, status).Inc()
}

// RecordPollCycle counts a dashboard poll cycle.
func (r *Registry) RecordPollCycle() {
	r.pollCycles.Inc()
}

// RecordFetchFailure counts a failed dashboard fetch.
func (r *Registry) RecordFetchFailure(endpoint, kind string) {
	r.fetchFailures.WithLabelValues(endpoint, kind).Inc()
}

// RecordMarkDone counts a mark-done attempt.
func (r *Registry) RecordMarkDone(result string) {
	r.markDone.WithLabelValues(result).Inc()
}

// SetBadgeCount sets the rendered card count.
func (r *Registry) SetBadgeCount(n int) {
	r.badgeCount.Set(float64(n))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
