package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// backend is a scripted stand-in for the order server.
type backend struct {
	mu sync.Mutex

	page         string
	cookie       string
	ordersBody   string
	ordersStatus int
	statsBody    string
	statsStatus  int
	markStatus   int

	// ordersHook, when set, serves the orders endpoint instead.
	ordersHook func(w http.ResponseWriter, r *http.Request)
	// markHook runs before the mark-done response is written.
	markHook func(r *http.Request)

	hits        map[string]int
	queries     []string
	markPaths   []string
	markHeaders []http.Header
	markBodies  []string
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{
		page:         `<html><body><span id="new-count">0</span><span id="delivered-count">0</span></body></html>`,
		cookie:       "cookie-token",
		ordersStatus: http.StatusOK,
		statsBody:    `{"new_count":0,"delivered_count":0}`,
		statsStatus:  http.StatusOK,
		markStatus:   http.StatusOK,
		hits:         make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/get_new_orders/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits["orders"]++
		b.queries = append(b.queries, r.URL.RawQuery)
		hook, status, body := b.ordersHook, b.ordersStatus, b.ordersBody
		b.mu.Unlock()

		if hook != nil {
			hook(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/get_order_stats/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits["stats"]++
		status, body := b.statsStatus, b.statsBody
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/mark_order_done/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.hits["mark"]++
		b.markPaths = append(b.markPaths, r.Method+" "+r.URL.Path)
		b.markHeaders = append(b.markHeaders, r.Header.Clone())
		b.markBodies = append(b.markBodies, string(body))
		hook, status := b.markHook, b.markStatus
		b.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"status":"success"}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits["page"]++
		page, cookie := b.page, b.cookie
		b.mu.Unlock()

		if cookie != "" {
			http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: cookie, Path: "/"})
		}
		_, _ = io.WriteString(w, page)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[name]
}

func (b *backend) lastQuery() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queries) == 0 {
		return ""
	}
	return b.queries[len(b.queries)-1]
}

func (b *backend) set(fn func(b *backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

// cardsHTML renders order cards the way the backend partial does.
func cardsHTML(ids ...string) string {
	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, `<div class="order-card" data-id="%s">
  <h3>Tea</h3><p>Lab 1 - Seat %s</p>
  <button class="btn js-mark-done" data-id="%s">Done</button>
</div>
`, id, id, id)
	}
	return sb.String()
}

type alertRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (a *alertRecorder) Alert(_ context.Context, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *alertRecorder) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type metricsRecorder struct {
	mu       sync.Mutex
	cycles   int
	failures []string
	markDone []string
	badge    int
}

func (m *metricsRecorder) RecordPollCycle() {
	m.mu.Lock()
	m.cycles++
	m.mu.Unlock()
}

func (m *metricsRecorder) RecordFetchFailure(endpoint, kind string) {
	m.mu.Lock()
	m.failures = append(m.failures, endpoint+"/"+kind)
	m.mu.Unlock()
}

func (m *metricsRecorder) RecordMarkDone(result string) {
	m.mu.Lock()
	m.markDone = append(m.markDone, result)
	m.mu.Unlock()
}

func (m *metricsRecorder) SetBadgeCount(n int) {
	m.mu.Lock()
	m.badge = n
	m.mu.Unlock()
}

func newTestController(t *testing.T, srv *httptest.Server, opts Options) (*Controller, *observer.ObservedLogs) {
	t.Helper()
	obsCore, logs := observer.New(zapcore.DebugLevel)
	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	return New(client, opts, zap.New(obsCore)), logs
}
