package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/orderdesk/internal/config"
	"github.com/newthinker/orderdesk/internal/core"
	"github.com/newthinker/orderdesk/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenStore(t *testing.T) {
	mem, err := openStore(config.DatabaseConfig{Driver: "memory"})
	require.NoError(t, err)
	require.NoError(t, mem.Close())

	lite, err := openStore(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "o.db")})
	require.NoError(t, err)
	require.NoError(t, lite.Close())

	_, err = openStore(config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestBuildNotifiers(t *testing.T) {
	reg, err := buildNotifiers(map[string]config.NotifierConfig{
		"webhook":  {Enabled: true, URL: "http://hooks.local/orders"},
		"telegram": {Enabled: false},
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"webhook"}, reg.Names())

	_, err = buildNotifiers(map[string]config.NotifierConfig{"pager": {Enabled: true}}, zap.NewNop())
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestDashboardOptions(t *testing.T) {
	cfg := config.Defaults().Dashboard
	cfg.Filter = "delivered"
	cfg.PollInterval = 2 * time.Second
	cfg.SequenceGuard = true

	opts, err := dashboardOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDelivered, opts.Filter)
	assert.Equal(t, 2*time.Second, opts.PollInterval)
	assert.True(t, opts.SequenceGuard)
	assert.False(t, opts.DedupeMarkDone)

	cfg.Filter = "PENDING"
	_, err = dashboardOptions(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}

func TestNewDashboardClient_BaseURLOverride(t *testing.T) {
	cfg := config.Defaults().Dashboard

	c, err := newDashboardClient(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, cfg.BaseURL, c.BaseURL())

	c, err = newDashboardClient(cfg, "http://canteen.local:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://canteen.local:9000", c.BaseURL())
}

func TestNewMetricsServer(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.RecordPollCycle()

	srv := newMetricsServer("127.0.0.1:0", "/metrics", reg)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orderdesk_poll_cycles_total 1")
}

func TestServeMetrics_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := newMetricsServer("127.0.0.1:0", "/metrics", metrics.NewRegistry())

	done := make(chan struct{})
	go func() {
		serveMetrics(ctx, srv, zap.NewNop())
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop after cancel")
	}
}
