package dashboard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoller_RunsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	p := NewPoller(time.Hour, func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}, nil)

	h := p.Start(context.Background())
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first cycle did not run on start")
	}
}

func TestPoller_Ticks(t *testing.T) {
	var cycles atomic.Int32
	p := NewPoller(5*time.Millisecond, func(ctx context.Context) {
		cycles.Add(1)
	}, nil)

	h := p.Start(context.Background())
	assert.Eventually(t, func() bool { return cycles.Load() >= 3 }, time.Second, time.Millisecond)
	h.Stop()

	after := cycles.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, cycles.Load())
}

func TestPoller_StopWaitsForInflightCycles(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	p := NewPoller(time.Hour, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
	}, nil)

	h := p.Start(context.Background())
	<-started
	h.Stop()

	assert.True(t, finished.Load())
	select {
	case <-h.Done():
	default:
		t.Fatal("Done should be closed after Stop")
	}

	// Idempotent.
	h.Stop()
}

func TestPoller_StopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(time.Millisecond, func(context.Context) {}, nil)

	h := p.Start(ctx)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not stop when context was cancelled")
	}
}

func TestPoller_NonPositiveIntervalUsesDefault(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		ran := make(chan struct{}, 1)
		p := NewPoller(interval, func(ctx context.Context) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}, nil)
		assert.Equal(t, DefaultPollInterval, p.interval)

		h := p.Start(context.Background())
		select {
		case <-ran:
		case <-time.After(time.Second):
			t.Fatalf("interval %s: first cycle did not run", interval)
		}
		h.Stop()
	}
}
