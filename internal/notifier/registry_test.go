package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/newthinker/orderdesk/internal/core"
)

type mockNotifier struct {
	name       string
	sendCalled int
	lastOrder  core.Order
	shouldFail bool
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Init(cfg Config) error { return nil }

func (m *mockNotifier) Send(ctx context.Context, order core.Order) error {
	m.sendCalled++
	m.lastOrder = order
	if m.shouldFail {
		return errors.New("send failed")
	}
	return nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockNotifier{name: "test"}
	err := r.Register(mock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duplicate registration should fail
	err = r.Register(mock)
	if err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	mock := &mockNotifier{name: "test"}
	r.Register(mock)

	n, err := r.Get("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Name() != "test" {
		t.Errorf("expected 'test', got '%s'", n.Name())
	}

	// Non-existent notifier
	_, err = r.Get("nonexistent")
	if err == nil {
		t.Error("expected error for non-existent notifier")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()

	r.Register(&mockNotifier{name: "webhook"})
	r.Register(&mockNotifier{name: "telegram"})

	names := r.Names()
	if len(names) != 2 || names[0] != "telegram" || names[1] != "webhook" {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestRegistry_NotifyAll(t *testing.T) {
	r := NewRegistry()

	mock1 := &mockNotifier{name: "n1"}
	mock2 := &mockNotifier{name: "n2"}
	r.Register(mock1)
	r.Register(mock2)

	order := core.Order{ID: "o-1", ItemName: "Tea", Status: core.StatusNew}
	errs := r.NotifyAll(context.Background(), order)

	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}

	if mock1.sendCalled != 1 {
		t.Errorf("expected mock1.sendCalled = 1, got %d", mock1.sendCalled)
	}
	if mock2.lastOrder.ID != "o-1" {
		t.Errorf("expected mock2 to receive o-1, got %s", mock2.lastOrder.ID)
	}
}

func TestRegistry_NotifyAll_WithFailure(t *testing.T) {
	r := NewRegistry()

	mock1 := &mockNotifier{name: "n1"}
	mock2 := &mockNotifier{name: "n2", shouldFail: true}
	r.Register(mock1)
	r.Register(mock2)

	errs := r.NotifyAll(context.Background(), core.Order{ID: "o-2"})

	if len(errs) != 1 {
		t.Errorf("expected 1 error, got %d", len(errs))
	}
	if !errors.Is(errs["n2"], core.ErrNotifierFailed) {
		t.Errorf("expected ErrNotifierFailed from n2, got %v", errs["n2"])
	}
}
