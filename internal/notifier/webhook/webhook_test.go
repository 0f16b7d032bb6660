package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/orderdesk/internal/core"
	"github.com/newthinker/orderdesk/internal/notifier"
)

func TestWebhook_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Webhook)(nil)
}

func TestWebhook_Name(t *testing.T) {
	w := New("http://example.com/hook", nil)
	if w.Name() != "webhook" {
		t.Errorf("expected 'webhook', got %s", w.Name())
	}
}

func TestWebhook_Init_RequiresURL(t *testing.T) {
	w := &Webhook{}
	err := w.Init(notifier.Config{Params: map[string]any{}})
	if err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestWebhook_Init_WithURL(t *testing.T) {
	w := &Webhook{}
	err := w.Init(notifier.Config{
		Params: map[string]any{
			"url": "http://example.com/hook",
		},
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if w.url != "http://example.com/hook" {
		t.Errorf("expected url, got %s", w.url)
	}
}

func TestWebhook_Send(t *testing.T) {
	var receivedPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := New(server.URL, nil)

	order := core.Order{
		ID:         "order-1",
		Status:     core.StatusNew,
		ItemName:   "Coffee",
		OptionName: "Strong",
		LabName:    "Lab 1",
		SeatNumber: "4",
		CreatedAt:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}

	if err := w.Send(context.Background(), order); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if receivedPayload["order_id"] != "order-1" {
		t.Errorf("expected order_id order-1, got %v", receivedPayload["order_id"])
	}
	if receivedPayload["location"] != "Lab 1 - Seat 4" {
		t.Errorf("expected location, got %v", receivedPayload["location"])
	}
	if receivedPayload["option"] != "Strong" {
		t.Errorf("expected option Strong, got %v", receivedPayload["option"])
	}
	if receivedPayload["created_at"] != "2024-01-15T10:30:00Z" {
		t.Errorf("unexpected created_at %v", receivedPayload["created_at"])
	}
}

func TestWebhook_Send_OmitsEmptyOption(t *testing.T) {
	var receivedPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&receivedPayload)
	}))
	defer server.Close()

	if err := New(server.URL, nil).Send(context.Background(), core.Order{ID: "o"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if _, ok := receivedPayload["option"]; ok {
		t.Error("option should be omitted when empty")
	}
}

func TestWebhook_Send_CustomHeaders(t *testing.T) {
	var receivedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := New(server.URL, map[string]string{
		"Authorization": "Bearer secret",
		"X-Custom":      "value",
	})

	if err := w.Send(context.Background(), core.Order{ID: "o"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if receivedHeaders.Get("Authorization") != "Bearer secret" {
		t.Error("expected Authorization header")
	}
	if receivedHeaders.Get("X-Custom") != "value" {
		t.Error("expected X-Custom header")
	}
	if receivedHeaders.Get("Content-Type") != "application/json" {
		t.Error("expected JSON content type")
	}
}

func TestWebhook_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w := New(server.URL, nil)

	if err := w.Send(context.Background(), core.Order{ID: "o"}); err == nil {
		t.Error("expected error for server error response")
	}
}

func TestWebhook_Send_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := New(server.URL, nil).Send(ctx, core.Order{ID: "o"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
