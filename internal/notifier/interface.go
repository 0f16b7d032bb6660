package notifier

import (
	"context"

	"github.com/newthinker/orderdesk/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Notifier announces newly placed orders to canteen staff.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send announces a single order
	Send(ctx context.Context, order core.Order) error
}
