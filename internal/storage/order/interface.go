// internal/storage/order/interface.go
package order

import (
	"context"

	"github.com/newthinker/orderdesk/internal/core"
)

// Store defines the interface for canteen, menu and order persistence.
type Store interface {
	// Ensure* return the existing record with the given natural key or
	// create it. They make seeding idempotent.
	EnsureCanteen(ctx context.Context, name string) (core.Canteen, error)
	EnsureLab(ctx context.Context, canteenID int64, name string) (core.Lab, error)
	EnsureSeat(ctx context.Context, labID int64, seatNumber string) (core.Seat, error)
	// EnsureQRCode returns the seat's QR code, creating an active one with
	// a fresh uuid when the seat has none.
	EnsureQRCode(ctx context.Context, seatID int64) (core.QRCode, error)
	EnsureMenuItem(ctx context.Context, canteenID int64, name string, available bool) (core.MenuItem, error)
	EnsureItemOption(ctx context.Context, menuItemID int64, name string) (core.ItemOption, error)

	// ResolveQRCode looks up an active QR code and its seat, lab and canteen.
	ResolveQRCode(ctx context.Context, qrID string) (*core.SeatLocation, error)

	// ListQRCodes returns every QR code with its location.
	ListQRCodes(ctx context.Context, activeOnly bool) ([]core.SeatLocation, error)

	// SetQRCodeImage records where the rendered QR image was stored.
	SetQRCodeImage(ctx context.Context, qrID, path string) error

	// ListMenu returns a canteen's menu items with their options.
	ListMenu(ctx context.Context, canteenID int64, availableOnly bool) ([]core.MenuItem, error)

	// PlaceOrder creates a NEW order. The option, when given, must belong
	// to the item.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*core.Order, error)

	// GetOrder retrieves an order by its uuid.
	GetOrder(ctx context.Context, id string) (*core.Order, error)

	// ListOrders returns orders matching the filter, newest first.
	ListOrders(ctx context.Context, filter ListFilter) ([]core.Order, error)

	// MarkDelivered sets an order's status to DELIVERED.
	MarkDelivered(ctx context.Context, id string) (*core.Order, error)

	// Stats counts orders per status.
	Stats(ctx context.Context) (core.Stats, error)

	Close() error
}

// PlaceOrderRequest carries the fields of a new order.
type PlaceOrderRequest struct {
	SeatID   int64
	ItemID   int64
	OptionID *int64
}

// ListFilter defines criteria for listing orders.
type ListFilter struct {
	Status core.Status
	Limit  int
}
