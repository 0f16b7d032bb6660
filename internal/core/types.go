package core

import (
	"fmt"
	"strings"
	"time"
)

// Status is the delivery state of an order. The dashboard filter uses the
// same two values.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusDelivered Status = "DELIVERED"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusNew, StatusDelivered}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	return s == StatusNew || s == StatusDelivered
}

// Label returns the human readable name used in templates.
func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusDelivered:
		return "Delivered"
	default:
		return string(s)
	}
}

// ParseStatus converts a query or config value into a Status.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", WrapError(ErrInvalidStatus, fmt.Errorf("%q", v))
	}
	return s, nil
}

// Canteen is a food court that receives orders from one or more labs.
type Canteen struct {
	ID   int64
	Name string
}

// Lab is a hall whose seats order from exactly one canteen.
type Lab struct {
	ID        int64
	Name      string
	CanteenID int64
}

// Seat is a single seat inside a lab. SeatNumber is unique per lab.
type Seat struct {
	ID         int64
	LabID      int64
	SeatNumber string
}

// QRCode identifies a seat when scanned. There is one per seat.
type QRCode struct {
	ID       int64
	SeatID   int64
	QRID     string
	Image    string // archive path of the rendered PNG, empty until generated
	IsActive bool
}

// SeatLocation is a QR code resolved to its seat, lab and canteen.
type SeatLocation struct {
	QRCode  QRCode
	Seat    Seat
	Lab     Lab
	Canteen Canteen
}

// String renders the location the way order cards show it.
func (l SeatLocation) String() string {
	return fmt.Sprintf("%s - Seat %s", l.Lab.Name, l.Seat.SeatNumber)
}

// MenuItem is a deliverable item offered by a canteen. There is no pricing.
type MenuItem struct {
	ID          int64
	CanteenID   int64
	Name        string
	IsAvailable bool
	Options     []ItemOption
}

// ItemOption is a single selectable variation of a menu item (eg: No Sugar).
type ItemOption struct {
	ID         int64
	MenuItemID int64
	Name       string
}

// Order is a delivery order placed from a seat.
type Order struct {
	ID        string // uuid
	SeatID    int64
	ItemID    int64
	OptionID  *int64
	Status    Status
	CreatedAt time.Time

	// Denormalized for rendering; filled by the store on reads.
	ItemName   string
	OptionName string
	LabName    string
	SeatNumber string
}

// IsValid checks if the order has required fields
func (o Order) IsValid() bool {
	return o.SeatID > 0 && o.ItemID > 0 && o.Status.IsValid()
}

// Location returns the "Lab - Seat N" label for the order.
func (o Order) Location() string {
	return fmt.Sprintf("%s - Seat %s", o.LabName, o.SeatNumber)
}

// Stats holds the per-status order counts served to the dashboard.
type Stats struct {
	NewCount       int `json:"new_count"`
	DeliveredCount int `json:"delivered_count"`
}
