// internal/storage/order/memory.go
package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/orderdesk/internal/core"
)

// MemoryStore is an in-memory Store, used by tests and the memory driver.
type MemoryStore struct {
	mu sync.RWMutex

	canteens map[int64]core.Canteen
	labs     map[int64]core.Lab
	seats    map[int64]core.Seat
	qrcodes  map[string]core.QRCode // by qr_id
	items    map[int64]core.MenuItem
	options  map[int64]core.ItemOption
	orders   []core.Order // insertion order

	nextID int64
	now    func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		canteens: make(map[int64]core.Canteen),
		labs:     make(map[int64]core.Lab),
		seats:    make(map[int64]core.Seat),
		qrcodes:  make(map[string]core.QRCode),
		items:    make(map[int64]core.MenuItem),
		options:  make(map[int64]core.ItemOption),
		now:      time.Now,
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

// EnsureCanteen returns the canteen named name, creating it if needed.
func (m *MemoryStore) EnsureCanteen(ctx context.Context, name string) (core.Canteen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.canteens {
		if c.Name == name {
			return c, nil
		}
	}
	c := core.Canteen{ID: m.id(), Name: name}
	m.canteens[c.ID] = c
	return c, nil
}

// EnsureLab returns canteenID's lab named name, creating it if needed.
func (m *MemoryStore) EnsureLab(ctx context.Context, canteenID int64, name string) (core.Lab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.canteens[canteenID]; !ok {
		return core.Lab{}, core.ErrCanteenNotFound
	}
	for _, l := range m.labs {
		if l.CanteenID == canteenID && l.Name == name {
			return l, nil
		}
	}
	l := core.Lab{ID: m.id(), Name: name, CanteenID: canteenID}
	m.labs[l.ID] = l
	return l, nil
}

// EnsureSeat returns the seat with seatNumber in labID, creating it if needed.
func (m *MemoryStore) EnsureSeat(ctx context.Context, labID int64, seatNumber string) (core.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.labs[labID]; !ok {
		return core.Seat{}, core.ErrLabNotFound
	}
	for _, s := range m.seats {
		if s.LabID == labID && s.SeatNumber == seatNumber {
			return s, nil
		}
	}
	s := core.Seat{ID: m.id(), LabID: labID, SeatNumber: seatNumber}
	m.seats[s.ID] = s
	return s, nil
}

// EnsureQRCode returns the seat's QR code, creating it if needed.
func (m *MemoryStore) EnsureQRCode(ctx context.Context, seatID int64) (core.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seats[seatID]; !ok {
		return core.QRCode{}, core.ErrSeatNotFound
	}
	for _, q := range m.qrcodes {
		if q.SeatID == seatID {
			return q, nil
		}
	}
	q := core.QRCode{ID: m.id(), SeatID: seatID, QRID: uuid.NewString(), IsActive: true}
	m.qrcodes[q.QRID] = q
	return q, nil
}

// EnsureMenuItem returns the canteen's item named name, creating it if
// needed. Availability is updated to match.
func (m *MemoryStore) EnsureMenuItem(ctx context.Context, canteenID int64, name string, available bool) (core.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.canteens[canteenID]; !ok {
		return core.MenuItem{}, core.ErrCanteenNotFound
	}
	for id, it := range m.items {
		if it.CanteenID == canteenID && it.Name == name {
			it.IsAvailable = available
			m.items[id] = it
			return it, nil
		}
	}
	it := core.MenuItem{ID: m.id(), CanteenID: canteenID, Name: name, IsAvailable: available}
	m.items[it.ID] = it
	return it, nil
}

// EnsureItemOption returns the item's option named name, creating it if needed.
func (m *MemoryStore) EnsureItemOption(ctx context.Context, menuItemID int64, name string) (core.ItemOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[menuItemID]; !ok {
		return core.ItemOption{}, core.ErrMenuItemNotFound
	}
	for _, o := range m.options {
		if o.MenuItemID == menuItemID && o.Name == name {
			return o, nil
		}
	}
	o := core.ItemOption{ID: m.id(), MenuItemID: menuItemID, Name: name}
	m.options[o.ID] = o
	return o, nil
}

// ResolveQRCode looks up an active QR code.
func (m *MemoryStore) ResolveQRCode(ctx context.Context, qrID string) (*core.SeatLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.qrcodes[qrID]
	if !ok || !q.IsActive {
		return nil, core.ErrQRCodeNotFound
	}
	loc := m.locate(q)
	return &loc, nil
}

// ListQRCodes returns QR codes ordered by lab name and seat number.
func (m *MemoryStore) ListQRCodes(ctx context.Context, activeOnly bool) ([]core.SeatLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]core.SeatLocation, 0, len(m.qrcodes))
	for _, q := range m.qrcodes {
		if activeOnly && !q.IsActive {
			continue
		}
		result = append(result, m.locate(q))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Lab.Name != result[j].Lab.Name {
			return result[i].Lab.Name < result[j].Lab.Name
		}
		return result[i].Seat.SeatNumber < result[j].Seat.SeatNumber
	})
	return result, nil
}

func (m *MemoryStore) locate(q core.QRCode) core.SeatLocation {
	seat := m.seats[q.SeatID]
	lab := m.labs[seat.LabID]
	return core.SeatLocation{QRCode: q, Seat: seat, Lab: lab, Canteen: m.canteens[lab.CanteenID]}
}

// SetQRCodeImage records the image path of a QR code.
func (m *MemoryStore) SetQRCodeImage(ctx context.Context, qrID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.qrcodes[qrID]
	if !ok {
		return core.ErrQRCodeNotFound
	}
	q.Image = path
	m.qrcodes[qrID] = q
	return nil
}

// ListMenu returns the canteen's items ordered by id, options included.
func (m *MemoryStore) ListMenu(ctx context.Context, canteenID int64, availableOnly bool) ([]core.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.MenuItem
	for _, it := range m.items {
		if it.CanteenID != canteenID || (availableOnly && !it.IsAvailable) {
			continue
		}
		it.Options = m.optionsOf(it.ID)
		result = append(result, it)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryStore) optionsOf(itemID int64) []core.ItemOption {
	var opts []core.ItemOption
	for _, o := range m.options {
		if o.MenuItemID == itemID {
			opts = append(opts, o)
		}
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].ID < opts[j].ID })
	return opts
}

// PlaceOrder creates a NEW order.
func (m *MemoryStore) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*core.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seats[req.SeatID]; !ok {
		return nil, core.ErrSeatNotFound
	}
	if _, ok := m.items[req.ItemID]; !ok {
		return nil, core.ErrMenuItemNotFound
	}
	if req.OptionID != nil {
		opt, ok := m.options[*req.OptionID]
		if !ok {
			return nil, core.ErrItemOptionNotFound
		}
		if opt.MenuItemID != req.ItemID {
			return nil, core.ErrInvalidOption
		}
	}

	o := core.Order{
		ID:        uuid.NewString(),
		SeatID:    req.SeatID,
		ItemID:    req.ItemID,
		OptionID:  req.OptionID,
		Status:    core.StatusNew,
		CreatedAt: m.now(),
	}
	m.orders = append(m.orders, o)
	o = m.denormalize(o)
	return &o, nil
}

// GetOrder retrieves an order by id.
func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*core.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.orders {
		if m.orders[i].ID == id {
			o := m.denormalize(m.orders[i])
			return &o, nil
		}
	}
	return nil, core.ErrOrderNotFound
}

// ListOrders returns matching orders, newest first.
func (m *MemoryStore) ListOrders(ctx context.Context, filter ListFilter) ([]core.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		o := m.orders[i]
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		result = append(result, m.denormalize(o))
	}
	// Stable so equal timestamps keep insertion order, newest first.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// MarkDelivered sets an order's status to DELIVERED.
func (m *MemoryStore) MarkDelivered(ctx context.Context, id string) (*core.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = core.StatusDelivered
			o := m.denormalize(m.orders[i])
			return &o, nil
		}
	}
	return nil, core.ErrOrderNotFound
}

// Stats counts orders per status.
func (m *MemoryStore) Stats(ctx context.Context) (core.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s core.Stats
	for _, o := range m.orders {
		switch o.Status {
		case core.StatusNew:
			s.NewCount++
		case core.StatusDelivered:
			s.DeliveredCount++
		}
	}
	return s, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) denormalize(o core.Order) core.Order {
	o.ItemName = m.items[o.ItemID].Name
	if o.OptionID != nil {
		o.OptionName = m.options[*o.OptionID].Name
	}
	seat := m.seats[o.SeatID]
	o.SeatNumber = seat.SeatNumber
	o.LabName = m.labs[seat.LabID].Name
	return o
}
