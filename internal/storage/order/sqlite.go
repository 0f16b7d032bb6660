// internal/storage/order/sqlite.go
package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/orderdesk/internal/core"
	_ "modernc.org/sqlite"
)

// Fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction. The store has a single connection, so
// the transaction also serializes fn against other callers.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func exists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// EnsureCanteen returns the canteen named name, creating it if needed.
func (s *SQLiteStore) EnsureCanteen(ctx context.Context, name string) (core.Canteen, error) {
	c := core.Canteen{Name: name}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT id FROM canteens WHERE name = ? ORDER BY id LIMIT 1`, name).Scan(&c.ID)
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO canteens (name) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("insert canteen: %w", err)
		}
		c.ID, err = res.LastInsertId()
		return err
	})
	return c, err
}

// EnsureLab returns canteenID's lab named name, creating it if needed.
func (s *SQLiteStore) EnsureLab(ctx context.Context, canteenID int64, name string) (core.Lab, error) {
	l := core.Lab{Name: name, CanteenID: canteenID}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM canteens WHERE id = ?`, canteenID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrCanteenNotFound
		}
		err = tx.QueryRowContext(ctx, `SELECT id FROM labs WHERE canteen_id = ? AND name = ? ORDER BY id LIMIT 1`,
			canteenID, name).Scan(&l.ID)
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO labs (name, canteen_id) VALUES (?, ?)`, name, canteenID)
		if err != nil {
			return fmt.Errorf("insert lab: %w", err)
		}
		l.ID, err = res.LastInsertId()
		return err
	})
	return l, err
}

// EnsureSeat returns the seat with seatNumber in labID, creating it if needed.
func (s *SQLiteStore) EnsureSeat(ctx context.Context, labID int64, seatNumber string) (core.Seat, error) {
	seat := core.Seat{LabID: labID, SeatNumber: seatNumber}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM labs WHERE id = ?`, labID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrLabNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO seats (lab_id, seat_number) VALUES (?, ?) ON CONFLICT(lab_id, seat_number) DO NOTHING`,
			labID, seatNumber); err != nil {
			return fmt.Errorf("insert seat: %w", err)
		}
		return tx.QueryRowContext(ctx, `SELECT id FROM seats WHERE lab_id = ? AND seat_number = ?`,
			labID, seatNumber).Scan(&seat.ID)
	})
	return seat, err
}

// EnsureQRCode returns the seat's QR code, creating it if needed.
func (s *SQLiteStore) EnsureQRCode(ctx context.Context, seatID int64) (core.QRCode, error) {
	var q core.QRCode
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM seats WHERE id = ?`, seatID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrSeatNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO qr_codes (seat_id, qr_id) VALUES (?, ?) ON CONFLICT(seat_id) DO NOTHING`,
			seatID, uuid.NewString()); err != nil {
			return fmt.Errorf("insert qr code: %w", err)
		}
		var active int
		err = tx.QueryRowContext(ctx,
			`SELECT id, seat_id, qr_id, qr_image, is_active FROM qr_codes WHERE seat_id = ?`, seatID).
			Scan(&q.ID, &q.SeatID, &q.QRID, &q.Image, &active)
		q.IsActive = active != 0
		return err
	})
	return q, err
}

// EnsureMenuItem returns the canteen's item named name, creating it if
// needed. Availability is updated to match.
func (s *SQLiteStore) EnsureMenuItem(ctx context.Context, canteenID int64, name string, available bool) (core.MenuItem, error) {
	it := core.MenuItem{CanteenID: canteenID, Name: name, IsAvailable: available}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM canteens WHERE id = ?`, canteenID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrCanteenNotFound
		}
		err = tx.QueryRowContext(ctx, `SELECT id FROM menu_items WHERE canteen_id = ? AND name = ? ORDER BY id LIMIT 1`,
			canteenID, name).Scan(&it.ID)
		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx, `UPDATE menu_items SET is_available = ? WHERE id = ?`, boolInt(available), it.ID)
			return err
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO menu_items (canteen_id, name, is_available) VALUES (?, ?, ?)`,
			canteenID, name, boolInt(available))
		if err != nil {
			return fmt.Errorf("insert menu item: %w", err)
		}
		it.ID, err = res.LastInsertId()
		return err
	})
	return it, err
}

// EnsureItemOption returns the item's option named name, creating it if needed.
func (s *SQLiteStore) EnsureItemOption(ctx context.Context, menuItemID int64, name string) (core.ItemOption, error) {
	o := core.ItemOption{MenuItemID: menuItemID, Name: name}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM menu_items WHERE id = ?`, menuItemID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrMenuItemNotFound
		}
		err = tx.QueryRowContext(ctx, `SELECT id FROM item_options WHERE menu_item_id = ? AND name = ? ORDER BY id LIMIT 1`,
			menuItemID, name).Scan(&o.ID)
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO item_options (menu_item_id, name) VALUES (?, ?)`, menuItemID, name)
		if err != nil {
			return fmt.Errorf("insert item option: %w", err)
		}
		o.ID, err = res.LastInsertId()
		return err
	})
	return o, err
}

const locationSelect = `SELECT q.id, q.seat_id, q.qr_id, q.qr_image, q.is_active,
       s.id, s.lab_id, s.seat_number,
       l.id, l.name, l.canteen_id,
       c.id, c.name
FROM qr_codes q
JOIN seats s ON s.id = q.seat_id
JOIN labs l ON l.id = s.lab_id
JOIN canteens c ON c.id = l.canteen_id`

func scanLocation(row interface{ Scan(...any) error }) (core.SeatLocation, error) {
	var loc core.SeatLocation
	var active int
	err := row.Scan(&loc.QRCode.ID, &loc.QRCode.SeatID, &loc.QRCode.QRID, &loc.QRCode.Image, &active,
		&loc.Seat.ID, &loc.Seat.LabID, &loc.Seat.SeatNumber,
		&loc.Lab.ID, &loc.Lab.Name, &loc.Lab.CanteenID,
		&loc.Canteen.ID, &loc.Canteen.Name)
	loc.QRCode.IsActive = active != 0
	return loc, err
}

// ResolveQRCode looks up an active QR code.
func (s *SQLiteStore) ResolveQRCode(ctx context.Context, qrID string) (*core.SeatLocation, error) {
	row := s.db.QueryRowContext(ctx, locationSelect+` WHERE q.qr_id = ? AND q.is_active = 1`, qrID)
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrQRCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve qr code: %w", err)
	}
	return &loc, nil
}

// ListQRCodes returns QR codes ordered by lab name and seat number.
func (s *SQLiteStore) ListQRCodes(ctx context.Context, activeOnly bool) ([]core.SeatLocation, error) {
	query := locationSelect
	if activeOnly {
		query += ` WHERE q.is_active = 1`
	}
	query += ` ORDER BY l.name, s.seat_number`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	defer rows.Close()

	var result []core.SeatLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, loc)
	}
	return result, rows.Err()
}

// SetQRCodeImage records the image path of a QR code.
func (s *SQLiteStore) SetQRCodeImage(ctx context.Context, qrID, path string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE qr_codes SET qr_image = ? WHERE qr_id = ?`, path, qrID)
	if err != nil {
		return fmt.Errorf("update qr image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrQRCodeNotFound
	}
	return nil
}

// ListMenu returns the canteen's items ordered by id, options included.
func (s *SQLiteStore) ListMenu(ctx context.Context, canteenID int64, availableOnly bool) ([]core.MenuItem, error) {
	query := `SELECT id, canteen_id, name, is_available FROM menu_items WHERE canteen_id = ?`
	if availableOnly {
		query += ` AND is_available = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, canteenID)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	var items []core.MenuItem
	index := make(map[int64]int)
	for rows.Next() {
		var it core.MenuItem
		var available int
		if err := rows.Scan(&it.ID, &it.CanteenID, &it.Name, &available); err != nil {
			rows.Close()
			return nil, err
		}
		it.IsAvailable = available != 0
		index[it.ID] = len(items)
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orows, err := s.db.QueryContext(ctx, `SELECT o.id, o.menu_item_id, o.name
FROM item_options o JOIN menu_items m ON m.id = o.menu_item_id
WHERE m.canteen_id = ? ORDER BY o.id`, canteenID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer orows.Close()
	for orows.Next() {
		var o core.ItemOption
		if err := orows.Scan(&o.ID, &o.MenuItemID, &o.Name); err != nil {
			return nil, err
		}
		if i, ok := index[o.MenuItemID]; ok {
			items[i].Options = append(items[i].Options, o)
		}
	}
	return items, orows.Err()
}

// PlaceOrder creates a NEW order.
func (s *SQLiteStore) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*core.Order, error) {
	id := uuid.NewString()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM seats WHERE id = ?`, req.SeatID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrSeatNotFound
		}
		ok, err = exists(ctx, tx, `SELECT COUNT(*) FROM menu_items WHERE id = ?`, req.ItemID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrMenuItemNotFound
		}

		var option sql.NullInt64
		if req.OptionID != nil {
			var owner int64
			err := tx.QueryRowContext(ctx, `SELECT menu_item_id FROM item_options WHERE id = ?`, *req.OptionID).Scan(&owner)
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrItemOptionNotFound
			}
			if err != nil {
				return err
			}
			if owner != req.ItemID {
				return core.ErrInvalidOption
			}
			option = sql.NullInt64{Int64: *req.OptionID, Valid: true}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO orders (order_id, seat_id, item_id, option_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, req.SeatID, req.ItemID, option, string(core.StatusNew), s.now().UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

const orderSelect = `SELECT o.order_id, o.seat_id, o.item_id, o.option_id, o.status, o.created_at,
       m.name, COALESCE(io.name, ''), l.name, s.seat_number
FROM orders o
JOIN menu_items m ON m.id = o.item_id
JOIN seats s ON s.id = o.seat_id
JOIN labs l ON l.id = s.lab_id
LEFT JOIN item_options io ON io.id = o.option_id`

func scanOrder(row interface{ Scan(...any) error }) (*core.Order, error) {
	var o core.Order
	var option sql.NullInt64
	var status, created string
	err := row.Scan(&o.ID, &o.SeatID, &o.ItemID, &option, &status, &created,
		&o.ItemName, &o.OptionName, &o.LabName, &o.SeatNumber)
	if err != nil {
		return nil, err
	}
	if option.Valid {
		o.OptionID = &option.Int64
	}
	o.Status = core.Status(status)
	if t, err := time.Parse(timeLayout, created); err == nil {
		o.CreatedAt = t
	}
	return &o, nil
}

// GetOrder retrieves an order by id.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*core.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, orderSelect+` WHERE o.order_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListOrders returns matching orders, newest first.
func (s *SQLiteStore) ListOrders(ctx context.Context, filter ListFilter) ([]core.Order, error) {
	query := orderSelect
	var args []any
	if filter.Status != "" {
		query += ` WHERE o.status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var result []core.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

// MarkDelivered sets an order's status to DELIVERED.
func (s *SQLiteStore) MarkDelivered(ctx context.Context, id string) (*core.Order, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE order_id = ?`, string(core.StatusDelivered), id)
	if err != nil {
		return nil, fmt.Errorf("mark delivered: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, core.ErrOrderNotFound
	}
	return s.GetOrder(ctx, id)
}

// Stats counts orders per status.
func (s *SQLiteStore) Stats(ctx context.Context) (core.Stats, error) {
	var st core.Stats
	err := s.db.QueryRowContext(ctx, `SELECT
    COALESCE(SUM(CASE WHEN status = 'NEW' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = 'DELIVERED' THEN 1 ELSE 0 END), 0)
FROM orders`).Scan(&st.NewCount, &st.DeliveredCount)
	if err != nil {
		return core.Stats{}, fmt.Errorf("order stats: %w", err)
	}
	return st, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
