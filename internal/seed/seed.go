// Package seed loads canteen, seating and menu fixtures into an order store.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/newthinker/orderdesk/internal/core"
	"github.com/newthinker/orderdesk/internal/storage/order"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Fixture is the top-level seed file.
type Fixture struct {
	Canteens []Canteen `yaml:"canteens"`
}

// Canteen lists the labs served by a canteen and its menu.
type Canteen struct {
	Name string `yaml:"name"`
	Labs []Lab  `yaml:"labs"`
	Menu []Item `yaml:"menu"`
}

// Lab names its seats either explicitly or by count ("1".."N").
type Lab struct {
	Name      string   `yaml:"name"`
	Seats     []string `yaml:"seats"`
	SeatCount int      `yaml:"seat_count"`
}

// Item is a menu item. Available defaults to true.
type Item struct {
	Name      string   `yaml:"name"`
	Available *bool    `yaml:"available"`
	Options   []string `yaml:"options"`
}

// SeatNumbers returns the lab's seat numbers, explicit ones first.
func (l Lab) SeatNumbers() []string {
	seats := append([]string(nil), l.Seats...)
	for i := 1; i <= l.SeatCount; i++ {
		seats = append(seats, strconv.Itoa(i))
	}
	return seats
}

// IsAvailable reports the item's availability flag.
func (i Item) IsAvailable() bool {
	return i.Available == nil || *i.Available
}

// Load reads and parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture, rejecting unknown keys, and validates it.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("decoding seed file: %w", err))
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks names are present and seat counts are sane.
func (f *Fixture) Validate() error {
	for ci, c := range f.Canteens {
		if c.Name == "" {
			return invalid("canteens[%d]: name required", ci)
		}
		for li, l := range c.Labs {
			if l.Name == "" {
				return invalid("%s labs[%d]: name required", c.Name, li)
			}
			if l.SeatCount < 0 {
				return invalid("%s/%s: seat_count cannot be negative", c.Name, l.Name)
			}
			for _, s := range l.Seats {
				if s == "" {
					return invalid("%s/%s: empty seat number", c.Name, l.Name)
				}
			}
		}
		for ii, it := range c.Menu {
			if it.Name == "" {
				return invalid("%s menu[%d]: name required", c.Name, ii)
			}
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
}

// Result counts the records a seed run touched, created or existing.
type Result struct {
	Canteens  int
	Labs      int
	Seats     int
	QRCodes   int
	MenuItems int
	Options   int
}

// Apply creates everything in f that the store does not already hold.
// Records are matched by name, so applying the same fixture twice is a
// no-op. Every seat gets an active QR code.
func Apply(ctx context.Context, store order.Store, f *Fixture, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result

	for _, c := range f.Canteens {
		canteen, err := store.EnsureCanteen(ctx, c.Name)
		if err != nil {
			return res, fmt.Errorf("canteen %s: %w", c.Name, err)
		}
		res.Canteens++

		for _, l := range c.Labs {
			lab, err := store.EnsureLab(ctx, canteen.ID, l.Name)
			if err != nil {
				return res, fmt.Errorf("lab %s: %w", l.Name, err)
			}
			res.Labs++

			for _, number := range l.SeatNumbers() {
				seat, err := store.EnsureSeat(ctx, lab.ID, number)
				if err != nil {
					return res, fmt.Errorf("seat %s/%s: %w", l.Name, number, err)
				}
				res.Seats++

				if _, err := store.EnsureQRCode(ctx, seat.ID); err != nil {
					return res, fmt.Errorf("qr code %s/%s: %w", l.Name, number, err)
				}
				res.QRCodes++
			}
		}

		for _, it := range c.Menu {
			item, err := store.EnsureMenuItem(ctx, canteen.ID, it.Name, it.IsAvailable())
			if err != nil {
				return res, fmt.Errorf("menu item %s: %w", it.Name, err)
			}
			res.MenuItems++

			for _, opt := range it.Options {
				if _, err := store.EnsureItemOption(ctx, item.ID, opt); err != nil {
					return res, fmt.Errorf("option %s/%s: %w", it.Name, opt, err)
				}
				res.Options++
			}
		}

		logger.Info("canteen seeded",
			zap.String("canteen", c.Name),
			zap.Int("labs", len(c.Labs)),
			zap.Int("menu_items", len(c.Menu)))
	}

	return res, nil
}
