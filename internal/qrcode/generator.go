// Package qrcode renders seat QR codes into archive storage.
package qrcode

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/orderdesk/internal/core"
	"github.com/newthinker/orderdesk/internal/storage/archive"
	"github.com/newthinker/orderdesk/internal/storage/order"
	goqrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// Dir is the archive directory QR images are written to.
const Dir = "qr_codes"

// Generator encodes each seat's scan URL as a PNG and records where it
// was stored.
type Generator struct {
	store   order.Store
	storage archive.Storage
	baseURL string
	size    int
	logger  *zap.Logger
}

// NewGenerator creates a generator whose codes point at baseURL.
func NewGenerator(store order.Store, storage archive.Storage, baseURL string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		store:   store,
		storage: storage,
		baseURL: strings.TrimRight(baseURL, "/"),
		size:    DefaultSize,
		logger:  logger,
	}
}

// ScanURL is the address a seat's QR code encodes.
func (g *Generator) ScanURL(qrID string) string {
	return fmt.Sprintf("%s/scan/%s", g.baseURL, qrID)
}

// ImagePath names the archive file for a seat, eg "qr_codes/Lab 3_12.png".
func ImagePath(loc core.SeatLocation) string {
	clean := strings.NewReplacer("/", "-", "\\", "-")
	return fmt.Sprintf("%s/%s_%s.png", Dir,
		clean.Replace(loc.Lab.Name), clean.Replace(loc.Seat.SeatNumber))
}

// Render returns the PNG for a QR id without storing it.
func (g *Generator) Render(qrID string) ([]byte, error) {
	png, err := goqrcode.Encode(g.ScanURL(qrID), goqrcode.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("encoding qr %s: %w", qrID, err)
	}
	return png, nil
}

// Generate renders loc's code, writes it to storage and records the path.
func (g *Generator) Generate(ctx context.Context, loc core.SeatLocation) (string, error) {
	png, err := g.Render(loc.QRCode.QRID)
	if err != nil {
		return "", err
	}

	path := ImagePath(loc)
	if err := g.storage.Write(ctx, path, png); err != nil {
		return "", fmt.Errorf("storing %s: %w", path, err)
	}
	if err := g.store.SetQRCodeImage(ctx, loc.QRCode.QRID, path); err != nil {
		return "", fmt.Errorf("recording %s: %w", path, err)
	}

	g.logger.Debug("qr code generated",
		zap.String("qr_id", loc.QRCode.QRID),
		zap.String("seat", loc.String()),
		zap.String("path", path))
	return path, nil
}

// GenerateAll renders every active code. It stops at the first failure and
// returns how many were written before it.
func (g *Generator) GenerateAll(ctx context.Context) (int, error) {
	codes, err := g.store.ListQRCodes(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("listing qr codes: %w", err)
	}

	for i, loc := range codes {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := g.Generate(ctx, loc); err != nil {
			return i, err
		}
	}
	g.logger.Info("qr codes generated", zap.Int("count", len(codes)))
	return len(codes), nil
}
