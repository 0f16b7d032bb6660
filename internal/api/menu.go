// internal/api/menu.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/newthinker/orderdesk/internal/api/middleware"
	"github.com/newthinker/orderdesk/internal/api/response"
	"github.com/newthinker/orderdesk/internal/core"
	"github.com/newthinker/orderdesk/internal/storage/order"
	"go.uber.org/zap"
)

// Messages returned as plain text by place_order.
const (
	MsgSelectItem    = "Please select an item"
	MsgInvalidOption = "Invalid option for selected item"
)

// MenuData holds data for the menu template
type MenuData struct {
	Title         string
	QRID          string
	CSRFToken     string
	Canteen       core.Canteen
	Location      string
	Items         []core.MenuItem
	MenuItemsJSON template.JS
}

// OrderSuccessData holds data for the order success template
type OrderSuccessData struct {
	Title    string
	QRID     string
	Location string
	Order    *core.Order
}

// menuEntry is the JSON shape of one menu item as embedded in the page.
type menuEntry struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Image          string          `json:"image"`
	Customizations []customization `json:"customizations"`
}

type customization struct {
	ID      string        `json:"id"`
	Label   string        `json:"label"`
	Options []optionEntry `json:"options"`
}

type optionEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func placeholderImage(name string) string {
	return "https://placehold.co/400x300?text=" + template.URLQueryEscaper(name)
}

// menuJSON serializes items the way the seat front end reads them. Items
// with options carry a single "Options" group.
func menuJSON(items []core.MenuItem) (template.JS, error) {
	entries := make([]menuEntry, 0, len(items))
	for _, item := range items {
		e := menuEntry{
			ID:             item.ID,
			Name:           item.Name,
			Image:          placeholderImage(item.Name),
			Customizations: []customization{},
		}
		if len(item.Options) > 0 {
			c := customization{ID: "main_option", Label: "Options"}
			for _, opt := range item.Options {
				c.Options = append(c.Options, optionEntry{ID: opt.ID, Name: opt.Name})
			}
			e.Customizations = append(e.Customizations, c)
		}
		entries = append(entries, e)
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	qrID := chi.URLParam(r, "qrID")

	loc, err := s.deps.Store.ResolveQRCode(ctx, qrID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	items, err := s.deps.Store.ListMenu(ctx, loc.Canteen.ID, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	js, err := menuJSON(items)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "menu.html", MenuData{
		Title:         loc.Canteen.Name,
		QRID:          qrID,
		CSRFToken:     middleware.EnsureToken(w, r, s.cfg.CSRFCookieSecure),
		Canteen:       loc.Canteen,
		Location:      loc.String(),
		Items:         items,
		MenuItemsJSON: js,
	})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	qrID := chi.URLParam(r, "qrID")

	loc, err := s.deps.Store.ResolveQRCode(ctx, qrID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rawItem := r.PostFormValue("item_id")
	if rawItem == "" {
		response.Text(w, http.StatusBadRequest, MsgSelectItem)
		return
	}
	itemID, err := strconv.ParseInt(rawItem, 10, 64)
	if err != nil {
		response.Error(w, http.StatusNotFound, core.WrapError(core.ErrMenuItemNotFound, err))
		return
	}

	req := order.PlaceOrderRequest{SeatID: loc.Seat.ID, ItemID: itemID}
	if rawOpt := r.PostFormValue(fmt.Sprintf("option_%s", rawItem)); rawOpt != "" {
		optID, err := strconv.ParseInt(rawOpt, 10, 64)
		if err != nil {
			response.Error(w, http.StatusNotFound, core.WrapError(core.ErrItemOptionNotFound, err))
			return
		}
		req.OptionID = &optID
	}

	o, err := s.deps.Store.PlaceOrder(ctx, req)
	if errors.Is(err, core.ErrInvalidOption) {
		response.Text(w, http.StatusBadRequest, MsgInvalidOption)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordOrderPlaced()
	}
	s.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("item", o.ItemName),
		zap.String("location", o.Location()))
	if s.deps.Router != nil {
		s.deps.Router.Route(context.WithoutCancel(ctx), *o)
	}

	s.render(w, r, http.StatusOK, "order_success.html", OrderSuccessData{
		Title:    "Order placed",
		QRID:     qrID,
		Location: loc.String(),
		Order:    o,
	})
}

// handleMedia serves rendered files, eg QR images, out of archive storage.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + chi.URLParam(r, "*"))[1:]
	if p == "" {
		http.NotFound(w, r)
		return
	}

	data, err := s.deps.Media.Read(r.Context(), p)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Write(data)
}
