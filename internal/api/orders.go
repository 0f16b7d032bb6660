// internal/api/orders.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/newthinker/orderdesk/internal/api/middleware"
	"github.com/newthinker/orderdesk/internal/api/response"
	"github.com/newthinker/orderdesk/internal/core"
	"github.com/newthinker/orderdesk/internal/storage/order"
	"go.uber.org/zap"
)

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title     string
	CSRFToken string
	Stats     core.Stats
	Orders    []core.Order
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.deps.Store.Stats(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	orders, err := s.deps.Store.ListOrders(ctx, order.ListFilter{Status: core.StatusNew})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", DashboardData{
		Title:     "Dashboard",
		CSRFToken: middleware.EnsureToken(w, r, s.cfg.CSRFCookieSecure),
		Stats:     stats,
		Orders:    orders,
	})
}

// handleOrderList renders the order cards for ?status=, NEW when absent.
// An unknown status matches nothing and renders an empty list.
func (s *Server) handleOrderList(w http.ResponseWriter, r *http.Request) {
	var orders []core.Order

	raw := r.URL.Query().Get("status")
	if raw == "" {
		raw = string(core.StatusNew)
	}
	if status := core.Status(raw); status.IsValid() {
		var err error
		orders, err = s.deps.Store.ListOrders(r.Context(), order.ListFilter{Status: status})
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}

	if err := s.views.partial(w, "order_list", orders); err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) handleOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Store.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	response.Raw(w, http.StatusOK, stats)
}

func (s *Server) handleMarkDone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(w, http.StatusNotFound, core.WrapError(core.ErrOrderNotFound, err))
		return
	}

	o, err := s.deps.Store.MarkDelivered(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordOrderDelivered()
	}
	s.logger.Info("order delivered",
		zap.String("order_id", o.ID),
		zap.String("location", o.Location()))

	response.Raw(w, http.StatusOK, map[string]string{"status": "success"})
}
