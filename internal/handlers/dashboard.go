package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lantern-eats/api/internal/platform/httpx"
	"github.com/lantern-eats/api/internal/services"
)

// DashboardHandlers serves aggregate statistics for staff dashboards.
type DashboardHandlers struct {
	dashboard    services.DashboardService
	requireStaff []func(http.Handler) http.Handler
}

// NewDashboardHandlers constructs the dashboard handlers.
func NewDashboardHandlers(dashboard services.DashboardService, requireStaff ...func(http.Handler) http.Handler) *DashboardHandlers {
	return &DashboardHandlers{dashboard: dashboard, requireStaff: requireStaff}
}

// Routes registers the /dashboard endpoints.
func (h *DashboardHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	for _, mw := range h.requireStaff {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Get("/stats", h.stats)
}

type dashboardStatsPayload struct {
	TodayOrderCount int                   `json:"todayOrderCount"`
	TodayRevenue    int64                 `json:"todayRevenue"`
	TotalDishes     int64                 `json:"totalDishes"`
	TotalUsers      int64                 `json:"totalUsers"`
	RevenueSeries   []revenuePointPayload `json:"revenueSeries"`
	TopDishes       []topDishPayload      `json:"topDishes"`
}

type revenuePointPayload struct {
	Day     string `json:"day"`
	Revenue int64  `json:"revenue"`
}

type topDishPayload struct {
	DishID   string `json:"dishId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func (h *DashboardHandlers) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.dashboard == nil {
		httpx.WriteError(ctx, w, httpx.NewError("dashboard_service_unavailable", "dashboard service unavailable", http.StatusServiceUnavailable))
		return
	}

	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	stats, err := h.dashboard.Stats(ctx, actor)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			httpx.WriteError(ctx, w, httpx.NewError("forbidden", "insufficient role", http.StatusForbidden))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("dashboard_error", "failed to compute dashboard statistics", http.StatusInternalServerError))
		return
	}

	payload := dashboardStatsPayload{
		TodayOrderCount: stats.TodayOrderCount,
		TodayRevenue:    stats.TodayRevenue,
		TotalDishes:     stats.TotalDishes,
		TotalUsers:      stats.TotalUsers,
		RevenueSeries:   make([]revenuePointPayload, 0, len(stats.RevenueSeries)),
		TopDishes:       make([]topDishPayload, 0, len(stats.TopDishes)),
	}
	for _, point := range stats.RevenueSeries {
		payload.RevenueSeries = append(payload.RevenueSeries, revenuePointPayload{Day: point.Day, Revenue: point.Revenue})
	}
	for _, dish := range stats.TopDishes {
		payload.TopDishes = append(payload.TopDishes, topDishPayload{DishID: dish.DishID, Name: dish.Name, Quantity: dish.Quantity})
	}

	writeJSONResponse(w, http.StatusOK, payload)
}
