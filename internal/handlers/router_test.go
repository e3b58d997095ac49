package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lantern-eats/api/internal/services"
)

func TestRouterHealthz(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("unexpected liveness payload: %v", payload)
	}
}

func TestRouterReadyzReportsFailingCheck(t *testing.T) {
	health := NewHealthHandlers()
	health.AddCheck("firestore", func(context.Context) error { return errors.New("deadline exceeded") })
	router := NewRouter(WithHealthHandlers(health))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "degraded" || payload.Checks["firestore"] != "deadline exceeded" {
		t.Fatalf("unexpected readiness payload: %+v", payload)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "route_not_found")
}

func TestRouterUnconfiguredGroup(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/order-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "not_implemented")
}

func TestDashboardStats(t *testing.T) {
	stub := &stubDashboardService{stats: services.DashboardStats{
		TodayOrderCount: 3,
		TodayRevenue:    6500,
		TotalDishes:     12,
		TotalUsers:      40,
		RevenueSeries:   []services.RevenuePoint{{Day: "06-09", Revenue: 2000}, {Day: "06-10", Revenue: 4500}},
		TopDishes:       []services.TopDish{{DishID: "dish-1", Name: "Dan Dan Noodles", Quantity: 5}},
	}}
	h := NewDashboardHandlers(stub, identityMiddleware(merchantIdentity))
	router := NewRouter(WithDashboardRoutes(h.Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload dashboardStatsPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.TodayOrderCount != 3 || payload.TodayRevenue != 6500 {
		t.Fatalf("unexpected stats: %+v", payload)
	}
	if len(payload.RevenueSeries) != 2 || payload.RevenueSeries[1].Day != "06-10" {
		t.Fatalf("unexpected revenue series: %+v", payload.RevenueSeries)
	}
	if len(payload.TopDishes) != 1 || payload.TopDishes[0].Quantity != 5 {
		t.Fatalf("unexpected top dishes: %+v", payload.TopDishes)
	}
}

func TestDashboardStatsForbidden(t *testing.T) {
	h := NewDashboardHandlers(&stubDashboardService{err: services.ErrForbidden}, identityMiddleware(customerIdentity))
	router := NewRouter(WithDashboardRoutes(h.Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "forbidden")
}
